package server

import (
	"context"
	"net/http"

	challengedomain "github.com/arenaworks/prizepay/internal/challenge/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleChallengeEvent ingests one challenge notification. Validation runs
// inline so the sender gets a 400 for malformed events; reconciliation then
// continues in the background because it may wait on the processing slot.
func (s *Server) HandleChallengeEvent(c *gin.Context) {
	var msg challengedomain.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json payload"})
		return
	}
	if err := msg.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	go func() {
		if err := s.processor.Process(ctx, &msg); err != nil {
			s.log.Error("challenge event processing failed",
				zap.String("challenge_id", msg.Payload.ID),
				zap.Error(err),
			)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"status":      "accepted",
		"challengeId": msg.Payload.ID,
	})
}
