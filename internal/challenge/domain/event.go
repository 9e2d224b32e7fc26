package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidEvent = errors.New("invalid challenge event")

// Prize set and winner type tags carried on the wire.
const (
	PrizeSetPlacement  = "placement"
	PrizeSetCheckpoint = "checkpoint"
	PrizeSetCopilot    = "copilot"

	WinnerTypePlacement  = "placement"
	WinnerTypeCheckpoint = "checkpoint"

	StatusCompleted = "completed"
)

// Message is one challenge notification as delivered by the upstream stream.
// Unknown fields are ignored by decoding.
type Message struct {
	Topic      string         `json:"topic"`
	Originator string         `json:"originator"`
	Timestamp  time.Time      `json:"timestamp"`
	MimeType   string         `json:"mime-type"`
	Payload    ChallengeEvent `json:"payload"`
}

// ChallengeEvent is the payload of a challenge notification.
type ChallengeEvent struct {
	ID        string     `json:"id"`
	LegacyID  *int64     `json:"legacyId,omitempty"`
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Status    string     `json:"status"`
	CreatedBy string     `json:"createdBy"`
	PrizeSets []PrizeSet `json:"prizeSets"`
	Winners   []Winner   `json:"winners"`
}

// PrizeSet groups the monetary prizes for one payment role.
type PrizeSet struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Prizes      []Prize `json:"prizes"`
}

type Prize struct {
	Value decimal.Decimal `json:"value"`
}

// Winner is a member holding a placement rank, optionally tagged as a
// checkpoint-stage winner. Legacy events predate the Type field.
type Winner struct {
	UserID    int64  `json:"userId"`
	Handle    string `json:"handle"`
	Placement int    `json:"placement"`
	Type      string `json:"type,omitempty"`
}

// Validate enforces the structural contract of an inbound message. It has no
// side effects; a validation failure is terminal for the event.
func (m *Message) Validate() error {
	if m == nil {
		return ErrInvalidEvent
	}
	if m.Topic == "" {
		return invalid("topic is required")
	}
	if m.Originator == "" {
		return invalid("originator is required")
	}
	if m.Timestamp.IsZero() {
		return invalid("timestamp is required")
	}
	if m.MimeType == "" {
		return invalid("mime-type is required")
	}
	return m.Payload.Validate()
}

func (e *ChallengeEvent) Validate() error {
	if e == nil {
		return ErrInvalidEvent
	}
	if e.ID == "" {
		return invalid("payload.id is required")
	}
	if e.LegacyID != nil && *e.LegacyID <= 0 {
		return invalid("payload.legacyId must be positive")
	}
	if e.Name == "" {
		return invalid("payload.name is required")
	}
	if e.Type == "" {
		return invalid("payload.type is required")
	}
	if e.Status == "" {
		return invalid("payload.status is required")
	}
	if e.CreatedBy == "" {
		return invalid("payload.createdBy is required")
	}
	if len(e.PrizeSets) == 0 {
		return invalid("payload.prizeSets must contain at least one entry")
	}
	for i, set := range e.PrizeSets {
		switch set.Type {
		case PrizeSetPlacement, PrizeSetCheckpoint, PrizeSetCopilot:
		default:
			return invalid(fmt.Sprintf("payload.prizeSets[%d].type %q is not allowed", i, set.Type))
		}
		for j, prize := range set.Prizes {
			if !prize.Value.IsPositive() {
				return invalid(fmt.Sprintf("payload.prizeSets[%d].prizes[%d].value must be positive", i, j))
			}
		}
	}
	for i, winner := range e.Winners {
		if winner.UserID <= 0 {
			return invalid(fmt.Sprintf("payload.winners[%d].userId must be positive", i))
		}
		if winner.Placement <= 0 {
			return invalid(fmt.Sprintf("payload.winners[%d].placement must be positive", i))
		}
		switch winner.Type {
		case "", WinnerTypePlacement, WinnerTypeCheckpoint:
		default:
			return invalid(fmt.Sprintf("payload.winners[%d].type %q is not allowed", i, winner.Type))
		}
	}
	return nil
}

// PrizeSetByType returns the first prize set with the given type tag.
func (e *ChallengeEvent) PrizeSetByType(kind string) *PrizeSet {
	for i := range e.PrizeSets {
		if e.PrizeSets[i].Type == kind {
			return &e.PrizeSets[i]
		}
	}
	return nil
}

func invalid(detail string) error {
	return fmt.Errorf("%w: %s", ErrInvalidEvent, detail)
}
