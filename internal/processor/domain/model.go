package domain

import (
	"context"
	"time"

	challengedomain "github.com/arenaworks/prizepay/internal/challenge/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Event processing outcomes, recorded for metrics and the audit trail.
const (
	OutcomeProcessed  = "processed"
	OutcomeIgnored    = "ignored"
	OutcomeInvalid    = "invalid"
	OutcomeUnresolved = "unresolved_creator"
)

// EventRecord is the per-event audit row written after reconciliation, so
// operations can reconcile skipped or failed intents by hand.
type EventRecord struct {
	ID                snowflake.ID   `gorm:"primaryKey"`
	ChallengeID       string         `gorm:"type:text;not null;index"`
	LegacyID          *int64         `gorm:""`
	Status            string         `gorm:"type:text;not null"`
	Outcome           string         `gorm:"type:text;not null"`
	Payload           datatypes.JSON `gorm:"type:jsonb"`
	IntentsTotal      int            `gorm:"not null"`
	PaymentsCreated   int            `gorm:"not null"`
	DuplicatesSkipped int            `gorm:"not null"`
	IntentsFailed     int            `gorm:"not null"`
	ReceivedAt        time.Time      `gorm:"not null"`
	ProcessedAt       time.Time      `gorm:"not null"`
}

// TableName sets the database table name.
func (EventRecord) TableName() string { return "challenge_event_records" }

// Service reconciles one challenge notification into payment records.
type Service interface {
	// Process handles one decoded message. It returns an error only for
	// structural validation failures; every per-intent failure is logged
	// and absorbed so the caller can acknowledge the event exactly once.
	Process(ctx context.Context, msg *challengedomain.Message) error
}
