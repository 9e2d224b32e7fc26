package domain

import (
	"context"
	"errors"
)

// Counter names for the two payment ID spaces. Both survive in the legacy
// store and are shared with every other writer of the payment tables, so the
// names must not change.
const (
	PaymentSeq       = "PAYMENT_SEQ"
	PaymentDetailSeq = "PAYMENT_DETAIL_SEQ"
)

var (
	ErrUnknownCounter = errors.New("unknown sequence counter")
)

// Counter is one durable named counter row. Value holds the last issued id.
type Counter struct {
	Name  string `gorm:"column:name;primaryKey;type:text"`
	Value int64  `gorm:"column:current_value;not null"`
}

// TableName sets the database table name.
func (Counter) TableName() string { return "id_sequences" }

// Generator issues globally unique, monotonically increasing integers from a
// named durable counter. Each call advances the counter in its own
// transaction, so an id handed out is never reissued even if the caller's
// surrounding work rolls back.
type Generator interface {
	Next(ctx context.Context, name string) (int64, error)
}
