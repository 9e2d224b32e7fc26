package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidIntent = errors.New("invalid payment intent")
)

// Payment is the logical payment owned by one member. It points at its
// current detail record; this service only ever creates, never mutates.
type Payment struct {
	ID                 int64     `gorm:"column:payment_id;primaryKey"`
	UserID             int64     `gorm:"column:user_id;not null;index"`
	MostRecentDetailID int64     `gorm:"column:most_recent_detail_id;not null"`
	CreateDate         time.Time `gorm:"column:create_date;not null"`
	ModifyDate         time.Time `gorm:"column:modify_date;not null"`
	HasGlobalAD        string    `gorm:"column:has_global_ad;type:char(1);not null;default:f"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payment" }

// PaymentDetail is the authoritative amount/status record for one payment.
// The v5 challenge id rides in the legacy jira_issue_id column; the legacy
// numeric challenge id rides in component_project_id.
type PaymentDetail struct {
	ID                      int64           `gorm:"column:payment_detail_id;primaryKey"`
	NetAmount               decimal.Decimal `gorm:"column:net_amount;type:decimal(12,2);not null"`
	GrossAmount             decimal.Decimal `gorm:"column:gross_amount;type:decimal(12,2);not null"`
	TotalAmount             decimal.Decimal `gorm:"column:total_amount;type:decimal(12,2);not null"`
	StatusID                int64           `gorm:"column:payment_status_id;not null"`
	ModificationRationaleID int64           `gorm:"column:modification_rationale_id;not null"`
	Description             string          `gorm:"column:payment_desc;type:text"`
	TypeID                  int64           `gorm:"column:payment_type_id;not null"`
	MethodID                int64           `gorm:"column:payment_method_id;not null"`
	ProjectID               *int64          `gorm:"column:component_project_id"`
	ChallengeID             string          `gorm:"column:jira_issue_id;type:text;not null;index"`
	DateDue                 time.Time       `gorm:"column:date_due;not null"`
	DateModified            time.Time       `gorm:"column:date_modified;not null"`
	CreateDate              time.Time       `gorm:"column:create_date;not null"`
	CharityInd              int             `gorm:"column:charity_ind;not null"`
	InstallmentNumber       int             `gorm:"column:installment_number;not null"`
	CreateUser              int64           `gorm:"column:create_user;not null"`
}

// TableName sets the database table name.
func (PaymentDetail) TableName() string { return "payment_detail" }

// PaymentDetailXref cross-references a payment with every detail it has had.
type PaymentDetailXref struct {
	PaymentID int64 `gorm:"column:payment_id;not null"`
	DetailID  int64 `gorm:"column:payment_detail_id;not null"`
}

// TableName sets the database table name.
func (PaymentDetailXref) TableName() string { return "payment_detail_xref" }

// StatusReasonXref records the audit status-reason code for a detail row.
type StatusReasonXref struct {
	DetailID       int64 `gorm:"column:payment_detail_id;not null"`
	StatusReasonID int64 `gorm:"column:payment_status_reason_id;not null"`
}

// TableName sets the database table name.
func (StatusReasonXref) TableName() string { return "payment_detail_status_reason_xref" }

// PaymentIntent is the in-memory description of one payment to be written.
// Built fresh per event by the plan builder, consumed by the writer.
type PaymentIntent struct {
	MemberID    int64
	Amount      decimal.Decimal
	TypeID      int64
	Description string

	// Challenge linkage: legacy numeric id (absent on some v5 challenges)
	// and the v5 identifier.
	ProjectID   *int64
	ChallengeID string

	StatusID                int64
	ModificationRationaleID int64
	MethodID                int64
	CharityInd              int
	InstallmentNumber       int
	CreateUser              int64
}

func (i *PaymentIntent) Validate() error {
	if i == nil {
		return ErrInvalidIntent
	}
	if i.MemberID <= 0 {
		return errors.New("payment intent member id must be positive")
	}
	if i.ChallengeID == "" {
		return errors.New("payment intent challenge id is required")
	}
	if !i.Amount.IsPositive() {
		return errors.New("payment intent amount must be positive")
	}
	if i.TypeID <= 0 {
		return errors.New("payment intent type id must be positive")
	}
	return nil
}

// ExistingPayment is one row of the existence query.
type ExistingPayment struct {
	PaymentID   int64           `gorm:"column:payment_id"`
	DetailID    int64           `gorm:"column:payment_detail_id"`
	TypeID      int64           `gorm:"column:payment_type_id"`
	StatusID    int64           `gorm:"column:payment_status_id"`
	NetAmount   decimal.Decimal `gorm:"column:net_amount"`
	Description string          `gorm:"column:payment_desc"`
}

// CreatedPayment reports the id pair issued for a successful write.
type CreatedPayment struct {
	PaymentID int64
	DetailID  int64
}

type Repository interface {
	// FindExisting returns payments already written for the
	// (member, challenge, type) tuple. Read-only.
	FindExisting(ctx context.Context, db *gorm.DB, memberID int64, challengeID string, typeID int64) ([]ExistingPayment, error)

	// Insert writes the detail, payment, xref and status-reason rows in
	// order, on the caller's transaction.
	Insert(ctx context.Context, tx *gorm.DB, payment *Payment, detail *PaymentDetail, statusReasonID int64) error
}

type Service interface {
	// Exists reports whether a payment was already written for the tuple.
	Exists(ctx context.Context, memberID int64, challengeID string, typeID int64) (bool, error)

	// Create persists one intent as a new payment. Not idempotent; callers
	// must check Exists first.
	Create(ctx context.Context, intent *PaymentIntent) (*CreatedPayment, error)
}
