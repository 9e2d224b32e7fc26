package service

import (
	"context"
	"fmt"

	"github.com/arenaworks/prizepay/internal/clock"
	"github.com/arenaworks/prizepay/internal/config"
	"github.com/arenaworks/prizepay/internal/payment/domain"
	sequencedomain "github.com/arenaworks/prizepay/internal/sequence/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Seq    sequencedomain.Generator
	Repo   domain.Repository
	Clock  clock.Clock
	Payout *config.PayoutPolicyHolder
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	seq    sequencedomain.Generator
	repo   domain.Repository
	clock  clock.Clock
	payout *config.PayoutPolicyHolder
}

func NewService(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("payment.service"),
		seq:    p.Seq,
		repo:   p.Repo,
		clock:  p.Clock,
		payout: p.Payout,
	}
}

func (s *Service) Exists(ctx context.Context, memberID int64, challengeID string, typeID int64) (bool, error) {
	existing, err := s.repo.FindExisting(ctx, s.db, memberID, challengeID, typeID)
	if err != nil {
		return false, fmt.Errorf("query existing payments: %w", err)
	}
	return len(existing) > 0, nil
}

// Create issues a fresh id pair from the durable counters, then writes the
// detail, payment, xref and status-reason rows in one transaction. The ids
// are drawn outside the write transaction on purpose: a rollback must never
// return an id to the pool.
func (s *Service) Create(ctx context.Context, intent *domain.PaymentIntent) (*domain.CreatedPayment, error) {
	if err := intent.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidIntent, err)
	}

	detailID, err := s.seq.Next(ctx, sequencedomain.PaymentDetailSeq)
	if err != nil {
		return nil, fmt.Errorf("next payment detail id: %w", err)
	}
	paymentID, err := s.seq.Next(ctx, sequencedomain.PaymentSeq)
	if err != nil {
		return nil, fmt.Errorf("next payment id: %w", err)
	}

	now := s.clock.Now()
	policy := s.payout.Get()

	detail := &domain.PaymentDetail{
		ID:                      detailID,
		NetAmount:               intent.Amount,
		GrossAmount:             intent.Amount,
		TotalAmount:             intent.Amount,
		StatusID:                intent.StatusID,
		ModificationRationaleID: intent.ModificationRationaleID,
		Description:             intent.Description,
		TypeID:                  intent.TypeID,
		MethodID:                intent.MethodID,
		ProjectID:               intent.ProjectID,
		ChallengeID:             intent.ChallengeID,
		DateDue:                 now.AddDate(0, 0, policy.DueDateOffsetDays),
		DateModified:            now,
		CreateDate:              now,
		CharityInd:              intent.CharityInd,
		InstallmentNumber:       intent.InstallmentNumber,
		CreateUser:              intent.CreateUser,
	}
	payment := &domain.Payment{
		ID:                 paymentID,
		UserID:             intent.MemberID,
		MostRecentDetailID: detailID,
		CreateDate:         now,
		ModifyDate:         now,
		HasGlobalAD:        "f",
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, payment, detail, policy.StatusReasonID)
	})
	if err != nil {
		s.log.Error("payment write rolled back",
			zap.Int64("member_id", intent.MemberID),
			zap.String("challenge_id", intent.ChallengeID),
			zap.Int64("payment_type_id", intent.TypeID),
			zap.String("amount", intent.Amount.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	s.log.Info("payment inserted",
		zap.Int64("payment_id", paymentID),
		zap.Int64("payment_detail_id", detailID),
		zap.Int64("member_id", intent.MemberID),
		zap.String("challenge_id", intent.ChallengeID),
		zap.Int64("payment_type_id", intent.TypeID),
		zap.String("amount", intent.Amount.String()),
	)
	return &domain.CreatedPayment{PaymentID: paymentID, DetailID: detailID}, nil
}
