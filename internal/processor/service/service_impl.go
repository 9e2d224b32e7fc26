package service

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	challengedomain "github.com/arenaworks/prizepay/internal/challenge/domain"
	"github.com/arenaworks/prizepay/internal/clock"
	"github.com/arenaworks/prizepay/internal/config"
	"github.com/arenaworks/prizepay/internal/lock"
	"github.com/arenaworks/prizepay/internal/observability/metrics"
	paymentdomain "github.com/arenaworks/prizepay/internal/payment/domain"
	"github.com/arenaworks/prizepay/internal/processor/domain"
	resolverdomain "github.com/arenaworks/prizepay/internal/resolver/domain"
	pkgdb "github.com/arenaworks/prizepay/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// lockTTL bounds how long one event delivery can hold the per-challenge
// lock before another worker may take over.
const lockTTL = 2 * time.Minute

type Params struct {
	fx.In

	Cfg      config.Config
	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Payout   *config.PayoutPolicyHolder
	Payments paymentdomain.Service
	Identity resolverdomain.IdentityResolver
	Copilot  resolverdomain.CopilotResolver
	Locker   *lock.Locker     `optional:"true"`
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	cfg      config.Config
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	payout   *config.PayoutPolicyHolder
	payments paymentdomain.Service
	identity resolverdomain.IdentityResolver
	copilot  resolverdomain.CopilotResolver
	locker   *lock.Locker
	metrics  *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		cfg:      p.Cfg,
		db:       p.DB,
		log:      p.Log.Named("processor.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		payout:   p.Payout,
		payments: p.Payments,
		identity: p.Identity,
		copilot:  p.Copilot,
		locker:   p.Locker,
		metrics:  p.Metrics,
	}
}

// Process reconciles one challenge notification. Per-intent failures are
// absorbed so one bad payment never blocks the rest of the prize list; only
// a structurally invalid message is reported back to the caller.
func (s *Service) Process(ctx context.Context, msg *challengedomain.Message) error {
	if err := msg.Validate(); err != nil {
		s.log.Error("challenge event failed validation", zap.Error(err))
		s.metrics.RecordEventProcessed(ctx, domain.OutcomeInvalid)
		return err
	}

	event := &msg.Payload
	log := s.log.With(
		zap.String("challenge_id", event.ID),
		zap.String("challenge_name", event.Name),
		zap.String("status", event.Status),
	)

	if !strings.EqualFold(event.Status, challengedomain.StatusCompleted) {
		log.Info("challenge not completed, ignoring event")
		s.metrics.RecordEventProcessed(ctx, domain.OutcomeIgnored)
		return nil
	}

	release := s.acquireSlot(ctx, event.ID, log)
	defer release()

	creatorID, err := s.identity.ResolveUserID(ctx, event.CreatedBy)
	if err != nil {
		log.Error("cannot resolve challenge creator, no payments generated",
			zap.String("created_by", event.CreatedBy),
			zap.Error(err),
		)
		s.recordEvent(ctx, log, msg, domain.OutcomeUnresolved, nil, 0, 0, 0)
		s.metrics.RecordEventProcessed(ctx, domain.OutcomeUnresolved)
		return nil
	}

	var copilotID int64
	if event.PrizeSetByType(challengedomain.PrizeSetCopilot) != nil {
		copilotID, err = s.copilot.ResolveCopilotID(ctx, event.ID)
		if err != nil {
			log.Warn("cannot resolve copilot, copilot payment will be skipped", zap.Error(err))
			copilotID = 0
		}
	}

	intents := s.buildPlan(event, creatorID, copilotID)

	var created, skipped, failed int
	for i := range intents {
		intent := &intents[i]
		switch s.applyIntent(ctx, log, intent) {
		case intentCreated:
			created++
		case intentSkipped:
			skipped++
		case intentFailed:
			failed++
		}
	}

	log.Info("challenge event reconciled",
		zap.Int("intents", len(intents)),
		zap.Int("created", created),
		zap.Int("duplicates", skipped),
		zap.Int("failed", failed),
	)

	s.recordEvent(ctx, log, msg, domain.OutcomeProcessed, intents, created, skipped, failed)
	s.metrics.RecordEventProcessed(ctx, domain.OutcomeProcessed)
	return nil
}

type intentResult int

const (
	intentCreated intentResult = iota
	intentSkipped
	intentFailed
)

func (s *Service) applyIntent(ctx context.Context, log *zap.Logger, intent *paymentdomain.PaymentIntent) intentResult {
	fields := []zap.Field{
		zap.Int64("member_id", intent.MemberID),
		zap.Int64("payment_type_id", intent.TypeID),
		zap.String("amount", intent.Amount.String()),
		zap.String("description", intent.Description),
	}

	exists, err := s.payments.Exists(ctx, intent.MemberID, intent.ChallengeID, intent.TypeID)
	if err != nil {
		log.Error("duplicate check failed, payment not written", append(fields, zap.Error(err))...)
		s.metrics.RecordIntentFailure(ctx, typeLabel(intent.TypeID))
		return intentFailed
	}
	if exists {
		log.Info("payment already exists, skipping", fields...)
		s.metrics.RecordDuplicateSkipped(ctx, typeLabel(intent.TypeID))
		return intentSkipped
	}

	result, err := s.payments.Create(ctx, intent)
	if err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			log.Info("payment concurrently written elsewhere, skipping", fields...)
			s.metrics.RecordDuplicateSkipped(ctx, typeLabel(intent.TypeID))
			return intentSkipped
		}
		log.Error("payment write failed", append(fields, zap.Error(err))...)
		s.metrics.RecordIntentFailure(ctx, typeLabel(intent.TypeID))
		return intentFailed
	}

	log.Info("payment created", append(fields,
		zap.Int64("payment_id", result.PaymentID),
		zap.Int64("payment_detail_id", result.DetailID),
	)...)
	s.metrics.RecordPaymentCreated(ctx, typeLabel(intent.TypeID))
	return intentCreated
}

// acquireSlot narrows the window for concurrent re-deliveries of the same
// challenge. With redis configured it takes a per-challenge lock; without,
// it sleeps a random interval the way legacy workers spread themselves out.
// The existence check stays authoritative either way.
func (s *Service) acquireSlot(ctx context.Context, challengeID string, log *zap.Logger) func() {
	if s.locker != nil {
		key := lock.ChallengeKey(challengeID)
		token, ok, err := s.locker.TryLock(ctx, key, lockTTL)
		if err != nil {
			log.Warn("challenge lock unavailable, falling back to delay", zap.Error(err))
		} else if ok {
			return func() {
				if err := s.locker.Release(ctx, key, token); err != nil {
					log.Warn("challenge lock release failed", zap.Error(err))
				}
			}
		} else {
			log.Info("challenge already being processed elsewhere, delaying")
		}
	}

	s.randomDelay(ctx)
	return func() {}
}

func (s *Service) randomDelay(ctx context.Context) {
	min, max := s.cfg.ProcessDelayMin, s.cfg.ProcessDelayMax
	if max <= 0 || max < min {
		return
	}
	delay := min
	if span := max - min; span > 0 {
		delay += rand.N(span)
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}

// recordEvent writes the audit row. The row is operational telemetry, not
// payment data, so a write failure is logged and swallowed.
func (s *Service) recordEvent(
	ctx context.Context,
	log *zap.Logger,
	msg *challengedomain.Message,
	outcome string,
	intents []paymentdomain.PaymentIntent,
	created, skipped, failed int,
) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Warn("cannot marshal event payload for audit record", zap.Error(err))
		payload = nil
	}

	record := domain.EventRecord{
		ID:                s.genID.Generate(),
		ChallengeID:       msg.Payload.ID,
		LegacyID:          msg.Payload.LegacyID,
		Status:            msg.Payload.Status,
		Outcome:           outcome,
		Payload:           datatypes.JSON(payload),
		IntentsTotal:      len(intents),
		PaymentsCreated:   created,
		DuplicatesSkipped: skipped,
		IntentsFailed:     failed,
		ReceivedAt:        msg.Timestamp,
		ProcessedAt:       s.clock.Now(),
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		log.Warn("audit record write failed", zap.Error(err))
	}
}

func typeLabel(typeID int64) string {
	return "type_" + strconv.FormatInt(typeID, 10)
}
