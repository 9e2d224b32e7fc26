package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	challengedomain "github.com/arenaworks/prizepay/internal/challenge/domain"
	"github.com/arenaworks/prizepay/internal/clock"
	"github.com/arenaworks/prizepay/internal/config"
	paymentrepo "github.com/arenaworks/prizepay/internal/payment/repository"
	paymentservice "github.com/arenaworks/prizepay/internal/payment/service"
	"github.com/arenaworks/prizepay/internal/processor/domain"
	resolverdomain "github.com/arenaworks/prizepay/internal/resolver/domain"
	sequencedomain "github.com/arenaworks/prizepay/internal/sequence/domain"
	sequencerepo "github.com/arenaworks/prizepay/internal/sequence/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type stubIdentity struct {
	id  int64
	err error
}

func (s stubIdentity) ResolveUserID(ctx context.Context, handle string) (int64, error) {
	return s.id, s.err
}

type stubCopilot struct {
	id  int64
	err error
}

func (s stubCopilot) ResolveCopilotID(ctx context.Context, challengeID string) (int64, error) {
	return s.id, s.err
}

func setupProcessorDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_proc_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	schema := []string{
		`CREATE TABLE payment (
			payment_id BIGINT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			most_recent_detail_id BIGINT NOT NULL,
			create_date TIMESTAMP NOT NULL,
			modify_date TIMESTAMP NOT NULL,
			has_global_ad CHAR(1) NOT NULL DEFAULT 'f'
		)`,
		`CREATE TABLE payment_detail (
			payment_detail_id BIGINT PRIMARY KEY,
			net_amount DECIMAL(12,2) NOT NULL,
			gross_amount DECIMAL(12,2) NOT NULL,
			total_amount DECIMAL(12,2) NOT NULL,
			payment_status_id BIGINT NOT NULL,
			modification_rationale_id BIGINT NOT NULL,
			payment_desc TEXT,
			payment_type_id BIGINT NOT NULL,
			payment_method_id BIGINT NOT NULL,
			component_project_id BIGINT,
			jira_issue_id TEXT NOT NULL,
			date_due TIMESTAMP NOT NULL,
			date_modified TIMESTAMP NOT NULL,
			create_date TIMESTAMP NOT NULL,
			charity_ind SMALLINT NOT NULL DEFAULT 0,
			installment_number INT NOT NULL DEFAULT 1,
			create_user BIGINT NOT NULL
		)`,
		`CREATE TABLE payment_detail_xref (
			payment_id BIGINT NOT NULL,
			payment_detail_id BIGINT NOT NULL
		)`,
		`CREATE TABLE payment_detail_status_reason_xref (
			payment_detail_id BIGINT NOT NULL,
			payment_status_reason_id BIGINT NOT NULL
		)`,
		`CREATE TABLE id_sequences (
			name TEXT PRIMARY KEY,
			current_value BIGINT NOT NULL
		)`,
		`CREATE TABLE challenge_event_records (
			id BIGINT PRIMARY KEY,
			challenge_id TEXT NOT NULL,
			legacy_id BIGINT,
			status TEXT NOT NULL,
			outcome TEXT NOT NULL,
			payload TEXT,
			intents_total INT NOT NULL,
			payments_created INT NOT NULL,
			duplicates_skipped INT NOT NULL,
			intents_failed INT NOT NULL,
			received_at TIMESTAMP NOT NULL,
			processed_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	require.NoError(t, db.Exec(
		`INSERT INTO id_sequences (name, current_value) VALUES (?, ?), (?, ?)`,
		sequencedomain.PaymentSeq, 0,
		sequencedomain.PaymentDetailSeq, 0,
	).Error)

	return db
}

func newProcessor(t *testing.T, db *gorm.DB, identity resolverdomain.IdentityResolver, copilot resolverdomain.CopilotResolver) domain.Service {
	t.Helper()

	log := zaptest.NewLogger(t)
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
	payout := config.NewStaticPayoutPolicyHolder(config.DefaultPayoutPolicy())

	payments := paymentservice.NewService(paymentservice.Params{
		DB:     db,
		Log:    log,
		Seq:    sequencerepo.Provide(db),
		Repo:   paymentrepo.Provide(),
		Clock:  fakeClock,
		Payout: payout,
	})

	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	return NewService(Params{
		Cfg:      config.Config{},
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    fakeClock,
		Payout:   payout,
		Payments: payments,
		Identity: identity,
		Copilot:  copilot,
	})
}

func processorMessage() *challengedomain.Message {
	legacyID := int64(30376875)
	return &challengedomain.Message{
		Topic:      "challenge.notification.events",
		Originator: "challenge-api",
		Timestamp:  time.Date(2026, 3, 14, 9, 59, 0, 0, time.UTC),
		MimeType:   "application/json",
		Payload: challengedomain.ChallengeEvent{
			ID:        "abc-123",
			LegacyID:  &legacyID,
			Name:      "Sample Challenge",
			Type:      "Challenge",
			Status:    "Completed",
			CreatedBy: "tonyj",
			PrizeSets: []challengedomain.PrizeSet{
				{
					Type:   challengedomain.PrizeSetPlacement,
					Prizes: []challengedomain.Prize{{Value: decimal.NewFromInt(500)}},
				},
			},
			Winners: []challengedomain.Winner{
				{UserID: 111, Handle: "alpha", Placement: 1},
			},
		},
	}
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Raw(`SELECT COUNT(*) FROM `+table).Scan(&count).Error)
	return count
}

func lastEventRecord(t *testing.T, db *gorm.DB) domain.EventRecord {
	t.Helper()
	var record domain.EventRecord
	require.NoError(t, db.Order("processed_at DESC, id DESC").First(&record).Error)
	return record
}

func TestProcessWritesPaymentsForCompletedChallenge(t *testing.T) {
	db := setupProcessorDB(t)
	svc := newProcessor(t, db, stubIdentity{id: 22770213}, stubCopilot{err: resolverdomain.ErrNotFound})

	require.NoError(t, svc.Process(context.Background(), processorMessage()))

	assert.Equal(t, int64(1), countRows(t, db, "payment"))
	assert.Equal(t, int64(1), countRows(t, db, "payment_detail"))
	assert.Equal(t, int64(1), countRows(t, db, "payment_detail_xref"))
	assert.Equal(t, int64(1), countRows(t, db, "payment_detail_status_reason_xref"))

	record := lastEventRecord(t, db)
	assert.Equal(t, domain.OutcomeProcessed, record.Outcome)
	assert.Equal(t, 1, record.IntentsTotal)
	assert.Equal(t, 1, record.PaymentsCreated)
	assert.Zero(t, record.DuplicatesSkipped)
	assert.Zero(t, record.IntentsFailed)
}

func TestProcessRedeliveryWritesNothing(t *testing.T) {
	db := setupProcessorDB(t)
	svc := newProcessor(t, db, stubIdentity{id: 22770213}, stubCopilot{err: resolverdomain.ErrNotFound})
	ctx := context.Background()

	require.NoError(t, svc.Process(ctx, processorMessage()))
	require.NoError(t, svc.Process(ctx, processorMessage()))

	assert.Equal(t, int64(1), countRows(t, db, "payment"))
	assert.Equal(t, int64(1), countRows(t, db, "payment_detail"))

	record := lastEventRecord(t, db)
	assert.Equal(t, domain.OutcomeProcessed, record.Outcome)
	assert.Zero(t, record.PaymentsCreated)
	assert.Equal(t, 1, record.DuplicatesSkipped)
}

func TestProcessIgnoresNonCompletedChallenge(t *testing.T) {
	db := setupProcessorDB(t)
	svc := newProcessor(t, db, stubIdentity{id: 22770213}, stubCopilot{})

	msg := processorMessage()
	msg.Payload.Status = "Active"

	require.NoError(t, svc.Process(context.Background(), msg))
	assert.Zero(t, countRows(t, db, "payment"))
	assert.Zero(t, countRows(t, db, "challenge_event_records"))
}

func TestProcessStatusMatchIsCaseInsensitive(t *testing.T) {
	db := setupProcessorDB(t)
	svc := newProcessor(t, db, stubIdentity{id: 22770213}, stubCopilot{err: resolverdomain.ErrNotFound})

	msg := processorMessage()
	msg.Payload.Status = "COMPLETED"

	require.NoError(t, svc.Process(context.Background(), msg))
	assert.Equal(t, int64(1), countRows(t, db, "payment"))
}

func TestProcessReturnsValidationError(t *testing.T) {
	db := setupProcessorDB(t)
	svc := newProcessor(t, db, stubIdentity{id: 22770213}, stubCopilot{})

	msg := processorMessage()
	msg.Payload.CreatedBy = ""

	err := svc.Process(context.Background(), msg)
	require.Error(t, err)
	assert.ErrorIs(t, err, challengedomain.ErrInvalidEvent)
	assert.Zero(t, countRows(t, db, "payment"))
}

func TestProcessUnresolvableCreatorAcknowledgesWithoutPayments(t *testing.T) {
	db := setupProcessorDB(t)
	svc := newProcessor(t, db, stubIdentity{err: errors.New("identity api down")}, stubCopilot{})

	require.NoError(t, svc.Process(context.Background(), processorMessage()))

	assert.Zero(t, countRows(t, db, "payment"))
	record := lastEventRecord(t, db)
	assert.Equal(t, domain.OutcomeUnresolved, record.Outcome)
	assert.Zero(t, record.IntentsTotal)
}

func TestProcessUnresolvableCopilotStillPaysPlacements(t *testing.T) {
	db := setupProcessorDB(t)
	svc := newProcessor(t, db, stubIdentity{id: 22770213}, stubCopilot{err: errors.New("resources api down")})

	msg := processorMessage()
	msg.Payload.PrizeSets = append(msg.Payload.PrizeSets, challengedomain.PrizeSet{
		Type:   challengedomain.PrizeSetCopilot,
		Prizes: []challengedomain.Prize{{Value: decimal.NewFromInt(150)}},
	})

	require.NoError(t, svc.Process(context.Background(), msg))

	assert.Equal(t, int64(1), countRows(t, db, "payment"))
	record := lastEventRecord(t, db)
	assert.Equal(t, 1, record.IntentsTotal)
	assert.Equal(t, 1, record.PaymentsCreated)
}

func TestProcessCopilotPaymentWritten(t *testing.T) {
	db := setupProcessorDB(t)
	svc := newProcessor(t, db, stubIdentity{id: 22770213}, stubCopilot{id: 8547900})

	msg := processorMessage()
	msg.Payload.PrizeSets = append(msg.Payload.PrizeSets, challengedomain.PrizeSet{
		Type:   challengedomain.PrizeSetCopilot,
		Prizes: []challengedomain.Prize{{Value: decimal.NewFromInt(150)}},
	})

	require.NoError(t, svc.Process(context.Background(), msg))

	assert.Equal(t, int64(2), countRows(t, db, "payment"))

	var copilotCount int64
	require.NoError(t, db.Raw(
		`SELECT COUNT(*) FROM payment_detail WHERE payment_type_id = ? AND payment_desc = ?`,
		74, "Sample Challenge - Copilot",
	).Scan(&copilotCount).Error)
	assert.Equal(t, int64(1), copilotCount)
}

func TestProcessCountMismatchRecordsZeroIntents(t *testing.T) {
	db := setupProcessorDB(t)
	svc := newProcessor(t, db, stubIdentity{id: 22770213}, stubCopilot{})

	msg := processorMessage()
	msg.Payload.PrizeSets[0].Prizes = append(
		msg.Payload.PrizeSets[0].Prizes,
		challengedomain.Prize{Value: decimal.NewFromInt(250)},
	)

	require.NoError(t, svc.Process(context.Background(), msg))

	assert.Zero(t, countRows(t, db, "payment"))
	record := lastEventRecord(t, db)
	assert.Equal(t, domain.OutcomeProcessed, record.Outcome)
	assert.Zero(t, record.IntentsTotal)
}
