package repository_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	sequencedomain "github.com/arenaworks/prizepay/internal/sequence/domain"
	"github.com/arenaworks/prizepay/internal/sequence/repository"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_seq_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Exec(`CREATE TABLE id_sequences (
		name TEXT PRIMARY KEY,
		current_value BIGINT NOT NULL
	)`).Error)
	require.NoError(t, db.Exec(
		`INSERT INTO id_sequences (name, current_value) VALUES (?, ?), (?, ?)`,
		sequencedomain.PaymentSeq, 100,
		sequencedomain.PaymentDetailSeq, 200,
	).Error)

	return db
}

func TestNextIncrementsMonotonically(t *testing.T) {
	db := setupTestDB(t)
	gen := repository.Provide(db)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		value, err := gen.Next(ctx, sequencedomain.PaymentSeq)
		require.NoError(t, err)
		assert.Equal(t, int64(100+i), value)
	}
}

func TestNextKeepsCountersIndependent(t *testing.T) {
	db := setupTestDB(t)
	gen := repository.Provide(db)
	ctx := context.Background()

	paymentID, err := gen.Next(ctx, sequencedomain.PaymentSeq)
	require.NoError(t, err)
	detailID, err := gen.Next(ctx, sequencedomain.PaymentDetailSeq)
	require.NoError(t, err)

	assert.Equal(t, int64(101), paymentID)
	assert.Equal(t, int64(201), detailID)
}

func TestNextUnknownCounter(t *testing.T) {
	db := setupTestDB(t)
	gen := repository.Provide(db)

	_, err := gen.Next(context.Background(), "INVOICE_SEQ")
	require.Error(t, err)
	assert.ErrorIs(t, err, sequencedomain.ErrUnknownCounter)
}

func TestNextConcurrentCallersGetDistinctValues(t *testing.T) {
	db := setupTestDB(t)
	gen := repository.Provide(db)
	ctx := context.Background()

	const workers = 20

	var (
		mu     sync.Mutex
		values = make(map[int64]struct{}, workers)
		wg     sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := gen.Next(ctx, sequencedomain.PaymentDetailSeq)
			assert.NoError(t, err)
			mu.Lock()
			values[value] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, values, workers)
}
