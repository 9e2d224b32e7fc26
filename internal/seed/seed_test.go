package seed_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/arenaworks/prizepay/internal/seed"
	sequencedomain "github.com/arenaworks/prizepay/internal/sequence/domain"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_seed_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Exec(`CREATE TABLE id_sequences (
		name TEXT PRIMARY KEY,
		current_value BIGINT NOT NULL
	)`).Error)

	return db
}

func TestEnsureSequenceCountersSeedsBothCounters(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, seed.EnsureSequenceCounters(db))

	var names []string
	require.NoError(t, db.Raw(`SELECT name FROM id_sequences ORDER BY name`).Scan(&names).Error)
	assert.Equal(t, []string{sequencedomain.PaymentDetailSeq, sequencedomain.PaymentSeq}, names)
}

func TestEnsureSequenceCountersLeavesExistingValues(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.Exec(
		`INSERT INTO id_sequences (name, current_value) VALUES (?, ?)`,
		sequencedomain.PaymentSeq, 987654,
	).Error)

	require.NoError(t, seed.EnsureSequenceCounters(db))
	require.NoError(t, seed.EnsureSequenceCounters(db))

	var value int64
	require.NoError(t, db.Raw(
		`SELECT current_value FROM id_sequences WHERE name = ?`,
		sequencedomain.PaymentSeq,
	).Scan(&value).Error)
	assert.Equal(t, int64(987654), value)

	var count int64
	require.NoError(t, db.Raw(`SELECT COUNT(*) FROM id_sequences`).Scan(&count).Error)
	assert.Equal(t, int64(2), count)
}
