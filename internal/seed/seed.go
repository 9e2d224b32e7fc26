package seed

import (
	"context"
	"errors"

	sequencedomain "github.com/arenaworks/prizepay/internal/sequence/domain"
	"gorm.io/gorm"
)

// firstSequenceValue leaves headroom above any ids the legacy system may
// already have handed out.
const firstSequenceValue = 1

// EnsureSequenceCounters seeds the named id counters so the generator can
// issue payment and detail ids on a fresh database.
func EnsureSequenceCounters(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range []string{sequencedomain.PaymentSeq, sequencedomain.PaymentDetailSeq} {
			if err := ensureCounterTx(tx, name); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensureCounterTx(tx *gorm.DB, name string) error {
	var count int64
	if err := tx.Model(&sequencedomain.Counter{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return tx.Create(&sequencedomain.Counter{Name: name, Value: firstSequenceValue}).Error
}
