package repository

import (
	"context"
	"fmt"

	"github.com/arenaworks/prizepay/internal/sequence/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Generator {
	return &repo{db: db}
}

// Next advances the named counter by one and returns the new value. The
// update and read run in a dedicated transaction; the UPDATE takes a row lock
// so two concurrent callers can never observe the same value.
func (r *repo) Next(ctx context.Context, name string) (int64, error) {
	var value int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(
			`UPDATE id_sequences SET current_value = current_value + 1 WHERE name = ?`,
			name,
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", domain.ErrUnknownCounter, name)
		}
		return tx.Raw(
			`SELECT current_value FROM id_sequences WHERE name = ?`,
			name,
		).Scan(&value).Error
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}
