package repository

import (
	"context"

	"github.com/arenaworks/prizepay/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindExisting(ctx context.Context, db *gorm.DB, memberID int64, challengeID string, typeID int64) ([]domain.ExistingPayment, error) {
	var items []domain.ExistingPayment
	err := db.WithContext(ctx).Raw(
		`SELECT p.payment_id, pd.payment_detail_id, pd.payment_type_id,
			pd.payment_status_id, pd.net_amount, pd.payment_desc
		 FROM payment p
		 INNER JOIN payment_detail pd ON pd.payment_detail_id = p.most_recent_detail_id
		 WHERE p.user_id = ?
		   AND pd.jira_issue_id = ?
		   AND pd.payment_type_id = ?`,
		memberID,
		challengeID,
		typeID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, payment *domain.Payment, detail *domain.PaymentDetail, statusReasonID int64) error {
	if err := tx.WithContext(ctx).Exec(
		`INSERT INTO payment_detail (
			payment_detail_id, net_amount, gross_amount, total_amount,
			payment_status_id, modification_rationale_id, payment_desc,
			payment_type_id, payment_method_id, component_project_id,
			jira_issue_id, date_due, date_modified, create_date,
			charity_ind, installment_number, create_user
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		detail.ID,
		detail.NetAmount,
		detail.GrossAmount,
		detail.TotalAmount,
		detail.StatusID,
		detail.ModificationRationaleID,
		detail.Description,
		detail.TypeID,
		detail.MethodID,
		detail.ProjectID,
		detail.ChallengeID,
		detail.DateDue,
		detail.DateModified,
		detail.CreateDate,
		detail.CharityInd,
		detail.InstallmentNumber,
		detail.CreateUser,
	).Error; err != nil {
		return err
	}

	if err := tx.WithContext(ctx).Exec(
		`INSERT INTO payment (
			payment_id, user_id, most_recent_detail_id,
			create_date, modify_date, has_global_ad
		) VALUES (?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.UserID,
		payment.MostRecentDetailID,
		payment.CreateDate,
		payment.ModifyDate,
		payment.HasGlobalAD,
	).Error; err != nil {
		return err
	}

	if err := tx.WithContext(ctx).Exec(
		`INSERT INTO payment_detail_xref (payment_id, payment_detail_id) VALUES (?, ?)`,
		payment.ID,
		detail.ID,
	).Error; err != nil {
		return err
	}

	return tx.WithContext(ctx).Exec(
		`INSERT INTO payment_detail_status_reason_xref (payment_detail_id, payment_status_reason_id) VALUES (?, ?)`,
		detail.ID,
		statusReasonID,
	).Error
}
