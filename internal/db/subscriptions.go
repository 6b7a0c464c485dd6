package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"seat-notifier/internal/logger"
	"seat-notifier/internal/models"
)

// SubscriptionStore persists subscriptions in Postgres, one row per CRN with
// the subscriber emails held in a text array.
type SubscriptionStore struct {
	db *sqlx.DB
}

func NewSubscriptionStore(db *sqlx.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

func (s *SubscriptionStore) SelectAll(ctx context.Context) ([]models.Subscription, error) {
	var subscriptions []models.Subscription
	err := s.db.SelectContext(ctx, &subscriptions, `SELECT crn, emails FROM subscriptions ORDER BY crn`)
	if err != nil {
		logger.Errorf("Error selecting subscriptions: %v", err)
		return nil, fmt.Errorf("failed to select subscriptions: %w", err)
	}
	return subscriptions, nil
}

// UpsertAppendEmail creates the row for crn or appends email to it. The
// resulting array is deduplicated so repeating the call is harmless.
func (s *SubscriptionStore) UpsertAppendEmail(ctx context.Context, crn int, email string) error {
	query := `
		INSERT INTO subscriptions (crn, emails)
		VALUES ($1, ARRAY[$2::text])
		ON CONFLICT (crn) DO UPDATE SET
			emails = ARRAY(SELECT DISTINCT unnest(array_append(subscriptions.emails, $2::text)))
	`
	if _, err := s.db.ExecContext(ctx, query, crn, email); err != nil {
		logger.Errorf("Error adding %s to subscription %d: %v", email, crn, err)
		return fmt.Errorf("failed to upsert subscription %d: %w", crn, err)
	}
	return nil
}

func (s *SubscriptionStore) DeleteRow(ctx context.Context, crn int) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE crn = $1`, crn); err != nil {
		logger.Errorf("Error deleting subscription %d: %v", crn, err)
		return fmt.Errorf("failed to delete subscription %d: %w", crn, err)
	}
	return nil
}

// RemoveEmailFromRow drops email from the row for crn. The row is kept even
// when its array becomes empty.
func (s *SubscriptionStore) RemoveEmailFromRow(ctx context.Context, crn int, email string) (int64, error) {
	query := `
		UPDATE subscriptions
		SET emails = array_remove(emails, $2)
		WHERE crn = $1 AND $2 = ANY(emails)
	`
	res, err := s.db.ExecContext(ctx, query, crn, email)
	if err != nil {
		logger.Errorf("Error removing %s from subscription %d: %v", email, crn, err)
		return 0, fmt.Errorf("failed to remove email from subscription %d: %w", crn, err)
	}
	return res.RowsAffected()
}

func (s *SubscriptionStore) RemoveEmailFromAllRows(ctx context.Context, email string) (int64, error) {
	query := `
		UPDATE subscriptions
		SET emails = array_remove(emails, $1)
		WHERE $1 = ANY(emails)
	`
	res, err := s.db.ExecContext(ctx, query, email)
	if err != nil {
		logger.Errorf("Error removing %s from all subscriptions: %v", email, err)
		return 0, fmt.Errorf("failed to remove email from subscriptions: %w", err)
	}
	return res.RowsAffected()
}
