package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/learnbot/pkg/models"
)

// LearnerRepository handles database operations for learners
type LearnerRepository struct {
	db *sqlx.DB
}

// NewLearnerRepository creates a new repository instance
func NewLearnerRepository(db *sqlx.DB) *LearnerRepository {
	return &LearnerRepository{db: db}
}

type learnerRow struct {
	ID                  int64  `db:"id"`
	Username            string `db:"username"`
	FirstName           string `db:"first_name"`
	NotificationEnabled bool   `db:"notification_enabled"`
	NotificationHour    int    `db:"notification_hour"`
	MaxReviewsPerDay    int    `db:"max_reviews_per_day"`
	MaxNewPerDay        int    `db:"max_new_per_day"`
	IncludeNew          bool   `db:"include_new"`
	CreatedAt           int64  `db:"created_at"`
}

func (r learnerRow) toModel() models.Learner {
	return models.Learner{
		ID:                  r.ID,
		Username:            r.Username,
		FirstName:           r.FirstName,
		NotificationEnabled: r.NotificationEnabled,
		NotificationHour:    r.NotificationHour,
		MaxReviewsPerDay:    r.MaxReviewsPerDay,
		MaxNewPerDay:        r.MaxNewPerDay,
		IncludeNew:          r.IncludeNew,
		CreatedAt:           fromMillis(r.CreatedAt),
	}
}

const learnerColumns = `id, username, first_name, notification_enabled, notification_hour,
	max_reviews_per_day, max_new_per_day, include_new, created_at`

// Get returns a learner by Telegram user ID, or ErrNotFound
func (r *LearnerRepository) Get(ctx context.Context, id int64) (*models.Learner, error) {
	var row learnerRow
	query := r.db.Rebind(`SELECT ` + learnerColumns + ` FROM learners WHERE id = ?`)
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get learner: %w", err)
	}
	learner := row.toModel()
	return &learner, nil
}

// Upsert registers a learner, or refreshes the profile fields of an existing one.
// Settings of an existing learner are kept.
func (r *LearnerRepository) Upsert(ctx context.Context, learner *models.Learner) error {
	if learner.CreatedAt.IsZero() {
		learner.CreatedAt = time.Now().UTC()
	}
	row := learnerRow{
		ID:                  learner.ID,
		Username:            learner.Username,
		FirstName:           learner.FirstName,
		NotificationEnabled: learner.NotificationEnabled,
		NotificationHour:    learner.NotificationHour,
		MaxReviewsPerDay:    learner.MaxReviewsPerDay,
		MaxNewPerDay:        learner.MaxNewPerDay,
		IncludeNew:          learner.IncludeNew,
		CreatedAt:           toMillis(learner.CreatedAt),
	}

	query := `
		INSERT INTO learners (` + learnerColumns + `)
		VALUES (:id, :username, :first_name, :notification_enabled, :notification_hour,
			:max_reviews_per_day, :max_new_per_day, :include_new, :created_at)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name
	`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to upsert learner: %w", err)
	}
	return nil
}

// ListForNotification returns learners with reminders enabled at the given hour
func (r *LearnerRepository) ListForNotification(ctx context.Context, hour int) ([]models.Learner, error) {
	query := r.db.Rebind(`SELECT ` + learnerColumns + ` FROM learners
		WHERE notification_enabled = ? AND notification_hour = ? ORDER BY id`)

	var rows []learnerRow
	if err := r.db.SelectContext(ctx, &rows, query, true, hour); err != nil {
		return nil, fmt.Errorf("failed to get learners for notification: %w", err)
	}
	learners := make([]models.Learner, 0, len(rows))
	for _, row := range rows {
		learners = append(learners, row.toModel())
	}
	return learners, nil
}

// SetNotification turns reminders on or off
func (r *LearnerRepository) SetNotification(ctx context.Context, id int64, enabled bool) error {
	return r.update(ctx, `UPDATE learners SET notification_enabled = ? WHERE id = ?`, enabled, id)
}

// SetNotificationHour changes the UTC hour reminders are sent at
func (r *LearnerRepository) SetNotificationHour(ctx context.Context, id int64, hour int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("notification hour %d out of range 0-23", hour)
	}
	return r.update(ctx, `UPDATE learners SET notification_hour = ? WHERE id = ?`, hour, id)
}

// SetDailyLimits changes the learner's queue caps. Zero means the engine default.
func (r *LearnerRepository) SetDailyLimits(ctx context.Context, id int64, maxReviews, maxNew int, includeNew bool) error {
	if maxReviews < 0 || maxNew < 0 {
		return fmt.Errorf("daily limits must not be negative")
	}
	return r.update(ctx, `UPDATE learners SET max_reviews_per_day = ?, max_new_per_day = ?, include_new = ? WHERE id = ?`,
		maxReviews, maxNew, includeNew, id)
}

func (r *LearnerRepository) update(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to update learner: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
