package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/example/learnbot/pkg/models"
)

// ReviewLogRepository handles database operations for review history
type ReviewLogRepository struct {
	db *sqlx.DB
}

// NewReviewLogRepository creates a new repository instance
func NewReviewLogRepository(db *sqlx.DB) *ReviewLogRepository {
	return &ReviewLogRepository{db: db}
}

type reviewLogRow struct {
	ID             string  `db:"id"`
	LearnerID      int64   `db:"learner_id"`
	ItemID         string  `db:"item_id"`
	Grade          int     `db:"grade"`
	ReviewedAt     int64   `db:"reviewed_at"`
	IntervalBefore int     `db:"interval_before"`
	IntervalAfter  int     `db:"interval_after"`
	EaseAfter      float64 `db:"ease_after"`
}

// Create inserts a review log, assigning an ID when it has none
func (r *ReviewLogRepository) Create(ctx context.Context, log *models.ReviewLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	row := reviewLogRow{
		ID:             log.ID,
		LearnerID:      log.LearnerID,
		ItemID:         log.ItemID,
		Grade:          int(log.Grade),
		ReviewedAt:     toMillis(log.ReviewedAt),
		IntervalBefore: log.IntervalBefore,
		IntervalAfter:  log.IntervalAfter,
		EaseAfter:      log.EaseAfter,
	}

	query := `
		INSERT INTO review_logs (id, learner_id, item_id, grade, reviewed_at, interval_before, interval_after, ease_after)
		VALUES (:id, :learner_id, :item_id, :grade, :reviewed_at, :interval_before, :interval_after, :ease_after)
	`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to create review log: %w", err)
	}
	return nil
}

// ListByItem returns the review history of one item, oldest first
func (r *ReviewLogRepository) ListByItem(ctx context.Context, learnerID int64, itemID string) ([]models.ReviewLog, error) {
	query := r.db.Rebind(`
		SELECT id, learner_id, item_id, grade, reviewed_at, interval_before, interval_after, ease_after
		FROM review_logs
		WHERE learner_id = ? AND item_id = ?
		ORDER BY reviewed_at ASC
	`)

	var rows []reviewLogRow
	if err := r.db.SelectContext(ctx, &rows, query, learnerID, itemID); err != nil {
		return nil, fmt.Errorf("failed to get review logs: %w", err)
	}

	logs := make([]models.ReviewLog, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, models.ReviewLog{
			ID:             row.ID,
			LearnerID:      row.LearnerID,
			ItemID:         row.ItemID,
			Grade:          models.Grade(row.Grade),
			ReviewedAt:     fromMillis(row.ReviewedAt),
			IntervalBefore: row.IntervalBefore,
			IntervalAfter:  row.IntervalAfter,
			EaseAfter:      row.EaseAfter,
		})
	}
	return logs, nil
}

// CountSince returns how many reviews a learner did at or after since
func (r *ReviewLogRepository) CountSince(ctx context.Context, learnerID int64, since time.Time) (int, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM review_logs WHERE learner_id = ? AND reviewed_at >= ?`)
	if err := r.db.GetContext(ctx, &count, query, learnerID, toMillis(since)); err != nil {
		return 0, fmt.Errorf("failed to count review logs: %w", err)
	}
	return count, nil
}
