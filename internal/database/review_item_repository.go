package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/learnbot/pkg/models"
)

// ReviewItemRepository handles database operations for review items
type ReviewItemRepository struct {
	db *sqlx.DB
}

// NewReviewItemRepository creates a new repository instance
func NewReviewItemRepository(db *sqlx.DB) *ReviewItemRepository {
	return &ReviewItemRepository{db: db}
}

// reviewItemRow is the stored shape of models.ReviewItem.
type reviewItemRow struct {
	LearnerID      int64   `db:"learner_id"`
	ItemID         string  `db:"item_id"`
	ItemType       string  `db:"item_type"`
	EaseFactor     float64 `db:"ease_factor"`
	IntervalDays   int     `db:"interval_days"`
	DueDate        int64   `db:"due_date"`
	ReviewCount    int     `db:"review_count"`
	LapseCount     int     `db:"lapse_count"`
	LastReviewDate int64   `db:"last_review_date"`
	RecentGrades   string  `db:"recent_grades"`
	Metadata       string  `db:"metadata"`
}

func newReviewItemRow(learnerID int64, item models.ReviewItem) (reviewItemRow, error) {
	grades := item.RecentGrades
	if grades == nil {
		grades = []models.Grade{}
	}
	gradesJSON, err := json.Marshal(grades)
	if err != nil {
		return reviewItemRow{}, fmt.Errorf("failed to marshal recent grades: %w", err)
	}
	metadata := item.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return reviewItemRow{}, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	return reviewItemRow{
		LearnerID:      learnerID,
		ItemID:         item.ItemID,
		ItemType:       item.ItemType,
		EaseFactor:     item.EaseFactor,
		IntervalDays:   item.Interval,
		DueDate:        toMillis(item.DueDate),
		ReviewCount:    item.ReviewCount,
		LapseCount:     item.LapseCount,
		LastReviewDate: toMillis(item.LastReviewDate),
		RecentGrades:   string(gradesJSON),
		Metadata:       string(metadataJSON),
	}, nil
}

func (r reviewItemRow) toModel() (models.ReviewItem, error) {
	item := models.ReviewItem{
		ItemID:         r.ItemID,
		ItemType:       r.ItemType,
		EaseFactor:     r.EaseFactor,
		Interval:       r.IntervalDays,
		DueDate:        fromMillis(r.DueDate),
		ReviewCount:    r.ReviewCount,
		LapseCount:     r.LapseCount,
		LastReviewDate: fromMillis(r.LastReviewDate),
	}
	if err := json.Unmarshal([]byte(r.RecentGrades), &item.RecentGrades); err != nil {
		return models.ReviewItem{}, fmt.Errorf("failed to parse recent grades of %q: %w", r.ItemID, err)
	}
	if len(item.RecentGrades) == 0 {
		item.RecentGrades = nil
	}
	if err := json.Unmarshal([]byte(r.Metadata), &item.Metadata); err != nil {
		return models.ReviewItem{}, fmt.Errorf("failed to parse metadata of %q: %w", r.ItemID, err)
	}
	if len(item.Metadata) == 0 {
		item.Metadata = nil
	}
	return item, nil
}

const reviewItemColumns = `learner_id, item_id, item_type, ease_factor, interval_days, due_date,
	review_count, lapse_count, last_review_date, recent_grades, metadata`

// Get returns one item of a learner, or ErrNotFound
func (r *ReviewItemRepository) Get(ctx context.Context, learnerID int64, itemID string) (*models.ReviewItem, error) {
	query := r.db.Rebind(`SELECT ` + reviewItemColumns + ` FROM review_items WHERE learner_id = ? AND item_id = ?`)

	var row reviewItemRow
	if err := r.db.GetContext(ctx, &row, query, learnerID, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get review item: %w", err)
	}
	item, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListByLearner returns all items of a learner ordered by due date
func (r *ReviewItemRepository) ListByLearner(ctx context.Context, learnerID int64) ([]models.ReviewItem, error) {
	query := r.db.Rebind(`SELECT ` + reviewItemColumns + ` FROM review_items
		WHERE learner_id = ? ORDER BY due_date ASC, item_id ASC`)

	var rows []reviewItemRow
	if err := r.db.SelectContext(ctx, &rows, query, learnerID); err != nil {
		return nil, fmt.Errorf("failed to list review items: %w", err)
	}

	items := make([]models.ReviewItem, 0, len(rows))
	for _, row := range rows {
		item, err := row.toModel()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// CountByLearner returns how many items a learner has
func (r *ReviewItemRepository) CountByLearner(ctx context.Context, learnerID int64) (int, error) {
	var count int
	query := r.db.Rebind(`SELECT COUNT(*) FROM review_items WHERE learner_id = ?`)
	if err := r.db.GetContext(ctx, &count, query, learnerID); err != nil {
		return 0, fmt.Errorf("failed to count review items: %w", err)
	}
	return count, nil
}

// Upsert stores item, replacing any previous state
func (r *ReviewItemRepository) Upsert(ctx context.Context, learnerID int64, item models.ReviewItem) error {
	row, err := newReviewItemRow(learnerID, item)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO review_items (` + reviewItemColumns + `)
		VALUES (:learner_id, :item_id, :item_type, :ease_factor, :interval_days, :due_date,
			:review_count, :lapse_count, :last_review_date, :recent_grades, :metadata)
		ON CONFLICT (learner_id, item_id) DO UPDATE SET
			item_type = excluded.item_type,
			ease_factor = excluded.ease_factor,
			interval_days = excluded.interval_days,
			due_date = excluded.due_date,
			review_count = excluded.review_count,
			lapse_count = excluded.lapse_count,
			last_review_date = excluded.last_review_date,
			recent_grades = excluded.recent_grades,
			metadata = excluded.metadata
	`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to upsert review item: %w", err)
	}
	return nil
}

// CreateIfAbsent inserts item unless the learner already has an item with the same ID.
// It reports whether a row was created.
func (r *ReviewItemRepository) CreateIfAbsent(ctx context.Context, learnerID int64, item models.ReviewItem) (bool, error) {
	row, err := newReviewItemRow(learnerID, item)
	if err != nil {
		return false, err
	}

	query := `
		INSERT INTO review_items (` + reviewItemColumns + `)
		VALUES (:learner_id, :item_id, :item_type, :ease_factor, :interval_days, :due_date,
			:review_count, :lapse_count, :last_review_date, :recent_grades, :metadata)
		ON CONFLICT (learner_id, item_id) DO NOTHING
	`
	result, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return false, fmt.Errorf("failed to create review item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// Delete retires an item
func (r *ReviewItemRepository) Delete(ctx context.Context, learnerID int64, itemID string) error {
	query := r.db.Rebind(`DELETE FROM review_items WHERE learner_id = ? AND item_id = ?`)
	result, err := r.db.ExecContext(ctx, query, learnerID, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete review item: %w", err)
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
