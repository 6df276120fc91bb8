// Package session runs review sessions for learners: it loads their items,
// asks the scheduling engine what to review and persists the results.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/learnbot/internal/database"
	"github.com/example/learnbot/internal/spaced_repetition"
	"github.com/example/learnbot/pkg/models"
)

// ErrUnknownItem is returned when a learner has no item with the requested ID.
var ErrUnknownItem = errors.New("session: unknown item")

// ErrStaleReview is returned when an answer was given for an item state that
// has already been graded.
var ErrStaleReview = errors.New("session: item already graded")

// ItemStore persists review items per learner.
type ItemStore interface {
	Get(ctx context.Context, learnerID int64, itemID string) (*models.ReviewItem, error)
	ListByLearner(ctx context.Context, learnerID int64) ([]models.ReviewItem, error)
	CountByLearner(ctx context.Context, learnerID int64) (int, error)
	Upsert(ctx context.Context, learnerID int64, item models.ReviewItem) error
	CreateIfAbsent(ctx context.Context, learnerID int64, item models.ReviewItem) (bool, error)
	Delete(ctx context.Context, learnerID int64, itemID string) error
}

// LearnerStore looks up learner settings.
type LearnerStore interface {
	Get(ctx context.Context, id int64) (*models.Learner, error)
}

// ReviewLogStore records review history.
type ReviewLogStore interface {
	Create(ctx context.Context, log *models.ReviewLog) error
	ListByItem(ctx context.Context, learnerID int64, itemID string) ([]models.ReviewLog, error)
	CountSince(ctx context.Context, learnerID int64, since time.Time) (int, error)
}

// Service handles review sessions
type Service struct {
	engine   *spaced_repetition.Engine
	items    ItemStore
	learners LearnerStore
	logs     ReviewLogStore
	now      func() time.Time
	locks    keyedMutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a new session service
func New(engine *spaced_repetition.Engine, items ItemStore, learners LearnerStore, logs ReviewLogStore, opts ...Option) *Service {
	s := &Service{
		engine:   engine,
		items:    items,
		learners: learners,
		logs:     logs,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the scheduling engine the service uses.
func (s *Service) Engine() *spaced_repetition.Engine {
	return s.engine
}

// Introduce adds a new item to a learner's deck. An existing item with the same ID
// keeps its progress; the returned flag reports whether the item was created.
func (s *Service) Introduce(ctx context.Context, learnerID int64, itemID, itemType string, metadata map[string]string) (bool, error) {
	if itemID == "" || itemType == "" {
		return false, fmt.Errorf("item ID and type are required")
	}
	item := s.engine.NewItem(itemID, itemType, s.now())
	if len(metadata) > 0 {
		item.Metadata = metadata
	}

	unlock := s.locks.Lock(lockKey(learnerID, itemID))
	defer unlock()

	created, err := s.items.CreateIfAbsent(ctx, learnerID, item)
	if err != nil {
		return false, fmt.Errorf("introduce %s: %w", itemID, err)
	}
	return created, nil
}

// DailyQueue builds today's queue with the learner's own limits.
func (s *Service) DailyQueue(ctx context.Context, learnerID int64) (models.SessionQueue, error) {
	items, err := s.items.ListByLearner(ctx, learnerID)
	if err != nil {
		return models.SessionQueue{}, err
	}
	opts, err := s.queueOptions(ctx, learnerID)
	if err != nil {
		return models.SessionQueue{}, err
	}
	return s.engine.DailyQueue(items, s.now(), opts), nil
}

// NextItem returns the most urgent item of today's queue, or nil when the
// learner is done for the day.
func (s *Service) NextItem(ctx context.Context, learnerID int64) (*models.ReviewItem, models.SessionQueue, error) {
	queue, err := s.DailyQueue(ctx, learnerID)
	if err != nil {
		return nil, queue, err
	}
	if len(queue.Queue) == 0 {
		return nil, queue, nil
	}
	next := queue.Queue[0]
	return &next, queue, nil
}

// Answer grades one review of itemID and stores the new scheduling state.
// expectedReviews is the review count the learner saw when grading; an item
// that has moved on since then is rejected with ErrStaleReview.
// Reviews of the same item are applied one at a time.
func (s *Service) Answer(ctx context.Context, learnerID int64, itemID string, expectedReviews int, grade models.Grade) (models.ReviewItem, error) {
	unlock := s.locks.Lock(lockKey(learnerID, itemID))
	defer unlock()

	item, err := s.items.Get(ctx, learnerID, itemID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.ReviewItem{}, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
		}
		return models.ReviewItem{}, err
	}
	if item.ReviewCount != expectedReviews {
		return models.ReviewItem{}, fmt.Errorf("%w: %s", ErrStaleReview, itemID)
	}

	reviewedAt := s.now()
	next, err := s.engine.ProcessReview(item, grade, reviewedAt)
	if err != nil {
		return models.ReviewItem{}, err
	}
	if err := s.items.Upsert(ctx, learnerID, next); err != nil {
		return models.ReviewItem{}, fmt.Errorf("save review of %s: %w", itemID, err)
	}

	log := &models.ReviewLog{
		LearnerID:      learnerID,
		ItemID:         itemID,
		Grade:          grade,
		ReviewedAt:     reviewedAt,
		IntervalBefore: item.Interval,
		IntervalAfter:  next.Interval,
		EaseAfter:      next.EaseFactor,
	}
	if err := s.logs.Create(ctx, log); err != nil {
		slog.Warn("failed to record review log", "learner_id", learnerID, "item_id", itemID, "error", err)
	}

	slog.Debug("review recorded",
		"learner_id", learnerID,
		"item_id", itemID,
		"grade", int(grade),
		"interval", next.Interval,
		"ease", next.EaseFactor,
	)
	return next, nil
}

// DeckSize returns how many items the learner has.
func (s *Service) DeckSize(ctx context.Context, learnerID int64) (int, error) {
	return s.items.CountByLearner(ctx, learnerID)
}

// Forecast counts how many of the learner's items fall due on each of the next days.
func (s *Service) Forecast(ctx context.Context, learnerID int64, days int) ([]models.ForecastDay, error) {
	items, err := s.items.ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	return s.engine.Forecast(items, s.now(), days), nil
}

// ItemStats returns the statistics of one item.
func (s *Service) ItemStats(ctx context.Context, learnerID int64, itemID string) (models.ItemStats, error) {
	item, err := s.items.Get(ctx, learnerID, itemID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.ItemStats{}, fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
		}
		return models.ItemStats{}, err
	}
	return s.engine.ItemStats(*item, s.now()), nil
}

// History returns the recorded reviews of one item, oldest first.
func (s *Service) History(ctx context.Context, learnerID int64, itemID string) ([]models.ReviewLog, error) {
	return s.logs.ListByItem(ctx, learnerID, itemID)
}

// ReviewedToday counts the reviews a learner has done since local midnight.
func (s *Service) ReviewedToday(ctx context.Context, learnerID int64) (int, error) {
	now := s.now()
	y, m, d := now.Date()
	return s.logs.CountSince(ctx, learnerID, time.Date(y, m, d, 0, 0, 0, 0, now.Location()))
}

// Summary aggregates the learner's whole deck.
func (s *Service) Summary(ctx context.Context, learnerID int64) (models.Summary, error) {
	items, err := s.items.ListByLearner(ctx, learnerID)
	if err != nil {
		return models.Summary{}, err
	}
	return s.engine.Summarize(items, s.now()), nil
}

// Retire removes an item from the learner's deck.
func (s *Service) Retire(ctx context.Context, learnerID int64, itemID string) error {
	unlock := s.locks.Lock(lockKey(learnerID, itemID))
	defer unlock()

	if err := s.items.Delete(ctx, learnerID, itemID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
		}
		return err
	}
	return nil
}

// queueOptions maps learner settings to engine options. Unknown learners get
// engine defaults with new items included.
func (s *Service) queueOptions(ctx context.Context, learnerID int64) (spaced_repetition.QueueOptions, error) {
	learner, err := s.learners.Get(ctx, learnerID)
	if errors.Is(err, database.ErrNotFound) {
		return spaced_repetition.QueueOptions{IncludeNew: true}, nil
	}
	if err != nil {
		return spaced_repetition.QueueOptions{}, err
	}
	return spaced_repetition.QueueOptions{
		IncludeNew: learner.IncludeNew,
		MaxNew:     learner.MaxNewPerDay,
		MaxReviews: learner.MaxReviewsPerDay,
	}, nil
}

func lockKey(learnerID int64, itemID string) string {
	return fmt.Sprintf("%d/%s", learnerID, itemID)
}
