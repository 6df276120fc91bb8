package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/learnbot/pkg/models"
)

var t0 = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Connect(Config{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedLearner(t *testing.T, db *sqlx.DB, id int64) {
	t.Helper()
	err := NewLearnerRepository(db).Upsert(context.Background(), &models.Learner{
		ID:                  id,
		Username:            "kid",
		NotificationEnabled: true,
		NotificationHour:    9,
		IncludeNew:          true,
	})
	require.NoError(t, err)
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect(Config{Driver: "oracle"})
	assert.Error(t, err)
}

func TestConnectIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "again.db")
	db, err := Connect(Config{DSN: path})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Connect(Config{DSN: path})
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestReviewItemRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedLearner(t, db, 1)
	repo := NewReviewItemRepository(db)

	item := models.ReviewItem{
		ItemID:         "letter-a",
		ItemType:       "letter",
		EaseFactor:     2.36,
		Interval:       6,
		DueDate:        t0.Add(6 * 24 * time.Hour),
		ReviewCount:    2,
		LapseCount:     0,
		LastReviewDate: t0,
		RecentGrades:   []models.Grade{4, 3},
		Metadata:       map[string]string{"prompt": "A", "sound": "a.mp3"},
	}
	require.NoError(t, repo.Upsert(ctx, 1, item))

	got, err := repo.Get(ctx, 1, "letter-a")
	require.NoError(t, err)
	assert.Equal(t, item.ItemID, got.ItemID)
	assert.Equal(t, item.EaseFactor, got.EaseFactor)
	assert.Equal(t, item.Interval, got.Interval)
	assert.True(t, item.DueDate.Equal(got.DueDate))
	assert.True(t, item.LastReviewDate.Equal(got.LastReviewDate))
	assert.Equal(t, item.RecentGrades, got.RecentGrades)
	assert.Equal(t, item.Metadata, got.Metadata)
}

func TestReviewItemNeverReviewed(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedLearner(t, db, 1)
	repo := NewReviewItemRepository(db)

	require.NoError(t, repo.Upsert(ctx, 1, models.ReviewItem{ItemID: "w", ItemType: "vocabulary", EaseFactor: 2.5, DueDate: t0}))

	got, err := repo.Get(ctx, 1, "w")
	require.NoError(t, err)
	assert.True(t, got.LastReviewDate.IsZero())
	assert.Nil(t, got.RecentGrades)
	assert.Nil(t, got.Metadata)
}

func TestReviewItemUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedLearner(t, db, 1)
	repo := NewReviewItemRepository(db)

	item := models.ReviewItem{ItemID: "g", ItemType: "grammar", EaseFactor: 2.5, DueDate: t0}
	require.NoError(t, repo.Upsert(ctx, 1, item))

	item.Interval = 1
	item.ReviewCount = 1
	item.RecentGrades = []models.Grade{5}
	require.NoError(t, repo.Upsert(ctx, 1, item))

	got, err := repo.Get(ctx, 1, "g")
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReviewCount)
	assert.Equal(t, []models.Grade{5}, got.RecentGrades)

	items, err := repo.ListByLearner(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestReviewItemCreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedLearner(t, db, 1)
	repo := NewReviewItemRepository(db)

	item := models.ReviewItem{ItemID: "b", ItemType: "letter", EaseFactor: 2.5, DueDate: t0}
	created, err := repo.CreateIfAbsent(ctx, 1, item)
	require.NoError(t, err)
	assert.True(t, created)

	item.ReviewCount = 9
	created, err = repo.CreateIfAbsent(ctx, 1, item)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := repo.Get(ctx, 1, "b")
	require.NoError(t, err)
	assert.Zero(t, got.ReviewCount)
}

func TestReviewItemListAndDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedLearner(t, db, 1)
	seedLearner(t, db, 2)
	repo := NewReviewItemRepository(db)

	require.NoError(t, repo.Upsert(ctx, 1, models.ReviewItem{ItemID: "late", ItemType: "letter", DueDate: t0.Add(time.Hour)}))
	require.NoError(t, repo.Upsert(ctx, 1, models.ReviewItem{ItemID: "early", ItemType: "letter", DueDate: t0}))
	require.NoError(t, repo.Upsert(ctx, 2, models.ReviewItem{ItemID: "other", ItemType: "letter", DueDate: t0}))

	items, err := repo.ListByLearner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "early", items[0].ItemID)
	assert.Equal(t, "late", items[1].ItemID)

	require.NoError(t, repo.Delete(ctx, 1, "early"))
	assert.True(t, errors.Is(repo.Delete(ctx, 1, "early"), ErrNotFound))

	_, err = repo.Get(ctx, 1, "early")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestReviewItemCountByLearner(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedLearner(t, db, 1)
	seedLearner(t, db, 2)
	repo := NewReviewItemRepository(db)

	count, err := repo.CountByLearner(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Upsert(ctx, 1, models.ReviewItem{ItemID: id, ItemType: "letter", DueDate: t0}))
	}
	require.NoError(t, repo.Upsert(ctx, 1, models.ReviewItem{ItemID: "a", ItemType: "letter", DueDate: t0.Add(time.Hour)}))
	require.NoError(t, repo.Upsert(ctx, 2, models.ReviewItem{ItemID: "a", ItemType: "letter", DueDate: t0}))

	count, err = repo.CountByLearner(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, repo.Delete(ctx, 1, "b"))
	count, err = repo.CountByLearner(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestLearnerRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewLearnerRepository(db)

	_, err := repo.Get(ctx, 7)
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, repo.Upsert(ctx, &models.Learner{ID: 7, Username: "ann", NotificationEnabled: true, NotificationHour: 8}))
	require.NoError(t, repo.SetDailyLimits(ctx, 7, 50, 5, true))

	// a second /start only refreshes the profile
	require.NoError(t, repo.Upsert(ctx, &models.Learner{ID: 7, Username: "anna", NotificationHour: 20}))

	learner, err := repo.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "anna", learner.Username)
	assert.Equal(t, 8, learner.NotificationHour)
	assert.True(t, learner.NotificationEnabled)
	assert.Equal(t, 50, learner.MaxReviewsPerDay)
	assert.Equal(t, 5, learner.MaxNewPerDay)
	assert.True(t, learner.IncludeNew)
	assert.False(t, learner.CreatedAt.IsZero())
}

func TestLearnerNotificationSettings(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewLearnerRepository(db)

	require.NoError(t, repo.Upsert(ctx, &models.Learner{ID: 1, NotificationEnabled: true, NotificationHour: 9}))
	require.NoError(t, repo.Upsert(ctx, &models.Learner{ID: 2, NotificationEnabled: true, NotificationHour: 9}))
	require.NoError(t, repo.Upsert(ctx, &models.Learner{ID: 3, NotificationEnabled: true, NotificationHour: 18}))

	require.NoError(t, repo.SetNotification(ctx, 2, false))
	require.NoError(t, repo.SetNotificationHour(ctx, 3, 9))
	assert.Error(t, repo.SetNotificationHour(ctx, 3, 24))
	assert.True(t, errors.Is(repo.SetNotification(ctx, 99, true), ErrNotFound))

	learners, err := repo.ListForNotification(ctx, 9)
	require.NoError(t, err)
	require.Len(t, learners, 2)
	assert.Equal(t, int64(1), learners[0].ID)
	assert.Equal(t, int64(3), learners[1].ID)
}

func TestReviewLogRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seedLearner(t, db, 1)
	repo := NewReviewLogRepository(db)

	first := &models.ReviewLog{LearnerID: 1, ItemID: "a", Grade: models.GradeGood, ReviewedAt: t0, IntervalAfter: 1, EaseAfter: 2.5}
	second := &models.ReviewLog{LearnerID: 1, ItemID: "a", Grade: models.GradeIncorrect, ReviewedAt: t0.Add(24 * time.Hour), IntervalBefore: 1, EaseAfter: 1.96}
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, first))
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	logs, err := repo.ListByItem(ctx, 1, "a")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, first.ID, logs[0].ID)
	assert.Equal(t, models.GradeIncorrect, logs[1].Grade)
	assert.True(t, logs[1].ReviewedAt.Equal(second.ReviewedAt))

	count, err := repo.CountSince(ctx, 1, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReviewItemRequiresLearner(t *testing.T) {
	repo := NewReviewItemRepository(newTestDB(t))
	err := repo.Upsert(context.Background(), 99, models.ReviewItem{ItemID: "x", ItemType: "letter", EaseFactor: 2.5, DueDate: t0})
	assert.Error(t, err)
}
