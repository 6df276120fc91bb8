package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"golang.org/x/sync/errgroup"

	"github.com/example/learnbot/pkg/models"
)

// maxConcurrentReminders bounds how many learners are processed at once.
const maxConcurrentReminders = 8

// Reminder is what a learner is told about their day.
type Reminder struct {
	QueueSize   int
	TotalDue    int
	TotalNew    int
	HasOverflow bool
	DueTomorrow int
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(ctx context.Context, learnerID int64, reminder Reminder) error
}

// Learners lists learners who asked to be notified at hour.
type Learners interface {
	ListForNotification(ctx context.Context, hour int) ([]models.Learner, error)
}

// Sessions builds queues and forecasts for a learner.
type Sessions interface {
	DailyQueue(ctx context.Context, learnerID int64) (models.SessionQueue, error)
	Forecast(ctx context.Context, learnerID int64, days int) ([]models.ForecastDay, error)
}

// Config holds the notification window. Hours are inclusive.
type Config struct {
	StartHour int
	EndHour   int
	Location  *time.Location
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	learners  Learners
	sessions  Sessions
	config    Config
	now       func() time.Time
}

// New creates a new scheduler instance
func New(config Config, learners Learners, sessions Sessions, notifier Notifier) *Scheduler {
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(config.Location),
		notifier:  notifier,
		learners:  learners,
		sessions:  sessions,
		config:    config,
		now:       time.Now,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Every(1).Hour().StartAt(s.nextHour()).Do(func() {
		if err := s.CheckAndSendReminders(ctx); err != nil {
			slog.Error("reminder check failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	slog.Info("reminder scheduler started",
		"start_hour", s.config.StartHour,
		"end_hour", s.config.EndHour,
	)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// InWindow reports whether hour lies in the notification window.
func (s *Scheduler) InWindow(hour int) bool {
	return hour >= s.config.StartHour && hour <= s.config.EndHour
}

// CheckAndSendReminders notifies every learner whose notification hour is the current hour.
// A failure for one learner does not stop the others.
func (s *Scheduler) CheckAndSendReminders(ctx context.Context) error {
	hour := s.now().In(s.config.Location).Hour()
	if !s.InWindow(hour) {
		slog.Debug("outside notification hours, skipping reminders",
			"hour", hour,
			"start_hour", s.config.StartHour,
			"end_hour", s.config.EndHour,
		)
		return nil
	}

	learners, err := s.learners.ListForNotification(ctx, hour)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReminders)
	for _, learner := range learners {
		learnerID := learner.ID
		g.Go(func() error {
			if err := s.remind(ctx, learnerID, false); err != nil {
				slog.Warn("failed to send reminder", "learner_id", learnerID, "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// RunManualCheck forces a reminder for a specific learner, even when nothing is due.
func (s *Scheduler) RunManualCheck(ctx context.Context, learnerID int64) error {
	return s.remind(ctx, learnerID, true)
}

func (s *Scheduler) remind(ctx context.Context, learnerID int64, always bool) error {
	reminder, err := s.BuildReminder(ctx, learnerID)
	if err != nil {
		return err
	}
	if reminder.QueueSize == 0 && !always {
		return nil
	}
	return s.notifier.SendReminder(ctx, learnerID, reminder)
}

// BuildReminder summarizes today's queue and tomorrow's load for a learner.
func (s *Scheduler) BuildReminder(ctx context.Context, learnerID int64) (Reminder, error) {
	queue, err := s.sessions.DailyQueue(ctx, learnerID)
	if err != nil {
		return Reminder{}, err
	}
	forecast, err := s.sessions.Forecast(ctx, learnerID, 2)
	if err != nil {
		return Reminder{}, err
	}

	reminder := Reminder{
		QueueSize:   queue.Stats.QueueSize,
		TotalDue:    queue.Stats.TotalDue,
		TotalNew:    queue.Stats.TotalNew,
		HasOverflow: queue.HasOverflow,
	}
	if len(forecast) > 1 {
		reminder.DueTomorrow = forecast[1].DueCount
	}
	return reminder, nil
}

// nextHour is the top of the next hour so checks line up with notification hours.
func (s *Scheduler) nextHour() time.Time {
	return s.now().In(s.config.Location).Truncate(time.Hour).Add(time.Hour)
}
