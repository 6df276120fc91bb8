package spaced_repetition

import (
	"fmt"
	"maps"
	"math"
	"time"

	"github.com/example/learnbot/pkg/models"
)

// Default tuning values.
const (
	DefaultMinEaseFactor     = 1.3
	DefaultInitialEaseFactor = 2.5
	DefaultEasyBonus         = 1.3
	DefaultMaxReviewsPerDay  = 200
	DefaultMaxNewPerDay      = 20
	DefaultMaxInterval       = 36500
)

// Priority weights must stay below these bounds so that a whole day of
// overdueness always outweighs any combination of type and maturity.
const (
	maxTypeWeight     = 50
	maxMaturityWeight = 40
)

// Config tunes an Engine. Zero values fall back to the defaults above.
type Config struct {
	MinEaseFactor     float64                     `json:"min_ease_factor"`
	InitialEaseFactor float64                     `json:"initial_ease_factor"`
	EasyBonus         float64                     `json:"easy_bonus"`
	MaxReviewsPerDay  int                         `json:"max_reviews_per_day"`
	MaxNewPerDay      int                         `json:"max_new_per_day"`
	MaxInterval       int                         `json:"max_interval"`     // days
	TypeWeights       map[string]float64          `json:"type_weights"`     // nil → DefaultTypeWeights
	MaturityWeights   map[models.Maturity]float64 `json:"maturity_weights"` // nil → DefaultMaturityWeights
}

// DefaultTypeWeights ranks foundational skills first: letters, then vocabulary, then grammar.
// Unknown item types weigh 0.
func DefaultTypeWeights() map[string]float64 {
	return map[string]float64{
		"letter":     30,
		"vocabulary": 20,
		"grammar":    10,
	}
}

// DefaultMaturityWeights boosts fragile items over consolidated ones.
// NEW covers lapsed items that are due again.
func DefaultMaturityWeights() map[models.Maturity]float64 {
	return map[models.Maturity]float64{
		models.MaturityNew:      20,
		models.MaturityLearning: 20,
		models.MaturityYoung:    10,
		models.MaturityMature:   0,
	}
}

// DefaultConfig returns the reference tuning.
func DefaultConfig() Config {
	return Config{
		MinEaseFactor:     DefaultMinEaseFactor,
		InitialEaseFactor: DefaultInitialEaseFactor,
		EasyBonus:         DefaultEasyBonus,
		MaxReviewsPerDay:  DefaultMaxReviewsPerDay,
		MaxNewPerDay:      DefaultMaxNewPerDay,
		MaxInterval:       DefaultMaxInterval,
		TypeWeights:       DefaultTypeWeights(),
		MaturityWeights:   DefaultMaturityWeights(),
	}
}

// Engine schedules reviews with an SM-2 variant. It holds only immutable
// configuration; every method is a pure function of its arguments, so an
// Engine is safe for concurrent use.
type Engine struct {
	minEase          float64
	initialEase      float64
	easyBonus        float64
	maxReviewsPerDay int
	maxNewPerDay     int
	maxInterval      int
	typeWeights      map[string]float64
	maturityWeights  map[models.Maturity]float64
	clock            func() time.Time
}

// New creates an Engine from cfg. Zero-value fields are filled with defaults;
// invalid values return an error wrapping ErrInvalidConfig.
func New(cfg Config) (*Engine, error) {
	def := DefaultConfig()
	if cfg.MinEaseFactor == 0 {
		cfg.MinEaseFactor = def.MinEaseFactor
	}
	if cfg.InitialEaseFactor == 0 {
		cfg.InitialEaseFactor = def.InitialEaseFactor
	}
	if cfg.EasyBonus == 0 {
		cfg.EasyBonus = def.EasyBonus
	}
	if cfg.MaxReviewsPerDay == 0 {
		cfg.MaxReviewsPerDay = def.MaxReviewsPerDay
	}
	if cfg.MaxNewPerDay == 0 {
		cfg.MaxNewPerDay = def.MaxNewPerDay
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = def.MaxInterval
	}
	if cfg.TypeWeights == nil {
		cfg.TypeWeights = def.TypeWeights
	}
	if cfg.MaturityWeights == nil {
		cfg.MaturityWeights = def.MaturityWeights
	}

	for name, v := range map[string]float64{
		"min ease factor":     cfg.MinEaseFactor,
		"initial ease factor": cfg.InitialEaseFactor,
		"easy bonus":          cfg.EasyBonus,
	} {
		if !finite(v) {
			return nil, fmt.Errorf("%w: %s must be a finite number, got %v", ErrInvalidConfig, name, v)
		}
	}
	if cfg.MinEaseFactor < 0 {
		return nil, fmt.Errorf("%w: min ease factor %.2f must be positive", ErrInvalidConfig, cfg.MinEaseFactor)
	}
	if cfg.InitialEaseFactor < cfg.MinEaseFactor {
		return nil, fmt.Errorf("%w: initial ease factor %.2f below minimum %.2f",
			ErrInvalidConfig, cfg.InitialEaseFactor, cfg.MinEaseFactor)
	}
	if cfg.EasyBonus < 1 {
		return nil, fmt.Errorf("%w: easy bonus %.2f must be at least 1", ErrInvalidConfig, cfg.EasyBonus)
	}
	if cfg.MaxReviewsPerDay < 0 || cfg.MaxNewPerDay < 0 {
		return nil, fmt.Errorf("%w: daily limits must not be negative", ErrInvalidConfig)
	}
	if cfg.MaxInterval < 1 {
		return nil, fmt.Errorf("%w: maximum interval %d must be positive", ErrInvalidConfig, cfg.MaxInterval)
	}
	for itemType, w := range cfg.TypeWeights {
		if !finite(w) || w < 0 || w > maxTypeWeight {
			return nil, fmt.Errorf("%w: weight %.1f for item type %q outside [0, %d]",
				ErrInvalidConfig, w, itemType, maxTypeWeight)
		}
	}
	for m, w := range cfg.MaturityWeights {
		if !finite(w) || w < 0 || w > maxMaturityWeight {
			return nil, fmt.Errorf("%w: weight %.1f for maturity %s outside [0, %d]",
				ErrInvalidConfig, w, m, maxMaturityWeight)
		}
	}

	return &Engine{
		minEase:          cfg.MinEaseFactor,
		initialEase:      cfg.InitialEaseFactor,
		easyBonus:        cfg.EasyBonus,
		maxReviewsPerDay: cfg.MaxReviewsPerDay,
		maxNewPerDay:     cfg.MaxNewPerDay,
		maxInterval:      cfg.MaxInterval,
		typeWeights:      maps.Clone(cfg.TypeWeights),
		maturityWeights:  maps.Clone(cfg.MaturityWeights),
		clock:            time.Now,
	}, nil
}

// NewDefault returns an Engine with the reference tuning.
func NewDefault() *Engine {
	e, err := New(DefaultConfig())
	if err != nil {
		panic(err) // defaults are valid
	}
	return e
}

// WithClock returns a copy of e that reads "now" from clock when ProcessReview
// is called without a timestamp.
func (e *Engine) WithClock(clock func() time.Time) *Engine {
	out := *e
	out.clock = clock
	return &out
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return Config{
		MinEaseFactor:     e.minEase,
		InitialEaseFactor: e.initialEase,
		EasyBonus:         e.easyBonus,
		MaxReviewsPerDay:  e.maxReviewsPerDay,
		MaxNewPerDay:      e.maxNewPerDay,
		MaxInterval:       e.maxInterval,
		TypeWeights:       maps.Clone(e.typeWeights),
		MaturityWeights:   maps.Clone(e.maturityWeights),
	}
}

// NewItem returns the initial scheduling state for an item introduced at now.
func (e *Engine) NewItem(itemID, itemType string, now time.Time) models.ReviewItem {
	return models.ReviewItem{
		ItemID:     itemID,
		ItemType:   itemType,
		EaseFactor: e.initialEase,
		DueDate:    now,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
