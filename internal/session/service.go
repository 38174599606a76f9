package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/verte-zerg/typetrack/internal/model"
	"github.com/verte-zerg/typetrack/internal/stats"
	"github.com/verte-zerg/typetrack/internal/store"
)

// List limits.
const (
	DefaultListLimit = 10
	MaxListLimit     = 50
	summaryTopWords  = 10
)

var (
	// ErrNotFound is returned when no session matches the id within the
	// owner's records.
	ErrNotFound = errors.New("session not found")
	// ErrForbidden is returned when a caller asks for another owner's data.
	ErrForbidden = errors.New("unauthorized access")
)

// Store is the persistence the service depends on.
type Store interface {
	AppendSession(ctx context.Context, s model.Session) (model.Session, error)
	SessionsByOwner(ctx context.Context, ownerID string, limit int) ([]model.Session, error)
	FindSession(ctx context.Context, id, ownerID string) (model.Session, error)
}

// Cache memoizes analyses. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (model.Analysis, bool, error)
	Set(ctx context.Context, key string, a model.Analysis) error
}

// Recorder observes service outcomes.
type Recorder interface {
	SessionCreated(duration int)
	CacheLookup(hit bool)
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables analysis caching.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithLogger sets the logger used for best-effort failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// Service implements session creation, listing and analysis for owners.
type Service struct {
	store    Store
	cache    Cache
	logger   *slog.Logger
	recorder Recorder
}

// NewService builds a Service over the store.
func NewService(st Store, opts ...Option) *Service {
	s := &Service{store: st, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the candidate and appends it to the owner's sessions.
func (s *Service) Create(ctx context.Context, ownerID string, c model.Candidate) (model.Session, error) {
	if err := Validate(c); err != nil {
		return model.Session{}, err
	}
	words := make([]string, 0, len(c.ErrorWords))
	for _, w := range c.ErrorWords {
		words = append(words, strings.TrimSpace(w))
	}
	durations := make([]float64, len(c.TypingDurations))
	copy(durations, c.TypingDurations)

	saved, err := s.store.AppendSession(ctx, model.Session{
		UserID:          ownerID,
		WPM:             c.WPM.Value,
		Accuracy:        c.Accuracy.Value,
		TotalErrors:     int(c.TotalErrors.Value),
		ErrorWords:      words,
		TypingDurations: durations,
		Duration:        int(c.Duration.Value),
	})
	if err != nil {
		return model.Session{}, fmt.Errorf("create session: %w", err)
	}
	if s.recorder != nil {
		s.recorder.SessionCreated(saved.Duration)
	}
	return saved, nil
}

// List returns the owner's most recent sessions, newest first. Only the owner
// may list their sessions.
func (s *Service) List(ctx context.Context, requesterID, ownerID string, limit int) ([]model.Session, error) {
	if requesterID != ownerID {
		return nil, ErrForbidden
	}
	sessions, err := s.store.SessionsByOwner(ctx, ownerID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// Summary aggregates the owner's most recent sessions.
func (s *Service) Summary(ctx context.Context, requesterID, ownerID string, limit int) (model.Summary, error) {
	sessions, err := s.List(ctx, requesterID, ownerID, limit)
	if err != nil {
		return model.Summary{}, err
	}
	return stats.Summarize(sessions, summaryTopWords), nil
}

// Analysis returns the analysis of one of the owner's sessions. Sessions of
// other owners are reported as ErrNotFound.
func (s *Service) Analysis(ctx context.Context, ownerID, sessionID string) (model.Analysis, error) {
	if ownerID == "" || sessionID == "" {
		return model.Analysis{}, ErrNotFound
	}
	key := cacheKey(ownerID, sessionID)
	if s.cache != nil {
		a, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("analysis cache get failed", "key", key, "err", err)
		}
		if s.recorder != nil {
			s.recorder.CacheLookup(ok)
		}
		if ok {
			return a, nil
		}
	}

	session, err := s.store.FindSession(ctx, sessionID, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Analysis{}, ErrNotFound
		}
		return model.Analysis{}, fmt.Errorf("find session: %w", err)
	}
	a := stats.Analyze(session)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, a); err != nil {
			s.logger.Warn("analysis cache set failed", "key", key, "err", err)
		}
	}
	return a, nil
}

func cacheKey(ownerID, sessionID string) string {
	return "analysis:" + ownerID + ":" + sessionID
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
