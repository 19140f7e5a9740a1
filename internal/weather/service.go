package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/yegors/wxdash/pkg/logger"
)

// Config represents the weather service configuration.
// It mirrors the provider and dashboard sections of the config package
// to avoid an import of config from here.
type Config struct {
	MountDelay        time.Duration
	SearchDelay       time.Duration
	RequestsPerSecond float64 // 0 disables rate limiting
	Burst             int
	RequestTimeout    time.Duration // 0 disables the per-lookup timeout
	MaxLocationLength int           // 0 disables the length check
	Tracing           bool
}

// DefaultConfig returns the default weather configuration
func DefaultConfig() Config {
	return Config{
		MountDelay:        1500 * time.Millisecond,
		SearchDelay:       1000 * time.Millisecond,
		Burst:             5,
		RequestTimeout:    10 * time.Second,
		MaxLocationLength: 100,
	}
}

// Service is the Provider used by the rest of the application. It validates
// locations, bounds every lookup with a timeout and keeps lookup statistics.
type Service struct {
	config   Config
	provider Provider
	logger   *logger.Logger

	mu          sync.RWMutex
	lookups     int
	failures    int
	cancels     int
	lastLookup  time.Time
	lastLatency time.Duration
}

// NewService creates a new weather service around the mock provider,
// wrapped with rate limiting and tracing when configured
func NewService(config Config, logger *logger.Logger) *Service {
	return NewServiceWithProvider(config, NewMockProvider(config.MountDelay, config.SearchDelay), logger)
}

// NewServiceWithProvider creates a weather service around an arbitrary provider
func NewServiceWithProvider(config Config, provider Provider, log *logger.Logger) *Service {
	if config.RequestsPerSecond > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = 1
		}
		provider = NewRateLimitedProvider(provider, config.RequestsPerSecond, burst)
	}
	if config.Tracing {
		provider = NewTracedProvider(provider)
	}

	s := &Service{
		config:   config,
		provider: provider,
		logger:   log.Named("weather-service"),
	}

	s.logger.Info("Weather service created",
		logger.String("provider", provider.Name()),
		logger.Duration("mount_delay", config.MountDelay),
		logger.Duration("search_delay", config.SearchDelay),
		logger.Float64("requests_per_second", config.RequestsPerSecond))

	return s
}

// Name returns the name of the underlying provider chain
func (s *Service) Name() string {
	return s.provider.Name()
}

// NormalizeLocation trims a location and checks it against the configured limit
func (s *Service) NormalizeLocation(location string) (string, error) {
	location = strings.TrimSpace(location)
	if s.config.MaxLocationLength > 0 && utf8.RuneCountInString(location) > s.config.MaxLocationLength {
		return "", fmt.Errorf("%w: %d characters (max %d)", ErrLocationTooLong,
			utf8.RuneCountInString(location), s.config.MaxLocationLength)
	}
	return location, nil
}

// Current returns the current snapshot for location
func (s *Service) Current(ctx context.Context, location string) (*Snapshot, error) {
	location, err := s.NormalizeLocation(location)
	if err != nil {
		return nil, err
	}

	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}

	startTime := time.Now()
	s.logger.Debug("Fetching weather snapshot", logger.String("location", location))

	snapshot, err := s.provider.Current(ctx, location)
	duration := time.Since(startTime)

	s.mu.Lock()
	s.lookups++
	s.lastLookup = startTime
	s.lastLatency = duration
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		s.cancels++
	default:
		s.failures++
	}
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.logger.Debug("Weather lookup canceled",
				logger.String("location", location),
				logger.Duration("duration", duration))
			return nil, err
		}
		s.logger.Warn("Weather lookup failed",
			logger.String("location", location),
			logger.Duration("duration", duration),
			logger.Error(err))
		return nil, fmt.Errorf("weather lookup for %q failed: %w", location, err)
	}

	s.logger.Info("Weather lookup completed",
		logger.String("location", snapshot.Location),
		logger.Duration("duration", duration))

	return snapshot, nil
}

// GetStats returns lookup statistics
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"provider":        s.provider.Name(),
		"lookups":         s.lookups,
		"failures":        s.failures,
		"canceled":        s.cancels,
		"last_lookup":     s.lastLookup,
		"last_latency_ms": s.lastLatency.Milliseconds(),
	}
	return stats
}

// ValidateConfig validates the weather service configuration
func ValidateConfig(config Config) error {
	if config.MountDelay < 0 {
		return fmt.Errorf("mount delay must be 0 or greater")
	}
	if config.SearchDelay < 0 {
		return fmt.Errorf("search delay must be 0 or greater")
	}
	if config.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must be 0 or greater")
	}
	if config.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must be 0 or greater")
	}
	return nil
}

var _ Provider = (*Service)(nil)
