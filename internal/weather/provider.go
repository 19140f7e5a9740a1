package weather

import (
	"context"
	"time"
)

// Provider is implemented by every source of weather snapshots.
// An empty location asks for the provider's default location.
type Provider interface {
	Name() string
	Current(ctx context.Context, location string) (*Snapshot, error)
}

// MockProvider serves the built-in snapshot after a simulated network delay.
// The default location resolves after MountDelay, any other location after
// SearchDelay with the snapshot relabelled to that location.
type MockProvider struct {
	MountDelay  time.Duration
	SearchDelay time.Duration
}

// NewMockProvider creates a mock provider with the given delays
func NewMockProvider(mountDelay, searchDelay time.Duration) *MockProvider {
	return &MockProvider{
		MountDelay:  mountDelay,
		SearchDelay: searchDelay,
	}
}

// Name returns the provider's name
func (p *MockProvider) Name() string {
	return "mock"
}

// Current waits for the simulated delay and returns the mock snapshot.
// It only fails when ctx is done before the delay elapses.
func (p *MockProvider) Current(ctx context.Context, location string) (*Snapshot, error) {
	delay := p.SearchDelay
	if location == "" {
		delay = p.MountDelay
	}

	if err := sleep(ctx, delay); err != nil {
		return nil, err
	}

	snapshot := DefaultSnapshot()
	if location != "" {
		snapshot.Location = location
	}
	return snapshot, nil
}

// sleep blocks for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ Provider = (*MockProvider)(nil)
