package collector

import (
	"context"
	"sync"
	"time"
)

// ScriptStep is one scripted poll outcome.
type ScriptStep struct {
	Services []Service
	Err      error
}

// ScriptedSource is an in-memory Source that replays a fixed script, one step
// per poll. After the script is exhausted, polls return no services.
type ScriptedSource struct {
	mu       sync.Mutex
	steps    []ScriptStep
	calls    int
	closed   bool
	delay    bool
	openErr  error
	opened   int
	lastType ServiceType
}

// ScriptedOption configures a ScriptedSource.
type ScriptedOption func(*ScriptedSource)

// WithStep appends a successful poll returning services.
func WithStep(services ...Service) ScriptedOption {
	return func(s *ScriptedSource) {
		s.steps = append(s.steps, ScriptStep{Services: services})
	}
}

// WithFailure appends a failing poll.
func WithFailure(err error) ScriptedOption {
	return func(s *ScriptedSource) {
		s.steps = append(s.steps, ScriptStep{Err: err})
	}
}

// WithPollDelay makes each poll wait for its full timeout before returning,
// like a real network query does.
func WithPollDelay() ScriptedOption {
	return func(s *ScriptedSource) {
		s.delay = true
	}
}

// WithOpenError makes the source's Opener fail.
func WithOpenError(err error) ScriptedOption {
	return func(s *ScriptedSource) {
		s.openErr = err
	}
}

// NewScriptedSource creates a ScriptedSource.
func NewScriptedSource(opts ...ScriptedOption) *ScriptedSource {
	s := &ScriptedSource{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Opener returns an Opener that hands out this source.
func (s *ScriptedSource) Opener() Opener {
	return func(st ServiceType, _ SourceOptions) (Source, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.opened++
		s.lastType = st
		if s.openErr != nil {
			return nil, s.openErr
		}
		return s, nil
	}
}

// Poll returns the next scripted step.
func (s *ScriptedSource) Poll(ctx context.Context, timeout time.Duration) ([]Service, error) {
	if s.delay && timeout > 0 {
		t := time.NewTimer(timeout)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	i := s.calls
	s.calls++
	if i >= len(s.steps) {
		return nil, nil
	}
	step := s.steps[i]
	if step.Err != nil {
		return nil, step.Err
	}
	out := make([]Service, len(step.Services))
	copy(out, step.Services)
	return out, nil
}

// Close marks the source closed.
func (s *ScriptedSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Calls returns how many times Poll has been called.
func (s *ScriptedSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Opened returns how many times the Opener was invoked.
func (s *ScriptedSource) Opened() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

// Closed reports whether Close was called.
func (s *ScriptedSource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ServiceType returns the service type the source was last opened with.
func (s *ScriptedSource) ServiceType() ServiceType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastType
}
