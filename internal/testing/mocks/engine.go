// Package mocks provides shared test doubles for watt packages.
package mocks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wattwdl/watt/internal/engine"
)

// Engine implements engine.Engine with scripted outcomes.
// Use NewEngine() and the With* builders to configure it.
type Engine struct {
	mu       sync.Mutex
	outcomes map[string]engine.Outcome // keyed by "workflow/test"
	delays   map[string]time.Duration
	fallback engine.Outcome
	calls    []engine.Job

	inFlight    int32
	maxInFlight int32
}

// NewEngine creates a mock engine whose unscripted runs fail.
func NewEngine() *Engine {
	return &Engine{
		outcomes: make(map[string]engine.Outcome),
		delays:   make(map[string]time.Duration),
		fallback: engine.Failed{Reason: "no scripted outcome"},
	}
}

// WithOutputs scripts a successful run for workflow/test.
func (m *Engine) WithOutputs(id string, outputs map[string]any) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[id] = engine.Succeeded{Outputs: outputs}
	return m
}

// WithFailure scripts a failed run for workflow/test.
func (m *Engine) WithFailure(id string) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[id] = engine.Failed{Reason: "scripted failure"}
	return m
}

// WithDelay makes runs of workflow/test block for d (or until cancelled).
func (m *Engine) WithDelay(id string, d time.Duration) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[id] = d
	return m
}

// Run implements engine.Engine.
func (m *Engine) Run(ctx context.Context, job engine.Job) engine.Outcome {
	n := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&m.maxInFlight)
		if n <= peak || atomic.CompareAndSwapInt32(&m.maxInFlight, peak, n) {
			break
		}
	}

	m.mu.Lock()
	m.calls = append(m.calls, job)
	delay := m.delays[job.ID()]
	outcome, ok := m.outcomes[job.ID()]
	if !ok {
		outcome = m.fallback
	}
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return engine.Failed{Reason: ctx.Err().Error()}
		}
	}
	return outcome
}

// Calls returns the jobs run so far, in call order.
func (m *Engine) Calls() []engine.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]engine.Job, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns how many runs were started.
func (m *Engine) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// MaxInFlight returns the highest number of concurrent runs observed.
func (m *Engine) MaxInFlight() int {
	return int(atomic.LoadInt32(&m.maxInFlight))
}
