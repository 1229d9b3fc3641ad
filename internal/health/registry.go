// Package health tracks the dependencies reported by the readiness endpoint.
package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Checker reports whether a dependency is reachable
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckFunc adapts a function to Checker
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Ping(ctx context.Context) error { return f(ctx) }

// Registry manages named dependency checkers
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	timeout  time.Duration
}

// NewRegistry creates a registry; each check gets at most timeout
func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Registry{
		checkers: make(map[string]Checker),
		timeout:  timeout,
	}
}

// Register adds a checker to the registry
func (r *Registry) Register(name string, c Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = c
}

// Unregister removes a checker
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.checkers, name)
}

// List returns all registered names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.checkers))
	for name := range r.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HealthCheckAll runs every checker concurrently and returns the error of each
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	checkers := make(map[string]Checker, len(r.checkers))
	for name, c := range r.checkers {
		checkers[name] = c
	}
	r.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]error, len(checkers))
	)
	for name, c := range checkers {
		wg.Add(1)
		go func(name string, c Checker) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()
			err := c.Ping(cctx)

			mu.Lock()
			results[name] = err
			mu.Unlock()
		}(name, c)
	}
	wg.Wait()
	return results
}

// Healthy reports whether every result is nil
func Healthy(results map[string]error) bool {
	for _, err := range results {
		if err != nil {
			return false
		}
	}
	return true
}
