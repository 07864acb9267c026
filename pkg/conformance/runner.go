// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

// Package conformance checks a storage driver against the fixed catalogue
// of behaviors every driver must show: folder and file lifecycle, listing,
// contents, hashing, and add/replace/rename/move/copy.
//
// Scenarios run one at a time against a single driver. Each scenario gets
// its own uniquely named test folder below the storage root, which is
// removed after the scenario whatever its outcome.
package conformance

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/leseb/fal-drivertest/pkg/driver"
)

// DefaultTeardownTimeout bounds the removal of a scenario's test folder.
const DefaultTeardownTimeout = 2 * time.Minute

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithFilter restricts the run to scenarios whose name matches re.
func WithFilter(re *regexp.Regexp) Option {
	return func(r *Runner) {
		r.filter = re
	}
}

// WithScenarios replaces the scenario catalogue.
func WithScenarios(scenarios ...Scenario) Option {
	return func(r *Runner) {
		r.scenarios = scenarios
	}
}

// WithTokenFunc sets the generator for test folder names.
func WithTokenFunc(fn func() string) Option {
	return func(r *Runner) {
		r.newToken = fn
	}
}

// WithTeardownTimeout bounds how long removing a test folder may take.
// Teardown ignores cancellation of the run context, so this is the only
// limit on it.
func WithTeardownTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.teardownTimeout = d
		}
	}
}

// WithStorageLabel names the storage under test in the report.
func WithStorageLabel(label string) Option {
	return func(r *Runner) {
		r.label = label
	}
}

// Runner executes scenarios sequentially against one driver.
type Runner struct {
	driver    driver.Driver
	logger    *slog.Logger
	scenarios []Scenario
	filter    *regexp.Regexp
	newToken  func() string
	label     string

	teardownTimeout time.Duration
}

// NewRunner creates a Runner for drv. The driver stays owned by the caller;
// the runner never closes it.
func NewRunner(drv driver.Driver, opts ...Option) *Runner {
	r := &Runner{
		driver:    drv,
		logger:    slog.New(slog.DiscardHandler),
		scenarios: Scenarios(),
		newToken:  NewUUIDToken,

		teardownTimeout: DefaultTeardownTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Scenarios returns the scenarios the runner will execute, in order.
func (r *Runner) Scenarios() []Scenario {
	if r.filter == nil {
		return r.scenarios
	}
	var selected []Scenario
	for _, sc := range r.scenarios {
		if r.filter.MatchString(sc.Name) {
			selected = append(selected, sc)
		}
	}
	return selected
}

// Run executes every selected scenario once and returns the report. Once
// ctx is canceled no further scenario starts and the report is marked
// interrupted.
func (r *Runner) Run(ctx context.Context) *Report {
	report := &Report{Storage: r.label, Started: time.Now()}
	for _, sc := range r.Scenarios() {
		if err := ctx.Err(); err != nil {
			report.Interrupted = true
			r.logger.Warn("Conformance run interrupted", "storage", r.label, "next_scenario", sc.Name, "error", err)
			break
		}
		report.Results = append(report.Results, r.RunScenario(ctx, sc))
	}
	report.Duration = time.Since(report.Started)

	sum := report.Summary()
	r.logger.Info("Conformance run finished",
		"storage", r.label,
		"interrupted", report.Interrupted,
		"passed", sum.Passed,
		"failed", sum.Failed,
		"errors", sum.Errors,
		"incomplete", sum.Incomplete,
		"teardown_failures", sum.TeardownFailures,
		"duration", report.Duration)
	return report
}

// RunScenario executes one scenario between a fresh fixture and its
// teardown. Panics inside the scenario are reported as StatusError.
// Teardown runs detached from ctx cancellation, bounded by the teardown
// timeout, so an interrupted scenario still removes its test folder.
func (r *Runner) RunScenario(ctx context.Context, sc Scenario) (result Result) {
	start := time.Now()
	fixture := NewFixture(r.driver, r.newToken)
	s := newSession(ctx, r.driver, fixture)
	logger := r.logger.With("scenario", sc.Name, "test_folder", fixture.Identifier())
	logger.Debug("Scenario started")

	defer func() {
		teardownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.teardownTimeout)
		defer cancel()
		if err := fixture.End(teardownCtx); err != nil {
			result.TeardownErr = err
			logger.Error("Teardown failed, storage left dirty", "error", err)
		}
		result.Duration = time.Since(start)
		logger.Info("Scenario finished", "status", result.Status, "duration", result.Duration)
	}()
	defer func() {
		s.runCleanups()
		result.Scenario = sc.Name
		result.Status = s.status
		result.Messages = s.messages
		result.Err = s.err
	}()
	defer func() {
		if v := recover(); v != nil {
			if _, ok := v.(abort); ok {
				return
			}
			s.status = StatusError
			s.err = fmt.Errorf("panic: %v", v)
		}
	}()

	sc.Run(s)
	return result
}
