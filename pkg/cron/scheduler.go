// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cron runs named periodic jobs on robfig/cron with overlap
// protection, panic recovery and run metrics.
package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-arcade/pulse/pkg/log"
	"github.com/go-arcade/pulse/pkg/metrics"
	"github.com/robfig/cron/v3"
)

var ErrDuplicateJob = errors.New("cron job already registered")

// JobFunc is one tick of a job. The context is cancelled on Stop.
type JobFunc func(ctx context.Context) error

// Entry describes a registered job.
type Entry struct {
	Name string
	Spec string
	Next time.Time
	Prev time.Time
}

type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	entries map[string]cron.EntryID
	specs   map[string]string
}

type OpOption func(*options)

type options struct {
	location *time.Location
	seconds  bool
}

func WithLocation(loc *time.Location) OpOption {
	return func(o *options) { o.location = loc }
}

// WithSeconds accepts six-field specs.
func WithSeconds() OpOption {
	return func(o *options) { o.seconds = true }
}

// zapLogger adapts the global logger to cron.Logger.
type zapLogger struct{}

func (zapLogger) Info(msg string, keysAndValues ...any) {
	log.Debugw("cron: "+msg, keysAndValues...)
}

func (zapLogger) Error(err error, msg string, keysAndValues ...any) {
	log.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}

// jobLogger counts the ticks SkipIfStillRunning drops for one job.
type jobLogger struct {
	zapLogger
	name string
}

func (l jobLogger) Info(msg string, keysAndValues ...any) {
	if msg == "skip" {
		metrics.RecordCronJobSkipped(l.name)
		log.Infow("cron job still running, tick skipped", "job", l.name)
		return
	}
	l.zapLogger.Info(msg, keysAndValues...)
}

func New(opts ...OpOption) *Scheduler {
	o := &options{location: time.Local}
	for _, opt := range opts {
		opt(o)
	}
	logger := zapLogger{}
	cronOpts := []cron.Option{
		cron.WithLocation(o.location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger)),
	}
	if o.seconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cronOpts...),
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]cron.EntryID),
		specs:   make(map[string]string),
	}
}

// AddJob registers fn under a unique name. A tick that fires while the
// previous run of the same job is still going is skipped.
func (s *Scheduler) AddJob(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	job := cron.NewChain(cron.SkipIfStillRunning(jobLogger{name: name})).
		Then(cron.FuncJob(func() { s.run(name, fn) }))
	id, err := s.cron.AddJob(spec, job)
	if err != nil {
		return fmt.Errorf("invalid spec %q for job %s: %w", spec, name, err)
	}
	s.entries[name] = id
	s.specs[name] = spec
	metrics.UpdateCronJobsCount(len(s.entries))
	return nil
}

func (s *Scheduler) run(name string, fn JobFunc) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordCronJobRun(name, time.Since(start), fmt.Errorf("panic: %v", r))
			log.Errorw("cron job panicked", "job", name, "panic", r)
		}
	}()
	err := fn(s.ctx)
	metrics.RecordCronJobRun(name, time.Since(start), err)
	if err != nil {
		log.Warnw("cron job failed", "job", name, "duration", time.Since(start).String(), "error", err)
		return
	}
	log.Debugw("cron job finished", "job", name, "duration", time.Since(start).String())
}

// RunNow executes a registered job synchronously through the same
// overlap guard as scheduled ticks.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("cron job %s not found", name)
	}
	s.cron.Entry(id).Job.Run()
	return nil
}

func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
		delete(s.specs, name)
		metrics.UpdateCronJobsCount(len(s.entries))
	}
}

func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, 0, len(s.entries))
	for name, id := range s.entries {
		e := s.cron.Entry(id)
		out = append(out, Entry{Name: name, Spec: s.specs[name], Next: e.Next, Prev: e.Prev})
	}
	return out
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Infow("cron scheduler started", "jobs", len(s.Entries()))
}

// Stop cancels running jobs and waits for them until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		log.Infow("cron scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
