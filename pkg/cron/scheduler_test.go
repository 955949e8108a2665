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

package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddJob(t *testing.T) {
	s := New()
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.AddJob("rollup", "0 * * * *", noop))
	require.NoError(t, s.AddJob("evaluate", "@every 5m", noop))
	assert.ErrorIs(t, s.AddJob("rollup", "0 * * * *", noop), ErrDuplicateJob)
	assert.Error(t, s.AddJob("broken", "not a spec", noop))
	assert.Len(t, s.Entries(), 2)

	s.Remove("rollup")
	entries := s.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "evaluate", entries[0].Name)
	assert.Equal(t, "@every 5m", entries[0].Spec)
}

func TestRunNow_SkipsOverlap(t *testing.T) {
	s := New()
	var runs atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	require.NoError(t, s.AddJob("slow", "@every 1h", func(context.Context) error {
		runs.Add(1)
		started <- struct{}{}
		<-release
		return nil
	}))

	go func() { _ = s.RunNow("slow") }()
	<-started

	// the second run must return at once without calling the job
	done := make(chan struct{})
	go func() {
		_ = s.RunNow("slow")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("overlapping run blocked")
	}
	close(release)
	assert.Equal(t, int32(1), runs.Load())

	assert.Error(t, s.RunNow("missing"))
}

func TestRun_RecoversPanicAndErrors(t *testing.T) {
	s := New()
	require.NoError(t, s.AddJob("panics", "@every 1h", func(context.Context) error { panic("boom") }))
	require.NoError(t, s.AddJob("fails", "@every 1h", func(context.Context) error { return errors.New("db down") }))

	assert.NotPanics(t, func() { _ = s.RunNow("panics") })
	assert.NotPanics(t, func() { _ = s.RunNow("fails") })
}

func TestStop_CancelsJobContext(t *testing.T) {
	s := New()
	var cancelled atomic.Bool
	require.NoError(t, s.AddJob("watch", "@every 1h", func(ctx context.Context) error {
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	}))
	s.Start()
	go func() { _ = s.RunNow("watch") }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.Eventually(t, cancelled.Load, time.Second, 10*time.Millisecond)
}
