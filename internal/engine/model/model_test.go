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

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to ExecutionStatus
		want     bool
	}{
		{"", StatusPending, true},
		{StatusPending, StatusRunning, true},
		{StatusPending, StatusSuccess, true},
		{StatusRunning, StatusFailure, true},
		{StatusRunning, StatusRunning, true},
		{StatusRunning, StatusPending, false},
		{StatusSuccess, StatusRunning, false},
		{StatusSuccess, StatusFailure, false},
		{StatusSuccess, StatusSuccess, true},
		{StatusPending, "queued", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestDeriveDuration(t *testing.T) {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(5*time.Minute + 30*time.Second)

	e := &Execution{StartedAt: &start, CompletedAt: &end}
	e.DeriveDuration()
	if assert.NotNil(t, e.DurationSeconds) {
		assert.Equal(t, 330, *e.DurationSeconds)
	}

	explicit := 12
	e = &Execution{StartedAt: &start, CompletedAt: &end, DurationSeconds: &explicit}
	e.DeriveDuration()
	assert.Equal(t, 12, *e.DurationSeconds)

	e = &Execution{StartedAt: &start}
	e.DeriveDuration()
	assert.Nil(t, e.DurationSeconds)
}

func TestMinutesAndRound(t *testing.T) {
	assert.Nil(t, Minutes(nil))
	s := 330
	assert.Equal(t, 5.5, *Minutes(&s))
	assert.Equal(t, 66.7, Round1(200.0/3))
	assert.Equal(t, 0.0, Round1(0))
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, SeverityHigh, AlertFailureRate.Severity())
	assert.Equal(t, SeverityCritical, AlertConsecutiveFailures.Severity())
	assert.Equal(t, SeverityMedium, AlertBuildDuration.Severity())
	assert.Equal(t, SeverityMedium, AlertQueueTime.Severity())
	assert.Equal(t, SeverityInfo, AlertTest.Severity())
	assert.False(t, AlertTest.Valid())
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(25, 10, 10)
	assert.True(t, p.HasNext)
	p = NewPagination(20, 10, 10)
	assert.False(t, p.HasNext)
}
