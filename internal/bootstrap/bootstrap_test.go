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

package bootstrap

import (
	"testing"
	"time"

	"github.com/go-arcade/pulse/internal/engine/config"
	"github.com/go-arcade/pulse/internal/engine/scheduler"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrap_MissingConfig(t *testing.T) {
	called := false
	_, _, err := Bootstrap("testdata/does-not-exist.toml", func(string) (*App, func(), error) {
		called = true
		return nil, nil, nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestShutdown(t *testing.T) {
	sched, err := scheduler.New(config.SchedulerConfig{}, scheduler.Deps{})
	require.NoError(t, err)
	sched.Start()

	app := &App{HttpApp: fiber.New(), Scheduler: sched}

	done := make(chan struct{})
	go func() {
		Shutdown(app, time.Second)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("shutdown did not return")
	}
}
