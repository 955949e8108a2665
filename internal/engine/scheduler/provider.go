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

package scheduler

import (
	"github.com/go-arcade/pulse/internal/engine/config"
	"github.com/go-arcade/pulse/internal/engine/service"
	"github.com/go-arcade/pulse/internal/engine/service/alert"
	"github.com/go-arcade/pulse/pkg/ws"
	"github.com/google/wire"
)

// ProviderSet 提供定时任务相关的依赖
var ProviderSet = wire.NewSet(ProvideScheduler)

func ProvideScheduler(
	conf config.SchedulerConfig,
	services *service.Services,
	cooldown alert.CooldownStore,
	hub ws.Hub,
) (*Scheduler, error) {
	return New(conf, Deps{
		Evaluator:   services.Evaluator,
		Aggregator:  services.Metrics,
		Cooldown:    cooldownSweeper(cooldown),
		Broadcaster: services.Broadcaster,
		Conns:       hub,
	})
}

// cooldownSweeper keeps the interface nil for stores without local state.
func cooldownSweeper(store alert.CooldownStore) Sweeper {
	if sw, ok := store.(Sweeper); ok {
		return sw
	}
	return nil
}
