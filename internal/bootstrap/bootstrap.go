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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-arcade/pulse/internal/engine/config"
	"github.com/go-arcade/pulse/internal/engine/router"
	"github.com/go-arcade/pulse/internal/engine/scheduler"
	"github.com/go-arcade/pulse/internal/engine/service"
	"github.com/go-arcade/pulse/pkg/log"
	pkgmetrics "github.com/go-arcade/pulse/pkg/metrics"
	"github.com/go-arcade/pulse/pkg/version"
	"github.com/gofiber/fiber/v2"
)

type App struct {
	HttpApp       *fiber.App
	Scheduler     *scheduler.Scheduler
	MetricsServer *pkgmetrics.Server
	Services      *service.Services
	AppConf       *config.AppConfig
}

// InitAppFunc init app function type
type InitAppFunc func(configPath string) (*App, func(), error)

func NewApp(
	rt *router.Router,
	sched *scheduler.Scheduler,
	metricsServer *pkgmetrics.Server,
	services *service.Services,
	appConf *config.AppConfig,
) *App {
	return &App{
		HttpApp:       rt.Router(),
		Scheduler:     sched,
		MetricsServer: metricsServer,
		Services:      services,
		AppConf:       appConf,
	}
}

// Bootstrap loads the config, initializes the global logger and builds
// the App through the injector.
func Bootstrap(configFile string, initApp InitAppFunc) (*App, func(), error) {
	appConf, err := config.NewConf(configFile)
	if err != nil {
		return nil, nil, err
	}

	if _, err := log.ProvideLogger(&appConf.Log); err != nil {
		return nil, nil, err
	}
	log.Infow("starting pulse",
		"version", version.Version,
		"commit", version.GitCommit,
	)

	app, cleanup, err := initApp(configFile)
	if err != nil {
		return nil, nil, err
	}
	return app, cleanup, nil
}

// Run start app and wait for exit signal, then gracefully shutdown
func Run(app *App, cleanup func()) {
	appConf := app.AppConf

	if app.MetricsServer != nil {
		if err := app.MetricsServer.Start(); err != nil {
			log.Errorw("metrics server start failed", "error", err)
		}
	}
	app.Scheduler.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		addr := fmt.Sprintf("%s:%d", appConf.Http.Host, appConf.Http.Port)
		log.Infow("HTTP listener started", "address", addr)
		if err := app.HttpApp.Listen(addr); err != nil {
			log.Errorw("HTTP listener failed",
				"address", addr,
				"error", err,
			)
		}
	}()

	sig := <-quit
	log.Infof("Received signal: %v, shutting down gracefully...", sig)

	Shutdown(app, appConf.Http.ShutdownTimeoutDuration())
	cleanup()

	log.Info("Server shutdown complete")
	_ = log.Sync()
}

// Shutdown stops intake first, then drains background work.
func Shutdown(app *App, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.Scheduler.Stop(ctx); err != nil {
		log.Warnw("scheduler stop timed out", "error", err)
	}

	if app.HttpApp != nil {
		if err := app.HttpApp.ShutdownWithContext(ctx); err != nil {
			log.Errorf("HTTP server shutdown error: %v", err)
		} else {
			log.Info("HTTP server shut down gracefully")
		}
	}

	// 等待进行中的告警评估完成
	if app.Services != nil && app.Services.Evaluator != nil {
		if err := app.Services.Evaluator.Wait(ctx); err != nil {
			log.Warnw("alert evaluations still running at shutdown", "error", err)
		}
	}

	if app.MetricsServer != nil {
		if err := app.MetricsServer.Stop(ctx); err != nil {
			log.Warnw("metrics server shutdown error", "error", err)
		}
	}
}
