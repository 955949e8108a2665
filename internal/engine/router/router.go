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

package router

import (
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/pulse/internal/engine/errs"
	"github.com/go-arcade/pulse/internal/engine/service"
	"github.com/go-arcade/pulse/pkg/http"
	"github.com/go-arcade/pulse/pkg/http/middleware"
	"github.com/go-arcade/pulse/pkg/log"
	"github.com/go-arcade/pulse/pkg/version"
	"github.com/go-arcade/pulse/pkg/ws"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

const apiPrefix = "/api/v1"

type Router struct {
	Http     *http.Http
	Services *service.Services
	Hub      ws.Hub
	// WSHandler 处理客户端订阅消息，为空时不注册 /ws
	WSHandler ws.Handler
}

func NewRouter(httpConf *http.Http, services *service.Services, hub ws.Hub, wsHandler ws.Handler) *Router {
	return &Router{
		Http:      httpConf,
		Services:  services,
		Hub:       hub,
		WSHandler: wsHandler,
	}
}

func (rt *Router) Router() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Pulse",
		DisableStartupMessage: true,
		ReadTimeout:           rt.Http.ReadTimeoutDuration(),
		WriteTimeout:          rt.Http.WriteTimeoutDuration(),
		IdleTimeout:           rt.Http.IdleTimeoutDuration(),
		BodyLimit:             rt.Http.BodyLimit,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          errorHandler,
	})

	app.Use(
		middleware.ExceptionMiddleware,
		middleware.RequestMiddleware(),
		middleware.CorsMiddleware(rt.Http.CorsOrigin),
	)
	if rt.Http.AccessLog {
		app.Use(http.AccessLogFormat(log.GetLogger().Desugar()))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(startedAt).Truncate(time.Second).String(),
		})
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(version.GetVersion())
	})

	api := app.Group(apiPrefix, middleware.UnifiedResponseMiddleware())
	{
		if rt.Hub != nil && rt.WSHandler != nil {
			api.Get("/ws", ws.Upgrade(), ws.Handle(rt.Hub, rt.WSHandler))
		}
		rt.metricsRouter(api)
		rt.projectRouter(api)
		rt.executionRouter(api)
		rt.alertRouter(api)
		rt.webhookRouter(api)
	}

	// 找不到路径时的处理 - 必须在所有路由注册之后
	app.Use(func(c *fiber.Ctx) error {
		return http.WithRepErr(c, fiber.StatusNotFound, http.NotFound.Code, "request path not found")
	})

	return app
}

var startedAt = time.Now()

// errorHandler is the single place that maps error kinds to http status.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	switch {
	case errs.IsValidation(err):
		return http.WithRepErr(c, fiber.StatusBadRequest, http.BadRequest.Code, errs.Message(err))
	case errs.IsNotFound(err):
		return http.WithRepErr(c, fiber.StatusNotFound, http.NotFound.Code, errs.Message(err))
	case errs.IsConflict(err):
		return http.WithRepErr(c, fiber.StatusConflict, http.Conflict.Code, errs.Message(err))
	case errs.IsUnauthorized(err):
		return http.WithRepErr(c, fiber.StatusUnauthorized, http.InvalidSignature.Code, errs.Message(err))
	case errors.Is(err, errs.ErrAggregation):
		log.Errorw("metrics aggregation failed", "path", c.Path(), "error", err)
		return http.WithRepErr(c, fiber.StatusInternalServerError, http.AggregateFail.Code, http.AggregateFail.Msg)
	case errors.As(err, &fe):
		code := http.Failed.Code
		switch fe.Code {
		case fiber.StatusNotFound:
			code = http.NotFound.Code
		case fiber.StatusUpgradeRequired:
			code = http.UpgradeRequired.Code
		case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
			code = http.BadRequest.Code
		}
		return http.WithRepErr(c, fe.Code, code, fe.Message)
	}
	log.Errorw("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return http.WithRepErr(c, fiber.StatusInternalServerError, http.InternalError.Code, http.InternalError.Msg)
}

func paramID(c *fiber.Ctx, key string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(key), 10, 64)
	if err != nil || id == 0 {
		return 0, errs.Validation("invalid %s", key)
	}
	return id, nil
}

// queryID returns 0 when the parameter is absent.
func queryID(c *fiber.Ctx, key string) (uint64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errs.Validation("invalid %s", key)
	}
	return id, nil
}

func bind(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return errs.Validation("request body is required")
	}
	if err := sonic.Unmarshal(c.Body(), out); err != nil {
		return errs.Validation("invalid request body")
	}
	return nil
}

func detail(c *fiber.Ctx, v any) error {
	c.Locals(middleware.DETAIL, v)
	return nil
}

func created(c *fiber.Ctx, v any) error {
	c.Status(fiber.StatusCreated)
	c.Locals(middleware.DETAIL, v)
	return nil
}
