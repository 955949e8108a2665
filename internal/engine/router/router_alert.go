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
	"github.com/go-arcade/pulse/internal/engine/errs"
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/internal/engine/service/notify"
	"github.com/go-arcade/pulse/pkg/http/middleware"
	"github.com/gofiber/fiber/v2"
)

func (rt *Router) alertRouter(r fiber.Router) {
	alertGroup := r.Group("/alerts")
	{
		alertGroup.Get("/configs", rt.listAlertConfigs)
		alertGroup.Post("/configs", rt.createAlertConfig)
		alertGroup.Get("/configs/:id", rt.getAlertConfig)
		alertGroup.Put("/configs/:id", rt.updateAlertConfig)
		alertGroup.Delete("/configs/:id", rt.deleteAlertConfig)
		alertGroup.Get("/history", rt.listAlertHistory)
		alertGroup.Get("/stats", rt.getAlertStats)
		alertGroup.Post("/test", rt.testAlert)
	}
}

func (rt *Router) listAlertConfigs(c *fiber.Ctx) error {
	projectID, err := queryID(c, "project_id")
	if err != nil {
		return err
	}
	configs, err := rt.Services.Alert.ListConfigs(c.UserContext(), projectID)
	if err != nil {
		return err
	}
	return detail(c, fiber.Map{"alert_configs": configs})
}

func (rt *Router) createAlertConfig(c *fiber.Ctx) error {
	var req model.AlertConfigReq
	if err := bind(c, &req); err != nil {
		return err
	}
	cfg, err := rt.Services.Alert.CreateConfig(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return created(c, fiber.Map{"alert_config": cfg})
}

func (rt *Router) getAlertConfig(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	cfg, err := rt.Services.Alert.GetConfig(c.UserContext(), id)
	if err != nil {
		return err
	}
	return detail(c, fiber.Map{"alert_config": cfg})
}

func (rt *Router) updateAlertConfig(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req model.UpdateAlertConfigReq
	if err := bind(c, &req); err != nil {
		return err
	}
	cfg, err := rt.Services.Alert.UpdateConfig(c.UserContext(), id, &req)
	if err != nil {
		return err
	}
	return detail(c, fiber.Map{"alert_config": cfg})
}

func (rt *Router) deleteAlertConfig(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := rt.Services.Alert.DeleteConfig(c.UserContext(), id); err != nil {
		return err
	}
	c.Locals(middleware.OPERATION, "delete alert config")
	return nil
}

func (rt *Router) listAlertHistory(c *fiber.Ctx) error {
	projectID, err := queryID(c, "project_id")
	if err != nil {
		return err
	}
	q := &model.AlertHistoryQuery{
		ProjectID: projectID,
		AlertType: c.Query("alert_type"),
		Limit:     c.QueryInt("limit", 0),
		Offset:    c.QueryInt("offset", 0),
	}
	rows, page, err := rt.Services.Alert.ListHistory(c.UserContext(), q)
	if err != nil {
		return err
	}
	return detail(c, fiber.Map{"alerts": rows, "pagination": page})
}

// getAlertStats GET /alerts/stats?project_id=&period=7d
func (rt *Router) getAlertStats(c *fiber.Ctx) error {
	projectID, err := queryID(c, "project_id")
	if err != nil {
		return err
	}
	stats, err := rt.Services.Alert.Stats(c.UserContext(), projectID, c.Query("period"))
	if err != nil {
		return err
	}
	return detail(c, fiber.Map{"stats": stats})
}

func (rt *Router) testAlert(c *fiber.Ctx) error {
	var req struct {
		ProjectID uint64   `json:"project_id"`
		Channels  []string `json:"channels"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.ProjectID == 0 {
		return errs.Validation("project_id is required")
	}
	if len(req.Channels) == 0 {
		req.Channels = notify.DefaultTestChannels
	}
	alert, res, err := rt.Services.Evaluator.TestAlert(c.UserContext(), req.ProjectID, req.Channels)
	if err != nil {
		return err
	}
	return detail(c, fiber.Map{"message": "Test alert sent", "alert": alert, "result": res})
}
