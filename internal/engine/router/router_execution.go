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
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/internal/engine/service/execution"
	"github.com/gofiber/fiber/v2"
)

func (rt *Router) executionRouter(r fiber.Router) {
	executionGroup := r.Group("/executions")
	{
		executionGroup.Get("/", rt.listExecutions)
		executionGroup.Post("/", rt.createExecution)
		executionGroup.Get("/:id", rt.getExecution)
		executionGroup.Put("/:id", rt.updateExecution)
		executionGroup.Post("/:id/retry", rt.retryExecution)
		executionGroup.Post("/:id/steps", rt.upsertStep)
		executionGroup.Get("/:id/logs", rt.getExecutionLogs)
	}
}

// listExecutions GET /executions?project_id=&status=&branch=&limit=&offset=&sort_by=&sort_order=
func (rt *Router) listExecutions(c *fiber.Ctx) error {
	projectID, err := queryID(c, "project_id")
	if err != nil {
		return err
	}
	q := &model.ExecutionQuery{
		ProjectID: projectID,
		Status:    c.Query("status"),
		Branch:    c.Query("branch"),
		Limit:     c.QueryInt("limit", 0),
		Offset:    c.QueryInt("offset", 0),
		SortBy:    c.Query("sort_by", "created_at"),
		SortOrder: c.Query("sort_order", "desc"),
	}
	rows, page, err := rt.Services.Execution.List(c.UserContext(), q)
	if err != nil {
		return err
	}
	return detail(c, fiber.Map{"executions": rows, "pagination": page})
}

func (rt *Router) createExecution(c *fiber.Ctx) error {
	var req model.ExecutionReq
	if err := bind(c, &req); err != nil {
		return err
	}
	e, err := rt.Services.Execution.Create(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return created(c, fiber.Map{"execution": e})
}

func (rt *Router) getExecution(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	e, err := rt.Services.Execution.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return detail(c, fiber.Map{"execution": e})
}

func (rt *Router) updateExecution(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req model.UpdateExecutionReq
	if err := bind(c, &req); err != nil {
		return err
	}
	e, err := rt.Services.Execution.Update(c.UserContext(), id, &req)
	if err != nil {
		return err
	}
	return detail(c, fiber.Map{"execution": e})
}

func (rt *Router) retryExecution(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		TriggeredBy string `json:"triggered_by"`
	}
	if len(c.Body()) > 0 {
		if err := bind(c, &req); err != nil {
			return err
		}
	}
	e, err := rt.Services.Execution.Retry(c.UserContext(), id, req.TriggeredBy)
	if err != nil {
		return err
	}
	return created(c, fiber.Map{"execution": e, "message": "Execution retry initiated"})
}

func (rt *Router) upsertStep(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req execution.StepReq
	if err := bind(c, &req); err != nil {
		return err
	}
	step, err := rt.Services.Execution.UpsertStep(c.UserContext(), id, &req)
	if err != nil {
		return err
	}
	return detail(c, fiber.Map{"step": step})
}

// getExecutionLogs GET /executions/:id/logs?step_id=
func (rt *Router) getExecutionLogs(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	stepID, err := queryID(c, "step_id")
	if err != nil {
		return err
	}
	logs, err := rt.Services.Execution.Logs(c.UserContext(), id, stepID)
	if err != nil {
		return err
	}
	return detail(c, fiber.Map{"logs": logs})
}
