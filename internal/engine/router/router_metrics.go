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
	"github.com/gofiber/fiber/v2"
)

func (rt *Router) metricsRouter(r fiber.Router) {
	metricsGroup := r.Group("/metrics")
	{
		metricsGroup.Get("/overview", rt.getOverview)
		metricsGroup.Get("/projects/:projectId", rt.getProjectMetrics)
		metricsGroup.Get("/projects/:projectId/calculated", rt.getCalculatedMetrics)
		metricsGroup.Get("/projects/:projectId/comparison", rt.getComparison)
		metricsGroup.Get("/projects/:projectId/trends", rt.getTrends)
		metricsGroup.Get("/projects/:projectId/daily", rt.getDailyHistory)
	}
}

// getProjectMetrics GET /metrics/projects/:projectId?period=7d
func (rt *Router) getProjectMetrics(c *fiber.Ctx) error {
	projectID, err := paramID(c, "projectId")
	if err != nil {
		return err
	}
	m, err := rt.Services.Metrics.ComputeSummary(c.UserContext(), projectID, c.Query("period"))
	if err != nil {
		return err
	}
	return detail(c, m)
}

func (rt *Router) getOverview(c *fiber.Ctx) error {
	o, err := rt.Services.Metrics.ComputeOverview(c.UserContext(), c.Query("period"))
	if err != nil {
		return err
	}
	return detail(c, o)
}

func (rt *Router) getCalculatedMetrics(c *fiber.Ctx) error {
	projectID, err := paramID(c, "projectId")
	if err != nil {
		return err
	}
	m, err := rt.Services.Metrics.ComputeCalculated(c.UserContext(), projectID, c.Query("period"))
	if err != nil {
		return err
	}
	return detail(c, m)
}

func (rt *Router) getComparison(c *fiber.Ctx) error {
	projectID, err := paramID(c, "projectId")
	if err != nil {
		return err
	}
	cmp, err := rt.Services.Metrics.ComputeComparison(c.UserContext(), projectID, c.Query("period"))
	if err != nil {
		return err
	}
	return detail(c, cmp)
}

// getTrends GET /metrics/projects/:projectId/trends?days=30
func (rt *Router) getTrends(c *fiber.Ctx) error {
	projectID, err := paramID(c, "projectId")
	if err != nil {
		return err
	}
	trends, err := rt.Services.Metrics.ComputeTrends(c.UserContext(), projectID, c.QueryInt("days", 0))
	if err != nil {
		return err
	}
	return detail(c, fiber.Map{"trends": trends})
}

func (rt *Router) getDailyHistory(c *fiber.Ctx) error {
	projectID, err := paramID(c, "projectId")
	if err != nil {
		return err
	}
	rows, err := rt.Services.Metrics.DailyHistory(c.UserContext(), projectID, c.QueryInt("days", 0))
	if err != nil {
		return err
	}
	return detail(c, fiber.Map{"daily_metrics": rows})
}
