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
	"github.com/go-arcade/pulse/pkg/http/middleware"
	"github.com/gofiber/fiber/v2"
)

func (rt *Router) projectRouter(r fiber.Router) {
	projectGroup := r.Group("/projects")
	{
		projectGroup.Get("/", rt.listProjects)        // GET /projects - active projects with stats
		projectGroup.Post("/", rt.createProject)      // POST /projects - create project
		projectGroup.Get("/:id", rt.getProject)       // GET /projects/:id - detail with recent executions
		projectGroup.Put("/:id", rt.updateProject)    // PUT /projects/:id - partial update
		projectGroup.Delete("/:id", rt.deleteProject) // DELETE /projects/:id - deactivate
	}
}

func (rt *Router) listProjects(c *fiber.Ctx) error {
	projects, err := rt.Services.Project.ListProjects(c.UserContext())
	if err != nil {
		return err
	}
	return detail(c, fiber.Map{"projects": projects})
}

func (rt *Router) createProject(c *fiber.Ctx) error {
	var req model.CreateProjectReq
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := rt.Services.Project.CreateProject(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return created(c, fiber.Map{"project": p})
}

func (rt *Router) getProject(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	p, err := rt.Services.Project.GetProject(c.UserContext(), id)
	if err != nil {
		return err
	}
	return detail(c, fiber.Map{"project": p})
}

func (rt *Router) updateProject(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req model.UpdateProjectReq
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := rt.Services.Project.UpdateProject(c.UserContext(), id, &req)
	if err != nil {
		return err
	}
	return detail(c, fiber.Map{"project": p})
}

func (rt *Router) deleteProject(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := rt.Services.Project.DeleteProject(c.UserContext(), id); err != nil {
		return err
	}
	c.Locals(middleware.OPERATION, "delete project")
	return nil
}
