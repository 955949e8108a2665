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
	"time"

	"github.com/go-arcade/pulse/internal/engine/service/webhook"
	"github.com/go-arcade/pulse/pkg/log"
	"github.com/gofiber/fiber/v2"
)

func (rt *Router) webhookRouter(r fiber.Router) {
	webhookGroup := r.Group("/webhooks")
	{
		webhookGroup.Post("/github", rt.githubWebhook)
		webhookGroup.Post("/test", rt.testWebhook)
	}
}

// githubWebhook verifies the signature over the raw body before decoding.
func (rt *Router) githubWebhook(c *fiber.Ctx) error {
	body := append([]byte(nil), c.Body()...)
	res, err := rt.Services.Webhook.Handle(c.UserContext(), body, c.Get(webhook.SignatureHeader))
	if err != nil {
		return err
	}
	log.Debugw("github webhook handled", "event", c.Get("X-GitHub-Event"), "message", res.Message)
	return detail(c, res)
}

// testWebhook echoes the payload back, used when wiring up a new CI system.
func (rt *Router) testWebhook(c *fiber.Ctx) error {
	return detail(c, fiber.Map{
		"message":   "Test webhook received",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"body":      string(c.Body()),
	})
}
