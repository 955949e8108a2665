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

package notify

import (
	"strings"

	"github.com/go-arcade/pulse/internal/engine/config"
	"github.com/go-arcade/pulse/internal/pkg/notify/channel"
	"github.com/go-arcade/pulse/pkg/log"
	"github.com/google/wire"
)

// ProviderSet provides notify layer related dependencies
var ProviderSet = wire.NewSet(ProvideRegistry)

// ProvideRegistry registers the built-in channels from config.
func ProvideRegistry(conf config.NotifyConfig) *Registry {
	conf.SetDefaults()
	r := NewRegistry()
	_ = r.Register(channel.NewSlackChannel(conf.Slack.WebhookURL, conf.FrontendURL))
	_ = r.Register(channel.NewEmailChannel(channel.EmailSettings{
		Host:     conf.Email.Host,
		Port:     conf.Email.Port,
		User:     conf.Email.User,
		Password: conf.Email.Password,
		From:     conf.Email.From,
		To:       splitAddresses(conf.Email.To),
	}, conf.FrontendURL))

	for _, name := range r.Names() {
		ch, _ := r.Get(name)
		if err := ch.Validate(); err != nil {
			log.Warnw("notification channel disabled until configured", "channel", name, "reason", err)
		}
	}
	log.Infow("notify registry initialized", "channels", r.Names())
	return r
}

func splitAddresses(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
