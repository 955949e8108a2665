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

// Package alert evaluates alert configs against the execution store and
// hands fired alerts to the notification dispatcher.
package alert

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/pulse/internal/engine/errs"
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/internal/engine/repo"
)

// EvalContext carries what a rule may read. Execution is nil for sweeps.
type EvalContext struct {
	Project   *model.Project
	Execution *model.Execution
	Store     repo.IExecutionRepository
	Now       time.Time
}

// Decision is the outcome of one rule evaluation.
type Decision struct {
	Triggered bool
	Detail    map[string]any
}

func notTriggered() Decision { return Decision{} }

func triggered(detail map[string]any) Decision {
	return Decision{Triggered: true, Detail: detail}
}

// Rule is one typed alert condition.
type Rule interface {
	Type() model.AlertType
	Evaluate(ctx context.Context, ec EvalContext) (Decision, error)
}

// ruleData is the union of every config_data field. Unknown fields are ignored.
type ruleData struct {
	TimeWindow    string   `json:"time_window"`
	MinExecutions *int     `json:"min_executions"`
	Comparison    string   `json:"comparison"`
	Baseline      string   `json:"baseline"`
	Branches      []string `json:"branches"`
}

const (
	CompareGreaterThan        = "greater_than"
	ComparePercentageIncrease = "percentage_increase"

	defaultMinExecutions = 5
)

var defaultBranches = []string{"main", "master", "develop"}

// ParseRule decodes cfg into its typed rule.
func ParseRule(cfg *model.AlertConfig) (Rule, error) {
	if cfg.ThresholdValue < 0 {
		return nil, errs.Validation("threshold_value must not be negative")
	}
	var data ruleData
	if len(cfg.ConfigData) > 0 && string(cfg.ConfigData) != "null" {
		if err := sonic.Unmarshal(cfg.ConfigData, &data); err != nil {
			return nil, errs.Validation("config_data: %v", err)
		}
	}

	switch cfg.AlertType {
	case model.AlertFailureRate:
		minExec := defaultMinExecutions
		if data.MinExecutions != nil {
			if *data.MinExecutions < 0 {
				return nil, errs.Validation("config_data.min_executions must not be negative")
			}
			if *data.MinExecutions > 0 {
				minExec = *data.MinExecutions
			}
		}
		return &FailureRate{
			Threshold:     cfg.ThresholdValue,
			Window:        parseWindow(data.TimeWindow),
			MinExecutions: minExec,
		}, nil

	case model.AlertBuildDuration:
		comparison := data.Comparison
		if comparison != ComparePercentageIncrease {
			comparison = CompareGreaterThan
		}
		return &BuildDuration{
			Threshold:  cfg.ThresholdValue,
			Comparison: comparison,
			Baseline:   parseBaseline(data.Baseline),
		}, nil

	case model.AlertConsecutiveFailures:
		n := int(cfg.ThresholdValue)
		if n < 1 {
			return nil, errs.Validation("consecutive_failures threshold must be at least 1")
		}
		branches := data.Branches
		if len(branches) == 0 {
			branches = defaultBranches
		}
		return &ConsecutiveFailures{Threshold: n, Branches: branches}, nil

	case model.AlertQueueTime:
		return &QueueTime{ThresholdMinutes: cfg.ThresholdValue}, nil
	}
	return nil, errs.Validation("unknown alert_type %q", cfg.AlertType)
}

// parseWindow maps 1h/24h/7d, anything else is 1h.
func parseWindow(token string) time.Duration {
	switch token {
	case "24h":
		return 24 * time.Hour
	case "7d":
		return 7 * 24 * time.Hour
	default:
		return time.Hour
	}
}

func parseBaseline(token string) time.Duration {
	if token == "30d" {
		return 30 * 24 * time.Hour
	}
	return 7 * 24 * time.Hour
}
