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

package alert

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-arcade/pulse/internal/engine/config"
	"github.com/go-arcade/pulse/internal/engine/errs"
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/internal/engine/repo"
	"github.com/go-arcade/pulse/internal/engine/service/notify"
	"github.com/go-arcade/pulse/pkg/id"
	"github.com/go-arcade/pulse/pkg/log"
	pkgmetrics "github.com/go-arcade/pulse/pkg/metrics"
	"github.com/go-arcade/pulse/pkg/safe"
)

// Dispatcher delivers fired alerts.
type Dispatcher interface {
	Dispatch(ctx context.Context, alert *model.Alert) *notify.Result
	SendTest(ctx context.Context, project *model.Project, channels []string) (*model.Alert, *notify.Result)
}

const (
	outcomeTriggered    = "triggered"
	outcomeNotTriggered = "not_triggered"
	outcomeSuppressed   = "suppressed"
	outcomeError        = "error"
)

// sweepTypes are re-evaluated by the periodic sweep; the others need an execution.
var sweepTypes = map[model.AlertType]bool{
	model.AlertFailureRate: true,
	model.AlertQueueTime:   true,
}

type Evaluator struct {
	projects   repo.IProjectRepository
	executions repo.IExecutionRepository
	configs    repo.IAlertConfigRepository
	cooldown   CooldownStore
	dispatcher Dispatcher

	cooldownTTL time.Duration
	timeout     time.Duration

	wg  sync.WaitGroup
	now func() time.Time
}

func NewEvaluator(repos *repo.Repositories, cooldown CooldownStore, dispatcher Dispatcher, conf config.AlertConfig) *Evaluator {
	conf.SetDefaults()
	return &Evaluator{
		projects:    repos.Project,
		executions:  repos.Execution,
		configs:     repos.AlertConfig,
		cooldown:    cooldown,
		dispatcher:  dispatcher,
		cooldownTTL: conf.Cooldown(),
		timeout:     conf.EvaluationTimeoutDuration(),
		now:         time.Now,
	}
}

// Submit evaluates e in the background with its own deadline. The caller
// never waits for it.
func (ev *Evaluator) Submit(e *model.Execution) {
	cp := *e
	ev.wg.Add(1)
	safe.Go(func() {
		defer ev.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), ev.timeout)
		defer cancel()
		if err := ev.OnExecutionCompleted(ctx, &cp); err != nil {
			log.Warnw("alert evaluation failed", "projectId", cp.ProjectID, "executionId", cp.ID, "error", err)
		}
	})
}

// Wait blocks until submitted evaluations finish or ctx is done.
func (ev *Evaluator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		ev.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnExecutionCompleted evaluates every enabled config of the project.
func (ev *Evaluator) OnExecutionCompleted(ctx context.Context, e *model.Execution) error {
	project, err := ev.projects.Get(ctx, e.ProjectID)
	if err != nil {
		return err
	}
	cfgs, err := ev.configs.ListEnabled(ctx, e.ProjectID)
	if err != nil {
		return err
	}
	for _, cfg := range cfgs {
		ev.evaluate(ctx, project, cfg, e)
	}
	return nil
}

// EvaluateAll sweeps active projects for the execution-independent rules.
func (ev *Evaluator) EvaluateAll(ctx context.Context) error {
	projects, err := ev.projects.ListActive(ctx)
	if err != nil {
		return err
	}
	evaluated := 0
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return err
		}
		cfgs, err := ev.configs.ListEnabled(ctx, p.ID)
		if err != nil {
			log.Warnw("failed to load alert configs", "projectId", p.ID, "error", err)
			continue
		}
		for _, cfg := range cfgs {
			if !sweepTypes[cfg.AlertType] {
				continue
			}
			ev.evaluateWithTimeout(ctx, p, cfg)
			evaluated++
		}
	}
	log.Debugw("alert sweep finished", "projects", len(projects), "evaluated", evaluated)
	return nil
}

// evaluateWithTimeout bounds one sweep evaluation the same way Submit does.
func (ev *Evaluator) evaluateWithTimeout(ctx context.Context, project *model.Project, cfg *model.AlertConfig) {
	ctx, cancel := context.WithTimeout(ctx, ev.timeout)
	defer cancel()
	ev.evaluate(ctx, project, cfg, nil)
}

// evaluate runs one config: Idle -> Evaluating -> Suppressed | Triggered.
// Errors are logged and counted, never returned.
func (ev *Evaluator) evaluate(ctx context.Context, project *model.Project, cfg *model.AlertConfig, e *model.Execution) {
	alertType := string(cfg.AlertType)
	outcome, err := ev.run(ctx, project, cfg, e)
	if err != nil {
		outcome = outcomeError
		log.Errorw("alert config evaluation failed", "configId", cfg.ID, "projectId", project.ID,
			"alertType", alertType, "error", errs.Evaluation(err, cfg.ID))
	}
	pkgmetrics.RecordEvaluation(alertType, outcome)
}

func (ev *Evaluator) run(ctx context.Context, project *model.Project, cfg *model.AlertConfig, e *model.Execution) (string, error) {
	rule, err := ParseRule(cfg)
	if err != nil {
		return "", err
	}
	key := CooldownKey(project.ID, cfg.AlertType)
	active, err := ev.cooldown.Active(ctx, key)
	if err != nil {
		return "", err
	}
	if active {
		return outcomeSuppressed, nil
	}

	decision, err := rule.Evaluate(ctx, EvalContext{
		Project:   project,
		Execution: e,
		Store:     ev.executions,
		Now:       ev.now(),
	})
	if err != nil {
		return "", err
	}
	if !decision.Triggered {
		return outcomeNotTriggered, nil
	}

	// claimed before dispatch and kept whatever the delivery outcome
	won, err := ev.cooldown.CheckAndSet(ctx, key, ev.cooldownTTL)
	if err != nil {
		return "", err
	}
	if !won {
		return outcomeSuppressed, nil
	}

	alert := ev.buildAlert(project, cfg, e, decision)
	res := ev.dispatcher.Dispatch(ctx, alert)
	pkgmetrics.RecordAlertFired(string(cfg.AlertType), string(alert.Severity))
	log.Infow("alert triggered", "alertId", alert.AlertID, "projectId", project.ID,
		"alertType", cfg.AlertType, "delivered", res.Success, "channelsSent", res.ChannelsSent)
	return outcomeTriggered, nil
}

func (ev *Evaluator) buildAlert(project *model.Project, cfg *model.AlertConfig, e *model.Execution, d Decision) *model.Alert {
	alert := &model.Alert{
		AlertID:        id.GetUlid(),
		ProjectID:      project.ID,
		ProjectName:    project.Name,
		AlertType:      cfg.AlertType,
		Severity:       cfg.AlertType.Severity(),
		Message:        Message(cfg.AlertType, project.Name, e),
		ThresholdValue: cfg.ThresholdValue,
		Channels:       append([]string{}, cfg.NotificationChannels...),
		Detail:         d.Detail,
		Timestamp:      ev.now().UTC(),
	}
	if e != nil {
		execID := e.ID
		alert.ExecutionID = &execID
	}
	return alert
}

// Message renders the human readable alert text.
func Message(t model.AlertType, projectName string, e *model.Execution) string {
	switch t {
	case model.AlertFailureRate:
		return fmt.Sprintf("High failure rate detected in %s", projectName)
	case model.AlertBuildDuration:
		minutes := 0.0
		if e != nil && e.DurationSeconds != nil {
			minutes = float64(*e.DurationSeconds) / 60
		}
		return fmt.Sprintf("Build duration alert for %s: %.1f minutes", projectName, minutes)
	case model.AlertConsecutiveFailures:
		return fmt.Sprintf("Consecutive failures detected in %s", projectName)
	case model.AlertQueueTime:
		return fmt.Sprintf("Builds queued too long in %s", projectName)
	default:
		return fmt.Sprintf("Test alert for project %s", projectName)
	}
}

// TestAlert sends a test alert for the project, bypassing rules and cooldown.
// Unknown channel names are skipped by the dispatcher.
func (ev *Evaluator) TestAlert(ctx context.Context, projectID uint64, channels []string) (*model.Alert, *notify.Result, error) {
	project, err := ev.projects.Get(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	alert, res := ev.dispatcher.SendTest(ctx, project, channels)
	return alert, res, nil
}
