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

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeTriggered  = "triggered"
	OutcomeSuppressed = "suppressed"
	OutcomeNotMet     = "not_met"
	OutcomeError      = "error"
	OutcomeSuccess    = "success"
	OutcomeFailure    = "failure"
	OutcomeSkipped    = "skipped"
)

var (
	AlertEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_alert_evaluations_total",
			Help: "Alert config evaluations by alert type and outcome",
		},
		[]string{"alert_type", "outcome"},
	)

	AlertsFiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_alerts_fired_total",
			Help: "Alerts handed to the dispatcher",
		},
		[]string{"alert_type", "severity"},
	)

	NotificationSendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_notification_sends_total",
			Help: "Per-channel notification attempts by outcome",
		},
		[]string{"channel", "outcome"},
	)

	NotificationSendDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_notification_send_duration_seconds",
			Help:    "Duration of a single channel send",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"channel"},
	)

	DispatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_dispatches_total",
			Help: "Dispatch calls by overall result",
		},
		[]string{"outcome"},
	)

	AggregationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_aggregation_duration_seconds",
			Help:    "Duration of metrics aggregations",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"operation"},
	)

	MetricsCacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_metrics_cache_lookups_total",
			Help: "Metrics cache lookups by result",
		},
		[]string{"result"},
	)

	ExecutionsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_executions_ingested_total",
			Help: "Execution writes by source and status",
		},
		[]string{"source", "status"},
	)

	WebsocketConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pulse_websocket_connections",
			Help: "Open websocket connections",
		},
	)

	pulseMetricsOnce sync.Once
)

func RegisterPulseMetrics(registry prometheus.Registerer) {
	pulseMetricsOnce.Do(func() {
		registry.MustRegister(
			AlertEvaluationsTotal,
			AlertsFiredTotal,
			NotificationSendsTotal,
			NotificationSendDurationSeconds,
			DispatchesTotal,
			AggregationDurationSeconds,
			MetricsCacheLookupsTotal,
			ExecutionsIngestedTotal,
			WebsocketConnections,
		)
	})
}

func RecordEvaluation(alertType, outcome string) {
	AlertEvaluationsTotal.WithLabelValues(alertType, outcome).Inc()
}

func RecordAlertFired(alertType, severity string) {
	AlertsFiredTotal.WithLabelValues(alertType, severity).Inc()
}

func RecordNotificationSend(channel string, duration time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	NotificationSendsTotal.WithLabelValues(channel, outcome).Inc()
	NotificationSendDurationSeconds.WithLabelValues(channel).Observe(duration.Seconds())
}

func RecordDispatch(success bool) {
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFailure
	}
	DispatchesTotal.WithLabelValues(outcome).Inc()
}

func ObserveAggregation(operation string, start time.Time) {
	AggregationDurationSeconds.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	MetricsCacheLookupsTotal.WithLabelValues(result).Inc()
}

func RecordExecutionIngested(source, status string) {
	ExecutionsIngestedTotal.WithLabelValues(source, status).Inc()
}
