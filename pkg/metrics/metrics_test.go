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
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsServer_RegistersCollectors(t *testing.T) {
	server := NewMetricsServer(MetricsConfig{})

	RecordEvaluation("failure_rate", OutcomeTriggered)
	RecordCronJobRun("alert_sweep", time.Millisecond, nil)

	families, err := server.GetRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["pulse_alert_evaluations_total"])
	assert.True(t, names["pulse_cron_job_runs_total"])
	assert.True(t, names["go_goroutines"])
}

func TestRecordNotificationSend(t *testing.T) {
	before := testutil.ToFloat64(NotificationSendsTotal.WithLabelValues("slack", OutcomeFailure))
	RecordNotificationSend("slack", 10*time.Millisecond, errors.New("timeout"))
	after := testutil.ToFloat64(NotificationSendsTotal.WithLabelValues("slack", OutcomeFailure))
	assert.Equal(t, before+1, after)
}

func TestRecordCronJobRun_Error(t *testing.T) {
	before := testutil.ToFloat64(CronJobErrorsTotal.WithLabelValues("daily_rollup"))
	RecordCronJobRun("daily_rollup", time.Second, errors.New("db down"))
	assert.Equal(t, before+1, testutil.ToFloat64(CronJobErrorsTotal.WithLabelValues("daily_rollup")))
}

func TestServer_StartDisabled(t *testing.T) {
	server := NewServer(MetricsConfig{Enable: false})
	require.NoError(t, server.Start())
	require.NoError(t, server.Stop(t.Context()))
}
