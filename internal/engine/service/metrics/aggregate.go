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
	"math"
	"sort"
	"time"

	"github.com/go-arcade/pulse/internal/engine/model"
)

const dateLayout = "2006-01-02"

// SuccessRate is successful/total as a percentage with one decimal, 0 when total is 0.
func SuccessRate(successful, total int) float64 {
	if total <= 0 {
		return 0
	}
	return model.Round1(float64(successful) / float64(total) * 100)
}

// tally accumulates counts and durations over a set of executions.
type tally struct {
	total, successful, failed int
	durationSum, durations    int
	min, max                  int
	branches                  map[string]struct{}
}

func (t *tally) add(e *model.Execution) {
	t.total++
	switch e.Status {
	case model.StatusSuccess:
		t.successful++
	case model.StatusFailure:
		t.failed++
	}
	if e.DurationSeconds != nil {
		t.addDuration(*e.DurationSeconds)
	}
	if t.branches != nil && e.Branch != "" {
		t.branches[e.Branch] = struct{}{}
	}
}

func (t *tally) addDuration(d int) {
	if t.durations == 0 || d < t.min {
		t.min = d
	}
	if t.durations == 0 || d > t.max {
		t.max = d
	}
	t.durationSum += d
	t.durations++
}

func (t *tally) successRate() float64 {
	return SuccessRate(t.successful, t.total)
}

// avgMinutes is the mean known duration in minutes, 0 when none is known.
func (t *tally) avgMinutes() float64 {
	if t.durations == 0 {
		return 0
	}
	return model.Round1(float64(t.durationSum) / float64(t.durations) / 60)
}

func (t *tally) avgSeconds() float64 {
	if t.durations == 0 {
		return 0
	}
	return float64(t.durationSum) / float64(t.durations)
}

func tallyOf(rows []*model.Execution) *tally {
	t := &tally{}
	for _, e := range rows {
		t.add(e)
	}
	return t
}

// Summarize builds the windowed summary. latest and queue come from
// unwindowed queries.
func Summarize(rows []*model.Execution, latest *model.Execution, queue model.QueueCounts) Summary {
	t := tallyOf(rows)
	s := Summary{
		TotalExecutions:      t.total,
		SuccessfulExecutions: t.successful,
		FailedExecutions:     t.failed,
		SuccessRate:          t.successRate(),
		AvgDurationMinutes:   t.avgMinutes(),
		QueueStatus:          queue,
	}
	if latest != nil {
		s.LastExecution = &LastExecution{
			ID:              latest.ID,
			ExecutionID:     latest.ExecutionID,
			Status:          latest.Status,
			DurationMinutes: model.Minutes(latest.DurationSeconds),
			CompletedAt:     latest.CompletedAt,
			Branch:          latest.Branch,
		}
	}
	return s
}

func dayOf(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// groupByDay buckets rows by UTC date, keys ascending.
func groupByDay(rows []*model.Execution, branches bool) ([]string, map[string]*tally) {
	byDay := make(map[string]*tally)
	for _, e := range rows {
		day := dayOf(e.CreatedAt)
		t, ok := byDay[day]
		if !ok {
			t = &tally{}
			if branches {
				t.branches = make(map[string]struct{})
			}
			byDay[day] = t
		}
		t.add(e)
	}
	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)
	return days, byDay
}

// DailyBuckets has one bucket per UTC date with at least one execution.
func DailyBuckets(rows []*model.Execution) []DailyBucket {
	days, byDay := groupByDay(rows, false)
	out := make([]DailyBucket, 0, len(days))
	for _, day := range days {
		t := byDay[day]
		out = append(out, DailyBucket{
			Date:        day,
			Executions:  t.total,
			SuccessRate: t.successRate(),
			AvgDuration: t.avgMinutes(),
		})
	}
	return out
}

// TrendBuckets is DailyBuckets plus the distinct branch count per day.
func TrendBuckets(rows []*model.Execution) []TrendBucket {
	days, byDay := groupByDay(rows, true)
	out := make([]TrendBucket, 0, len(days))
	for _, day := range days {
		t := byDay[day]
		out = append(out, TrendBucket{
			Date:               day,
			Executions:         t.total,
			SuccessRate:        t.successRate(),
			AvgDurationMinutes: t.avgMinutes(),
			UniqueBranches:     len(t.branches),
		})
	}
	return out
}

// HourlyBuckets groups rows created at or after since by UTC hour of day.
func HourlyBuckets(rows []*model.Execution, since time.Time) []HourlyBucket {
	byHour := make(map[int]*tally)
	for _, e := range rows {
		if e.CreatedAt.Before(since) {
			continue
		}
		h := e.CreatedAt.UTC().Hour()
		t, ok := byHour[h]
		if !ok {
			t = &tally{}
			byHour[h] = t
		}
		t.add(e)
	}
	out := make([]HourlyBucket, 0, len(byHour))
	for h, t := range byHour {
		out = append(out, HourlyBucket{Hour: h, Executions: t.total, SuccessRate: t.successRate()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out
}

// StatusDistribution counts rows per status, sorted by status name.
func StatusDistribution(rows []*model.Execution) []StatusCount {
	counts := make(map[model.ExecutionStatus]int)
	for _, e := range rows {
		counts[e.Status]++
	}
	out := make([]StatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, StatusCount{Status: status, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out
}

// DurationTrend turns newest-first rows into an oldest-first series.
func DurationTrend(newestFirst []*model.Execution) []DurationPoint {
	out := make([]DurationPoint, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		e := newestFirst[i]
		if e.DurationSeconds == nil {
			continue
		}
		out = append(out, DurationPoint{
			ExecutionID:     e.ExecutionID,
			DurationMinutes: *model.Minutes(e.DurationSeconds),
			CreatedAt:       e.CreatedAt,
		})
	}
	return out
}

// Calculate builds the compact evaluator metric from window rows and the
// window's known durations in seconds.
func Calculate(projectID uint64, period Period, rows []*model.Execution, durations []int, now time.Time) *AggregatedMetric {
	t := tallyOf(rows)
	d := &tally{}
	for _, v := range durations {
		d.addDuration(v)
	}
	m := &AggregatedMetric{
		ProjectID:            projectID,
		Period:               period,
		TotalExecutions:      t.total,
		SuccessfulExecutions: t.successful,
		FailedExecutions:     t.failed,
		SuccessRate:          t.successRate(),
		AvgDurationMinutes:   d.avgMinutes(),
		CalculatedAt:         now,
	}
	if d.durations > 0 {
		m.MinDurationMinutes = model.Round1(float64(d.min) / 60)
		m.MaxDurationMinutes = model.Round1(float64(d.max) / 60)
	}
	return m
}

// BuildOverview aggregates rows of the given projects. Only projects with
// at least one execution appear in the breakdown.
func BuildOverview(projects []*model.Project, rows []*model.Execution) (OverviewTotals, []ProjectBreakdown) {
	byID := make(map[uint64]*model.Project, len(projects))
	for _, p := range projects {
		byID[p.ID] = p
	}
	all := &tally{}
	perProject := make(map[uint64]*tally)
	for _, e := range rows {
		if _, ok := byID[e.ProjectID]; !ok {
			continue
		}
		all.add(e)
		t, ok := perProject[e.ProjectID]
		if !ok {
			t = &tally{}
			perProject[e.ProjectID] = t
		}
		t.add(e)
	}

	totals := OverviewTotals{
		TotalExecutions:      all.total,
		SuccessfulExecutions: all.successful,
		SuccessRate:          all.successRate(),
		ActiveProjects:       len(perProject),
		AvgDurationMinutes:   all.avgMinutes(),
	}
	breakdown := make([]ProjectBreakdown, 0, len(perProject))
	for id, t := range perProject {
		p := byID[id]
		breakdown = append(breakdown, ProjectBreakdown{
			ID:                 id,
			Name:               p.Name,
			CISystem:           p.CISystem,
			Executions:         t.total,
			SuccessRate:        t.successRate(),
			AvgDurationMinutes: t.avgMinutes(),
		})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Executions != breakdown[j].Executions {
			return breakdown[i].Executions > breakdown[j].Executions
		}
		return breakdown[i].ID < breakdown[j].ID
	})
	return totals, breakdown
}

func windowStats(rows []*model.Execution) (WindowStats, float64) {
	t := tallyOf(rows)
	return WindowStats{
		TotalExecutions:    t.total,
		SuccessRate:        t.successRate(),
		AvgDurationMinutes: t.avgMinutes(),
	}, t.avgSeconds()
}

// Compare builds current vs previous window stats.
func Compare(current, previous []*model.Execution) (WindowStats, WindowStats, Changes) {
	cur, curAvg := windowStats(current)
	prev, prevAvg := windowStats(previous)
	curRate := rawRate(current)
	prevRate := rawRate(previous)

	changes := Changes{
		SuccessRateChange:    model.Round1(curRate - prevRate),
		ExecutionCountChange: cur.TotalExecutions - prev.TotalExecutions,
	}
	if curAvg > 0 && prevAvg > 0 {
		changes.DurationChangePercent = model.Round1((curAvg - prevAvg) / prevAvg * 100)
	}
	return cur, prev, changes
}

func rawRate(rows []*model.Execution) float64 {
	t := tallyOf(rows)
	if t.total == 0 {
		return 0
	}
	return float64(t.successful) / float64(t.total) * 100
}

// DailyRollup converts rows into per-day DailyMetric rows for projectID.
func DailyRollup(projectID uint64, rows []*model.Execution) []*model.DailyMetric {
	days, byDay := groupByDay(rows, false)
	out := make([]*model.DailyMetric, 0, len(days))
	for _, day := range days {
		t := byDay[day]
		date, _ := time.ParseInLocation(dateLayout, day, time.UTC)
		out = append(out, &model.DailyMetric{
			ProjectID:            projectID,
			Date:                 date,
			TotalExecutions:      int64(t.total),
			SuccessfulExecutions: int64(t.successful),
			FailedExecutions:     int64(t.failed),
			AvgDurationSeconds:   math.Round(t.avgSeconds()*100) / 100,
			TotalDurationSeconds: int64(t.durationSum),
		})
	}
	return out
}
