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

import "time"

// Period is a normalized window token.
type Period string

const (
	Period1d  Period = "1d"
	Period7d  Period = "7d"
	Period30d Period = "30d"
	Period90d Period = "90d"
)

// AllPeriods are the windows exposed through the API and cached per project.
var AllPeriods = []Period{Period1d, Period7d, Period30d, Period90d}

// PrecomputePeriods are refreshed by the periodic precompute job.
var PrecomputePeriods = []Period{Period1d, Period7d, Period30d}

// ParsePeriod maps unknown tokens to 7d.
func ParsePeriod(token string) Period {
	switch Period(token) {
	case Period1d, Period7d, Period30d, Period90d:
		return Period(token)
	default:
		return Period7d
	}
}

func (p Period) Duration() time.Duration {
	day := 24 * time.Hour
	switch p {
	case Period1d:
		return day
	case Period30d:
		return 30 * day
	case Period90d:
		return 90 * day
	default:
		return 7 * day
	}
}

// Since returns the window start relative to now.
func (p Period) Since(now time.Time) time.Time {
	return now.Add(-p.Duration())
}
