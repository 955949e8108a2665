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

// Package errs holds the error kinds shared by the services and the HTTP
// layer. Wrap a sentinel with context and match it with errors.Is.
package errs

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound referenced project, execution or config does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation malformed alert config or execution payload.
	ErrValidation = errors.New("validation failed")
	// ErrConflict the natural key already exists.
	ErrConflict = errors.New("already exists")
	// ErrTransientDelivery a notification channel was unreachable or timed out.
	ErrTransientDelivery = errors.New("delivery failed")
	// ErrAggregation an underlying metrics query failed.
	ErrAggregation = errors.New("aggregation failed")
	// ErrEvaluation evaluating one alert config failed.
	ErrEvaluation = errors.New("evaluation failed")
	// ErrUnauthorized webhook signature mismatch.
	ErrUnauthorized = errors.New("unauthorized")
)

func NotFound(format string, args ...any) error {
	return errors.Wrapf(ErrNotFound, format, args...)
}

func Validation(format string, args ...any) error {
	return errors.Wrapf(ErrValidation, format, args...)
}

func Conflict(format string, args ...any) error {
	return errors.Wrapf(ErrConflict, format, args...)
}

func Unauthorized(format string, args ...any) error {
	return errors.Wrapf(ErrUnauthorized, format, args...)
}

// Delivery marks cause as a transient delivery failure.
func Delivery(cause error, channel string) error {
	return &kindError{kind: ErrTransientDelivery, cause: errors.Wrapf(cause, "channel %s", channel)}
}

// Aggregation marks cause as a failed metrics computation.
func Aggregation(cause error, op string) error {
	return &kindError{kind: ErrAggregation, cause: errors.Wrap(cause, op)}
}

// Evaluation marks cause as a failed alert config evaluation.
func Evaluation(cause error, configID uint64) error {
	return &kindError{kind: ErrEvaluation, cause: errors.Wrapf(cause, "alert config %d", configID)}
}

// kindError keeps both the kind and the original cause reachable through
// errors.Is.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string {
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *kindError) Unwrap() []error {
	return []error{e.kind, e.cause}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// Message returns the text a client should see, without the trailing
// sentinel added by the constructors above.
func Message(err error) string {
	msg := err.Error()
	for _, kind := range []error{ErrNotFound, ErrValidation, ErrConflict, ErrUnauthorized} {
		if errors.Is(err, kind) {
			return strings.TrimSuffix(msg, ": "+kind.Error())
		}
	}
	return msg
}
