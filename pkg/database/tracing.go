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

package database

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const gormTracerName = "github.com/go-arcade/pulse/pkg/database"

type spanKey struct{}

type spanState struct {
	span  trace.Span
	start time.Time
}

// TracingPlugin opens a client span around every gorm statement using the
// global tracer provider.
type TracingPlugin struct {
	WithQuery bool
	tracer    trace.Tracer
}

func (p *TracingPlugin) Name() string {
	return "pulse:tracing"
}

func (p *TracingPlugin) Initialize(db *gorm.DB) error {
	p.tracer = otel.Tracer(gormTracerName)

	cb := db.Callback()
	hooks := []struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, h := range hooks {
		if err := h.before("pulse:tracing:before", p.before(h.op)); err != nil {
			return err
		}
		if err := h.after("pulse:tracing:after", p.after); err != nil {
			return err
		}
	}
	return nil
}

func (p *TracingPlugin) before(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		if db.Statement == nil {
			return
		}
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, span := p.tracer.Start(ctx, "gorm."+op, trace.WithSpanKind(trace.SpanKindClient))
		attrs := []attribute.KeyValue{
			attribute.String("db.system", "mysql"),
			attribute.String("db.operation", op),
		}
		if db.Statement.Table != "" {
			attrs = append(attrs, attribute.String("db.sql.table", db.Statement.Table))
		}
		span.SetAttributes(attrs...)
		db.Statement.Context = context.WithValue(ctx, spanKey{}, &spanState{span: span, start: time.Now()})
	}
}

func (p *TracingPlugin) after(db *gorm.DB) {
	if db.Statement == nil || db.Statement.Context == nil {
		return
	}
	state, ok := db.Statement.Context.Value(spanKey{}).(*spanState)
	if !ok {
		return
	}
	defer state.span.End()

	state.span.SetAttributes(
		attribute.Int64("db.duration_ms", time.Since(state.start).Milliseconds()),
		attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
	)
	if p.WithQuery {
		state.span.SetAttributes(attribute.String("db.statement", db.Statement.SQL.String()))
	}
	if err := db.Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		state.span.SetStatus(codes.Error, err.Error())
		state.span.RecordError(err)
	}
}
