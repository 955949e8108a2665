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

package repo

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// recordingConn is a database/sql connector that records every query and
// answers it with canned rows, so the real mysql dialector builds the SQL.
type recordingConn struct {
	mu      sync.Mutex
	queries []string
	args    [][]any
	columns []string
	rows    [][]driver.Value
}

func (c *recordingConn) Connect(context.Context) (driver.Conn, error) { return c, nil }
func (c *recordingConn) Driver() driver.Driver { return c }
func (c *recordingConn) Open(string) (driver.Conn, error) { return c, nil }

func (c *recordingConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}
func (c *recordingConn) Close() error { return nil }
func (c *recordingConn) Begin() (driver.Tx, error) { return nil, errors.New("tx not supported") }

func (c *recordingConn) CheckNamedValue(*driver.NamedValue) error { return nil }

func (c *recordingConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	vals := make([]any, 0, len(args))
	for _, a := range args {
		vals = append(vals, a.Value)
	}
	c.queries = append(c.queries, query)
	c.args = append(c.args, vals)
	return &cannedRows{columns: c.columns, data: c.rows}, nil
}

func (c *recordingConn) last() (string, []any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queries) == 0 {
		return "", nil
	}
	n := len(c.queries) - 1
	return c.queries[n], c.args[n]
}

type cannedRows struct {
	columns []string
	data    [][]driver.Value
	i       int
}

func (r *cannedRows) Columns() []string { return r.columns }
func (r *cannedRows) Close() error { return nil }

func (r *cannedRows) Next(dest []driver.Value) error {
	if r.i >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.i])
	r.i++
	return nil
}

func newRecordedExecutionRepo(t *testing.T, columns []string, rows [][]driver.Value) (IExecutionRepository, *recordingConn) {
	t.Helper()
	conn := &recordingConn{columns: columns, rows: rows}
	sqlDB := sql.OpenDB(conn)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	require.NoError(t, err)
	return NewExecutionRepo(database.NewGormDB(db)), conn
}

func TestExecutionRepo_SuccessfulDurationAverage(t *testing.T) {
	ctx := context.Background()
	since := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	r, conn := newRecordedExecutionRepo(t, []string{"avg", "count"}, [][]driver.Value{{float64(240), int64(3)}})
	avg, ok, err := r.SuccessfulDurationAverage(ctx, 7, since, 42)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.InDelta(t, 240, avg, 0.001)

	query, args := conn.last()
	assert.Contains(t, query, "AVG(duration_seconds) AS avg")
	assert.Contains(t, query, "id <> ?")
	assert.Equal(t, []any{uint64(7), model.StatusSuccess, since, uint64(42)}, args)

	// AVG over no rows is NULL
	r, _ = newRecordedExecutionRepo(t, []string{"avg", "count"}, [][]driver.Value{{nil, int64(0)}})
	_, ok, err = r.SuccessfulDurationAverage(ctx, 7, since, 42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExecutionRepo_RecentTerminalOnBranch(t *testing.T) {
	ctx := context.Background()
	newer := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	r, conn := newRecordedExecutionRepo(t,
		[]string{"id", "project_id", "branch", "status", "created_at"},
		[][]driver.Value{
			{int64(9), int64(7), "main", "failure", newer},
			{int64(8), int64(7), "main", "success", older},
		})
	got, err := r.RecentTerminalOnBranch(ctx, 7, "main", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(9), got[0].ID)
	assert.Equal(t, model.StatusFailure, got[0].Status)
	assert.Equal(t, older, got[1].CreatedAt)

	query, args := conn.last()
	assert.Contains(t, query, "status IN (?,?)")
	assert.Contains(t, query, "ORDER BY created_at DESC,id DESC LIMIT ?")
	assert.Equal(t, []any{uint64(7), "main", model.StatusSuccess, model.StatusFailure, 5}, args)
}

func TestExecutionRepo_QueueCounts(t *testing.T) {
	r, conn := newRecordedExecutionRepo(t,
		[]string{"status", "count"},
		[][]driver.Value{{[]byte("running"), int64(2)}, {[]byte("pending"), int64(5)}})

	qc, err := r.QueueCounts(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(5), qc.Pending)
	assert.Equal(t, int64(2), qc.Running)

	query, args := conn.last()
	assert.Contains(t, query, "COUNT(*) AS count")
	assert.Contains(t, query, "GROUP BY")
	assert.Equal(t, []any{uint64(7), model.StatusPending, model.StatusRunning}, args)
}
