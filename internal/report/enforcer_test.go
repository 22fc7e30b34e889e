package report_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/internal/report"
	"github.com/runforge/arc/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(t.TempDir(), logger.NewNoOpLog())
	require.NoError(t, err)
	return s
}

func TestEnforce_SucceedsWhenBothFormsPresent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write("run-1", "final_report", map[string]interface{}{"content": "hello"}))
	require.NoError(t, s.WriteFile("run-1", "final_report.md", strings.NewReader("hello")))

	e := report.NewEnforcer(s, logger.NoOpLogFactory)
	require.True(t, e.Enforce(context.Background(), "run-1"))
}

func TestEnforce_FailsWhenDocMissing(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.WriteFile("run-1", "final_report.md", strings.NewReader("hello")))

	e := report.NewEnforcer(s, logger.NoOpLogFactory).WithMaxWait(50 * time.Millisecond)
	require.False(t, e.Enforce(context.Background(), "run-1"))
}

func TestEnforce_FailsWhenFileEmpty(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Write("run-1", "final_report", map[string]interface{}{"content": ""}))
	require.NoError(t, s.WriteFile("run-1", "final_report.md", strings.NewReader("")))

	e := report.NewEnforcer(s, logger.NoOpLogFactory).WithMaxWait(50 * time.Millisecond)
	require.False(t, e.Enforce(context.Background(), "run-1"))
}

func TestEnforce_SucceedsIfReportAppearsMidPoll(t *testing.T) {
	s := newTestStore(t)
	e := report.NewEnforcer(s, logger.NoOpLogFactory).WithMaxWait(2 * time.Second)

	go func() {
		time.Sleep(100 * time.Millisecond)
		s.Write("run-1", "final_report", map[string]interface{}{"content": "hello"})
		s.WriteFile("run-1", "final_report.md", strings.NewReader("hello"))
	}()

	require.True(t, e.Enforce(context.Background(), "run-1"))
}
