package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/runforge/arc/common/logger"
)

func TestStore_WriteReadRoundTrip(t *testing.T) {
	s, err := New(t.TempDir(), logger.NewNoOpLog())
	require.NoError(t, err)

	type profile struct {
		Rows int `json:"rows"`
	}
	require.NoError(t, s.Write("abcd1234", "profile", profile{Rows: 42}))

	var out profile
	ok, err := s.ReadInto("abcd1234", "profile", &out)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 42, out.Rows)
}

func TestStore_ReadAbsentReturnsNotFound(t *testing.T) {
	s, err := New(t.TempDir(), logger.NewNoOpLog())
	require.NoError(t, err)

	_, ok, err := s.Read("abcd1234", "does_not_exist")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	s, err := New(t.TempDir(), logger.NewNoOpLog())
	require.NoError(t, err)

	require.NoError(t, s.Delete("abcd1234", "never_written"))
	require.NoError(t, s.Write("abcd1234", "name", map[string]string{"a": "b"}))
	require.NoError(t, s.Delete("abcd1234", "name"))
	require.NoError(t, s.Delete("abcd1234", "name"))

	exists, err := s.Exists("abcd1234", "name")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestStore_WriteInvalidatesOwnCache(t *testing.T) {
	s, err := New(t.TempDir(), logger.NewNoOpLog())
	require.NoError(t, err)

	require.NoError(t, s.Write("abcd1234", "x", map[string]int{"v": 1}))
	var first map[string]int
	_, err = s.ReadInto("abcd1234", "x", &first)
	require.NoError(t, err)
	require.Equal(t, 1, first["v"])

	require.NoError(t, s.Write("abcd1234", "x", map[string]int{"v": 2}))
	var second map[string]int
	_, err = s.ReadInto("abcd1234", "x", &second)
	require.NoError(t, err)
	require.Equal(t, 2, second["v"])
}

func TestStore_AppendAccumulatesRecords(t *testing.T) {
	s, err := New(t.TempDir(), logger.NewNoOpLog())
	require.NoError(t, err)

	require.NoError(t, s.Append("abcd1234", "warnings", map[string]string{"code": "A"}))
	require.NoError(t, s.Append("abcd1234", "warnings", map[string]string{"code": "B"}))

	var out []map[string]string
	_, err = s.ReadInto("abcd1234", "warnings", &out)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "A", out[0]["code"])
	require.Equal(t, "B", out[1]["code"])
}

func TestStore_ListFiltersByGlob(t *testing.T) {
	s, err := New(t.TempDir(), logger.NewNoOpLog())
	require.NoError(t, err)

	require.NoError(t, s.Write("abcd1234", "profile", map[string]int{}))
	require.NoError(t, s.Write("abcd1234", "profile_pending", map[string]int{}))
	require.NoError(t, s.Write("abcd1234", "final_report", map[string]int{}))

	all, err := s.List("abcd1234", "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	pending, err := s.List("abcd1234", "*_pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "profile_pending", pending[0].Name)
}
