package manifest_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/internal/manifest"
	"github.com/runforge/arc/internal/models"
	"github.com/runforge/arc/internal/store"
)

func newService(t *testing.T) *manifest.Service {
	t.Helper()
	s, err := store.New(t.TempDir(), logger.NewNoOpLog())
	require.NoError(t, err)
	return manifest.NewService(s, logger.NoOpLogFactory)
}

func TestInitialize_IsANoOpOnSecondCall(t *testing.T) {
	svc := newService(t)
	fp := &models.DatasetFingerprint{Hash: "abc", RowCount: 10}
	require.NoError(t, svc.Initialize("abcd1234", fp))
	require.NoError(t, svc.Initialize("abcd1234", &models.DatasetFingerprint{Hash: "different"}))

	m, err := svc.Get("abcd1234")
	require.NoError(t, err)
	require.Equal(t, "abc", m.Fingerprint.Hash)
}

func TestAddWarning_DedupesByCodeAndPath(t *testing.T) {
	svc := newService(t)
	require.NoError(t, svc.AddWarning("abcd1234", models.Warning{Code: "X", Path: "a", Message: "first"}))
	require.NoError(t, svc.AddWarning("abcd1234", models.Warning{Code: "X", Path: "a", Message: "second"}))
	require.NoError(t, svc.AddWarning("abcd1234", models.Warning{Code: "X", Path: "b", Message: "third"}))

	m, err := svc.Get("abcd1234")
	require.NoError(t, err)
	require.Len(t, m.Warnings, 2)
	require.Equal(t, "first", m.Warnings[0].Message)
}

func TestSeal_RejectsFurtherWrites(t *testing.T) {
	svc := newService(t)
	require.NoError(t, svc.Seal("abcd1234", "all steps complete"))

	err := svc.AddWarning("abcd1234", models.Warning{Code: "Y"})
	require.Error(t, err)

	m, err := svc.Get("abcd1234")
	require.NoError(t, err)
	require.True(t, m.Sealed)
}

func TestSeal_IsIdempotent(t *testing.T) {
	svc := newService(t)
	require.NoError(t, svc.Seal("abcd1234", "first"))
	require.NoError(t, svc.Seal("abcd1234", "second"))
}
