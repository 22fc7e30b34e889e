// Package manifest implements the Run Manifest (spec §4.2): the
// authoritative per-run record of what ran, what was produced, and whether
// the run can be trusted. The manifest is itself a promotable artifact
// (`run_manifest`) written through the Artifact Store.
package manifest

import (
	"sync"

	"github.com/runforge/arc/common/gerror"
	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/internal/models"
)

const documentName = "run_manifest"

// Store is the subset of the Artifact Store the manifest service depends on.
type Store interface {
	Write(runID, name string, document interface{}) error
	ReadInto(runID, name string, out interface{}) (bool, error)
}

// Service serializes all writes to a given run's manifest behind an
// in-memory mutex, matching the single-writer-per-transition contract from
// spec §5 ("The Manifest is single-writer per transition; concurrent
// add_warning is safe via append semantics").
type Service struct {
	store Store
	log   logger.Log

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewService(store Store, logFactory logger.LogFactory) *Service {
	return &Service{
		store: store,
		log:   logFactory("manifest"),
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *Service) lockFor(runID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[runID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[runID] = l
	}
	return l
}

func (s *Service) load(runID string) (*models.Manifest, error) {
	m := models.NewManifest(models.RunID(runID))
	_, err := s.store.ReadInto(runID, documentName, m)
	if err != nil {
		return nil, err
	}
	if m.Artifacts == nil {
		m.Artifacts = make(map[models.ArtifactName]models.ArtifactMetadata)
	}
	return m, nil
}

func (s *Service) save(runID string, m *models.Manifest) error {
	return s.store.Write(runID, documentName, m)
}

// Initialize creates the manifest once; subsequent calls are no-ops
// (spec §4.2).
func (s *Service) Initialize(runID string, fingerprint *models.DatasetFingerprint) error {
	lock := s.lockFor(runID)
	lock.Lock()
	defer lock.Unlock()

	m, err := s.load(runID)
	if err != nil {
		return err
	}
	if m.Fingerprint != nil {
		return nil
	}
	m.Fingerprint = fingerprint
	return s.save(runID, m)
}

// UpdateStepStatus appends a transition; last wins per step (spec §4.2).
func (s *Service) UpdateStepStatus(runID string, step models.StepName, status models.StepStatus, message string, at models.Time) error {
	lock := s.lockFor(runID)
	lock.Lock()
	defer lock.Unlock()

	m, err := s.load(runID)
	if err != nil {
		return err
	}
	if m.Sealed {
		s.log.WithField("run_id", runID).Warn("ignored step status write after manifest seal")
		return gerror.NewErrManifestSealed(runID)
	}
	m.StepHistory = append(m.StepHistory, models.StepTransition{
		Step:    step,
		Status:  status,
		At:      at,
		Message: message,
	})
	return s.save(runID, m)
}

// RecordArtifact is called by the Artifact Store's caller when a promotion
// succeeds (spec §4.2).
func (s *Service) RecordArtifact(runID string, name models.ArtifactName, metadata models.ArtifactMetadata) error {
	lock := s.lockFor(runID)
	lock.Lock()
	defer lock.Unlock()

	m, err := s.load(runID)
	if err != nil {
		return err
	}
	if m.Sealed {
		return gerror.NewErrManifestSealed(runID)
	}
	m.Artifacts[name] = metadata
	return s.save(runID, m)
}

// AddWarning appends, deduplicating by (code, path) (spec §4.2).
func (s *Service) AddWarning(runID string, warning models.Warning) error {
	lock := s.lockFor(runID)
	lock.Lock()
	defer lock.Unlock()

	m, err := s.load(runID)
	if err != nil {
		return err
	}
	if m.Sealed {
		s.log.WithField("run_id", runID).Warn("ignored warning after manifest seal")
		return gerror.NewErrManifestSealed(runID)
	}
	m.AddWarning(warning)
	return s.save(runID, m)
}

// UpdateTrust is single-writer, last wins (spec §4.2).
func (s *Service) UpdateTrust(runID string, trust models.Trust) error {
	lock := s.lockFor(runID)
	lock.Lock()
	defer lock.Unlock()

	m, err := s.load(runID)
	if err != nil {
		return err
	}
	if m.Sealed {
		return gerror.NewErrManifestSealed(runID)
	}
	m.Trust = &trust
	return s.save(runID, m)
}

// Seal prohibits further writes and stores the render policy returned by
// derivedRenderPolicy. It does not fill in a default trust object.
func (s *Service) Seal(runID string, reason string) error {
	lock := s.lockFor(runID)
	lock.Lock()
	defer lock.Unlock()

	m, err := s.load(runID)
	if err != nil {
		return err
	}
	if m.Sealed {
		return nil
	}
	m.RenderPolicy = derivedRenderPolicy(m)
	m.Sealed = true
	m.SealReason = reason
	return s.save(runID, m)
}

// derivedRenderPolicy sets ShowTrust when a trust object is recorded and
// ShowCharts when an enhanced_analytics artifact is recorded, overwriting
// any earlier value of those two flags; HiddenArtifacts is kept as is.
// Step statuses are not consulted.
func derivedRenderPolicy(m *models.Manifest) models.RenderPolicy {
	policy := m.RenderPolicy
	policy.ShowTrust = m.Trust != nil
	_, hasCharts := m.Artifacts["enhanced_analytics"]
	policy.ShowCharts = hasCharts
	return policy
}

// Get returns the current manifest document for runID.
func (s *Service) Get(runID string) (*models.Manifest, error) {
	lock := s.lockFor(runID)
	lock.Lock()
	defer lock.Unlock()
	return s.load(runID)
}
