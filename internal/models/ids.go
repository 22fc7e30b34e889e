package models

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
)

// RunIDPattern is the validation regex applied to run_id at every external
// boundary (spec §3, §6). Requests that don't match are rejected before any
// store access.
var RunIDPattern = regexp.MustCompile(`^[a-f0-9-]{8,36}$`)

// ArtifactNamePattern validates artifact and step names.
var ArtifactNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// RunID is an opaque, URL-safe run identifier.
type RunID string

func (id RunID) String() string { return string(id) }

func (id RunID) Valid() bool { return RunIDPattern.MatchString(string(id)) }

// NewRunID allocates a fresh run_id: 8 random hex characters, matching the
// original implementation's str(uuid.uuid4())[:8] shape (original_source's
// redis_queue.py RedisJobQueue.enqueue) but drawn from crypto/rand directly
// rather than truncating a UUID.
func NewRunID() (RunID, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return RunID(hex.EncodeToString(buf)), nil
}

// StepName identifies one pipeline step within a run.
type StepName string

func (n StepName) String() string { return string(n) }

func (n StepName) Valid() bool { return ArtifactNamePattern.MatchString(string(n)) }

// ArtifactName identifies one artifact within a run.
type ArtifactName string

func (n ArtifactName) String() string { return string(n) }

func (n ArtifactName) Valid() bool { return ArtifactNamePattern.MatchString(string(n)) }

// PendingName returns the `<name>_pending` variant used during two-phase
// promotion (spec §3, Artifact).
func (n ArtifactName) PendingName() ArtifactName { return n + "_pending" }
