// Package store implements the Artifact Store (spec §4.1): durable,
// read-your-writes key-document storage per run, adapted from the teacher's
// server/services/blob.LocalBlobStore.
package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v2"
	"github.com/pkg/errors"

	"github.com/runforge/arc/common/gerror"
	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/common/util"
)

// ArtifactDescriptor is returned by List, naming an artifact without
// loading its body.
type ArtifactDescriptor struct {
	Name      string
	SizeBytes int64
}

// Store is the Artifact Store contract consumed by the rest of the module.
// Every operation is scoped to a run_id and an artifact/file name, both of
// which are sanitized before any filesystem call (spec §9).
type Store struct {
	rootDir string
	log     logger.Log

	cacheMu sync.RWMutex
	cache   map[string][]byte // cache key -> last-written document bytes
}

// New constructs a Store rooted at rootDir. rootDir is created if absent.
func New(rootDir string, log logger.Log) (*Store, error) {
	if err := os.MkdirAll(rootDir, 0700); err != nil {
		return nil, errors.Wrap(err, "error creating artifact store root")
	}
	return &Store{
		rootDir: rootDir,
		log:     log,
		cache:   make(map[string][]byte),
	}, nil
}

func cacheKey(runID, name string) string { return runID + "/" + name }

// runDir returns the sanitized, escaped directory for a run's documents.
func (s *Store) runDir(runID string) string {
	return filepath.Join(s.rootDir, "runs", util.EscapeFileName(runID))
}

// docPath returns the sanitized path for a named JSON document.
func (s *Store) docPath(runID, name string) string {
	return filepath.Join(s.runDir(runID), util.EscapeFileName(name)+".json")
}

// Path resolves an opaque location for writers that must produce
// non-document files (Markdown, PDF, charts) (spec §4.1, `path`).
func (s *Store) Path(runID, filename string) string {
	return filepath.Join(s.runDir(runID), "artifacts", util.EscapeFileName(filename))
}

// Write serializes document deterministically and atomically replaces any
// existing value for (runID, name). Atomicity is achieved the way the
// original orchestrator's save_state does it: write to a temp file in the
// same directory, fsync, then rename over the target (original_source's
// backend/orchestrator.py save_state; the teacher's blobStoreFile.Sync does
// the analogous thing for blob writes).
func (s *Store) Write(runID, name string, document interface{}) error {
	data, err := json.Marshal(document)
	if err != nil {
		// Serialization failures are fatal programmer errors, not runtime
		// faults (spec §4.1).
		panic(fmt.Sprintf("error marshaling artifact %s/%s: %v", runID, name, err))
	}
	path := s.docPath(runID, name)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return gerror.NewErrStoreUnavailable("error creating run directory", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return gerror.NewErrStoreUnavailable("error creating temp artifact file", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return gerror.NewErrStoreUnavailable("error writing temp artifact file", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return gerror.NewErrStoreUnavailable("error syncing temp artifact file", err)
	}
	if err := f.Close(); err != nil {
		return gerror.NewErrStoreUnavailable("error closing temp artifact file", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return gerror.NewErrStoreUnavailable("error renaming temp artifact file into place", err)
	}

	s.cacheMu.Lock()
	s.cache[cacheKey(runID, name)] = data
	s.cacheMu.Unlock()

	return nil
}

// Read returns the current value for (runID, name), or (nil, false, nil) if
// absent. Same-session reads are strongly consistent: a read immediately
// following this process's own Write never observes a stale cache entry.
func (s *Store) Read(runID, name string) (json.RawMessage, bool, error) {
	key := cacheKey(runID, name)
	s.cacheMu.RLock()
	if cached, ok := s.cache[key]; ok {
		s.cacheMu.RUnlock()
		return append(json.RawMessage(nil), cached...), true, nil
	}
	s.cacheMu.RUnlock()

	data, err := os.ReadFile(s.docPath(runID, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, gerror.NewErrStoreUnavailable("error reading artifact", err)
	}

	s.cacheMu.Lock()
	s.cache[key] = data
	s.cacheMu.Unlock()

	return data, true, nil
}

// ReadInto reads (runID, name) and unmarshals it into out. Returns
// (false, nil) if absent.
func (s *Store) ReadInto(runID, name string, out interface{}) (bool, error) {
	data, ok, err := s.Read(runID, name)
	if err != nil || !ok {
		return ok, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return true, errors.Wrapf(err, "error unmarshaling artifact %s/%s", runID, name)
	}
	return true, nil
}

// Append performs a read-modify-write on a JSON array document. Callers
// MUST tolerate eventual consistency between sibling writers writing to
// different artifacts; there is no cross-artifact locking (spec §4.1).
func (s *Store) Append(runID, name string, record interface{}) error {
	existing, ok, err := s.Read(runID, name)
	if err != nil {
		return err
	}
	var list []json.RawMessage
	if ok {
		if err := json.Unmarshal(existing, &list); err != nil {
			return errors.Wrapf(err, "error unmarshaling list artifact %s/%s", runID, name)
		}
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		panic(fmt.Sprintf("error marshaling record appended to %s/%s: %v", runID, name, err))
	}
	list = append(list, encoded)
	return s.Write(runID, name, list)
}

// Exists reports whether a document artifact is present.
func (s *Store) Exists(runID, name string) (bool, error) {
	_, ok, err := s.Read(runID, name)
	return ok, err
}

// Delete removes a document artifact. Idempotent: deleting an absent
// artifact is not an error (spec §4.1).
func (s *Store) Delete(runID, name string) error {
	s.cacheMu.Lock()
	delete(s.cache, cacheKey(runID, name))
	s.cacheMu.Unlock()

	err := os.Remove(s.docPath(runID, name))
	if err != nil && !os.IsNotExist(err) {
		return gerror.NewErrStoreUnavailable("error deleting artifact", err)
	}
	return nil
}

// WriteFile writes all data from source to the non-document file location
// returned by Path, fsyncing before the call returns.
func (s *Store) WriteFile(runID, filename string, source io.Reader) error {
	path := s.Path(runID, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return gerror.NewErrStoreUnavailable("error creating artifacts directory", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return gerror.NewErrStoreUnavailable("error creating artifact file", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, source); err != nil {
		return gerror.NewErrStoreUnavailable("error writing artifact file", err)
	}
	return f.Sync()
}

// ReadFile opens the non-document file at filename for reading.
func (s *Store) ReadFile(runID, filename string) (io.ReadCloser, error) {
	f, err := os.Open(s.Path(runID, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, gerror.NewErrNotFound("artifact file not found").IDetail("run_id", runID).IDetail("filename", filename)
		}
		return nil, gerror.NewErrStoreUnavailable("error opening artifact file", err)
	}
	return f, nil
}

// FileExistsAndNonEmpty reports whether filename exists under runID's
// artifacts directory and has at least one byte — used by the Report
// Enforcer to confirm the file-form of the final report (spec §4.9).
func (s *Store) FileExistsAndNonEmpty(runID, filename string) bool {
	info, err := os.Stat(s.Path(runID, filename))
	if err != nil {
		return false
	}
	return info.Size() > 0
}

// List returns document artifact names for runID matching a doublestar glob
// pattern (adapted from the teacher's LocalBlobStore.ListBlobs, simplified:
// no external pagination cursor is needed since a single run's artifact set
// is always small).
func (s *Store) List(runID, pattern string) ([]ArtifactDescriptor, error) {
	dir := s.runDir(runID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, gerror.NewErrStoreUnavailable("error listing run directory", err)
	}

	var out []ArtifactDescriptor
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		if pattern != "" {
			matched, err := doublestar.Match(pattern, name)
			if err != nil {
				return nil, errors.Wrap(err, "error matching artifact glob")
			}
			if !matched {
				continue
			}
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, ArtifactDescriptor{Name: name, SizeBytes: info.Size()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
