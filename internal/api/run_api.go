package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/runforge/arc/common/gerror"
	"github.com/runforge/arc/common/logger"
	"github.com/runforge/arc/internal/models"
)

// Queue is the narrow Job Queue view the API needs.
type Queue interface {
	Enqueue(ctx context.Context, filePath string, runConfig models.RunConfig) (models.RunID, error)
	Get(ctx context.Context, runID models.RunID) (*models.Job, bool, error)
	List(ctx context.Context, limit, offset int) ([]*models.Job, error)
}

// Store is the narrow Artifact Store view the API needs: raw document reads,
// so get_state/get_artifact can pass an artifact straight through without
// the API layer needing to know its shape.
type Store interface {
	Read(runID, name string) (json.RawMessage, bool, error)
}

// Manifest is the narrow Run Manifest view the API needs.
type Manifest interface {
	Get(runID string) (*models.Manifest, error)
}

// RunAPI implements spec.md §6's six core-exposed operations, grounded on
// the teacher's per-resource API struct pattern (server/api/rest/server's
// QueueAPI, JobAPI, ArtifactAPI).
type RunAPI struct {
	queue    Queue
	store    Store
	manifest Manifest
	*APIBase
}

func NewRunAPI(queue Queue, store Store, manifest Manifest, logFactory logger.LogFactory) *RunAPI {
	return &RunAPI{
		queue:    queue,
		store:    store,
		manifest: manifest,
		APIBase:  NewAPIBase(logFactory("RunAPI")),
	}
}

// Submit implements submit(file_ref, run_config) -> run_id.
func (a *RunAPI) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.Error(w, r, gerror.NewErrValidationFailed("error decoding request body: "+err.Error()))
		return
	}
	if req.FileRef == "" {
		a.Error(w, r, gerror.NewErrValidationFailed("file_ref is required"))
		return
	}

	runID, err := a.queue.Enqueue(r.Context(), req.FileRef, req.RunConfig)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	r = r.WithContext(context.WithValue(r.Context(), render.StatusCtxKey, http.StatusAccepted))
	a.JSON(w, r, SubmitResponse{RunID: string(runID)})
}

// GetJob implements get_job(run_id) -> job document or absent.
func (a *RunAPI) GetJob(w http.ResponseWriter, r *http.Request) {
	runID, ok := a.runID(w, r)
	if !ok {
		return
	}
	job, found, err := a.queue.Get(r.Context(), runID)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	if !found {
		a.ErrorNotLogged(w, r, gerror.NewErrNotFound("job not found").IDetail("run_id", string(runID)))
		return
	}
	a.JSON(w, r, makeJobDocument(job))
}

// ListJobs implements list_jobs(limit, offset) -> ordered list.
func (a *RunAPI) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", models.DefaultPaginationLimit)
	offset := queryInt(r, "offset", 0)

	jobs, err := a.queue.List(r.Context(), limit, offset)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	docs := make([]JobDocument, 0, len(jobs))
	for _, job := range jobs {
		docs = append(docs, makeJobDocument(job))
	}
	a.JSON(w, r, JobListDocument{Jobs: docs, Limit: limit, Offset: offset})
}

// GetState implements get_state(run_id) -> orchestrator state doc with
// progress, passed through verbatim from the "orchestrator_state" artifact.
func (a *RunAPI) GetState(w http.ResponseWriter, r *http.Request) {
	runID, ok := a.runID(w, r)
	if !ok {
		return
	}
	a.readArtifact(w, r, string(runID), "orchestrator_state")
}

// GetArtifact implements get_artifact(run_id, name) -> document.
func (a *RunAPI) GetArtifact(w http.ResponseWriter, r *http.Request) {
	runID, ok := a.runID(w, r)
	if !ok {
		return
	}
	name := models.ArtifactName(chi.URLParam(r, "artifact_name"))
	if !name.Valid() {
		a.Error(w, r, gerror.NewErrValidationFailed("artifact name must match "+models.ArtifactNamePattern.String()))
		return
	}
	a.readArtifact(w, r, string(runID), string(name))
}

// GetManifest implements get_manifest(run_id) -> manifest doc.
func (a *RunAPI) GetManifest(w http.ResponseWriter, r *http.Request) {
	runID, ok := a.runID(w, r)
	if !ok {
		return
	}
	exists, err := a.artifactExists(string(runID), "run_manifest")
	if err != nil {
		a.Error(w, r, err)
		return
	}
	if !exists {
		a.ErrorNotLogged(w, r, gerror.NewErrNotFound("manifest not found").IDetail("run_id", string(runID)))
		return
	}
	m, err := a.manifest.Get(string(runID))
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.JSON(w, r, m)
}

// runID validates the {run_id} URL parameter against spec.md §6's
// `^[a-f0-9-]{8,36}$` pattern at the boundary, rejecting a non-matching
// request before any store access.
func (a *RunAPI) runID(w http.ResponseWriter, r *http.Request) (models.RunID, bool) {
	runID := models.RunID(chi.URLParam(r, "run_id"))
	if !runID.Valid() {
		a.Error(w, r, gerror.NewErrValidationFailed("run_id must match "+models.RunIDPattern.String()))
		return "", false
	}
	return runID, true
}

func (a *RunAPI) readArtifact(w http.ResponseWriter, r *http.Request, runID, name string) {
	raw, found, err := a.store.Read(runID, name)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	if !found {
		a.ErrorNotLogged(w, r, gerror.NewErrNotFound("artifact not found").IDetail("run_id", runID).IDetail("name", name))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Write(raw)
}

func (a *RunAPI) artifactExists(runID, name string) (bool, error) {
	_, found, err := a.store.Read(runID, name)
	return found, err
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
