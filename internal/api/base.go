// Package api implements the six transport-agnostic operations spec.md §6
// exposes over HTTP: submit, get_job, list_jobs, get_state, get_artifact,
// get_manifest. Grounded on the teacher's server/api/rest/server package —
// an APIBase carrying JSON/Error response helpers, with one struct per
// resource — trimmed to this module's Non-goals (no auth, no resource
// linking, no ETags: spec.md's Non-goals exclude identity/tenancy and any
// HTTP surface beyond run-lifecycle endpoints).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/runforge/arc/common/gerror"
	"github.com/runforge/arc/common/logger"
)

// APIBase provides the response helpers every resource API embeds, mirroring
// the teacher's APIBase minus the authorization/resource-linking machinery
// this domain has no use for.
type APIBase struct {
	logger.Log
}

func NewAPIBase(log logger.Log) *APIBase {
	return &APIBase{Log: log}
}

// JSON marshals v to the response, escaping HTML, matching the teacher's
// APIBase.JSON (copied from chi/render.JSON with added error logging).
func (a *APIBase) JSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(v); err != nil {
		a.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if status, ok := r.Context().Value(render.StatusCtxKey).(int); ok {
		w.WriteHeader(status)
	}
	w.Write(buf.Bytes())
}

// Error writes a standard error document, logged at Warn.
func (a *APIBase) Error(w http.ResponseWriter, r *http.Request, err error) {
	a.Warnf("error in API call: %v", err)
	a.ErrorNotLogged(w, r, err)
}

// ErrorNotLogged writes a standard error document without logging it, for
// expected failure modes (e.g. not-found lookups).
func (a *APIBase) ErrorNotLogged(w http.ResponseWriter, r *http.Request, err error) {
	var gErr gerror.Error
	if !errors.As(err, &gErr) {
		gErr = gerror.NewErrInternal()
	}
	doc := ErrorDocument{
		Code:    string(gErr.Code()),
		Message: sanitizedMessage(gErr),
	}
	r = r.WithContext(context.WithValue(r.Context(), render.StatusCtxKey, gErr.HTTPStatusCode()))
	a.JSON(w, r, doc)
}

// sanitizedMessage never leaks an internal-audience error's message to an
// external caller (spec.md §7's ambient error-handling contract).
func sanitizedMessage(gErr gerror.Error) string {
	if gErr.Audience() == gerror.AudienceExternal {
		return gErr.Message()
	}
	return "An internal error occurred"
}
