package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/ppc-optimizer/internal/domain"
	"github.com/ignite/ppc-optimizer/internal/export"
	"github.com/ignite/ppc-optimizer/internal/inbox"
	"github.com/ignite/ppc-optimizer/internal/optimizer"
	"github.com/ignite/ppc-optimizer/internal/pkg/httputil"
	"github.com/ignite/ppc-optimizer/internal/service/optimization"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Scanner triggers one inbox scan. *inbox.Scanner implements it.
type Scanner interface {
	ScanOnce(ctx context.Context) (*inbox.ScanResult, error)
}

// Handlers contains all HTTP handlers.
type Handlers struct {
	svc            *optimization.Service
	scanner        Scanner
	health         *HealthChecker
	maxUploadBytes int64
	exportDefaults export.Options
}

// NewHandlers creates the handlers. scanner may be nil when the inbox is off.
func NewHandlers(svc *optimization.Service, scanner Scanner, health *HealthChecker, maxUploadBytes int64, exportDefaults export.Options) *Handlers {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 << 20
	}
	return &Handlers{
		svc:            svc,
		scanner:        scanner,
		health:         health,
		maxUploadBytes: maxUploadBytes,
		exportDefaults: exportDefaults,
	}
}

// ---------------------------------------------------------------------------
// Strategies and profiles
// ---------------------------------------------------------------------------

// GetStrategies returns the strategy defaults table.
//
//	GET /api/strategies
func (h *Handlers) GetStrategies(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{"strategies": h.svc.Strategies()})
}

// ListProfiles returns all stored client profiles.
//
//	GET /api/profiles
func (h *Handlers) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.svc.ListProfiles(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if profiles == nil {
		profiles = []domain.StoredProfile{}
	}
	httputil.OK(w, map[string]any{"profiles": profiles})
}

// GetProfile returns a stored profile and the thresholds it resolves to.
//
//	GET /api/profiles/{clientID}
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	sp, resolved, err := h.svc.GetProfile(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"profile": sp, "resolved": resolved})
}

// PutProfile creates or replaces a profile.
//
//	PUT /api/profiles/{clientID}
func (h *Handlers) PutProfile(w http.ResponseWriter, r *http.Request) {
	var in optimization.ProfileInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	sp, err := h.svc.SaveProfile(r.Context(), chi.URLParam(r, "clientID"), in)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, sp)
}

// DeleteProfile removes a profile.
//
//	DELETE /api/profiles/{clientID}
func (h *Handlers) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteProfile(r.Context(), chi.URLParam(r, "clientID")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.NoContent(w)
}

// ListClientRuns returns the run history of a client, newest first.
//
//	GET /api/profiles/{clientID}/runs?limit=20
func (h *Handlers) ListClientRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.BadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	runs, err := h.svc.ListRuns(r.Context(), chi.URLParam(r, "clientID"), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"runs": runs})
}

// ---------------------------------------------------------------------------
// Runs
// ---------------------------------------------------------------------------

// CreateRun optimizes an uploaded bulk report.
//
//	POST /api/runs (multipart: file, client_id, strategy, target_acos,
//	min_conversion_rate, min_clicks)
func (h *Handlers) CreateRun(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadBytes {
		httputil.Error(w, http.StatusRequestEntityTooLarge, "report exceeds the upload limit")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.Error(w, http.StatusRequestEntityTooLarge, "report exceeds the upload limit")
			return
		}
		httputil.BadRequest(w, "expected a multipart form with a report file")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "missing form file \"file\"")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		httputil.BadRequest(w, "could not read the uploaded report")
		return
	}

	overrides, err := parseOverrides(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.svc.Optimize(r.Context(), optimization.RunRequest{
		ClientID:  strings.TrimSpace(r.FormValue("client_id")),
		Filename:  header.Filename,
		Data:      data,
		Strategy:  domain.Strategy(strings.TrimSpace(r.FormValue("strategy"))),
		Overrides: overrides,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.Created(w, res)
}

// parseOverrides reads the optional threshold fields of the upload form.
func parseOverrides(r *http.Request) (domain.ProfileOverrides, error) {
	var o domain.ProfileOverrides
	for _, field := range []string{"target_acos", "min_conversion_rate"} {
		raw := strings.TrimSpace(r.FormValue(field))
		if raw == "" {
			continue
		}
		f, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
		if err != nil {
			return o, &optimizer.ConfigError{Field: field, Value: raw, Reason: "not a number"}
		}
		if field == "target_acos" {
			o.TargetACOS = &f
		} else {
			o.MinConversionRate = &f
		}
	}
	if raw := strings.TrimSpace(r.FormValue("min_clicks")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return o, &optimizer.ConfigError{Field: "min_clicks", Value: raw, Reason: "not an integer"}
		}
		o.MinClicks = &n
	}
	return o, nil
}

// GetRun returns the full result of a run.
//
//	GET /api/runs/{runID}
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, res)
}

// GetRunSummary returns the plain-text change summary of a run.
//
//	GET /api/runs/{runID}/summary
func (h *Handlers) GetRunSummary(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Summary(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, out)
}

// GetRunExport downloads the updated bulk workbook. The toggles
// keyword_bids, pauses and placements default to the server configuration.
//
//	GET /api/runs/{runID}/export?pauses=false
func (h *Handlers) GetRunExport(w http.ResponseWriter, r *http.Request) {
	opts := h.exportDefaults
	q := r.URL.Query()
	for name, dst := range map[string]*bool{
		"keyword_bids": &opts.KeywordBids,
		"pauses":       &opts.Pauses,
		"placements":   &opts.Placements,
	} {
		if v := q.Get(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				httputil.BadRequest(w, name+" must be true or false")
				return
			}
			*dst = b
		}
	}

	data, filename, err := h.svc.Export(r.Context(), chi.URLParam(r, "runID"), opts)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ScanInbox runs one inbox scan immediately.
//
//	POST /api/inbox/scan
func (h *Handlers) ScanInbox(w http.ResponseWriter, r *http.Request) {
	if h.scanner == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "inbox is not enabled")
		return
	}
	res, err := h.scanner.ScanOnce(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.OK(w, res)
}
