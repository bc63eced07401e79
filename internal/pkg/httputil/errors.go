package httputil

import (
	"errors"
	"net/http"

	"github.com/ignite/ppc-optimizer/internal/datanorm"
	"github.com/ignite/ppc-optimizer/internal/optimizer"
	"github.com/ignite/ppc-optimizer/internal/service/optimization"
)

// WriteError maps a service error to its HTTP status and error code.
// Unknown errors become a generic 500.
func WriteError(w http.ResponseWriter, err error) {
	var cfgErr *optimizer.ConfigError
	var structErr *optimizer.StructuralError

	switch {
	case errors.As(err, &cfgErr):
		Fail(w, http.StatusBadRequest, "invalid_configuration", cfgErr.Error(), map[string]any{
			"field":  cfgErr.Field,
			"value":  cfgErr.Value,
			"reason": cfgErr.Reason,
		})
	case errors.As(err, &structErr):
		Fail(w, http.StatusUnprocessableEntity, "no_usable_rows", structErr.Error(), map[string]any{
			"total_rows": structErr.TotalRows,
			"skipped":    structErr.Skipped,
		})
	case errors.Is(err, datanorm.ErrUnsupportedFormat), errors.Is(err, optimization.ErrEmptyReport):
		Fail(w, http.StatusBadRequest, "invalid_report", err.Error(), nil)
	case errors.Is(err, datanorm.ErrNoDataSheet):
		Fail(w, http.StatusUnprocessableEntity, "no_data_sheet", err.Error(), nil)
	case errors.Is(err, optimization.ErrProfileNotFound):
		Fail(w, http.StatusNotFound, "profile_not_found", err.Error(), nil)
	case errors.Is(err, optimization.ErrRunNotFound):
		Fail(w, http.StatusNotFound, "run_not_found", err.Error(), nil)
	case errors.Is(err, optimization.ErrRunInProgress):
		Fail(w, http.StatusConflict, "run_in_progress", err.Error(), nil)
	default:
		InternalError(w, err)
	}
}
