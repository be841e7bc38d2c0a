// Package handlers implements the JSON API on top of the services.
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/diewo77/haulage/httpx"
	"github.com/diewo77/haulage/internal/pod"
	"github.com/diewo77/haulage/internal/services"
	"github.com/diewo77/haulage/internal/settlement"
	"github.com/diewo77/haulage/validation"
)

// violationsError carries field violations found before calling a service.
type violationsError validation.Violations

func (v violationsError) Error() string { return "validation_failed" }

// calculatorCodes maps calculator sentinels to violation codes.
var calculatorCodes = []struct {
	err  error
	code string
}{
	{settlement.ErrNoTrips, "required"},
	{settlement.ErrInvalidOdometer, "must_be_greater"},
	{settlement.ErrNegativeRate, "must_not_be_negative"},
	{settlement.ErrMixedLedgers, "mixed_ledgers"},
	{settlement.ErrDuplicateTrip, "duplicate"},
}

// writeError maps service and calculator errors onto status codes.
// ErrNotFound is checked before ErrStore since store errors wrap it.
func writeError(w http.ResponseWriter, err error) {
	var (
		ve *settlement.ValidationError
		vs violationsError
	)
	switch {
	case errors.As(err, &vs):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations(vs))
	case errors.As(err, &ve):
		code := "invalid_value"
		for _, c := range calculatorCodes {
			if errors.Is(ve.Err, c.err) {
				code = c.code
				break
			}
		}
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", validation.Violations{ve.Field: code})
	case errors.Is(err, services.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, pod.ErrFinalStage):
		httpx.JSONError(w, http.StatusConflict, "already_at_final_step", nil)
	case errors.Is(err, pod.ErrInvalidTransition):
		httpx.JSONError(w, http.StatusConflict, "invalid_transition", nil)
	case errors.Is(err, pod.ErrStatusRejected):
		httpx.JSONError(w, http.StatusConflict, "status_changed", nil)
	case errors.Is(err, services.ErrInvalidIndex):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_entry_index", nil)
	case errors.Is(err, services.ErrMissingID):
		httpx.JSONError(w, http.StatusBadRequest, "missing_calculation_id", nil)
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, pod.ErrUnknownStage):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_input", map[string]string{"message": err.Error()})
	case errors.Is(err, services.ErrStore):
		log.Printf("[handlers] store failure: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "store_failure", nil)
	default:
		log.Printf("[handlers] unexpected error: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return false
	}
	return true
}
