package apierror

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/orderflow/orders/internal/service/errs"
	"github.com/orderflow/orders/internal/service/models/status"
)

type errorResponse struct {
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Fields  []errs.FieldError `json:"fields,omitempty"`
	From    string            `json:"from,omitempty"`
	To      string            `json:"to,omitempty"`
	Allowed []string          `json:"allowed,omitempty"`
}

// Write maps a service error onto the API error contract: 422 for validation
// and invalid transitions, 404 for unknown orders, 500 for everything else.
func Write(w http.ResponseWriter, err error) {
	var (
		vErr  *errs.ValidationError
		nfErr *errs.NotFoundError
		trErr *status.InvalidTransitionError
	)

	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Message: vErr.Error(),
			Error:   "validation_error",
			Fields:  vErr.Fields,
		})
	case errors.As(err, &nfErr):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Message: "Order not found.",
			Error:   "not_found",
		})
	case errors.As(err, &trErr):
		allowed := trErr.From.AllowedTransitions()
		tokens := make([]string, len(allowed))
		for i, s := range allowed {
			tokens[i] = s.String()
		}

		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Message: trErr.Error(),
			Error:   "invalid_transition",
			From:    trErr.From.String(),
			To:      trErr.To.String(),
			Allowed: tokens,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Message: "Internal server error.",
			Error:   "internal_error",
		})
	}
}

// FromValidator converts go-playground violations into the validation error
// shape used across the API.
func FromValidator(err error) *errs.ValidationError {
	vErr := &errs.ValidationError{}

	var violations validator.ValidationErrors
	if !errors.As(err, &violations) {
		vErr.Add("body", err.Error())

		return vErr
	}

	for _, v := range violations {
		// Namespace carries the full path under payload field names; the
		// leading segment is the request struct's type name.
		field := v.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}

		vErr.Add(field, "failed on rule: "+v.Tag())
	}

	return vErr
}

func writeJSON(w http.ResponseWriter, code int, body errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error writing error response", "error", err)
	}
}
