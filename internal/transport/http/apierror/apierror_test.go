package apierror

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow/orders/internal/service/errs"
	"github.com/orderflow/orders/internal/service/models/status"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	return body
}

func TestWriteValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, errs.NewValidation("customer_name", "customer name is required"))

	assert.Equal(t, 422, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "validation_error", body["error"])
	require.Len(t, body["fields"], 1)
}

func TestWriteNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, &errs.NotFoundError{ID: "abc"})

	assert.Equal(t, 404, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "not_found", body["error"])
	assert.Equal(t, "Order not found.", body["message"])
}

func TestWriteInvalidTransition(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, &status.InvalidTransitionError{From: status.StatusPending, To: status.StatusDraft})

	assert.Equal(t, 422, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "invalid_transition", body["error"])
	assert.Equal(t, "pending", body["from"])
	assert.Equal(t, "draft", body["to"])
	assert.Equal(t, []any{"paid", "cancelled"}, body["allowed"])
}

func TestWriteUnknownError(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, errors.New("connection refused"))

	assert.Equal(t, 500, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "internal_error", body["error"])
	assert.NotContains(t, body["message"], "connection refused", "internal details stay out of responses")
}
