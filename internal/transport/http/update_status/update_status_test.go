package updatestatus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow/orders/internal/service/models/auditlog"
	"github.com/orderflow/orders/internal/service/models/order"
	"github.com/orderflow/orders/internal/service/models/status"
)

type fakeService struct {
	orderID   uuid.UUID
	newStatus string
	result    *order.Order
	err       error
	calls     int
}

func (s *fakeService) UpdateStatus(
	_ context.Context,
	orderID uuid.UUID,
	newStatus string,
	_ auditlog.Origin,
) (*order.Order, error) {
	s.calls++
	s.orderID = orderID
	s.newStatus = newStatus

	return s.result, s.err
}

func newRequest(id, body string) *http.Request {
	r := httptest.NewRequest("PUT", "/api/orders/"+id+"/status", strings.NewReader(body))

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)

	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestUpdateStatus(t *testing.T) {
	id := uuid.New()
	svc := &fakeService{
		result: &order.Order{ID: id, CustomerName: "Maria Silva", Status: status.StatusPending},
	}

	rec := httptest.NewRecorder()
	UpdateStatus(rec, newRequest(id.String(), `{"status":"pending"}`), svc)

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, id, svc.orderID)
	assert.Equal(t, "pending", svc.newStatus)

	var resp struct {
		Message string `json:"message"`
		Data    struct {
			Status             string   `json:"status"`
			AllowedTransitions []string `json:"allowed_transitions"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Status updated successfully.", resp.Message)
	assert.Equal(t, "pending", resp.Data.Status)
	assert.Equal(t, []string{"paid", "cancelled"}, resp.Data.AllowedTransitions)
}

func TestUpdateStatusNonUUIDIs404(t *testing.T) {
	svc := &fakeService{}

	rec := httptest.NewRecorder()
	UpdateStatus(rec, newRequest("not-a-uuid", `{"status":"pending"}`), svc)

	assert.Equal(t, 404, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestUpdateStatusMissingStatusIs422(t *testing.T) {
	svc := &fakeService{}

	rec := httptest.NewRecorder()
	UpdateStatus(rec, newRequest(uuid.NewString(), `{}`), svc)

	assert.Equal(t, 422, rec.Code)
	assert.Zero(t, svc.calls)

	var body struct {
		Fields []struct {
			Field string `json:"field"`
		} `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "status", body.Fields[0].Field, "errors address json names, not Go struct fields")
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	svc := &fakeService{
		err: &status.InvalidTransitionError{From: status.StatusPaid, To: status.StatusPending},
	}

	rec := httptest.NewRecorder()
	UpdateStatus(rec, newRequest(uuid.NewString(), `{"status":"pending"}`), svc)

	assert.Equal(t, 422, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "invalid_transition", body["error"])
	assert.Equal(t, "paid", body["from"])
}
