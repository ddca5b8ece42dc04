package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/procurelab/procuresim/internal/application/service"
	appworkflow "github.com/procurelab/procuresim/internal/application/workflow"
	"github.com/procurelab/procuresim/internal/domain/entity"
	"github.com/procurelab/procuresim/internal/infrastructure/materialdir"
	"github.com/procurelab/procuresim/internal/infrastructure/persistence/memstore"
	"github.com/procurelab/procuresim/internal/report"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := zap.NewNop()
	store := memstore.New(logger)
	materials := materialdir.New([]entity.Material{
		{ID: "MAT-001", Name: "Steel bolt M8", BaseUnit: "pcs", Status: entity.MaterialActive},
	})
	requisitions := service.NewRequisitionService(store, materials, logger)
	orders := service.NewOrderService(store, materials, logger)
	facade := appworkflow.NewFacade(requisitions, orders, logger)
	cfg := DefaultServerConfig()
	cfg.ExportDir = t.TempDir()
	return NewServer(cfg, facade, report.NewExporter(logger), logger)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func validRequisitionBody() map[string]any {
	return map[string]any{
		"description":      "Workshop restock",
		"requester":        "j.doe",
		"department":       "maintenance",
		"procurement_type": "STANDARD",
		"items": []map[string]any{
			{"material_id": "MAT-001", "description": "Steel bolt M8", "quantity": "10", "unit": "pcs", "unit_price": "5", "currency": "EUR"},
		},
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequisitionLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/requisitions", validRequisitionBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Number     string `json:"number"`
		Status     string `json:"status"`
		TotalValue string `json:"total_value"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "REQ-000001", created.Number)
	assert.Equal(t, "DRAFT", created.Status)
	assert.Equal(t, "50", created.TotalValue)

	base := "/api/v1/requisitions/" + created.Number
	rec = doJSON(t, srv, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = doJSON(t, srv, http.MethodPost, base+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodPost, base+"/convert", map[string]any{"vendor": "Acme Industrial"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order struct {
		Number            string `json:"number"`
		Status            string `json:"status"`
		RequisitionNumber string `json:"requisition_number"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, "ORD-000001", order.Number)
	assert.Equal(t, "DRAFT", order.Status)
	assert.Equal(t, created.Number, order.RequisitionNumber)

	rec = doJSON(t, srv, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var after struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))
	assert.Equal(t, "ORDERED", after.Status)
}

func TestErrorStatusMapping(t *testing.T) {
	srv := newTestServer(t)

	// unknown document
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/requisitions/REQ-999999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// missing requester fails validation
	body := validRequisitionBody()
	delete(body, "requester")
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/requisitions", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// approving a DRAFT requisition is a state conflict
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/requisitions", validRequisitionBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Number string `json:"number"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/v1/requisitions/%s/approve", created.Number), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// empty rejection reason is rejected before any transition
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/v1/requisitions/%s/submit", created.Number), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/v1/requisitions/%s/reject", created.Number), map[string]any{"reason": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOverReceiptIsUnprocessable(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/orders", map[string]any{
		"description":      "Direct order",
		"requester":        "j.doe",
		"vendor":           "Acme Industrial",
		"procurement_type": "STANDARD",
		"items": []map[string]any{
			{"description": "Steel bolt M8", "quantity": "6", "unit": "pcs", "unit_price": "5", "currency": "EUR"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var order struct {
		Number string `json:"number"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))

	base := "/api/v1/orders/" + order.Number
	for _, verb := range []string{"submit", "approve"} {
		rec = doJSON(t, srv, http.MethodPost, base+"/"+verb, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodPost, base+"/receipts", map[string]any{
		"receipts": []map[string]any{{"item_number": 1, "delta": "7"}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, base+"/receipts", map[string]any{
		"receipts": []map[string]any{{"item_number": 1, "delta": "6"}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var received struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &received))
	assert.Equal(t, "RECEIVED", received.Status)
}
