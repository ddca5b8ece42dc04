package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/procurelab/procuresim/internal/application/service"
	appworkflow "github.com/procurelab/procuresim/internal/application/workflow"
	"github.com/procurelab/procuresim/internal/domain/entity"
	"github.com/procurelab/procuresim/internal/report"
)

// Handlers holds the HTTP handler functions
type Handlers struct {
	facade    *appworkflow.Facade
	exporter  *report.Exporter
	exportDir string
	logger    *zap.Logger
}

// NewHandlers creates the handler set
func NewHandlers(facade *appworkflow.Facade, exporter *report.Exporter, exportDir string, logger *zap.Logger) *Handlers {
	return &Handlers{
		facade:    facade,
		exporter:  exporter,
		exportDir: exportDir,
		logger:    logger,
	}
}

type itemRequest struct {
	MaterialID  string          `json:"material_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Currency    string          `json:"currency"`
	Delivery    *time.Time      `json:"delivery,omitempty"`
}

type requisitionRequest struct {
	Description     string        `json:"description"`
	Requester       string        `json:"requester"`
	Department      string        `json:"department"`
	ProcurementType string        `json:"procurement_type"`
	Urgent          bool          `json:"urgent"`
	Items           []itemRequest `json:"items"`
}

type orderRequest struct {
	Description     string        `json:"description"`
	Requester       string        `json:"requester"`
	Vendor          string        `json:"vendor"`
	PaymentTerms    string        `json:"payment_terms"`
	ProcurementType string        `json:"procurement_type"`
	Urgent          bool          `json:"urgent"`
	Items           []itemRequest `json:"items"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type convertRequest struct {
	Vendor       string `json:"vendor"`
	PaymentTerms string `json:"payment_terms"`
}

type receiptRequest struct {
	Receipts []struct {
		ItemNumber int             `json:"item_number"`
		Delta      decimal.Decimal `json:"delta"`
	} `json:"receipts"`
}

type requisitionResponse struct {
	*entity.Requisition
	TotalValue decimal.Decimal `json:"total_value"`
}

type orderResponse struct {
	*entity.Order
	TotalValue decimal.Decimal `json:"total_value"`
}

func toItemInputs(items []itemRequest) []service.ItemInput {
	out := make([]service.ItemInput, 0, len(items))
	for _, it := range items {
		out = append(out, service.ItemInput{
			MaterialID:  it.MaterialID,
			Description: it.Description,
			Quantity:    it.Quantity,
			Unit:        it.Unit,
			UnitPrice:   it.UnitPrice,
			Currency:    it.Currency,
			Delivery:    it.Delivery,
		})
	}
	return out
}

func (r requisitionRequest) toInput() service.RequisitionInput {
	return service.RequisitionInput{
		Description:     r.Description,
		Requester:       r.Requester,
		Department:      r.Department,
		ProcurementType: entity.ProcurementType(r.ProcurementType),
		Urgent:          r.Urgent,
		Items:           toItemInputs(r.Items),
	}
}

func (r orderRequest) toInput() service.OrderInput {
	return service.OrderInput{
		Description:     r.Description,
		Requester:       r.Requester,
		Vendor:          r.Vendor,
		PaymentTerms:    r.PaymentTerms,
		ProcurementType: entity.ProcurementType(r.ProcurementType),
		Urgent:          r.Urgent,
		Items:           toItemInputs(r.Items),
	}
}

func (h *Handlers) requisitionBody(req *entity.Requisition) requisitionResponse {
	return requisitionResponse{Requisition: req, TotalValue: h.facade.RequisitionTotal(req.Items)}
}

func (h *Handlers) orderBody(order *entity.Order) orderResponse {
	return orderResponse{Order: order, TotalValue: h.facade.OrderTotal(order.Items)}
}

// respondError maps the document error taxonomy onto HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entity.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entity.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, entity.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, entity.ErrUnprocessable):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *Handlers) badBody(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}

// Health reports service liveness
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

// CreateRequisition handles POST /api/v1/requisitions
func (h *Handlers) CreateRequisition(c *gin.Context) {
	var body requisitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badBody(c, err)
		return
	}
	req, err := h.facade.CreateRequisition(c.Request.Context(), body.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.requisitionBody(req))
}

// ListRequisitions handles GET /api/v1/requisitions
func (h *Handlers) ListRequisitions(c *gin.Context) {
	reqs := h.facade.ListRequisitions(c.Request.Context())
	out := make([]requisitionResponse, 0, len(reqs))
	for i := range reqs {
		out = append(out, h.requisitionBody(&reqs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"requisitions": out, "count": len(out)})
}

// GetRequisition handles GET /api/v1/requisitions/:number
func (h *Handlers) GetRequisition(c *gin.Context) {
	req, err := h.facade.GetRequisition(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.requisitionBody(req))
}

// UpdateRequisition handles PUT /api/v1/requisitions/:number
func (h *Handlers) UpdateRequisition(c *gin.Context) {
	var body requisitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badBody(c, err)
		return
	}
	req, err := h.facade.UpdateRequisition(c.Request.Context(), c.Param("number"), body.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.requisitionBody(req))
}

// SubmitRequisition handles POST /api/v1/requisitions/:number/submit
func (h *Handlers) SubmitRequisition(c *gin.Context) {
	h.requisitionTransition(c, h.facade.SubmitRequisition)
}

// ApproveRequisition handles POST /api/v1/requisitions/:number/approve
func (h *Handlers) ApproveRequisition(c *gin.Context) {
	h.requisitionTransition(c, h.facade.ApproveRequisition)
}

// CancelRequisition handles POST /api/v1/requisitions/:number/cancel
func (h *Handlers) CancelRequisition(c *gin.Context) {
	h.requisitionTransition(c, h.facade.CancelRequisition)
}

func (h *Handlers) requisitionTransition(c *gin.Context, fire func(ctx context.Context, number string) (*entity.Requisition, error)) {
	req, err := fire(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.requisitionBody(req))
}

// RejectRequisition handles POST /api/v1/requisitions/:number/reject
func (h *Handlers) RejectRequisition(c *gin.Context) {
	var body rejectRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badBody(c, err)
		return
	}
	req, err := h.facade.RejectRequisition(c.Request.Context(), c.Param("number"), body.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.requisitionBody(req))
}

// ConvertRequisition handles POST /api/v1/requisitions/:number/convert
func (h *Handlers) ConvertRequisition(c *gin.Context) {
	var body convertRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badBody(c, err)
		return
	}
	order, err := h.facade.ConvertRequisition(c.Request.Context(), c.Param("number"), body.Vendor, body.PaymentTerms)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.orderBody(order))
}

// CreateOrder handles POST /api/v1/orders
func (h *Handlers) CreateOrder(c *gin.Context) {
	var body orderRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badBody(c, err)
		return
	}
	order, err := h.facade.CreateOrder(c.Request.Context(), body.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.orderBody(order))
}

// ListOrders handles GET /api/v1/orders
func (h *Handlers) ListOrders(c *gin.Context) {
	orders := h.facade.ListOrders(c.Request.Context())
	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, h.orderBody(&orders[i]))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out, "count": len(out)})
}

// GetOrder handles GET /api/v1/orders/:number
func (h *Handlers) GetOrder(c *gin.Context) {
	order, err := h.facade.GetOrder(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.orderBody(order))
}

// UpdateOrder handles PUT /api/v1/orders/:number
func (h *Handlers) UpdateOrder(c *gin.Context) {
	var body orderRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badBody(c, err)
		return
	}
	order, err := h.facade.UpdateOrder(c.Request.Context(), c.Param("number"), body.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.orderBody(order))
}

// SubmitOrder handles POST /api/v1/orders/:number/submit
func (h *Handlers) SubmitOrder(c *gin.Context) {
	h.orderTransition(c, h.facade.SubmitOrder)
}

// ApproveOrder handles POST /api/v1/orders/:number/approve
func (h *Handlers) ApproveOrder(c *gin.Context) {
	h.orderTransition(c, h.facade.ApproveOrder)
}

// CancelOrder handles POST /api/v1/orders/:number/cancel
func (h *Handlers) CancelOrder(c *gin.Context) {
	h.orderTransition(c, h.facade.CancelOrder)
}

// CompleteOrder handles POST /api/v1/orders/:number/complete
func (h *Handlers) CompleteOrder(c *gin.Context) {
	h.orderTransition(c, h.facade.CompleteOrder)
}

func (h *Handlers) orderTransition(c *gin.Context, fire func(ctx context.Context, number string) (*entity.Order, error)) {
	order, err := fire(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.orderBody(order))
}

// RejectOrder handles POST /api/v1/orders/:number/reject
func (h *Handlers) RejectOrder(c *gin.Context) {
	var body rejectRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badBody(c, err)
		return
	}
	order, err := h.facade.RejectOrder(c.Request.Context(), c.Param("number"), body.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.orderBody(order))
}

// ReceiveOrderItems handles POST /api/v1/orders/:number/receipts
func (h *Handlers) ReceiveOrderItems(c *gin.Context) {
	var body receiptRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.badBody(c, err)
		return
	}
	receipts := make([]service.Receipt, 0, len(body.Receipts))
	for _, r := range body.Receipts {
		receipts = append(receipts, service.Receipt{ItemNumber: r.ItemNumber, Delta: r.Delta})
	}
	order, err := h.facade.ReceiveOrderItems(c.Request.Context(), c.Param("number"), receipts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.orderBody(order))
}

// Export handles GET /api/v1/export: writes an Excel workbook with every
// requisition and order and serves it as a download.
func (h *Handlers) Export(c *gin.Context) {
	ctx := c.Request.Context()
	reqs := h.facade.ListRequisitions(ctx)
	orders := h.facade.ListOrders(ctx)

	if err := os.MkdirAll(h.exportDir, 0o755); err != nil {
		h.respondError(c, fmt.Errorf("create export dir: %w", err))
		return
	}
	name := fmt.Sprintf("procurement_%s.xlsx", time.Now().Format("20060102_150405"))
	path := filepath.Join(h.exportDir, name)

	if err := h.exporter.Export(path, reqs, orders); err != nil {
		h.respondError(c, fmt.Errorf("export failed: %w", err))
		return
	}
	c.FileAttachment(path, name)
}
