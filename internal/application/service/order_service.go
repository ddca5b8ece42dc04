package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/procurelab/procuresim/internal/application/port"
	"github.com/procurelab/procuresim/internal/domain/entity"
	"github.com/procurelab/procuresim/internal/domain/reconcile"
	"github.com/procurelab/procuresim/internal/domain/workflow"
)

// OrderInput is the structured input for creating or updating an order
type OrderInput struct {
	Description     string
	Requester       string
	Vendor          string
	PaymentTerms    string
	ProcurementType entity.ProcurementType
	Urgent          bool
	Items           []ItemInput
}

// Receipt is one line of a receive_items batch. The delta is added to the
// item's cumulative received quantity.
type Receipt struct {
	ItemNumber int
	Delta      decimal.Decimal
}

// OrderService owns the order lifecycle, including receipt tracking and the
// conversion path from an approved requisition.
type OrderService interface {
	Create(ctx context.Context, input OrderInput) (*entity.Order, error)
	Update(ctx context.Context, number string, input OrderInput) (*entity.Order, error)
	Submit(ctx context.Context, number string) (*entity.Order, error)
	Approve(ctx context.Context, number string) (*entity.Order, error)
	Reject(ctx context.Context, number, reason string) (*entity.Order, error)
	Cancel(ctx context.Context, number string) (*entity.Order, error)
	Get(ctx context.Context, number string) (*entity.Order, error)
	List(ctx context.Context) []entity.Order

	// CreateFromRequisition copies every item of an APPROVED requisition 1:1
	// into a new DRAFT order, stamping each item with its origin reference.
	// The caller (the workflow facade) is responsible for marking the
	// requisition items as ordered afterwards.
	CreateFromRequisition(ctx context.Context, requisitionNumber, vendor, paymentTerms string) (*entity.Order, error)

	// ReceiveItems applies a batch of receipt deltas. The batch is
	// all-or-nothing: if any line fails validation, no line is applied.
	// Non-idempotent by design; callers must not blindly retry.
	ReceiveItems(ctx context.Context, number string, receipts []Receipt) (*entity.Order, error)

	// Complete closes a fully received order
	Complete(ctx context.Context, number string) (*entity.Order, error)
}

type orderServiceImpl struct {
	store     port.StateStore
	materials port.MaterialDirectory
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates a new OrderService
func NewOrderService(store port.StateStore, materials port.MaterialDirectory, logger *zap.Logger) OrderService {
	return &orderServiceImpl{
		store:     store,
		materials: materials,
		logger:    logger,
		now:       time.Now,
	}
}

// orderTransitions is the full legal transition graph for orders. The two
// RECEIVE edges are guarded on receipt completeness: the fully-received edge
// is registered first so it wins when every item is complete.
func orderTransitions(allReceived workflow.GuardFunc) workflow.StateMachineBuilder {
	b := workflow.NewBuilder()
	b.Configure(workflow.State(entity.OrderDraft)).
		Permit(workflow.TriggerSubmit, workflow.State(entity.OrderSubmitted)).
		Permit(workflow.TriggerCancel, workflow.State(entity.OrderCanceled))
	b.Configure(workflow.State(entity.OrderSubmitted)).
		Permit(workflow.TriggerApprove, workflow.State(entity.OrderApproved)).
		Permit(workflow.TriggerReject, workflow.State(entity.OrderRejected))
	b.Configure(workflow.State(entity.OrderApproved)).
		PermitIf(workflow.TriggerReceive, workflow.State(entity.OrderReceived), allReceived).
		Permit(workflow.TriggerReceive, workflow.State(entity.OrderPartiallyReceived)).
		Permit(workflow.TriggerCancel, workflow.State(entity.OrderCanceled))
	b.Configure(workflow.State(entity.OrderPartiallyReceived)).
		PermitIf(workflow.TriggerReceive, workflow.State(entity.OrderReceived), allReceived).
		Permit(workflow.TriggerReceive, workflow.State(entity.OrderPartiallyReceived))
	b.Configure(workflow.State(entity.OrderReceived)).
		Permit(workflow.TriggerComplete, workflow.State(entity.OrderCompleted))
	return b
}

func (s *orderServiceImpl) machineFor(status entity.OrderStatus, allReceived bool) workflow.StateMachine {
	guard := func(context.Context) bool { return allReceived }
	return orderTransitions(guard).Build(workflow.State(status))
}

// Create validates the input and stores a new DRAFT order
func (s *orderServiceImpl) Create(ctx context.Context, input OrderInput) (*entity.Order, error) {
	const op = "create"

	if err := s.validateFields(op, "", input); err != nil {
		return nil, err
	}
	items, err := s.validateItems(ctx, op, "", input.Items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := entity.Order{
		Number:          s.store.NextOrderNumber(),
		Description:     input.Description,
		Requester:       input.Requester,
		Vendor:          input.Vendor,
		PaymentTerms:    input.PaymentTerms,
		ProcurementType: input.ProcurementType,
		Urgent:          input.Urgent,
		Items:           items,
		Status:          entity.OrderDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.RecordTransition("", entity.OrderDraft, op, "", now)

	s.store.PutOrder(order)
	s.logger.Info("Order created",
		zap.String("number", order.Number),
		zap.String("vendor", order.Vendor),
		zap.String("total_value", reconcile.OrderTotal(order.Items).String()))
	return &order, nil
}

// CreateFromRequisition converts an APPROVED requisition into a DRAFT order
func (s *orderServiceImpl) CreateFromRequisition(ctx context.Context, requisitionNumber, vendor, paymentTerms string) (*entity.Order, error) {
	const op = "create_from_requisition"

	if vendor == "" {
		return nil, entity.NewValidation(entity.DocOrder, "", op, "vendor", 0, "vendor is required")
	}

	req, ok := s.store.GetRequisition(requisitionNumber)
	if !ok {
		return nil, entity.NewNotFound(entity.DocRequisition, requisitionNumber, op)
	}
	if req.Status != entity.RequisitionApproved {
		return nil, entity.NewConflict(entity.DocRequisition, requisitionNumber, op, req.Status.String())
	}
	if len(req.Items) == 0 {
		return nil, entity.NewConflict(entity.DocRequisition, requisitionNumber, op, "no items to convert")
	}

	items := make([]entity.OrderItem, 0, len(req.Items))
	for _, reqItem := range req.Items {
		items = append(items, entity.OrderItem{
			ItemNumber:       reqItem.ItemNumber,
			MaterialID:       reqItem.MaterialID,
			Description:      reqItem.Description,
			Quantity:         reqItem.Quantity,
			QuantityReceived: decimal.Zero,
			Unit:             reqItem.Unit,
			UnitPrice:        reqItem.UnitPrice,
			Currency:         reqItem.Currency,
			Origin: &entity.ItemOrigin{
				RequisitionNumber: req.Number,
				ItemNumber:        reqItem.ItemNumber,
			},
		})
	}

	now := s.now()
	order := entity.Order{
		Number:            s.store.NextOrderNumber(),
		Description:       req.Description,
		Requester:         req.Requester,
		Vendor:            vendor,
		PaymentTerms:      paymentTerms,
		ProcurementType:   req.ProcurementType,
		Urgent:            req.Urgent,
		Items:             items,
		Status:            entity.OrderDraft,
		RequisitionNumber: req.Number,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	order.RecordTransition("", entity.OrderDraft, op, "from "+req.Number, now)

	s.store.PutOrder(order)
	s.logger.Info("Order created from requisition",
		zap.String("number", order.Number),
		zap.String("requisition", req.Number),
		zap.String("vendor", vendor))
	return &order, nil
}

// Update replaces fields and the full item list. Legal only in DRAFT.
func (s *orderServiceImpl) Update(ctx context.Context, number string, input OrderInput) (*entity.Order, error) {
	const op = "update"

	order, ok := s.store.GetOrder(number)
	if !ok {
		return nil, entity.NewNotFound(entity.DocOrder, number, op)
	}
	if order.Status != entity.OrderDraft {
		return nil, entity.NewConflict(entity.DocOrder, number, op, order.Status.String())
	}

	if err := s.validateFields(op, number, input); err != nil {
		return nil, err
	}
	items, err := s.validateItems(ctx, op, number, input.Items)
	if err != nil {
		return nil, err
	}

	order.Description = input.Description
	order.Requester = input.Requester
	order.Vendor = input.Vendor
	order.PaymentTerms = input.PaymentTerms
	order.ProcurementType = input.ProcurementType
	order.Urgent = input.Urgent
	order.Items = items
	order.UpdatedAt = s.now()

	s.store.PutOrder(order)
	s.logger.Info("Order updated", zap.String("number", number))
	return &order, nil
}

// Submit transitions DRAFT to SUBMITTED
func (s *orderServiceImpl) Submit(ctx context.Context, number string) (*entity.Order, error) {
	return s.fire(ctx, number, "submit", workflow.TriggerSubmit, "")
}

// Approve transitions SUBMITTED to APPROVED
func (s *orderServiceImpl) Approve(ctx context.Context, number string) (*entity.Order, error) {
	return s.fire(ctx, number, "approve", workflow.TriggerApprove, "")
}

// Reject transitions SUBMITTED to REJECTED and stores the reason
func (s *orderServiceImpl) Reject(ctx context.Context, number, reason string) (*entity.Order, error) {
	const op = "reject"
	if reason == "" {
		return nil, entity.NewValidation(entity.DocOrder, number, op, "reason", 0, "rejection reason is required")
	}

	return s.fire(ctx, number, op, workflow.TriggerReject, reason, func(o *entity.Order) {
		o.RejectionReason = reason
	})
}

// Cancel transitions DRAFT or APPROVED to CANCELED
func (s *orderServiceImpl) Cancel(ctx context.Context, number string) (*entity.Order, error) {
	return s.fire(ctx, number, "cancel", workflow.TriggerCancel, "")
}

// Complete transitions RECEIVED to COMPLETED
func (s *orderServiceImpl) Complete(ctx context.Context, number string) (*entity.Order, error) {
	return s.fire(ctx, number, "complete", workflow.TriggerComplete, "")
}

// Get returns the order with the given number
func (s *orderServiceImpl) Get(_ context.Context, number string) (*entity.Order, error) {
	order, ok := s.store.GetOrder(number)
	if !ok {
		return nil, entity.NewNotFound(entity.DocOrder, number, "get")
	}
	return &order, nil
}

// List returns all orders for the read-only monitoring surface
func (s *orderServiceImpl) List(_ context.Context) []entity.Order {
	return s.store.ListOrders()
}

// ReceiveItems applies a batch of receipt deltas all-or-nothing. The deltas
// are applied to a working copy first; the store is written only after every
// line has passed validation.
func (s *orderServiceImpl) ReceiveItems(ctx context.Context, number string, receipts []Receipt) (*entity.Order, error) {
	const op = "receive_items"

	order, ok := s.store.GetOrder(number)
	if !ok {
		return nil, entity.NewNotFound(entity.DocOrder, number, op)
	}
	if len(receipts) == 0 {
		return nil, entity.NewValidation(entity.DocOrder, number, op, "receipts", 0, "at least one receipt is required")
	}

	// Quantity validation runs before the status gate: a delta that overshoots
	// the ordered quantity reports the overshoot even when the document is in
	// a non-receivable state, e.g. a stray receipt against a RECEIVED order.
	working := order.Clone()
	for _, r := range receipts {
		item := working.Item(r.ItemNumber)
		if item == nil {
			return nil, entity.NewValidation(entity.DocOrder, number, op, "item_number", r.ItemNumber, "no such item")
		}
		if !r.Delta.IsPositive() {
			return nil, entity.NewValidation(entity.DocOrder, number, op, "delta", r.ItemNumber, "receipt delta must be positive")
		}
		cumulative := item.QuantityReceived.Add(r.Delta)
		if cumulative.GreaterThan(item.Quantity) {
			return nil, entity.NewUnprocessable(entity.DocOrder, number, op, r.ItemNumber,
				fmt.Sprintf("received %s would exceed ordered %s", cumulative, item.Quantity))
		}
		item.QuantityReceived = cumulative
	}

	if order.Status != entity.OrderApproved && order.Status != entity.OrderPartiallyReceived {
		return nil, entity.NewConflict(entity.DocOrder, number, op, order.Status.String())
	}

	completeness := reconcile.ReceiptCompleteness(working.Items)
	machine := s.machineFor(order.Status, completeness.AllComplete)
	if err := machine.Fire(ctx, workflow.TriggerReceive); err != nil {
		return nil, entity.NewConflict(entity.DocOrder, number, op, order.Status.String())
	}

	from := working.Status
	working.Status = entity.OrderStatus(machine.State())
	working.RecordTransition(from, working.Status, op, "", s.now())

	s.store.PutOrder(working)
	s.logger.Info("Order receipts applied",
		zap.String("number", number),
		zap.Int("receipts", len(receipts)),
		zap.String("status", working.Status.String()))
	return &working, nil
}

// fire loads, checks the transition graph, applies the trigger, and persists
func (s *orderServiceImpl) fire(ctx context.Context, number, op string, trigger workflow.Trigger, note string, mutate ...func(*entity.Order)) (*entity.Order, error) {
	order, ok := s.store.GetOrder(number)
	if !ok {
		return nil, entity.NewNotFound(entity.DocOrder, number, op)
	}

	machine := s.machineFor(order.Status, false)
	if err := machine.Fire(ctx, trigger); err != nil {
		return nil, entity.NewConflict(entity.DocOrder, number, op, order.Status.String())
	}

	from := order.Status
	order.Status = entity.OrderStatus(machine.State())
	order.RecordTransition(from, order.Status, op, note, s.now())
	for _, m := range mutate {
		m(&order)
	}

	s.store.PutOrder(order)
	s.logger.Info("Order transition",
		zap.String("number", number),
		zap.String("operation", op),
		zap.String("from", from.String()),
		zap.String("to", order.Status.String()))
	return &order, nil
}

func (s *orderServiceImpl) validateFields(op, number string, input OrderInput) error {
	if input.Vendor == "" {
		return entity.NewValidation(entity.DocOrder, number, op, "vendor", 0, "vendor is required")
	}
	if !input.ProcurementType.IsValid() {
		return entity.NewValidation(entity.DocOrder, number, op, "procurement_type", 0, "unknown procurement type")
	}
	if len(input.Items) == 0 {
		return entity.NewValidation(entity.DocOrder, number, op, "items", 0, "at least one item is required")
	}
	return nil
}

// validateItems mirrors requisition item validation, plus delivery dates
func (s *orderServiceImpl) validateItems(ctx context.Context, op, number string, inputs []ItemInput) ([]entity.OrderItem, error) {
	items := make([]entity.OrderItem, 0, len(inputs))
	for i, in := range inputs {
		n := i + 1
		if in.Description == "" {
			return nil, entity.NewValidation(entity.DocOrder, number, op, "description", n, "item description is required")
		}
		if !in.Quantity.IsPositive() {
			return nil, entity.NewValidation(entity.DocOrder, number, op, "quantity", n, "quantity must be positive")
		}
		if in.UnitPrice.IsNegative() {
			return nil, entity.NewValidation(entity.DocOrder, number, op, "unit_price", n, "unit price must not be negative")
		}
		if in.MaterialID != "" {
			material, err := s.materials.Lookup(ctx, in.MaterialID)
			if err != nil {
				return nil, entity.NewValidation(entity.DocOrder, number, op, "material_id", n, "unknown material "+in.MaterialID)
			}
			if material.Status != entity.MaterialActive {
				return nil, entity.NewValidation(entity.DocOrder, number, op, "material_id", n,
					"material "+in.MaterialID+" is "+material.Status.String())
			}
		}
		items = append(items, entity.OrderItem{
			ItemNumber:       n,
			MaterialID:       in.MaterialID,
			Description:      in.Description,
			Quantity:         in.Quantity,
			QuantityReceived: decimal.Zero,
			Unit:             in.Unit,
			UnitPrice:        in.UnitPrice,
			Currency:         in.Currency,
			DeliveryDate:     in.Delivery,
		})
	}
	return items, nil
}
