package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/procurelab/procuresim/internal/application/port"
	"github.com/procurelab/procuresim/internal/domain/entity"
	"github.com/procurelab/procuresim/internal/domain/reconcile"
	"github.com/procurelab/procuresim/internal/domain/workflow"
)

// ItemInput is one line of a create/update command, shared by requisitions
// and orders.
type ItemInput struct {
	MaterialID  string
	Description string
	Quantity    decimal.Decimal
	Unit        string
	UnitPrice   decimal.Decimal
	Currency    string
	Delivery    *time.Time
}

// RequisitionInput is the structured input for creating or updating a requisition
type RequisitionInput struct {
	Description     string
	Requester       string
	Department      string
	ProcurementType entity.ProcurementType
	Urgent          bool
	Items           []ItemInput
}

// RequisitionService owns the requisition lifecycle. Every operation reads
// current state from the store, validates, and writes the new state in one
// logical unit; on any failure nothing is written.
type RequisitionService interface {
	Create(ctx context.Context, input RequisitionInput) (*entity.Requisition, error)
	Update(ctx context.Context, number string, input RequisitionInput) (*entity.Requisition, error)
	Submit(ctx context.Context, number string) (*entity.Requisition, error)
	Approve(ctx context.Context, number string) (*entity.Requisition, error)
	Reject(ctx context.Context, number, reason string) (*entity.Requisition, error)
	Cancel(ctx context.Context, number string) (*entity.Requisition, error)
	Get(ctx context.Context, number string) (*entity.Requisition, error)
	List(ctx context.Context) []entity.Requisition

	// MarkItemsOrdered assigns the given items to an order and, once every
	// item is assigned, moves the requisition to ORDERED. Invoked only by the
	// workflow facade during order-from-requisition conversion. Partial
	// assignment intentionally leaves the requisition APPROVED.
	MarkItemsOrdered(ctx context.Context, number string, itemNumbers []int, orderNumber string) (*entity.Requisition, error)
}

type requisitionServiceImpl struct {
	store       port.StateStore
	materials   port.MaterialDirectory
	transitions workflow.StateMachineBuilder
	logger      *zap.Logger
	now         func() time.Time
}

// NewRequisitionService creates a new RequisitionService
func NewRequisitionService(store port.StateStore, materials port.MaterialDirectory, logger *zap.Logger) RequisitionService {
	return &requisitionServiceImpl{
		store:       store,
		materials:   materials,
		transitions: requisitionTransitions(),
		logger:      logger,
		now:         time.Now,
	}
}

// requisitionTransitions is the full legal transition graph for requisitions.
// REJECTED, CANCELED and ORDERED are terminal: they have no outgoing edges.
func requisitionTransitions() workflow.StateMachineBuilder {
	b := workflow.NewBuilder()
	b.Configure(workflow.State(entity.RequisitionDraft)).
		Permit(workflow.TriggerSubmit, workflow.State(entity.RequisitionSubmitted)).
		Permit(workflow.TriggerCancel, workflow.State(entity.RequisitionCanceled))
	b.Configure(workflow.State(entity.RequisitionSubmitted)).
		Permit(workflow.TriggerApprove, workflow.State(entity.RequisitionApproved)).
		Permit(workflow.TriggerReject, workflow.State(entity.RequisitionRejected))
	b.Configure(workflow.State(entity.RequisitionApproved)).
		Permit(workflow.TriggerMarkOrdered, workflow.State(entity.RequisitionOrdered)).
		Permit(workflow.TriggerCancel, workflow.State(entity.RequisitionCanceled))
	return b
}

// Create validates the input and stores a new DRAFT requisition. The document
// number is generated by the state store.
func (s *requisitionServiceImpl) Create(ctx context.Context, input RequisitionInput) (*entity.Requisition, error) {
	const op = "create"

	if err := s.validateFields(op, "", input); err != nil {
		return nil, err
	}
	items, err := s.validateItems(ctx, op, "", input.Items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	req := entity.Requisition{
		Number:          s.store.NextRequisitionNumber(),
		Description:     input.Description,
		Requester:       input.Requester,
		Department:      input.Department,
		ProcurementType: input.ProcurementType,
		Urgent:          input.Urgent,
		Items:           items,
		Status:          entity.RequisitionDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	req.RecordTransition("", entity.RequisitionDraft, op, "", now)

	s.store.PutRequisition(req)
	s.logger.Info("Requisition created",
		zap.String("number", req.Number),
		zap.Int("items", len(req.Items)),
		zap.String("total_value", reconcile.RequisitionTotal(req.Items).String()))
	return &req, nil
}

// Update replaces fields and the full item list. Legal only in DRAFT.
func (s *requisitionServiceImpl) Update(ctx context.Context, number string, input RequisitionInput) (*entity.Requisition, error) {
	const op = "update"

	req, ok := s.store.GetRequisition(number)
	if !ok {
		return nil, entity.NewNotFound(entity.DocRequisition, number, op)
	}
	if req.Status != entity.RequisitionDraft {
		return nil, entity.NewConflict(entity.DocRequisition, number, op, req.Status.String())
	}

	if err := s.validateFields(op, number, input); err != nil {
		return nil, err
	}
	items, err := s.validateItems(ctx, op, number, input.Items)
	if err != nil {
		return nil, err
	}

	req.Description = input.Description
	req.Requester = input.Requester
	req.Department = input.Department
	req.ProcurementType = input.ProcurementType
	req.Urgent = input.Urgent
	req.Items = items
	req.UpdatedAt = s.now()

	s.store.PutRequisition(req)
	s.logger.Info("Requisition updated", zap.String("number", number))
	return &req, nil
}

// Submit transitions DRAFT to SUBMITTED without mutating any field
func (s *requisitionServiceImpl) Submit(ctx context.Context, number string) (*entity.Requisition, error) {
	return s.fire(ctx, number, "submit", workflow.TriggerSubmit, "")
}

// Approve transitions SUBMITTED to APPROVED
func (s *requisitionServiceImpl) Approve(ctx context.Context, number string) (*entity.Requisition, error) {
	return s.fire(ctx, number, "approve", workflow.TriggerApprove, "")
}

// Reject transitions SUBMITTED to REJECTED and stores the reason
func (s *requisitionServiceImpl) Reject(ctx context.Context, number, reason string) (*entity.Requisition, error) {
	const op = "reject"
	if reason == "" {
		return nil, entity.NewValidation(entity.DocRequisition, number, op, "reason", 0, "rejection reason is required")
	}

	// The reason rides along in the single write so no reader ever sees
	// REJECTED without it.
	return s.fire(ctx, number, op, workflow.TriggerReject, reason, func(r *entity.Requisition) {
		r.RejectionReason = reason
	})
}

// Cancel transitions DRAFT or APPROVED to CANCELED
func (s *requisitionServiceImpl) Cancel(ctx context.Context, number string) (*entity.Requisition, error) {
	return s.fire(ctx, number, "cancel", workflow.TriggerCancel, "")
}

// Get returns the requisition with the given number
func (s *requisitionServiceImpl) Get(_ context.Context, number string) (*entity.Requisition, error) {
	req, ok := s.store.GetRequisition(number)
	if !ok {
		return nil, entity.NewNotFound(entity.DocRequisition, number, "get")
	}
	return &req, nil
}

// List returns all requisitions for the read-only monitoring surface
func (s *requisitionServiceImpl) List(_ context.Context) []entity.Requisition {
	return s.store.ListRequisitions()
}

// MarkItemsOrdered assigns items to an order; full assignment moves the
// requisition to ORDERED, partial assignment leaves it APPROVED.
func (s *requisitionServiceImpl) MarkItemsOrdered(ctx context.Context, number string, itemNumbers []int, orderNumber string) (*entity.Requisition, error) {
	const op = "mark_items_ordered"

	req, ok := s.store.GetRequisition(number)
	if !ok {
		return nil, entity.NewNotFound(entity.DocRequisition, number, op)
	}
	if req.Status != entity.RequisitionApproved {
		return nil, entity.NewConflict(entity.DocRequisition, number, op, req.Status.String())
	}

	items, allAssigned, err := reconcile.AssignItemsToOrder(req, itemNumbers, orderNumber)
	if err != nil {
		return nil, entity.NewValidation(entity.DocRequisition, number, op, "item_numbers", 0, err.Error())
	}

	req.Items = items
	now := s.now()
	if allAssigned {
		machine := s.transitions.Build(workflow.State(req.Status))
		if err := machine.Fire(ctx, workflow.TriggerMarkOrdered); err != nil {
			return nil, entity.NewConflict(entity.DocRequisition, number, op, req.Status.String())
		}
		from := req.Status
		req.Status = entity.RequisitionStatus(machine.State())
		req.RecordTransition(from, req.Status, op, "assigned to "+orderNumber, now)
	} else {
		req.UpdatedAt = now
	}

	s.store.PutRequisition(req)
	s.logger.Info("Requisition items assigned to order",
		zap.String("number", number),
		zap.String("order", orderNumber),
		zap.Bool("all_assigned", allAssigned))
	return &req, nil
}

// fire loads, checks the transition graph, applies the trigger, and persists
func (s *requisitionServiceImpl) fire(ctx context.Context, number, op string, trigger workflow.Trigger, note string, mutate ...func(*entity.Requisition)) (*entity.Requisition, error) {
	req, ok := s.store.GetRequisition(number)
	if !ok {
		return nil, entity.NewNotFound(entity.DocRequisition, number, op)
	}

	machine := s.transitions.Build(workflow.State(req.Status))
	if err := machine.Fire(ctx, trigger); err != nil {
		return nil, entity.NewConflict(entity.DocRequisition, number, op, req.Status.String())
	}

	from := req.Status
	req.Status = entity.RequisitionStatus(machine.State())
	req.RecordTransition(from, req.Status, op, note, s.now())
	for _, m := range mutate {
		m(&req)
	}

	s.store.PutRequisition(req)
	s.logger.Info("Requisition transition",
		zap.String("number", number),
		zap.String("operation", op),
		zap.String("from", from.String()),
		zap.String("to", req.Status.String()))
	return &req, nil
}

func (s *requisitionServiceImpl) validateFields(op, number string, input RequisitionInput) error {
	if !input.ProcurementType.IsValid() {
		return entity.NewValidation(entity.DocRequisition, number, op, "procurement_type", 0, "unknown procurement type")
	}
	if len(input.Items) == 0 {
		return entity.NewValidation(entity.DocRequisition, number, op, "items", 0, "at least one item is required")
	}
	return nil
}

// validateItems checks every line and resolves material references. Failures
// name the offending 1-based item number. Valid lines get sequential item
// numbers starting at 1.
func (s *requisitionServiceImpl) validateItems(ctx context.Context, op, number string, inputs []ItemInput) ([]entity.RequisitionItem, error) {
	items := make([]entity.RequisitionItem, 0, len(inputs))
	for i, in := range inputs {
		n := i + 1
		if in.Description == "" {
			return nil, entity.NewValidation(entity.DocRequisition, number, op, "description", n, "item description is required")
		}
		if !in.Quantity.IsPositive() {
			return nil, entity.NewValidation(entity.DocRequisition, number, op, "quantity", n, "quantity must be positive")
		}
		if in.UnitPrice.IsNegative() {
			return nil, entity.NewValidation(entity.DocRequisition, number, op, "unit_price", n, "unit price must not be negative")
		}
		if in.MaterialID != "" {
			material, err := s.materials.Lookup(ctx, in.MaterialID)
			if err != nil {
				return nil, entity.NewValidation(entity.DocRequisition, number, op, "material_id", n, "unknown material "+in.MaterialID)
			}
			if material.Status != entity.MaterialActive {
				return nil, entity.NewValidation(entity.DocRequisition, number, op, "material_id", n,
					"material "+in.MaterialID+" is "+material.Status.String())
			}
		}
		items = append(items, entity.RequisitionItem{
			ItemNumber:  n,
			MaterialID:  in.MaterialID,
			Description: in.Description,
			Quantity:    in.Quantity,
			Unit:        in.Unit,
			UnitPrice:   in.UnitPrice,
			Currency:    in.Currency,
			Status:      entity.ReqItemOpen,
		})
	}
	return items, nil
}
