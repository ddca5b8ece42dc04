// Package workflow exposes the single entry point the surrounding service
// layer calls. All document mutations go through state-machine-checked
// lifecycle operations; on any validation or transition failure no state is
// written.
package workflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/procurelab/procuresim/internal/application/service"
	"github.com/procurelab/procuresim/internal/domain/entity"
	"github.com/procurelab/procuresim/internal/domain/reconcile"
	"github.com/shopspring/decimal"
)

// Facade composes the two lifecycle managers and the reconciliation logic
type Facade struct {
	requisitions service.RequisitionService
	orders       service.OrderService
	logger       *zap.Logger
}

// NewFacade creates the workflow facade
func NewFacade(requisitions service.RequisitionService, orders service.OrderService, logger *zap.Logger) *Facade {
	return &Facade{
		requisitions: requisitions,
		orders:       orders,
		logger:       logger,
	}
}

// CreateRequisition creates a new DRAFT requisition
func (f *Facade) CreateRequisition(ctx context.Context, input service.RequisitionInput) (*entity.Requisition, error) {
	return f.requisitions.Create(ctx, input)
}

// UpdateRequisition replaces a DRAFT requisition's fields and items
func (f *Facade) UpdateRequisition(ctx context.Context, number string, input service.RequisitionInput) (*entity.Requisition, error) {
	return f.requisitions.Update(ctx, number, input)
}

// SubmitRequisition moves a DRAFT requisition to SUBMITTED
func (f *Facade) SubmitRequisition(ctx context.Context, number string) (*entity.Requisition, error) {
	return f.requisitions.Submit(ctx, number)
}

// ApproveRequisition moves a SUBMITTED requisition to APPROVED
func (f *Facade) ApproveRequisition(ctx context.Context, number string) (*entity.Requisition, error) {
	return f.requisitions.Approve(ctx, number)
}

// RejectRequisition moves a SUBMITTED requisition to REJECTED with a reason
func (f *Facade) RejectRequisition(ctx context.Context, number, reason string) (*entity.Requisition, error) {
	return f.requisitions.Reject(ctx, number, reason)
}

// CancelRequisition moves a DRAFT or APPROVED requisition to CANCELED
func (f *Facade) CancelRequisition(ctx context.Context, number string) (*entity.Requisition, error) {
	return f.requisitions.Cancel(ctx, number)
}

// GetRequisition returns one requisition
func (f *Facade) GetRequisition(ctx context.Context, number string) (*entity.Requisition, error) {
	return f.requisitions.Get(ctx, number)
}

// ListRequisitions is the read-only enumeration for the monitoring surface
func (f *Facade) ListRequisitions(ctx context.Context) []entity.Requisition {
	return f.requisitions.List(ctx)
}

// RequisitionTotal returns the derived total value of a requisition's items
func (f *Facade) RequisitionTotal(items []entity.RequisitionItem) decimal.Decimal {
	return reconcile.RequisitionTotal(items)
}

// CreateOrder creates a new DRAFT order
func (f *Facade) CreateOrder(ctx context.Context, input service.OrderInput) (*entity.Order, error) {
	return f.orders.Create(ctx, input)
}

// UpdateOrder replaces a DRAFT order's fields and items
func (f *Facade) UpdateOrder(ctx context.Context, number string, input service.OrderInput) (*entity.Order, error) {
	return f.orders.Update(ctx, number, input)
}

// SubmitOrder moves a DRAFT order to SUBMITTED
func (f *Facade) SubmitOrder(ctx context.Context, number string) (*entity.Order, error) {
	return f.orders.Submit(ctx, number)
}

// ApproveOrder moves a SUBMITTED order to APPROVED
func (f *Facade) ApproveOrder(ctx context.Context, number string) (*entity.Order, error) {
	return f.orders.Approve(ctx, number)
}

// RejectOrder moves a SUBMITTED order to REJECTED with a reason
func (f *Facade) RejectOrder(ctx context.Context, number, reason string) (*entity.Order, error) {
	return f.orders.Reject(ctx, number, reason)
}

// CancelOrder moves a DRAFT or APPROVED order to CANCELED
func (f *Facade) CancelOrder(ctx context.Context, number string) (*entity.Order, error) {
	return f.orders.Cancel(ctx, number)
}

// ReceiveOrderItems applies a receipt batch all-or-nothing
func (f *Facade) ReceiveOrderItems(ctx context.Context, number string, receipts []service.Receipt) (*entity.Order, error) {
	return f.orders.ReceiveItems(ctx, number, receipts)
}

// CompleteOrder closes a fully received order
func (f *Facade) CompleteOrder(ctx context.Context, number string) (*entity.Order, error) {
	return f.orders.Complete(ctx, number)
}

// GetOrder returns one order
func (f *Facade) GetOrder(ctx context.Context, number string) (*entity.Order, error) {
	return f.orders.Get(ctx, number)
}

// ListOrders is the read-only enumeration for the monitoring surface
func (f *Facade) ListOrders(ctx context.Context) []entity.Order {
	return f.orders.List(ctx)
}

// OrderTotal returns the derived total value of an order's items
func (f *Facade) OrderTotal(items []entity.OrderItem) decimal.Decimal {
	return reconcile.OrderTotal(items)
}

// ConvertRequisition turns an APPROVED requisition into a new DRAFT order and
// marks every requisition item as assigned to it.
//
// The two documents are written in sequence, order first, so there is a
// narrow window in which the order exists but the requisition does not yet
// reflect the assignment. A crash inside that window is recovered by
// re-running the assignment, not prevented; callers must not assume the pair
// is synchronously atomic.
func (f *Facade) ConvertRequisition(ctx context.Context, requisitionNumber, vendor, paymentTerms string) (*entity.Order, error) {
	order, err := f.orders.CreateFromRequisition(ctx, requisitionNumber, vendor, paymentTerms)
	if err != nil {
		return nil, err
	}

	itemNumbers := make([]int, 0, len(order.Items))
	for _, item := range order.Items {
		itemNumbers = append(itemNumbers, item.Origin.ItemNumber)
	}

	if _, err := f.requisitions.MarkItemsOrdered(ctx, requisitionNumber, itemNumbers, order.Number); err != nil {
		// The order is already written; surface the inconsistency instead of
		// pretending the conversion did not happen.
		f.logger.Error("Requisition assignment failed after order creation",
			zap.String("requisition", requisitionNumber),
			zap.String("order", order.Number),
			zap.Error(err))
		return nil, err
	}

	f.logger.Info("Requisition converted to order",
		zap.String("requisition", requisitionNumber),
		zap.String("order", order.Number))
	return order, nil
}
