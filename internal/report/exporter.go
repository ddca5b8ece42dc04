// Package report renders the current document population to an Excel
// workbook for the monitoring surface. Strictly read-only over the facade's
// list output.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/procurelab/procuresim/internal/domain/entity"
	"github.com/procurelab/procuresim/internal/domain/reconcile"
)

const (
	sheetRequisitions = "Requisitions"
	sheetOrders       = "Orders"
	timeLayout        = "2006-01-02 15:04:05"
)

// Exporter writes document listings to xlsx workbooks
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new Exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// Export writes one sheet of requisitions and one of orders to path
func (e *Exporter) Export(path string, requisitions []entity.Requisition, orders []entity.Order) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := e.fillRequisitions(f, requisitions); err != nil {
		return err
	}
	if err := e.fillOrders(f, orders); err != nil {
		return err
	}

	// Drop the default sheet excelize creates.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	e.logger.Info("Document export written",
		zap.String("path", path),
		zap.Int("requisitions", len(requisitions)),
		zap.Int("orders", len(orders)))
	return nil
}

func (e *Exporter) fillRequisitions(f *excelize.File, requisitions []entity.Requisition) error {
	if _, err := f.NewSheet(sheetRequisitions); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	header := []interface{}{"Number", "Description", "Requester", "Department", "Status", "Urgent", "Items", "Total Value", "Updated"}
	if err := f.SetSheetRow(sheetRequisitions, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, req := range requisitions {
		row := []interface{}{
			req.Number,
			req.Description,
			req.Requester,
			req.Department,
			req.Status.String(),
			req.Urgent,
			len(req.Items),
			reconcile.RequisitionTotal(req.Items).String(),
			req.UpdatedAt.Format(timeLayout),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetRequisitions, cell, &row); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", req.Number, err)
		}
	}
	return nil
}

func (e *Exporter) fillOrders(f *excelize.File, orders []entity.Order) error {
	if _, err := f.NewSheet(sheetOrders); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	header := []interface{}{"Number", "Description", "Vendor", "Status", "Requisition", "Items", "Total Value", "Updated"}
	if err := f.SetSheetRow(sheetOrders, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, order := range orders {
		row := []interface{}{
			order.Number,
			order.Description,
			order.Vendor,
			order.Status.String(),
			order.RequisitionNumber,
			len(order.Items),
			reconcile.OrderTotal(order.Items).String(),
			order.UpdatedAt.Format(timeLayout),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheetOrders, cell, &row); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", order.Number, err)
		}
	}
	return nil
}
