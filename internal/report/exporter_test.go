package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/procurelab/procuresim/internal/domain/entity"
)

func TestExporter_Export(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.xlsx")
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	requisitions := []entity.Requisition{
		{
			Number:      "REQ-000001",
			Description: "office restock",
			Requester:   "alice",
			Status:      entity.RequisitionApproved,
			Items: []entity.RequisitionItem{
				{ItemNumber: 1, Description: "paper", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(5)},
			},
			UpdatedAt: now,
		},
	}
	orders := []entity.Order{
		{
			Number:      "ORD-000001",
			Description: "office restock",
			Vendor:      "Acme",
			Status:      entity.OrderDraft,
			Items: []entity.OrderItem{
				{ItemNumber: 1, Description: "paper", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(5)},
			},
			UpdatedAt: now,
		},
	}

	exporter := NewExporter(zap.NewNop())
	require.NoError(t, exporter.Export(path, requisitions, orders))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Requisitions", "Orders"}, f.GetSheetList())

	number, err := f.GetCellValue("Requisitions", "A2")
	require.NoError(t, err)
	assert.Equal(t, "REQ-000001", number)

	total, err := f.GetCellValue("Requisitions", "H2")
	require.NoError(t, err)
	assert.Equal(t, "50", total)

	vendor, err := f.GetCellValue("Orders", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Acme", vendor)
}

func TestExporter_ExportEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")

	exporter := NewExporter(zap.NewNop())
	require.NoError(t, exporter.Export(path, nil, nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Orders", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Number", header)
}
