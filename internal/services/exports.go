package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Rhymond/go-money"
	"github.com/xuri/excelize/v2"
)

// ExportKind selects which report shape a valuation export renders.
type ExportKind string

const (
	ExportPriceLot  ExportKind = "price-lot"
	ExportHighValue ExportKind = "high-value-filter"
	ExportTaxLot    ExportKind = "tax-lot"
	ExportInsurance ExportKind = "insurance"
)

// HighValueFloorCents is the cutoff for the high-value-filter export.
const HighValueFloorCents = 10000

var exportHeaders = map[ExportKind][]string{
	ExportPriceLot: {
		"item_id", "name", "set_name", "game", "grade", "quantity",
		"unit_value", "market_value", "cost_basis", "gain", "currency",
		"valued_at", "priced_by",
	},
	ExportHighValue: {
		"item_id", "name", "set_name", "game", "grade", "quantity",
		"market_value", "currency", "valued_at",
	},
	ExportTaxLot: {
		"item_id", "name", "acquired_at", "quantity", "cost_basis",
		"market_value", "gain", "currency",
	},
	ExportInsurance: {
		"item_id", "name", "set_name", "grade", "quantity",
		"replacement_value", "currency", "valued_at",
	},
}

// ParseExportKind validates a user-supplied kind name.
func ParseExportKind(s string) (ExportKind, error) {
	kind := ExportKind(s)
	if _, ok := exportHeaders[kind]; !ok {
		return "", fmt.Errorf("unknown export kind %q", s)
	}
	return kind, nil
}

// ExportCSV renders a valuation as delimited text with the kind's fixed
// column order. encoding/csv handles quoting of separators, quotes and
// newlines embedded in card names.
func ExportCSV(w io.Writer, kind ExportKind, p PortfolioValuation) error {
	header, ok := exportHeaders[kind]
	if !ok {
		return fmt.Errorf("unknown export kind %q", kind)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range exportRows(kind, p) {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportXLSX renders the same rows as a spreadsheet.
func ExportXLSX(w io.Writer, kind ExportKind, p PortfolioValuation) error {
	header, ok := exportHeaders[kind]
	if !ok {
		return fmt.Errorf("unknown export kind %q", kind)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := writeSheetRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, row := range exportRows(kind, p) {
		if err := writeSheetRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func writeSheetRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

func exportRows(kind ExportKind, p PortfolioValuation) [][]string {
	var rows [][]string
	for _, hv := range p.Holdings {
		if !hv.HasPrice {
			continue
		}
		if kind == ExportHighValue && hv.MarketCents < HighValueFloorCents {
			continue
		}
		rows = append(rows, exportRow(kind, hv))
	}
	return rows
}

func exportRow(kind ExportKind, hv HoldingValuation) []string {
	h := hv.Holding
	display := func(cents int64) string {
		return money.New(cents, hv.Currency).Display()
	}
	valuedAt := ""
	if !hv.ValuedAt.IsZero() {
		valuedAt = hv.ValuedAt.Format("2006-01-02")
	}

	switch kind {
	case ExportHighValue:
		return []string{
			h.ItemID, h.Name, h.SetName, h.Game, h.Grade,
			strconv.Itoa(h.Quantity), display(hv.MarketCents),
			hv.Currency, valuedAt,
		}
	case ExportTaxLot:
		acquired := ""
		if h.AcquiredAt != nil {
			acquired = h.AcquiredAt.Format("2006-01-02")
		}
		return []string{
			h.ItemID, h.Name, acquired, strconv.Itoa(h.Quantity),
			display(hv.CostCents), display(hv.MarketCents),
			display(hv.GainCents), hv.Currency,
		}
	case ExportInsurance:
		return []string{
			h.ItemID, h.Name, h.SetName, h.Grade,
			strconv.Itoa(h.Quantity), display(hv.MarketCents),
			hv.Currency, valuedAt,
		}
	default: // price-lot
		return []string{
			h.ItemID, h.Name, h.SetName, h.Game, h.Grade,
			strconv.Itoa(h.Quantity), display(hv.UnitCents),
			display(hv.MarketCents), display(hv.CostCents),
			display(hv.GainCents), hv.Currency, valuedAt, hv.PricedBy,
		}
	}
}
