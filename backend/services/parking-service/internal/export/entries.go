// Package export renders parking history as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"parkinglot/backend/services/parking-service/internal/models"
)

const (
	SheetName   = "Entries"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	timeFormat  = "2006-01-02 15:04:05"
)

// Options controls column content.
type Options struct {
	Currency string
	Location *time.Location
}

// Header returns the first row of the sheet.
func Header(currency string) []interface{} {
	amount := "Amount"
	if currency != "" {
		amount = fmt.Sprintf("Amount (%s)", currency)
	}
	return []interface{}{
		"Receipt ID",
		"Vehicle Number",
		"Vehicle Type",
		"Entry Time",
		"Exit Time",
		"Billed Hours",
		"Pick&Go",
		amount,
	}
}

// WriteEntries writes an xlsx workbook with one row per entry and a total
// row for the charged amount.
func WriteEntries(w io.Writer, entries []models.ParkingEntry, opts Options) error {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(sheet, SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sheet = SheetName

	header := Header(opts.Currency)
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := 2
	total := 0.0
	for i := range entries {
		e := &entries[i]

		exit := ""
		if e.ExitTime != nil {
			exit = e.ExitTime.In(loc).Format(timeFormat)
		}
		var hours interface{} = ""
		if e.Duration != nil {
			hours = *e.Duration
		}
		var amount interface{} = ""
		if e.TotalAmount != nil {
			amount = *e.TotalAmount
			total += *e.TotalAmount
		}
		pickAndGo := "No"
		if e.IsPickAndGo {
			pickAndGo = "Yes"
		}

		values := []interface{}{
			e.ReceiptID,
			e.VehicleNumber,
			e.VehicleTypeName(),
			e.EntryTime.In(loc).Format(timeFormat),
			exit,
			hours,
			pickAndGo,
			amount,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		row++
	}

	totalLabel, err := excelize.CoordinatesToCellName(len(header)-1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	totalRow := []interface{}{"Total", total}
	if err := f.SetSheetRow(sheet, totalLabel, &totalRow); err != nil {
		return fmt.Errorf("write total: %w", err)
	}

	if err := f.SetColWidth(sheet, "A", "H", 18); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// FileName builds a download name for an export taken at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("parking-history-%s.xlsx", t.UTC().Format("20060102-150405"))
}
