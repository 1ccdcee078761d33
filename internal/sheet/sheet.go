// Package sheet exchanges products with xlsx spreadsheets.
package sheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/rcliao/expiry-tracker/internal/dates"
	"github.com/rcliao/expiry-tracker/internal/expiry"
	"github.com/rcliao/expiry-tracker/internal/model"
	"github.com/rcliao/expiry-tracker/internal/store"
)

// SheetName is the worksheet written by Write.
const SheetName = "Products"

// Header is the column order written by Write.
var Header = []string{"ID", "Name", "Category", "Brand", "Barcode", "Expiration", "Purchased", "Status", "Notes"}

// Write renders products as an xlsx workbook. Status is computed at now.
func Write(w io.Writer, products []model.Product, now time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		f.SetRowStyle(SheetName, 1, 1, style)
	}
	f.SetColWidth(SheetName, "B", "B", 32)
	f.SetColWidth(SheetName, "C", "I", 16)

	for i, p := range products {
		purchased := ""
		if p.PurchaseDate != nil {
			purchased = p.PurchaseDate.Format(dates.Layout)
		}
		row := []interface{}{
			p.ID, p.Name, p.Category, p.Brand, p.Barcode,
			p.ExpirationDate.Format(dates.Layout), purchased,
			expiry.Classify(p.ExpirationDate, now).Label, p.Notes,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return f.Write(w)
}

// Row is one parsed spreadsheet row.
type Row struct {
	Line   int
	Params store.AddParams
}

// RowError explains why a row was skipped.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return "row " + strconv.Itoa(e.Line) + ": " + e.Err.Error()
}

// Read parses the first worksheet. Headers are matched case-insensitively;
// Name and Expiration are required columns. Rows that cannot be parsed are
// returned as RowErrors and do not stop the read.
func Read(r io.Reader) ([]Row, []RowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("excel file is empty")
	}

	cols := mapColumns(rows[0])
	for _, required := range []string{"name", "expiration"} {
		if _, ok := cols[required]; !ok {
			return nil, nil, fmt.Errorf("missing %q column", required)
		}
	}

	var out []Row
	var errs []RowError
	for i, cells := range rows[1:] {
		line := i + 2
		get := func(key string) string {
			idx, ok := cols[key]
			if !ok || idx >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[idx])
		}

		if isBlank(cells) {
			continue
		}

		name := get("name")
		if name == "" {
			errs = append(errs, RowError{Line: line, Err: fmt.Errorf("name is empty")})
			continue
		}
		exp, err := dates.ParseDate(get("expiration"), time.Local)
		if err != nil {
			errs = append(errs, RowError{Line: line, Err: err})
			continue
		}

		p := store.AddParams{
			Name:           name,
			Category:       get("category"),
			ExpirationDate: exp,
			Brand:          get("brand"),
			Barcode:        get("barcode"),
			Notes:          get("notes"),
		}
		if raw := get("purchased"); raw != "" {
			d, err := dates.ParseDate(raw, time.Local)
			if err != nil {
				errs = append(errs, RowError{Line: line, Err: fmt.Errorf("purchased: %w", err)})
				continue
			}
			p.PurchaseDate = &d
		}
		out = append(out, Row{Line: line, Params: p})
	}

	return out, errs, nil
}

var headerAliases = map[string]string{
	"name":            "name",
	"product":         "name",
	"category":        "category",
	"brand":           "brand",
	"barcode":         "barcode",
	"expiration":      "expiration",
	"expires":         "expiration",
	"expiration date": "expiration",
	"expiry":          "expiration",
	"mhd":             "expiration",
	"purchased":       "purchased",
	"purchase date":   "purchased",
	"notes":           "notes",
}

func mapColumns(header []string) map[string]int {
	cols := map[string]int{}
	for i, h := range header {
		key, ok := headerAliases[strings.ToLower(strings.TrimSpace(h))]
		if !ok {
			continue
		}
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	return cols
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
