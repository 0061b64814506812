// Package snapshot exports the product list to portable formats and
// restores it from a CSV backup. A restore counts as a bulk mutation:
// the coordinator is told to re-derive the visible list afterwards.
package snapshot

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/pricetrack/pricetrack/internal/domain"
	"github.com/pricetrack/pricetrack/internal/store"
)

// Notifier is told when a restore changed the stored collection.
type Notifier interface {
	OnProductMutated()
}

// productRow is the flat CSV/XLSX shape of a product. The image blob
// is not carried in tabular exports.
type productRow struct {
	ID              int64   `csv:"id"`
	Description     string  `csv:"description"`
	Price           float64 `csv:"price"`
	PlaceOfPurchase string  `csv:"place_of_purchase"`
	Category        string  `csv:"category"`
	Size            string  `csv:"size"`
	Quantity        string  `csv:"quantity"`
	Barcode         string  `csv:"barcode"`
	UpdateDate      string  `csv:"update_date"`
}

// Exporter writes and restores product snapshots.
type Exporter struct {
	repo     store.ProductRepository
	notifier Notifier
}

func NewExporter(repo store.ProductRepository, notifier Notifier) *Exporter {
	return &Exporter{repo: repo, notifier: notifier}
}

func (e *Exporter) rows(ctx context.Context) ([]*productRow, error) {
	products, err := e.repo.SearchByDescription(ctx, "")
	if err != nil {
		return nil, err
	}
	rows := make([]*productRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, &productRow{
			ID:              p.ID,
			Description:     p.Description,
			Price:           p.Price,
			PlaceOfPurchase: p.PlaceOfPurchase,
			Category:        p.Category,
			Size:            p.Size,
			Quantity:        p.Quantity,
			Barcode:         p.Barcode,
			UpdateDate:      p.UpdateDate.Format(time.RFC3339),
		})
	}
	return rows, nil
}

// ExportCSV writes the full product list as CSV.
func (e *Exporter) ExportCSV(ctx context.Context, w io.Writer) error {
	rows, err := e.rows(ctx)
	if err != nil {
		return err
	}
	return gocsv.Marshal(rows, w)
}

// ExportJSON writes the full product list as JSON, image blobs included.
func (e *Exporter) ExportJSON(ctx context.Context, w io.Writer) error {
	products, err := e.repo.SearchByDescription(ctx, "")
	if err != nil {
		return err
	}
	return jsoniter.NewEncoder(w).Encode(products)
}

var xlsxHeader = []string{"id", "description", "price", "place_of_purchase", "category", "size", "quantity", "barcode", "update_date"}

// ExportXLSX writes the full product list as an Excel price sheet.
func (e *Exporter) ExportXLSX(ctx context.Context, w io.Writer) error {
	rows, err := e.rows(ctx)
	if err != nil {
		return err
	}

	const sheet = "Sheet1"
	file := excelize.NewFile()
	for col, title := range xlsxHeader {
		file.SetCellValue(sheet, cellAxis(col, 1), title)
	}
	for i, row := range rows {
		line := i + 2
		file.SetCellValue(sheet, cellAxis(0, line), strconv.FormatInt(row.ID, 10))
		file.SetCellValue(sheet, cellAxis(1, line), row.Description)
		file.SetCellValue(sheet, cellAxis(2, line), row.Price)
		file.SetCellValue(sheet, cellAxis(3, line), row.PlaceOfPurchase)
		file.SetCellValue(sheet, cellAxis(4, line), row.Category)
		file.SetCellValue(sheet, cellAxis(5, line), row.Size)
		file.SetCellValue(sheet, cellAxis(6, line), row.Quantity)
		file.SetCellValue(sheet, cellAxis(7, line), row.Barcode)
		file.SetCellValue(sheet, cellAxis(8, line), row.UpdateDate)
	}
	return file.Write(w)
}

func cellAxis(col, row int) string {
	return excelize.ToAlphaString(col) + strconv.Itoa(row)
}

// ImportCSV restores products from a CSV backup. Rows colliding with a
// live product (same description and place, case-insensitive) are
// skipped; ids are reassigned on insert. Returns inserted and skipped
// counts. On success the notifier re-derives the visible list.
func (e *Exporter) ImportCSV(ctx context.Context, r io.Reader) (inserted, skipped int, err error) {
	var rows []*productRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return 0, 0, err
	}

	for _, row := range rows {
		dup, err := e.repo.ExistsDuplicate(ctx, row.Description, row.PlaceOfPurchase, 0)
		if err != nil {
			return inserted, skipped, err
		}
		if dup {
			skipped++
			continue
		}
		p := &domain.Product{
			Description:     row.Description,
			Price:           row.Price,
			PlaceOfPurchase: row.PlaceOfPurchase,
			Category:        row.Category,
			Size:            row.Size,
			Quantity:        row.Quantity,
			Barcode:         row.Barcode,
		}
		if _, err := e.repo.Insert(ctx, p); err != nil {
			zap.L().Warn("snapshot restore: row skipped",
				zap.String("description", row.Description),
				zap.Error(err))
			skipped++
			continue
		}
		inserted++
	}

	if inserted > 0 && e.notifier != nil {
		e.notifier.OnProductMutated()
	}
	return inserted, skipped, nil
}
