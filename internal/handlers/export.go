// internal/handlers/export.go
package handlers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/pviana/stockroom-be/internal/core/domain"
	"github.com/pviana/stockroom-be/internal/core/ports"
)

// exportPageSize is how many products each page fetch pulls while draining
// the catalog for an export.
const exportPageSize = 200

// ExportHandler produces full-catalog exports
type ExportHandler struct {
	service ports.CatalogService
	logger  *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(service ports.CatalogService, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "export")),
	}
}

// ExportExcel handles GET /api/v1/export/excel
func (h *ExportHandler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products, err := h.fetchAll(ctx, r)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to fetch catalog for export",
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "failed to retrieve data")
		return
	}

	excelData, err := h.generateExcelFile(products)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate Excel file",
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "failed to generate Excel file")
		return
	}

	filename := fmt.Sprintf("catalog_export_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(excelData)))
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	if _, err := w.Write(excelData); err != nil {
		h.logger.ErrorContext(ctx, "failed to write Excel response",
			slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(ctx, "Excel export completed",
		slog.Int("total_rows", len(products)),
		slog.String("filename", filename))
}

// ExportJSON handles GET /api/v1/export/json
func (h *ExportHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products, err := h.fetchAll(ctx, r)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to fetch catalog for export",
			slog.String("error", err.Error()))
		respondError(w, h.logger, http.StatusInternalServerError, "failed to retrieve data")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"products": products,
		"metadata": map[string]interface{}{
			"export_date": time.Now().UTC(),
			"total_items": len(products),
		},
	})

	h.logger.InfoContext(ctx, "JSON export completed",
		slog.Int("total_rows", len(products)))
}

// fetchAll drains the catalog page by page, honoring the same search and
// category filters the list endpoint takes.
func (h *ExportHandler) fetchAll(ctx context.Context, r *http.Request) ([]*domain.Product, error) {
	params := parseListParams(r)
	params.Page = 1
	params.PageSize = exportPageSize

	var all []*domain.Product
	for {
		page, err := h.service.List(ctx, params)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Products...)

		if params.Page >= page.TotalPages {
			break
		}
		params.Page++
	}
	return all, nil
}

func (h *ExportHandler) generateExcelFile(products []*domain.Product) ([]byte, error) {
	file := xlsx.NewFile()

	sheet, err := file.AddSheet("Products")
	if err != nil {
		return nil, fmt.Errorf("failed to add worksheet: %w", err)
	}

	headers := []string{
		"Name", "SKU", "Category", "Description",
		"Cost Price", "Sale Price", "Stock", "Image URL",
		"Created At", "Updated At",
	}
	headerRow := sheet.AddRow()
	for _, header := range headers {
		cell := headerRow.AddCell()
		cell.Value = header
		cell.GetStyle().Font.Bold = true
		cell.GetStyle().Fill.PatternType = "solid"
		cell.GetStyle().Fill.FgColor = "CCCCCC"
	}

	for _, p := range products {
		row := sheet.AddRow()
		for _, value := range []string{
			p.Name,
			p.SKU,
			p.Category,
			p.Description,
			p.CostPrice.StringFixed(2),
			p.SalePrice.StringFixed(2),
			strconv.Itoa(p.Stock),
			p.ImageURL,
			p.CreatedAt.Format("2006-01-02 15:04:05"),
			p.UpdatedAt.Format("2006-01-02 15:04:05"),
		} {
			row.AddCell().Value = value
		}
	}

	for i := range headers {
		sheet.SetColWidth(i, i, 15)
	}

	var buffer bytes.Buffer
	if err := file.Write(&buffer); err != nil {
		return nil, fmt.Errorf("failed to write Excel file to buffer: %w", err)
	}
	return buffer.Bytes(), nil
}
