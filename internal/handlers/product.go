// internal/handlers/product.go
package handlers

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pviana/stockroom-be/internal/adapters/storage"
	"github.com/pviana/stockroom-be/internal/core/domain"
	"github.com/pviana/stockroom-be/internal/core/ports"
)

const (
	maxImageSize    = 5 << 20 // 5MB, same cap the upload form advertises
	maxMultipartMem = 10 << 20
)

// ProductHandler handles catalog HTTP requests. Image payloads are persisted
// out-of-band through the storage client; only the resulting URL reaches the
// catalog service.
type ProductHandler struct {
	service ports.CatalogService
	storage storage.StorageClient
	cache   ports.CacheRepository
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler. A nil storage client is
// tolerated; image uploads are then rejected and replaced-image cleanup is
// skipped.
func NewProductHandler(service ports.CatalogService, st storage.StorageClient, cache ports.CacheRepository, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		storage: st,
		cache:   cache,
		logger:  logger.With(slog.String("handler", "products")),
	}
}

// ListProducts handles GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := parseListParams(r)

	result, err := h.service.List(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list products",
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, result)
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.service.GetByID(ctx, id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, product)
}

// CreateProduct handles POST /api/v1/products (multipart form, optional image)
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	product, file, header, err := h.parseProductForm(r)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	if file != nil {
		defer file.Close()
		imageURL, err := h.uploadImage(r, file, header)
		if err != nil {
			respondError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		product.ImageURL = imageURL
	}

	if err := h.service.Create(ctx, product); err != nil {
		h.logger.ErrorContext(ctx, "failed to create product",
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	h.invalidateReadCaches(r)
	respondJSON(w, h.logger, http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/v1/products/{id}. Omitting the image always
// means "keep the current one".
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid product id")
		return
	}

	product, file, header, err := h.parseProductForm(r)
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	// Remember the previous image so a replaced one can be cleaned up.
	previous, err := h.service.GetByID(ctx, id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	if file != nil {
		defer file.Close()
		imageURL, err := h.uploadImage(r, file, header)
		if err != nil {
			respondError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		product.ImageURL = imageURL
	}

	updated, err := h.service.Update(ctx, id, product)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to update product",
			slog.String("product_id", id.String()),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	if product.ImageURL != "" && previous.ImageURL != "" && previous.ImageURL != product.ImageURL {
		h.deleteImage(r, previous.ImageURL)
	}

	h.invalidateReadCaches(r)
	respondJSON(w, h.logger, http.StatusOK, updated)
}

// DeleteProduct handles DELETE /api/v1/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.service.GetByID(ctx, id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete product",
			slog.String("product_id", id.String()),
			slog.String("error", err.Error()))
		respondDomainError(w, h.logger, err)
		return
	}

	if product.ImageURL != "" {
		h.deleteImage(r, product.ImageURL)
	}

	h.invalidateReadCaches(r)
	respondJSON(w, h.logger, http.StatusOK, map[string]string{
		"message": "product deleted",
	})
}

// parseProductForm reads a multipart form (or url-encoded body without an
// image) into a validated-enough product; strict numeric parsing happens
// here so unvalidated primitives never reach the services.
func (h *ProductHandler) parseProductForm(r *http.Request) (*domain.Product, multipart.File, *multipart.FileHeader, error) {
	contentType := r.Header.Get("Content-Type")

	var file multipart.File
	var header *multipart.FileHeader

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMultipartMem); err != nil {
			return nil, nil, nil, fmt.Errorf("invalid multipart form: %v", err)
		}
		if f, fh, err := r.FormFile("image"); err == nil && fh.Size > 0 {
			file, header = f, fh
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return nil, nil, nil, fmt.Errorf("invalid form: %v", err)
		}
	}

	costPrice, err := parsePrice(r.FormValue("cost_price"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid cost_price: %v", err)
	}
	salePrice, err := parsePrice(r.FormValue("sale_price"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid sale_price: %v", err)
	}
	stock, err := parseStock(r.FormValue("stock"))
	if err != nil {
		return nil, nil, nil, err
	}

	product := &domain.Product{
		Name:        r.FormValue("name"),
		SKU:         r.FormValue("sku"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
		CostPrice:   costPrice,
		SalePrice:   salePrice,
		Stock:       stock,
	}

	return product, file, header, nil
}

func (h *ProductHandler) uploadImage(r *http.Request, file multipart.File, header *multipart.FileHeader) (string, error) {
	if h.storage == nil {
		return "", fmt.Errorf("image uploads are disabled")
	}
	if header.Size > maxImageSize {
		return "", fmt.Errorf("image too large (max 5MB)")
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("file must be an image")
	}

	key := storage.ImageKey(header.Filename)
	url, err := h.storage.Upload(r.Context(), key, file, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to store image: %v", err)
	}
	return url, nil
}

// deleteImage is best-effort; a dangling object is the cleanup worker's job
func (h *ProductHandler) deleteImage(r *http.Request, imageURL string) {
	if h.storage == nil {
		return
	}
	key := storage.KeyFromURL(imageURL)
	if key == "" {
		return
	}
	if err := h.storage.Delete(r.Context(), key); err != nil {
		h.logger.WarnContext(r.Context(), "failed to delete replaced image",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}

func (h *ProductHandler) invalidateReadCaches(r *http.Request) {
	invalidateReadCaches(r, h.cache, h.logger)
}

func parseListParams(r *http.Request) ports.ListParams {
	q := r.URL.Query()

	params := ports.ListParams{
		Search:    strings.TrimSpace(q.Get("q")),
		Category:  strings.TrimSpace(q.Get("category")),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		params.Page = page
	}
	if size, err := strconv.Atoi(q.Get("page_size")); err == nil {
		params.PageSize = size
	}
	return params
}

func parsePrice(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number")
	}
	return d, nil
}

func parseStock(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	stock, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid stock: must be an integer")
	}
	return stock, nil
}
