// internal/core/services/catalog_test.go
package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/pviana/stockroom-be/internal/core/domain"
	"github.com/pviana/stockroom-be/internal/core/ports"
	"github.com/pviana/stockroom-be/internal/core/services"
	"github.com/pviana/stockroom-be/test/helpers"
	"github.com/pviana/stockroom-be/test/mocks"
)

func TestCatalogService_Create(t *testing.T) {
	tests := []struct {
		name        string
		product     *domain.Product
		setupMocks  func(*mocks.MockProductRepository)
		expectedErr error
	}{
		{
			name:    "valid_product_is_saved",
			product: helpers.CreateTestProduct(func(p *domain.Product) { p.ID = uuid.Nil }),
			setupMocks: func(products *mocks.MockProductRepository) {
				products.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "name_is_trimmed_before_validation",
			product: helpers.CreateTestProduct(func(p *domain.Product) {
				p.Name = "  Desk Lamp  "
			}),
			setupMocks: func(products *mocks.MockProductRepository) {
				products.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, p *domain.Product) error {
						assert.Equal(t, "Desk Lamp", p.Name)
						return nil
					})
			},
		},
		{
			name: "missing_name_is_rejected",
			product: helpers.CreateTestProduct(func(p *domain.Product) {
				p.Name = "   "
			}),
			setupMocks:  func(products *mocks.MockProductRepository) {},
			expectedErr: domain.ErrInvalidInput,
		},
		{
			name: "negative_cost_price_is_rejected",
			product: helpers.CreateTestProduct(func(p *domain.Product) {
				p.CostPrice = decimal.NewFromFloat(-1)
			}),
			setupMocks:  func(products *mocks.MockProductRepository) {},
			expectedErr: domain.ErrInvalidInput,
		},
		{
			name: "negative_stock_is_rejected",
			product: helpers.CreateTestProduct(func(p *domain.Product) {
				p.Stock = -5
			}),
			setupMocks:  func(products *mocks.MockProductRepository) {},
			expectedErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			products := mocks.NewMockProductRepository(ctrl)
			tx := mocks.NewMockTxRunner(ctrl)
			tt.setupMocks(products)

			service := services.NewCatalogService(products, tx, helpers.TestLogger())
			err := service.Create(context.Background(), tt.product)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, tt.product.ID)
			assert.False(t, tt.product.CreatedAt.IsZero())
		})
	}
}

func TestCatalogService_GetByID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	productID := uuid.New()
	products := mocks.NewMockProductRepository(ctrl)
	tx := mocks.NewMockTxRunner(ctrl)
	service := services.NewCatalogService(products, tx, helpers.TestLogger())

	t.Run("existing_product_is_returned", func(t *testing.T) {
		expected := helpers.CreateTestProduct(func(p *domain.Product) { p.ID = productID })
		products.EXPECT().FindByID(gomock.Any(), productID).Return(expected, nil)

		product, err := service.GetByID(context.Background(), productID)
		require.NoError(t, err)
		assert.Equal(t, expected, product)
	})

	t.Run("missing_product_maps_to_not_found", func(t *testing.T) {
		products.EXPECT().FindByID(gomock.Any(), productID).Return(nil, nil)

		product, err := service.GetByID(context.Background(), productID)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
		assert.Nil(t, product)
	})
}

func TestCatalogService_Update(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name        string
		input       *domain.Product
		setupMocks  func(*mocks.MockProductRepository)
		check       func(*testing.T, *domain.Product)
		expectedErr error
	}{
		{
			name: "empty_image_url_keeps_current_image",
			input: helpers.CreateTestProduct(func(p *domain.Product) {
				p.ImageURL = ""
				p.Stock = 7
			}),
			setupMocks: func(products *mocks.MockProductRepository) {
				current := helpers.CreateTestProduct(func(p *domain.Product) {
					p.ID = productID
					p.ImageURL = "https://cdn.example.com/images/lamp.jpg"
				})
				products.EXPECT().FindByIDForUpdate(gomock.Any(), productID).Return(current, nil)
				products.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, updated *domain.Product) {
				assert.Equal(t, "https://cdn.example.com/images/lamp.jpg", updated.ImageURL)
				assert.Equal(t, 7, updated.Stock)
			},
		},
		{
			name: "new_image_url_replaces_current_image",
			input: helpers.CreateTestProduct(func(p *domain.Product) {
				p.ImageURL = "https://cdn.example.com/images/new.jpg"
			}),
			setupMocks: func(products *mocks.MockProductRepository) {
				current := helpers.CreateTestProduct(func(p *domain.Product) {
					p.ID = productID
					p.ImageURL = "https://cdn.example.com/images/old.jpg"
				})
				products.EXPECT().FindByIDForUpdate(gomock.Any(), productID).Return(current, nil)
				products.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, updated *domain.Product) {
				assert.Equal(t, "https://cdn.example.com/images/new.jpg", updated.ImageURL)
			},
		},
		{
			name: "stock_correction_is_written_verbatim",
			input: helpers.CreateTestProduct(func(p *domain.Product) {
				p.Stock = 0
			}),
			setupMocks: func(products *mocks.MockProductRepository) {
				current := helpers.CreateTestProduct(func(p *domain.Product) {
					p.ID = productID
					p.Stock = 42
				})
				products.EXPECT().FindByIDForUpdate(gomock.Any(), productID).Return(current, nil)
				products.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
			},
			check: func(t *testing.T, updated *domain.Product) {
				assert.Equal(t, 0, updated.Stock)
			},
		},
		{
			name:  "missing_product_maps_to_not_found",
			input: helpers.CreateTestProduct(),
			setupMocks: func(products *mocks.MockProductRepository) {
				products.EXPECT().FindByIDForUpdate(gomock.Any(), productID).Return(nil, nil)
			},
			expectedErr: domain.ErrProductNotFound,
		},
		{
			name: "invalid_merge_result_is_rejected",
			input: helpers.CreateTestProduct(func(p *domain.Product) {
				p.Name = ""
			}),
			setupMocks: func(products *mocks.MockProductRepository) {
				current := helpers.CreateTestProduct(func(p *domain.Product) { p.ID = productID })
				products.EXPECT().FindByIDForUpdate(gomock.Any(), productID).Return(current, nil)
			},
			expectedErr: domain.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			products := mocks.NewMockProductRepository(ctrl)
			movements := mocks.NewMockMovementRepository(ctrl)
			tx := mocks.NewMockTxRunner(ctrl)
			passthroughTx(tx, products, movements)
			tt.setupMocks(products)

			service := services.NewCatalogService(products, tx, helpers.TestLogger())
			updated, err := service.Update(context.Background(), productID, tt.input)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, updated)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, updated)
			if tt.check != nil {
				tt.check(t, updated)
			}
		})
	}
}

func TestCatalogService_Delete(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name        string
		setupMocks  func(*mocks.MockProductRepository, *mocks.MockMovementRepository)
		expectedErr error
	}{
		{
			name: "product_without_history_is_deleted",
			setupMocks: func(products *mocks.MockProductRepository, movements *mocks.MockMovementRepository) {
				product := helpers.CreateTestProduct(func(p *domain.Product) { p.ID = productID })
				products.EXPECT().FindByIDForUpdate(gomock.Any(), productID).Return(product, nil)
				movements.EXPECT().CountForProduct(gomock.Any(), productID).Return(int64(0), nil)
				products.EXPECT().Delete(gomock.Any(), productID).Return(nil)
			},
		},
		{
			name: "product_with_history_is_blocked",
			setupMocks: func(products *mocks.MockProductRepository, movements *mocks.MockMovementRepository) {
				product := helpers.CreateTestProduct(func(p *domain.Product) { p.ID = productID })
				products.EXPECT().FindByIDForUpdate(gomock.Any(), productID).Return(product, nil)
				movements.EXPECT().CountForProduct(gomock.Any(), productID).Return(int64(3), nil)
			},
			expectedErr: domain.ErrProductHasMovements,
		},
		{
			name: "missing_product_maps_to_not_found",
			setupMocks: func(products *mocks.MockProductRepository, movements *mocks.MockMovementRepository) {
				products.EXPECT().FindByIDForUpdate(gomock.Any(), productID).Return(nil, nil)
			},
			expectedErr: domain.ErrProductNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			products := mocks.NewMockProductRepository(ctrl)
			movements := mocks.NewMockMovementRepository(ctrl)
			tx := mocks.NewMockTxRunner(ctrl)
			passthroughTx(tx, products, movements)
			tt.setupMocks(products, movements)

			service := services.NewCatalogService(products, tx, helpers.TestLogger())
			err := service.Delete(context.Background(), productID)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCatalogService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	products := mocks.NewMockProductRepository(ctrl)
	tx := mocks.NewMockTxRunner(ctrl)
	service := services.NewCatalogService(products, tx, helpers.TestLogger())

	t.Run("defaults_are_applied_to_paging", func(t *testing.T) {
		products.EXPECT().
			List(gomock.Any(), ports.ListParams{Page: 1, PageSize: 50}).
			Return(&ports.ListResult{Page: 1, PageSize: 50}, nil)

		result, err := service.List(context.Background(), ports.ListParams{})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Page)
	})

	t.Run("oversized_page_size_falls_back_to_default", func(t *testing.T) {
		products.EXPECT().
			List(gomock.Any(), ports.ListParams{Page: 2, PageSize: 50}).
			Return(&ports.ListResult{Page: 2, PageSize: 50}, nil)

		_, err := service.List(context.Background(), ports.ListParams{Page: 2, PageSize: 10000})
		require.NoError(t, err)
	})

	t.Run("filters_are_passed_through", func(t *testing.T) {
		params := ports.ListParams{
			Search:    "lamp",
			Category:  "electronics",
			SortBy:    "name",
			SortOrder: "asc",
			Page:      1,
			PageSize:  20,
		}
		products.EXPECT().List(gomock.Any(), params).Return(&ports.ListResult{}, nil)

		_, err := service.List(context.Background(), params)
		require.NoError(t, err)
	})
}
