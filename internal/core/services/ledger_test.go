// internal/core/services/ledger_test.go
package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/pviana/stockroom-be/internal/core/domain"
	"github.com/pviana/stockroom-be/internal/core/ports"
	"github.com/pviana/stockroom-be/internal/core/services"
	"github.com/pviana/stockroom-be/test/helpers"
	"github.com/pviana/stockroom-be/test/mocks"
)

// passthroughTx wires a MockTxRunner so that InTx immediately invokes the
// callback with the given repository mocks, mimicking a committed transaction.
func passthroughTx(tx *mocks.MockTxRunner, products *mocks.MockProductRepository, movements *mocks.MockMovementRepository) {
	tx.EXPECT().InTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(ports.ProductRepository, ports.MovementRepository) error) error {
			return fn(products, movements)
		}).AnyTimes()
}

func TestLedgerService_Record(t *testing.T) {
	productID := uuid.New()

	tests := []struct {
		name          string
		cmd           ports.RecordMovement
		setupMocks    func(*mocks.MockProductRepository, *mocks.MockMovementRepository)
		expectedStock int
		expectedErr   error
	}{
		{
			name: "inbound_movement_raises_stock",
			cmd: ports.RecordMovement{
				ProductID: productID,
				Type:      domain.MovementIn,
				Qty:       5,
				Reason:    "restock",
			},
			setupMocks: func(products *mocks.MockProductRepository, movements *mocks.MockMovementRepository) {
				product := helpers.CreateTestProduct(func(p *domain.Product) {
					p.ID = productID
					p.Stock = 10
				})
				products.EXPECT().FindByIDForUpdate(gomock.Any(), productID).Return(product, nil)
				products.EXPECT().UpdateStock(gomock.Any(), productID, 15).Return(nil)
				movements.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
			},
			expectedStock: 15,
		},
		{
			name: "outbound_movement_can_empty_stock",
			cmd: ports.RecordMovement{
				ProductID: productID,
				Type:      domain.MovementOut,
				Qty:       10,
			},
			setupMocks: func(products *mocks.MockProductRepository, movements *mocks.MockMovementRepository) {
				product := helpers.CreateTestProduct(func(p *domain.Product) {
					p.ID = productID
					p.Stock = 10
				})
				products.EXPECT().FindByIDForUpdate(gomock.Any(), productID).Return(product, nil)
				products.EXPECT().UpdateStock(gomock.Any(), productID, 0).Return(nil)
				movements.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
			},
			expectedStock: 0,
		},
		{
			name: "outbound_movement_exceeding_stock_is_rejected",
			cmd: ports.RecordMovement{
				ProductID: productID,
				Type:      domain.MovementOut,
				Qty:       12,
			},
			setupMocks: func(products *mocks.MockProductRepository, movements *mocks.MockMovementRepository) {
				product := helpers.CreateTestProduct(func(p *domain.Product) {
					p.ID = productID
					p.Stock = 10
				})
				products.EXPECT().FindByIDForUpdate(gomock.Any(), productID).Return(product, nil)
				// No stock write and no movement insert after the rejection.
			},
			expectedErr: domain.ErrInsufficientStock,
		},
		{
			name: "unknown_product_is_rejected",
			cmd: ports.RecordMovement{
				ProductID: productID,
				Type:      domain.MovementIn,
				Qty:       1,
			},
			setupMocks: func(products *mocks.MockProductRepository, movements *mocks.MockMovementRepository) {
				products.EXPECT().FindByIDForUpdate(gomock.Any(), productID).Return(nil, nil)
			},
			expectedErr: domain.ErrProductNotFound,
		},
		{
			name: "zero_qty_is_rejected_before_any_transaction",
			cmd: ports.RecordMovement{
				ProductID: productID,
				Type:      domain.MovementIn,
				Qty:       0,
			},
			setupMocks:  func(products *mocks.MockProductRepository, movements *mocks.MockMovementRepository) {},
			expectedErr: domain.ErrInvalidInput,
		},
		{
			name: "negative_qty_is_rejected_before_any_transaction",
			cmd: ports.RecordMovement{
				ProductID: productID,
				Type:      domain.MovementOut,
				Qty:       -1,
			},
			setupMocks:  func(products *mocks.MockProductRepository, movements *mocks.MockMovementRepository) {},
			expectedErr: domain.ErrInvalidInput,
		},
		{
			name: "unknown_movement_type_is_rejected",
			cmd: ports.RecordMovement{
				ProductID: productID,
				Type:      domain.MovementType("MOVE"),
				Qty:       1,
			},
			setupMocks:  func(products *mocks.MockProductRepository, movements *mocks.MockMovementRepository) {},
			expectedErr: domain.ErrInvalidInput,
		},
		{
			name: "missing_product_id_is_rejected",
			cmd: ports.RecordMovement{
				Type: domain.MovementIn,
				Qty:  1,
			},
			setupMocks:  func(products *mocks.MockProductRepository, movements *mocks.MockMovementRepository) {},
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
			tt.setupMocks(products, movements)

			service := services.NewLedgerService(tx, movements, helpers.TestLogger())
			receipt, err := service.Record(context.Background(), tt.cmd)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, receipt)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, receipt)
			assert.Equal(t, tt.expectedStock, receipt.Stock)
			assert.Equal(t, tt.cmd.ProductID, receipt.Movement.ProductID)
			assert.Equal(t, tt.cmd.Type, receipt.Movement.Type)
			assert.Equal(t, tt.cmd.Qty, receipt.Movement.Qty)
			assert.NotEqual(t, uuid.Nil, receipt.Movement.ID)
			assert.NotEmpty(t, receipt.ProductName)
		})
	}
}

func TestLedgerService_Record_ReceiptCarriesProductIdentity(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	productID := uuid.New()
	product := helpers.CreateTestProduct(func(p *domain.Product) {
		p.ID = productID
		p.Name = "Travel Mug"
		p.SKU = "HOM-0042"
		p.Stock = 3
	})

	products := mocks.NewMockProductRepository(ctrl)
	movements := mocks.NewMockMovementRepository(ctrl)
	tx := mocks.NewMockTxRunner(ctrl)
	passthroughTx(tx, products, movements)

	products.EXPECT().FindByIDForUpdate(gomock.Any(), productID).Return(product, nil)
	products.EXPECT().UpdateStock(gomock.Any(), productID, 1).Return(nil)
	movements.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)

	service := services.NewLedgerService(tx, movements, helpers.TestLogger())
	receipt, err := service.Record(context.Background(), ports.RecordMovement{
		ProductID: productID,
		Type:      domain.MovementOut,
		Qty:       2,
	})

	require.NoError(t, err)
	assert.Equal(t, "Travel Mug", receipt.ProductName)
	assert.Equal(t, "HOM-0042", receipt.SKU)
	assert.Equal(t, 1, receipt.Stock)
}

func TestLedgerService_Record_RollsBackOnInsertFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	productID := uuid.New()
	product := helpers.CreateTestProduct(func(p *domain.Product) {
		p.ID = productID
		p.Stock = 10
	})

	products := mocks.NewMockProductRepository(ctrl)
	movements := mocks.NewMockMovementRepository(ctrl)
	tx := mocks.NewMockTxRunner(ctrl)
	passthroughTx(tx, products, movements)

	products.EXPECT().FindByIDForUpdate(gomock.Any(), productID).Return(product, nil)
	products.EXPECT().UpdateStock(gomock.Any(), productID, 15).Return(nil)
	movements.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

	service := services.NewLedgerService(tx, movements, helpers.TestLogger())
	receipt, err := service.Record(context.Background(), ports.RecordMovement{
		ProductID: productID,
		Type:      domain.MovementIn,
		Qty:       5,
	})

	require.Error(t, err)
	assert.Nil(t, receipt)
	assert.Contains(t, err.Error(), "failed to insert movement")
}

func TestLedgerService_Reverse(t *testing.T) {
	productID := uuid.New()
	movementID := uuid.New()

	tests := []struct {
		name          string
		movementID    uuid.UUID
		setupMocks    func(*mocks.MockProductRepository, *mocks.MockMovementRepository)
		expectedStock int
		expectedErr   error
	}{
		{
			name:       "reversing_inbound_lowers_stock",
			movementID: movementID,
			setupMocks: func(products *mocks.MockProductRepository, movements *mocks.MockMovementRepository) {
				movement := helpers.CreateTestMovement(productID, func(m *domain.StockMovement) {
					m.ID = movementID
					m.Type = domain.MovementIn
					m.Qty = 5
				})
				product := helpers.CreateTestProduct(func(p *domain.Product) {
					p.ID = productID
					p.Stock = 15
				})
				movements.EXPECT().FindByID(gomock.Any(), movementID).Return(movement, nil)
				products.EXPECT().FindByIDForUpdate(gomock.Any(), productID).Return(product, nil)
				products.EXPECT().UpdateStock(gomock.Any(), productID, 10).Return(nil)
				movements.EXPECT().Delete(gomock.Any(), movementID).Return(nil)
			},
			expectedStock: 10,
		},
		{
			name:       "reversing_outbound_restores_stock",
			movementID: movementID,
			setupMocks: func(products *mocks.MockProductRepository, movements *mocks.MockMovementRepository) {
				movement := helpers.CreateTestMovement(productID, func(m *domain.StockMovement) {
					m.ID = movementID
					m.Type = domain.MovementOut
					m.Qty = 4
				})
				product := helpers.CreateTestProduct(func(p *domain.Product) {
					p.ID = productID
					p.Stock = 6
				})
				movements.EXPECT().FindByID(gomock.Any(), movementID).Return(movement, nil)
				products.EXPECT().FindByIDForUpdate(gomock.Any(), productID).Return(product, nil)
				products.EXPECT().UpdateStock(gomock.Any(), productID, 10).Return(nil)
				movements.EXPECT().Delete(gomock.Any(), movementID).Return(nil)
			},
			expectedStock: 10,
		},
		{
			// Later OUT movements already consumed part of the IN being
			// reversed: only 8 on hand, so undoing an IN of 10 must fail.
			name:       "reversal_that_would_go_negative_is_rejected",
			movementID: movementID,
			setupMocks: func(products *mocks.MockProductRepository, movements *mocks.MockMovementRepository) {
				movement := helpers.CreateTestMovement(productID, func(m *domain.StockMovement) {
					m.ID = movementID
					m.Type = domain.MovementIn
					m.Qty = 10
				})
				product := helpers.CreateTestProduct(func(p *domain.Product) {
					p.ID = productID
					p.Stock = 8
				})
				movements.EXPECT().FindByID(gomock.Any(), movementID).Return(movement, nil)
				products.EXPECT().FindByIDForUpdate(gomock.Any(), productID).Return(product, nil)
			},
			expectedErr: domain.ErrCannotReverse,
		},
		{
			name:       "unknown_movement_is_rejected",
			movementID: movementID,
			setupMocks: func(products *mocks.MockProductRepository, movements *mocks.MockMovementRepository) {
				movements.EXPECT().FindByID(gomock.Any(), movementID).Return(nil, nil)
			},
			expectedErr: domain.ErrMovementNotFound,
		},
		{
			name:        "nil_movement_id_is_rejected",
			movementID:  uuid.Nil,
			setupMocks:  func(products *mocks.MockProductRepository, movements *mocks.MockMovementRepository) {},
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
			tt.setupMocks(products, movements)

			service := services.NewLedgerService(tx, movements, helpers.TestLogger())
			receipt, err := service.Reverse(context.Background(), tt.movementID)

			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, receipt)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, receipt)
			assert.Equal(t, productID, receipt.ProductID)
			assert.Equal(t, tt.expectedStock, receipt.Stock)
		})
	}
}

func TestLedgerService_History(t *testing.T) {
	productID := uuid.New()

	t.Run("invalid_type_filter_is_rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		movements := mocks.NewMockMovementRepository(ctrl)
		tx := mocks.NewMockTxRunner(ctrl)

		service := services.NewLedgerService(tx, movements, helpers.TestLogger())
		rows, err := service.History(context.Background(), ports.MovementListParams{
			Type: domain.MovementType("SIDEWAYS"),
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Nil(t, rows)
	})

	t.Run("out_of_range_limit_falls_back_to_default", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		movements := mocks.NewMockMovementRepository(ctrl)
		tx := mocks.NewMockTxRunner(ctrl)

		expected := []ports.MovementWithProduct{
			{StockMovement: *helpers.CreateTestMovement(productID), ProductName: "Test Product"},
		}
		movements.EXPECT().
			ListRecent(gomock.Any(), ports.MovementListParams{Limit: 50}).
			Return(expected, nil)

		service := services.NewLedgerService(tx, movements, helpers.TestLogger())
		rows, err := service.History(context.Background(), ports.MovementListParams{Limit: 10000})

		require.NoError(t, err)
		assert.Equal(t, expected, rows)
	})

	t.Run("type_filter_and_limit_are_passed_through", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		movements := mocks.NewMockMovementRepository(ctrl)
		tx := mocks.NewMockTxRunner(ctrl)

		movements.EXPECT().
			ListRecent(gomock.Any(), ports.MovementListParams{Type: domain.MovementOut, Limit: 25}).
			Return([]ports.MovementWithProduct{}, nil)

		service := services.NewLedgerService(tx, movements, helpers.TestLogger())
		rows, err := service.History(context.Background(), ports.MovementListParams{
			Type:  domain.MovementOut,
			Limit: 25,
		})

		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}
