//go:build integration
// +build integration

package db_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/pviana/stockroom-be/internal/adapters/db"
	"github.com/pviana/stockroom-be/internal/core/domain"
	"github.com/pviana/stockroom-be/internal/core/ports"
	"github.com/pviana/stockroom-be/test/helpers"
)

type ProductRepositorySuite struct {
	suite.Suite
	testDB *helpers.TestDB
	repo   ports.ProductRepository
	ctx    context.Context
}

func (s *ProductRepositorySuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.repo = db.NewProductRepository(s.testDB.Database, helpers.TestLogger())
	s.ctx = context.Background()
}

func (s *ProductRepositorySuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
}

func (s *ProductRepositorySuite) TestSave() {
	product := helpers.CreateTestProduct()
	product.PrepareForStorage()

	err := s.repo.Save(s.ctx, product)
	s.NoError(err)

	saved, err := s.repo.FindByID(s.ctx, product.ID)
	s.NoError(err)
	s.Require().NotNil(saved)
	s.Equal(product.Name, saved.Name)
	s.Equal(product.SKU, saved.SKU)
	s.Equal(product.Category, saved.Category)
	s.Equal(product.Stock, saved.Stock)
	s.True(product.CostPrice.Equal(saved.CostPrice))
	s.True(product.SalePrice.Equal(saved.SalePrice))
}

func (s *ProductRepositorySuite) TestSave_OptionalFieldsRoundTripAsEmpty() {
	// SKU, category, description and image_url are stored as NULL when empty
	// and must come back as empty strings, not as scan errors.
	product := helpers.CreateTestProduct(func(p *domain.Product) {
		p.SKU = ""
		p.Category = ""
		p.Description = ""
		p.ImageURL = ""
	})
	product.PrepareForStorage()

	err := s.repo.Save(s.ctx, product)
	s.NoError(err)

	saved, err := s.repo.FindByID(s.ctx, product.ID)
	s.NoError(err)
	s.Require().NotNil(saved)
	s.Empty(saved.SKU)
	s.Empty(saved.Category)
	s.Empty(saved.Description)
	s.Empty(saved.ImageURL)
}

func (s *ProductRepositorySuite) TestUpdate() {
	product := helpers.CreateTestProduct()
	product.PrepareForStorage()
	s.Require().NoError(s.repo.Save(s.ctx, product))

	product.Name = "Renamed Lamp"
	product.SalePrice = decimal.NewFromFloat(29.99)
	product.Description = "now with a dimmer"
	product.PrepareForStorage()

	err := s.repo.Update(s.ctx, product)
	s.NoError(err)

	updated, err := s.repo.FindByID(s.ctx, product.ID)
	s.NoError(err)
	s.Require().NotNil(updated)
	s.Equal("Renamed Lamp", updated.Name)
	s.Equal("now with a dimmer", updated.Description)
	s.True(decimal.NewFromFloat(29.99).Equal(updated.SalePrice))
	s.True(updated.UpdatedAt.After(updated.CreatedAt))
}

func (s *ProductRepositorySuite) TestUpdate_NotFound() {
	product := helpers.CreateTestProduct()
	product.PrepareForStorage()

	err := s.repo.Update(s.ctx, product)
	s.ErrorIs(err, domain.ErrProductNotFound)
}

func (s *ProductRepositorySuite) TestUpdateStock() {
	product := helpers.CreateTestProduct(func(p *domain.Product) {
		p.Stock = 10
	})
	product.PrepareForStorage()
	s.Require().NoError(s.repo.Save(s.ctx, product))

	err := s.repo.UpdateStock(s.ctx, product.ID, 3)
	s.NoError(err)

	updated, err := s.repo.FindByID(s.ctx, product.ID)
	s.NoError(err)
	s.Equal(3, updated.Stock)
	// Catalog fields are untouched by the stock write.
	s.Equal(product.Name, updated.Name)

	err = s.repo.UpdateStock(s.ctx, uuid.New(), 3)
	s.ErrorIs(err, domain.ErrProductNotFound)
}

func (s *ProductRepositorySuite) TestFindByID() {
	s.Run("existing_product", func() {
		product := helpers.CreateTestProduct()
		product.PrepareForStorage()
		s.Require().NoError(s.repo.Save(s.ctx, product))

		found, err := s.repo.FindByID(s.ctx, product.ID)
		s.NoError(err)
		s.Require().NotNil(found)
		s.Equal(product.ID, found.ID)
	})

	s.Run("non_existent_product", func() {
		found, err := s.repo.FindByID(s.ctx, uuid.New())
		s.NoError(err)
		s.Nil(found)
	})
}

func (s *ProductRepositorySuite) TestDelete() {
	product := helpers.CreateTestProduct()
	product.PrepareForStorage()
	s.Require().NoError(s.repo.Save(s.ctx, product))

	err := s.repo.Delete(s.ctx, product.ID)
	s.NoError(err)

	found, err := s.repo.FindByID(s.ctx, product.ID)
	s.NoError(err)
	s.Nil(found)

	err = s.repo.Delete(s.ctx, product.ID)
	s.ErrorIs(err, domain.ErrProductNotFound)
}

func (s *ProductRepositorySuite) TestDelete_RestrictedByMovements() {
	product := helpers.CreateTestProduct()
	product.PrepareForStorage()
	s.Require().NoError(s.repo.Save(s.ctx, product))

	movements := db.NewMovementRepository(s.testDB.Database, helpers.TestLogger())
	movement := helpers.CreateTestMovement(product.ID)
	movement.PrepareForStorage()
	s.Require().NoError(movements.Insert(s.ctx, movement))

	// The FK is ON DELETE RESTRICT, so the row itself refuses to go while
	// history references it.
	err := s.repo.Delete(s.ctx, product.ID)
	s.Error(err)

	found, err := s.repo.FindByID(s.ctx, product.ID)
	s.NoError(err)
	s.NotNil(found)
}

func (s *ProductRepositorySuite) TestList_Pagination() {
	for i := 0; i < 25; i++ {
		product := helpers.CreateTestProduct(func(p *domain.Product) {
			p.Name = fmt.Sprintf("Product %02d", i)
			p.SKU = fmt.Sprintf("PAG-%04d", i)
		})
		product.PrepareForStorage()
		s.Require().NoError(s.repo.Save(s.ctx, product))
	}

	result, err := s.repo.List(s.ctx, ports.ListParams{
		Page:      1,
		PageSize:  10,
		SortBy:    "name",
		SortOrder: "asc",
	})
	s.NoError(err)
	s.Len(result.Products, 10)
	s.Equal(int64(25), result.TotalCount)
	s.Equal(3, result.TotalPages)
	s.Equal("Product 00", result.Products[0].Name)
	s.Equal("Product 09", result.Products[9].Name)

	result, err = s.repo.List(s.ctx, ports.ListParams{
		Page:      3,
		PageSize:  10,
		SortBy:    "name",
		SortOrder: "asc",
	})
	s.NoError(err)
	s.Len(result.Products, 5)
	s.Equal("Product 20", result.Products[0].Name)
}

func (s *ProductRepositorySuite) TestList_Search() {
	seed := []struct {
		name        string
		sku         string
		category    string
		description string
	}{
		{"Sterling Teapot", "HOM-0001", "home", "silver-plated service"},
		{"Glass Sculpture", "ART-0001", "art", "hand blown"},
		{"Silver Ring", "APP-0001", "apparel", "sterling band"},
	}
	for _, row := range seed {
		product := helpers.CreateTestProduct(func(p *domain.Product) {
			p.Name = row.name
			p.SKU = row.sku
			p.Category = row.category
			p.Description = row.description
		})
		product.PrepareForStorage()
		s.Require().NoError(s.repo.Save(s.ctx, product))
	}

	// Search matches name and description, case-insensitively.
	result, err := s.repo.List(s.ctx, ports.ListParams{
		Search: "STERLING", Page: 1, PageSize: 10,
	})
	s.NoError(err)
	s.Len(result.Products, 2)
	s.Equal(int64(2), result.TotalCount)

	// Search also matches SKU.
	result, err = s.repo.List(s.ctx, ports.ListParams{
		Search: "ART-", Page: 1, PageSize: 10,
	})
	s.NoError(err)
	s.Len(result.Products, 1)
	s.Equal("Glass Sculpture", result.Products[0].Name)
}

func (s *ProductRepositorySuite) TestList_CategoryFilter() {
	for i, category := range []string{"home", "home", "apparel"} {
		product := helpers.CreateTestProduct(func(p *domain.Product) {
			p.Name = fmt.Sprintf("Item %d", i)
			p.SKU = fmt.Sprintf("CAT-%04d", i)
			p.Category = category
		})
		product.PrepareForStorage()
		s.Require().NoError(s.repo.Save(s.ctx, product))
	}

	result, err := s.repo.List(s.ctx, ports.ListParams{
		Category: "home", Page: 1, PageSize: 10,
	})
	s.NoError(err)
	s.Len(result.Products, 2)
	for _, p := range result.Products {
		s.Equal("home", p.Category)
	}
}

func (s *ProductRepositorySuite) TestList_UnknownSortFallsBackToName() {
	for _, name := range []string{"Bravo", "Alpha"} {
		product := helpers.CreateTestProduct(func(p *domain.Product) {
			p.Name = name
			p.SKU = "SRT-" + name
		})
		product.PrepareForStorage()
		s.Require().NoError(s.repo.Save(s.ctx, product))
	}

	result, err := s.repo.List(s.ctx, ports.ListParams{
		Page: 1, PageSize: 10,
		SortBy: "stock; DROP TABLE products", SortOrder: "sideways",
	})
	s.NoError(err)
	s.Require().Len(result.Products, 2)
	s.Equal("Alpha", result.Products[0].Name)
}

func (s *ProductRepositorySuite) TestCountAndSumStock() {
	count, err := s.repo.Count(s.ctx)
	s.NoError(err)
	s.Equal(int64(0), count)

	sum, err := s.repo.SumStock(s.ctx)
	s.NoError(err)
	s.Equal(int64(0), sum)

	for i, stock := range []int{3, 7, 0} {
		product := helpers.CreateTestProduct(func(p *domain.Product) {
			p.Name = fmt.Sprintf("Counted %d", i)
			p.SKU = fmt.Sprintf("CNT-%04d", i)
			p.Stock = stock
		})
		product.PrepareForStorage()
		s.Require().NoError(s.repo.Save(s.ctx, product))
	}

	count, err = s.repo.Count(s.ctx)
	s.NoError(err)
	s.Equal(int64(3), count)

	sum, err = s.repo.SumStock(s.ctx)
	s.NoError(err)
	s.Equal(int64(10), sum)
}

func TestProductRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(ProductRepositorySuite))
}
