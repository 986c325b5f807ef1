//go:build e2e
// +build e2e

package e2e_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/pviana/stockroom-be/internal/adapters/db"
	redis_a "github.com/pviana/stockroom-be/internal/adapters/redis_adapter"
	"github.com/pviana/stockroom-be/internal/core/services"
	"github.com/pviana/stockroom-be/internal/handlers"
	"github.com/pviana/stockroom-be/test/helpers"
)

// StockWorkflowSuite exercises the full catalog-plus-ledger flow against a
// real PostgreSQL container and a miniredis cache, through the HTTP surface.
type StockWorkflowSuite struct {
	suite.Suite
	server    *httptest.Server
	client    *http.Client
	baseURL   string
	testDB    *helpers.TestDB
	testRedis *helpers.TestRedis
}

func (s *StockWorkflowSuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.testRedis = helpers.SetupTestRedis(s.T())

	s.server = s.startTestServer()
	s.client = &http.Client{Timeout: 10 * time.Second}
	s.baseURL = s.server.URL + "/api/v1"
}

func (s *StockWorkflowSuite) TearDownSuite() {
	s.server.Close()
}

func (s *StockWorkflowSuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
	s.testRedis.Server.FlushAll()
}

func (s *StockWorkflowSuite) startTestServer() *httptest.Server {
	logger := helpers.TestLogger()
	cache := redis_a.NewCache(s.testRedis.Client, time.Minute, logger)

	productRepo := db.NewProductRepository(s.testDB.Database, logger)
	movementRepo := db.NewMovementRepository(s.testDB.Database, logger)
	txRunner := db.NewTxRunner(s.testDB.Database, logger)

	catalog := services.NewCatalogService(productRepo, txRunner, logger)
	ledger := services.NewLedgerService(txRunner, movementRepo, logger)

	productHandler := handlers.NewProductHandler(catalog, nil, cache, logger)
	movementHandler := handlers.NewMovementHandler(ledger, nil, cache, 5, logger)
	dashboardHandler := handlers.NewDashboardHandler(productRepo, movementRepo, cache, logger)
	exportHandler := handlers.NewExportHandler(catalog, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/products", productHandler.ListProducts)
	mux.HandleFunc("GET /api/v1/products/{id}", productHandler.GetProduct)
	mux.HandleFunc("POST /api/v1/products", productHandler.CreateProduct)
	mux.HandleFunc("PUT /api/v1/products/{id}", productHandler.UpdateProduct)
	mux.HandleFunc("DELETE /api/v1/products/{id}", productHandler.DeleteProduct)
	mux.HandleFunc("GET /api/v1/movements", movementHandler.ListMovements)
	mux.HandleFunc("POST /api/v1/movements", movementHandler.RecordMovement)
	mux.HandleFunc("DELETE /api/v1/movements/{id}", movementHandler.ReverseMovement)
	mux.HandleFunc("GET /api/v1/dashboard", dashboardHandler.GetDashboard)
	mux.HandleFunc("GET /api/v1/export/json", exportHandler.ExportJSON)
	mux.HandleFunc("GET /api/v1/export/excel", exportHandler.ExportExcel)

	return httptest.NewServer(mux)
}

func (s *StockWorkflowSuite) TestCompleteStockWorkflow() {
	// 1. Create a product with initial stock
	productID := s.createProduct(map[string]string{
		"name":       "Workflow Desk Lamp",
		"sku":        "E2E-0001",
		"category":   "electronics",
		"cost_price": "12.50",
		"sale_price": "24.99",
		"stock":      "10",
	})

	// 2. Record an outbound movement
	receipt := s.recordMovement(productID, "OUT", 3, "customer order", http.StatusCreated)
	s.EqualValues(7, receipt["stock"])

	// 3. An OUT exceeding stock is rejected and changes nothing
	s.recordMovement(productID, "OUT", 100, "", http.StatusConflict)
	product := s.getProduct(productID)
	s.EqualValues(7, product["stock"])

	// 4. Deleting the product is blocked while history exists
	resp := s.makeRequest("DELETE", "/products/"+productID, nil)
	s.Equal(http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// 5. Reverse the movement and try again
	movementID := receipt["movement"].(map[string]interface{})["id"].(string)
	resp = s.makeRequest("DELETE", "/movements/"+movementID, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var reversal map[string]interface{}
	s.decodeResponse(resp, &reversal)
	s.EqualValues(10, reversal["stock"])

	resp = s.makeRequest("DELETE", "/products/"+productID, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// 6. The product is gone
	resp = s.makeRequest("GET", "/products/"+productID, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func (s *StockWorkflowSuite) TestReversalsInReverseOrderUnwindToZero() {
	productID := s.createProduct(map[string]string{
		"name":  "Unwind Candidate",
		"stock": "0",
	})

	inReceipt := s.recordMovement(productID, "IN", 5, "restock", http.StatusCreated)
	outReceipt := s.recordMovement(productID, "OUT", 3, "customer order", http.StatusCreated)
	s.EqualValues(2, outReceipt["stock"])

	// Undo the OUT first: its 3 units come back.
	outID := outReceipt["movement"].(map[string]interface{})["id"].(string)
	resp := s.makeRequest("DELETE", "/movements/"+outID, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var reversal map[string]interface{}
	s.decodeResponse(resp, &reversal)
	s.EqualValues(5, reversal["stock"])

	// With the OUT gone, the IN of 5 is fully uncommitted and can be undone.
	inID := inReceipt["movement"].(map[string]interface{})["id"].(string)
	resp = s.makeRequest("DELETE", "/movements/"+inID, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.decodeResponse(resp, &reversal)
	s.EqualValues(0, reversal["stock"])

	product := s.getProduct(productID)
	s.EqualValues(0, product["stock"])

	// The ledger is empty again, so nothing blocks deleting the product.
	resp = s.makeRequest("DELETE", "/products/"+productID, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func (s *StockWorkflowSuite) TestOutOfOrderReversalIsRejected() {
	productID := s.createProduct(map[string]string{
		"name":  "Reversal Candidate",
		"stock": "0",
	})

	// IN 10 then OUT 8 leaves 2 on hand.
	inReceipt := s.recordMovement(productID, "IN", 10, "restock", http.StatusCreated)
	s.recordMovement(productID, "OUT", 8, "bulk order", http.StatusCreated)

	// Undoing the IN of 10 with only 2 on hand must fail.
	movementID := inReceipt["movement"].(map[string]interface{})["id"].(string)
	resp := s.makeRequest("DELETE", "/movements/"+movementID, nil)
	s.Equal(http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	product := s.getProduct(productID)
	s.EqualValues(2, product["stock"])
}

func (s *StockWorkflowSuite) TestSearchAndFilter() {
	s.createProduct(map[string]string{
		"name": "Sterling Teapot", "category": "home", "stock": "1",
	})
	s.createProduct(map[string]string{
		"name": "Glass Sculpture", "category": "home", "stock": "1",
	})
	s.createProduct(map[string]string{
		"name": "Silver Ring", "description": "sterling band", "category": "apparel", "stock": "1",
	})

	resp := s.makeRequest("GET", "/products?q=sterling", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var page map[string]interface{}
	s.decodeResponse(resp, &page)
	s.Len(page["products"], 2)

	resp = s.makeRequest("GET", "/products?category=apparel", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.decodeResponse(resp, &page)
	s.Len(page["products"], 1)
}

func (s *StockWorkflowSuite) TestDashboardAndExport() {
	productID := s.createProduct(map[string]string{
		"name": "Dashboard Widget", "stock": "5",
	})
	s.recordMovement(productID, "IN", 5, "restock", http.StatusCreated)

	resp := s.makeRequest("GET", "/dashboard", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	var dashboard map[string]interface{}
	s.decodeResponse(resp, &dashboard)
	s.EqualValues(1, dashboard["total_products"])
	s.EqualValues(10, dashboard["total_stock"])

	resp = s.makeRequest("GET", "/export/json", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var export map[string]interface{}
	s.decodeResponse(resp, &export)
	s.Contains(export, "products")
	s.Contains(export, "metadata")

	resp = s.makeRequest("GET", "/export/excel", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header.Get("Content-Type"))
	resp.Body.Close()
}

// Helper methods

func (s *StockWorkflowSuite) createProduct(fields map[string]string) string {
	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}

	req, err := http.NewRequest("POST", s.baseURL+"/products",
		strings.NewReader(values.Encode()))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var created map[string]interface{}
	s.decodeResponse(resp, &created)
	return created["id"].(string)
}

func (s *StockWorkflowSuite) recordMovement(productID, movementType string, qty int, reason string, wantStatus int) map[string]interface{} {
	body := map[string]interface{}{
		"product_id": productID,
		"type":       movementType,
		"qty":        qty,
	}
	if reason != "" {
		body["reason"] = reason
	}

	resp := s.makeRequest("POST", "/movements", body)
	s.Require().Equal(wantStatus, resp.StatusCode)

	var receipt map[string]interface{}
	s.decodeResponse(resp, &receipt)
	return receipt
}

func (s *StockWorkflowSuite) getProduct(productID string) map[string]interface{} {
	resp := s.makeRequest("GET", "/products/"+productID, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var product map[string]interface{}
	s.decodeResponse(resp, &product)
	return product
}

func (s *StockWorkflowSuite) makeRequest(method, path string, body interface{}) *http.Response {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		s.Require().NoError(err)
		reqBody = strings.NewReader(string(jsonBody))
	}

	req, err := http.NewRequest(method, s.baseURL+path, reqBody)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *StockWorkflowSuite) decodeResponse(resp *http.Response, v interface{}) {
	defer resp.Body.Close()
	err := json.NewDecoder(resp.Body).Decode(v)
	s.Require().NoError(err)
}

func TestStockWorkflowSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E tests in short mode")
	}
	suite.Run(t, new(StockWorkflowSuite))
}
