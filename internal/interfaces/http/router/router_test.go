package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcatalog "github.com/retailops/backend/internal/application/catalog"
	appdistribution "github.com/retailops/backend/internal/application/distribution"
	appfinance "github.com/retailops/backend/internal/application/finance"
	appinventory "github.com/retailops/backend/internal/application/inventory"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/auth"
	"github.com/retailops/backend/internal/infrastructure/cache"
	"github.com/retailops/backend/internal/infrastructure/config"
	"github.com/retailops/backend/internal/infrastructure/lock"
	"github.com/retailops/backend/internal/infrastructure/persistence"
	"github.com/retailops/backend/internal/interfaces/http/handler"
	"github.com/retailops/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestDomainGroup_RegistersUnderPrefix(t *testing.T) {
	engine := gin.New()
	group := NewDomainGroup("test", "/things").
		GET("", func(c *gin.Context) { c.String(http.StatusOK, "list") }).
		PUT("/:id", func(c *gin.Context) { c.String(http.StatusOK, "put "+c.Param("id")) })
	NewRouter(engine, WithPrefix("/api/v1")).Register(group).Setup()

	assert.Equal(t, "test", group.Name())
	assert.Equal(t, "/things", group.Prefix())

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/v1/things/7", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "put 7", w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type apiFixture struct {
	engine *gin.Engine
	jwt    *auth.JWTService
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"requestId"`
	} `json:"error"`
	Meta *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	return newAPIFixtureWithConfig(t, Config{ServiceName: "retailops-test", MaxBodySize: 1 << 20})
}

func newAPIFixtureWithConfig(t *testing.T, cfg Config) *apiFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(persistence.Models()...))

	store := cache.NewMemoryStore(time.Minute)
	cacheCtx := cache.NewContext(store, time.Minute, nil)
	t.Cleanup(func() { _ = cacheCtx.Close() })

	txScope := persistence.NewGormTransactionScope(db)
	buckets := appinventory.NewBucketStore(nil)
	products := persistence.NewGormProductRepository(db)

	receipts := appinventory.NewReceiptService(persistence.NewGormReceiptRepository(db), products, txScope, buckets, nil)
	inventory := appinventory.NewInventoryService(
		persistence.NewGormBucketRepository(db),
		persistence.NewGormLotRepository(db),
		persistence.NewGormMovementRepository(db),
		products, txScope, buckets,
	)
	distributions := appdistribution.NewDistributionService(
		persistence.NewGormDistributionRepository(db),
		persistence.NewGormLedgerRepository(db),
		txScope, buckets, nil,
	)
	payments := appfinance.NewPaymentService(txScope, lock.NopLocker{}, cacheCtx, time.Second, nil)
	invoices := appfinance.NewInvoiceService(persistence.NewGormInvoiceRepository(db), persistence.NewGormTransactionRepository(db))
	giftCards := appfinance.NewGiftCardService(persistence.NewGormGiftCardRepository(db))

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "router-test-secret-router-test-xx",
		Issuer:                "retailops-test",
		AccessTokenExpiration: time.Hour,
	})

	engine, err := NewEngine(cfg,
		zap.NewNop(), jwtService, middleware.NewHTTPMetrics("retailops"),
		Handlers{
			Receipts:      handler.NewReceiptHandler(receipts),
			Inventory:     handler.NewInventoryHandler(inventory),
			Distributions: handler.NewDistributionHandler(distributions),
			Finance:       handler.NewFinanceHandler(payments, invoices, giftCards),
			Products:      handler.NewProductHandler(appcatalog.NewProductService(products, cacheCtx)),
			System: handler.NewSystemHandler("retailops", "test", map[string]handler.Pinger{
				"cache": store,
			}),
		})
	require.NoError(t, err)
	return &apiFixture{engine: engine, jwt: jwtService}
}

func (f *apiFixture) token(t *testing.T, role shared.Role) string {
	t.Helper()
	token, _, err := f.jwt.IssueAccessToken(shared.NewPrincipal(uuid.New(), role))
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any, headers ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decodeData(t *testing.T, env envelope, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func assertDecimal(t *testing.T, want, got string) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(decimal.RequireFromString(got)), "want %s, got %s", want, got)
}

type idOnly struct {
	ID string `json:"id"`
}

func (f *apiFixture) createProduct(t *testing.T, token, sku string) string {
	t.Helper()
	w, env := f.do(t, http.MethodPost, "/products", token, map[string]any{"name": "Product " + sku, "sku": sku, "price": "12.50"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p idOnly
	decodeData(t, env, &p)
	return p.ID
}

func (f *apiFixture) stock(t *testing.T, token, productID string, qty int64) {
	t.Helper()
	w, env := f.do(t, http.MethodPost, "/stock-receipts", token, map[string]any{
		"productId": productID, "receivedQuantity": qty, "supplierName": "Acme", "expiryDate": "2027-01-31",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var receipt idOnly
	decodeData(t, env, &receipt)

	w, _ = f.do(t, http.MethodPut, "/stock-receipts/"+receipt.ID+"/verify", token, map[string]any{"decision": "APPROVED"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestAPI_HealthAndMetricsArePublic(t *testing.T) {
	f := newAPIFixture(t)

	w, env := f.do(t, http.MethodGet, HealthPath, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = httptest.NewRecorder()
	f.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, MetricsPath, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "retailops_http_requests_total")
}

func TestAPI_SwaggerDocs(t *testing.T) {
	t.Run("not mounted by default", func(t *testing.T) {
		f := newAPIFixture(t)
		w := httptest.NewRecorder()
		f.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("serves the generated document", func(t *testing.T) {
		f := newAPIFixtureWithConfig(t, Config{ServiceName: "retailops-test", Swagger: SwaggerConfig{Enabled: true}})
		w := httptest.NewRecorder()
		f.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var doc struct {
			Swagger string                    `json:"swagger"`
			Paths   map[string]map[string]any `json:"paths"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
		assert.Equal(t, "2.0", doc.Swagger)
		assert.Contains(t, doc.Paths, "/stock-receipts/{id}/verify")
		assert.Contains(t, doc.Paths["/distributions"], "post")
		assert.Contains(t, doc.Paths["/payments"], "post")
	})

	t.Run("requires a token when configured", func(t *testing.T) {
		f := newAPIFixtureWithConfig(t, Config{ServiceName: "retailops-test", Swagger: SwaggerConfig{Enabled: true, RequireAuth: true}})

		w, _ := f.do(t, http.MethodGet, "/swagger/doc.json", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w, _ = f.do(t, http.MethodGet, "/swagger/doc.json", f.token(t, shared.ShopRole{ShopID: uuid.New()}), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestAPI_RequiresAuthentication(t *testing.T) {
	f := newAPIFixture(t)

	w, env := f.do(t, http.MethodGet, "/stock-receipts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, shared.CodeUnauthorized, env.Error.Code)

	w, env = f.do(t, http.MethodGet, "/no-such-route", f.token(t, shared.ShopRole{ShopID: uuid.New()}), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, shared.CodeNotFound, env.Error.Code)
}

func TestAPI_ReceiptWorkflow(t *testing.T) {
	f := newAPIFixture(t)
	shop := f.token(t, shared.ShopRole{ShopID: uuid.New()})
	productID := f.createProduct(t, shop, "SKU-R1")

	w, env := f.do(t, http.MethodPost, "/stock-receipts", shop, map[string]any{"productId": productID, "receivedQuantity": 10})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var receipt struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeData(t, env, &receipt)
	assert.Equal(t, "PENDING", receipt.Status)

	w, env = f.do(t, http.MethodGet, "/stock-receipts?status=PENDING", shop, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(1), env.Meta.Total)

	w, env = f.do(t, http.MethodPut, "/stock-receipts/"+receipt.ID+"/verify", shop, map[string]any{
		"decision": "APPROVED", "verifiedQuantity": 8, "discrepancyReason": "two damaged",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var decided struct {
		Receipt struct {
			Status string `json:"status"`
		} `json:"receipt"`
		InventoryDelta struct {
			Quantity int64 `json:"quantity"`
		} `json:"inventoryDelta"`
	}
	decodeData(t, env, &decided)
	assert.Equal(t, "APPROVED", decided.Receipt.Status)
	assert.Equal(t, int64(8), decided.InventoryDelta.Quantity)

	w, env = f.do(t, http.MethodPut, "/stock-receipts/"+receipt.ID+"/verify", shop, map[string]any{"decision": "APPROVED"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, shared.CodeAlreadyProcessed, env.Error.Code)

	w, env = f.do(t, http.MethodGet, "/inventory/"+productID, shop, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		Bucket struct {
			TotalStock     int64 `json:"totalStock"`
			AvailableStock int64 `json:"availableStock"`
		} `json:"bucket"`
	}
	decodeData(t, env, &view)
	assert.Equal(t, int64(8), view.Bucket.TotalStock)
	assert.Equal(t, int64(8), view.Bucket.AvailableStock)

	w, env = f.do(t, http.MethodGet, "/inventory/movements?productId="+productID, shop, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.GreaterOrEqual(t, env.Meta.Total, int64(1))
}

func TestAPI_ReceiptValidation(t *testing.T) {
	f := newAPIFixture(t)
	shop := f.token(t, shared.ShopRole{ShopID: uuid.New()})

	w, env := f.do(t, http.MethodPost, "/stock-receipts", shop, map[string]any{"productId": uuid.NewString(), "receivedQuantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, shared.CodeValidation, env.Error.Code)

	w, env = f.do(t, http.MethodPut, "/stock-receipts/not-a-uuid/verify", shop, map[string]any{"decision": "APPROVED"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, shared.CodeValidation, env.Error.Code)

	w, env = f.do(t, http.MethodPut, "/stock-receipts/"+uuid.NewString()+"/verify", shop, map[string]any{"decision": "MAYBE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, shared.CodeValidation, env.Error.Code)

	w, env = f.do(t, http.MethodPut, "/stock-receipts/"+uuid.NewString()+"/verify", shop, map[string]any{"decision": "REJECTED"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, shared.CodeNotFound, env.Error.Code)

	w, env = f.do(t, http.MethodGet, "/stock-receipts?status=LOST", shop, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, shared.CodeValidation, env.Error.Code)
}

func TestAPI_DistributionLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	retailer := f.token(t, shared.RetailerRole{RetailerID: uuid.New()})
	productID := f.createProduct(t, retailer, "SKU-D1")
	f.stock(t, retailer, productID, 10)
	shopID := uuid.New()

	w, env := f.do(t, http.MethodPost, "/distributions", retailer, map[string]any{
		"retailerShopId": shopID,
		"distributions":  []map[string]any{{"retailerProductId": productID, "quantity": 11, "unitPrice": "2.00"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, shared.CodeInsufficientStock, env.Error.Code)

	w, env = f.do(t, http.MethodPost, "/distributions", retailer, map[string]any{
		"retailerShopId": shopID,
		"distributions":  []map[string]any{{"retailerProductId": productID, "quantity": 4, "unitPrice": "2.50"}},
		"notes":          "weekly top-up",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var result struct {
		TotalAmount   string   `json:"totalAmount"`
		Distributions []idOnly `json:"distributions"`
	}
	decodeData(t, env, &result)
	assertDecimal(t, "10", result.TotalAmount)
	require.Len(t, result.Distributions, 1)
	id := result.Distributions[0].ID

	w, env = f.do(t, http.MethodPut, "/distributions/"+id+"/delivery-status", retailer, map[string]any{"deliveryStatus": "SHIPPED", "trackingNumber": "TRK-9"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	shop := f.token(t, shared.ShopRole{ShopID: shopID})
	w, _ = f.do(t, http.MethodPut, "/distributions/"+id+"/delivery-status", shop, map[string]any{"deliveryStatus": "DELIVERED"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = f.do(t, http.MethodPut, "/distributions/"+id+"/delivery-status", retailer, map[string]any{"deliveryStatus": "CANCELLED"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, shared.CodeInvalidTransition, env.Error.Code)

	w, env = f.do(t, http.MethodPut, "/distributions/"+id+"/payment-status", retailer, map[string]any{"paymentStatus": "PAID"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var row struct {
		DeliveryStatus string `json:"deliveryStatus"`
		PaymentStatus  string `json:"paymentStatus"`
		TrackingNumber string `json:"trackingNumber"`
	}
	decodeData(t, env, &row)
	assert.Equal(t, "DELIVERED", row.DeliveryStatus)
	assert.Equal(t, "PAID", row.PaymentStatus)
	assert.Equal(t, "TRK-9", row.TrackingNumber)

	w, env = f.do(t, http.MethodGet, "/distributions?deliveryStatus=DELIVERED&paymentStatus=PAID", retailer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), env.Meta.Total)

	w, env = f.do(t, http.MethodGet, "/distributions/ledger", retailer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), env.Meta.Total)

	w, env = f.do(t, http.MethodGet, "/inventory/"+productID, retailer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		Bucket struct {
			AvailableStock int64 `json:"availableStock"`
			AllocatedStock int64 `json:"allocatedStock"`
		} `json:"bucket"`
	}
	decodeData(t, env, &view)
	assert.Equal(t, int64(6), view.Bucket.AvailableStock)
	assert.Equal(t, int64(4), view.Bucket.AllocatedStock)
}

func TestAPI_PaymentsAndGiftCards(t *testing.T) {
	f := newAPIFixture(t)
	doctor := f.token(t, shared.DoctorRole{DoctorID: uuid.New()})

	w, env := f.do(t, http.MethodPost, "/invoices", doctor, map[string]any{"totalAmount": "100.00", "reference": "INV-1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var invoice idOnly
	decodeData(t, env, &invoice)

	w, _ = f.do(t, http.MethodPost, "/gift-cards", doctor, map[string]any{"code": "gc-100", "balance": "30"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env = f.do(t, http.MethodPost, "/payments", doctor,
		map[string]any{"invoiceId": invoice.ID, "amount": "25", "paymentMethod": "GIFT_CARD", "giftCardCode": "GC-100"},
		"Idempotency-Key", "pay-1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var paid struct {
		AmountDue string `json:"amountDue"`
		Invoice   struct {
			Status string `json:"status"`
		} `json:"invoice"`
	}
	decodeData(t, env, &paid)
	assertDecimal(t, "75", paid.AmountDue)
	assert.Equal(t, "PARTIALLY_PAID", paid.Invoice.Status)

	w, env = f.do(t, http.MethodPost, "/payments", doctor,
		map[string]any{"invoiceId": invoice.ID, "amount": "25", "paymentMethod": "GIFT_CARD", "giftCardCode": "GC-100"},
		"Idempotency-Key", "pay-1")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, shared.CodeDuplicateRequest, env.Error.Code)

	w, env = f.do(t, http.MethodPost, "/payments", doctor,
		map[string]any{"invoiceId": invoice.ID, "amount": "10", "paymentMethod": "GIFT_CARD", "giftCardCode": "GC-100"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, shared.CodeInsufficientBalance, env.Error.Code)

	w, env = f.do(t, http.MethodPost, "/payments", doctor,
		map[string]any{"invoiceId": invoice.ID, "amount": "80", "paymentMethod": "CASH"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, shared.CodeOverpayment, env.Error.Code)

	w, _ = f.do(t, http.MethodPost, "/payments", doctor,
		map[string]any{"invoiceId": invoice.ID, "amount": "75", "paymentMethod": "UPI"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = f.do(t, http.MethodPost, "/payments", doctor,
		map[string]any{"invoiceId": invoice.ID, "amount": "1", "paymentMethod": "CASH"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, shared.CodeAlreadySettled, env.Error.Code)

	w, env = f.do(t, http.MethodGet, "/gift-cards/gc-100", doctor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var card struct {
		Balance string `json:"balance"`
	}
	decodeData(t, env, &card)
	assertDecimal(t, "5", card.Balance)

	w, env = f.do(t, http.MethodGet, "/invoices/"+invoice.ID, f.token(t, shared.ShopRole{ShopID: uuid.New()}), nil)
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	assert.Equal(t, shared.CodeForbidden, env.Error.Code)
}

func TestAPI_PaymentRejectsUnknownMethod(t *testing.T) {
	f := newAPIFixture(t)
	doctor := f.token(t, shared.DoctorRole{DoctorID: uuid.New()})

	w, env := f.do(t, http.MethodPost, "/payments", doctor,
		map[string]any{"invoiceId": uuid.NewString(), "amount": "5", "paymentMethod": "BARTER"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, shared.CodeValidation, env.Error.Code)

	w, env = f.do(t, http.MethodPost, "/payments", doctor,
		map[string]any{"invoiceId": uuid.NewString(), "amount": "5", "paymentMethod": "CASH"},
		"Idempotency-Key", strings.Repeat("k", 200))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, shared.CodeValidation, env.Error.Code)
}
