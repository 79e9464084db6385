// Package router assembles the gin engine: the middleware chain and the
// route table of every domain.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	_ "github.com/retailops/backend/docs"
	"github.com/retailops/backend/internal/domain/shared"
	"github.com/retailops/backend/internal/infrastructure/logger"
	"github.com/retailops/backend/internal/interfaces/http/dto"
	"github.com/retailops/backend/internal/interfaces/http/handler"
	"github.com/retailops/backend/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Health and metrics paths are public and kept out of access logs and traces.
const (
	HealthPath  = "/health"
	MetricsPath = "/metrics"
	SwaggerPath = "/swagger/*any"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	prefix     string
	middleware []gin.HandlerFunc
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithPrefix mounts every registered group under prefix, e.g. "/api/v1"
func WithPrefix(prefix string) RouterOption {
	return func(r *Router) {
		r.prefix = prefix
	}
}

// WithMiddleware applies middleware to every registered group
func WithMiddleware(mw ...gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.middleware = append(r.middleware, mw...)
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group(r.prefix, r.middleware...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// DomainGroup collects the routes of one domain under a prefix
type DomainGroup struct {
	name   string
	prefix string
	routes []routeDefinition
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

func (dg *DomainGroup) handle(method, path string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: method, path: path, handlers: handlers})
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodGet, path, handlers)
}

// POST registers a POST route
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPost, path, handlers)
}

// PUT registers a PUT route
func (dg *DomainGroup) PUT(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPut, path, handlers)
}

// RegisterRoutes implements RouteRegistrar interface
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)
	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

// Config controls the engine's middleware chain
type Config struct {
	ServiceName    string
	MaxBodySize    int64
	TrustedProxies []string
	CORS           middleware.CORSConfig
	Security       middleware.SecurityConfig
	Swagger        SwaggerConfig
}

// SwaggerConfig mounts the generated API docs at SwaggerPath
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool
}

// Handlers are the domain handlers served by the engine
type Handlers struct {
	Receipts      *handler.ReceiptHandler
	Inventory     *handler.InventoryHandler
	Distributions *handler.DistributionHandler
	Finance       *handler.FinanceHandler
	Products      *handler.ProductHandler
	System        *handler.SystemHandler
}

// Groups returns the authenticated route table
func (h Handlers) Groups() []*DomainGroup {
	receipts := NewDomainGroup("receipts", "/stock-receipts").
		POST("", h.Receipts.Submit).
		GET("", h.Receipts.List).
		GET("/:id", h.Receipts.Get).
		PUT("/:id/verify", h.Receipts.Verify)

	inventory := NewDomainGroup("inventory", "/inventory").
		GET("", h.Inventory.List).
		GET("/movements", h.Inventory.ListMovements).
		POST("/adjustments", h.Inventory.Adjust).
		GET("/:productId", h.Inventory.Get)

	distributions := NewDomainGroup("distributions", "/distributions").
		POST("", h.Distributions.Distribute).
		GET("", h.Distributions.List).
		GET("/ledger", h.Distributions.Ledger).
		GET("/:id", h.Distributions.Get).
		PUT("/:id/delivery-status", h.Distributions.UpdateDeliveryStatus).
		PUT("/:id/payment-status", h.Distributions.UpdatePaymentStatus)

	payments := NewDomainGroup("payments", "/payments").
		POST("", h.Finance.RecordPayment)

	invoices := NewDomainGroup("invoices", "/invoices").
		POST("", h.Finance.CreateInvoice).
		GET("/:id", h.Finance.GetInvoice)

	giftCards := NewDomainGroup("gift-cards", "/gift-cards").
		POST("", h.Finance.IssueGiftCard).
		GET("/:code", h.Finance.GetGiftCard)

	products := NewDomainGroup("products", "/products").
		POST("", h.Products.Create).
		GET("/:id", h.Products.GetByID)

	return []*DomainGroup{receipts, inventory, distributions, payments, invoices, giftCards, products}
}

// NewEngine builds the engine with the full middleware chain. Tracing runs
// outside the request logger so access log lines carry the trace id; the
// logger runs outside Recovery so panics are still logged as 500s.
func NewEngine(cfg Config, log *zap.Logger, authn middleware.Authenticator, metrics *middleware.HTTPMetrics, h Handlers) (*gin.Engine, error) {
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(cfg.ServiceName, HealthPath, MetricsPath),
		logger.GinMiddleware(log, HealthPath, MetricsPath),
		logger.Recovery(log),
	)
	if metrics != nil {
		engine.Use(metrics.Middleware())
	}
	engine.Use(middleware.Secure(cfg.Security), middleware.CORS(cfg.CORS))
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrorInfo{
			Code:      shared.CodeNotFound,
			Message:   "Route not found",
			RequestID: c.GetString(middleware.RequestIDKey),
		}))
	})

	engine.GET(HealthPath, h.System.Health)
	if metrics != nil {
		engine.GET(MetricsPath, metrics.Handler())
	}

	if cfg.Swagger.Enabled {
		docs := []gin.HandlerFunc{ginSwagger.WrapHandler(swaggerFiles.Handler)}
		if cfg.Swagger.RequireAuth {
			docs = append([]gin.HandlerFunc{middleware.Auth(authn)}, docs...)
		}
		engine.GET(SwaggerPath, docs...)
	}

	r := NewRouter(engine, WithMiddleware(middleware.Auth(authn), middleware.SpanAttributes()))
	for _, g := range h.Groups() {
		r.Register(g)
	}
	r.Setup()
	return engine, nil
}
