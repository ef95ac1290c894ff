// Package router assembles the gin engine: middleware chain, route groups and role checks.
package router

import (
	"net/http"

	"github.com/b2bshop/backend/internal/infrastructure/auth"
	"github.com/b2bshop/backend/internal/infrastructure/logger"
	"github.com/b2bshop/backend/internal/interfaces/http/dto"
	"github.com/b2bshop/backend/internal/interfaces/http/handler"
	"github.com/b2bshop/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// DomainGroup collects the routes of one area under a prefix with its own middleware
type DomainGroup struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	routes     []routeDefinition
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

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
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

// DELETE registers a DELETE route
func (dg *DomainGroup) DELETE(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodDelete, path, handlers)
}

// RegisterRoutes implements RouteRegistrar
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix, dg.middleware...)
	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Handlers are the HTTP handlers mounted by New
type Handlers struct {
	Cart       *handler.CartHandler
	Order      *handler.OrderHandler
	AdminOrder *handler.AdminOrderHandler
	Outbox     *handler.OutboxHandler
	Health     *handler.HealthHandler
}

// Config carries what the middleware chain needs
type Config struct {
	ServiceName    string
	TracingEnabled bool
	MaxBodySize    int64
	CORS           middleware.CORSConfig
	TrustedProxies []string
	Validator      middleware.TokenValidator
	Logger         *zap.Logger
	// HTTPMetrics is optional; nil skips request metrics
	HTTPMetrics gin.HandlerFunc
}

// New builds the engine. Probes are public; cart and order routes require a
// customer or admin token; /admin requires the admin role.
func New(cfg Config, h Handlers) (*gin.Engine, error) {
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	engine.HandleMethodNotAllowed = true

	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(cfg.ServiceName, cfg.TracingEnabled),
		middleware.SpanAttributes(),
		middleware.SpanErrorMarker(),
		logger.GinMiddleware(cfg.Logger),
		logger.Recovery(cfg.Logger),
		middleware.Secure(),
		middleware.CORSWithConfig(cfg.CORS),
	)
	if cfg.HTTPMetrics != nil {
		engine.Use(cfg.HTTPMetrics)
	}
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.CodeNotFound, "Route not found", middleware.GetRequestID(c), nil))
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, dto.NewErrorResponse(dto.CodeBadRequest, "Method not allowed", middleware.GetRequestID(c), nil))
	})

	engine.GET("/health", h.Health.Health)
	engine.GET("/ready", h.Health.Ready)

	authenticated := engine.Group("", middleware.JWTAuth(cfg.Validator, cfg.Logger))
	for _, group := range groups(h) {
		group.RegisterRoutes(authenticated)
	}
	return engine, nil
}

func groups(h Handlers) []RouteRegistrar {
	customer := middleware.RequireRole(auth.RoleCustomer, auth.RoleAdmin)
	admin := middleware.RequireRole(auth.RoleAdmin)

	cart := NewDomainGroup("cart", "/cart").Use(customer).
		GET("", h.Cart.Get).
		GET("/summary", h.Cart.Summary).
		POST("/add", h.Cart.AddItem).
		PUT("/update/:productId", h.Cart.UpdateItem).
		DELETE("/remove/:productId", h.Cart.RemoveItem).
		DELETE("/clear", h.Cart.Clear)

	orders := NewDomainGroup("orders", "/orders").Use(customer).
		POST("", h.Order.Place).
		GET("", h.Order.List).
		GET("/number/:orderNumber", h.Order.GetByNumber).
		GET("/:id", h.Order.Get).
		PUT("/:id/cancel", h.Order.Cancel)

	adminGroup := NewDomainGroup("admin", "/admin").Use(admin).
		GET("/orders", h.AdminOrder.List).
		PUT("/orders/:id/status", h.AdminOrder.UpdateStatus).
		GET("/outbox/dead", h.Outbox.ListDead).
		GET("/outbox/stats", h.Outbox.Stats).
		POST("/outbox/:id/retry", h.Outbox.Retry)

	return []RouteRegistrar{cart, orders, adminGroup}
}
