package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// consistent JSON for every error echo raises itself
	e.HTTPErrorHandler = JSONErrorHandler(h.Logger)

	e.Use(SetNoCacheHeaders)

	// Prometheus scrapes stay outside the API key
	if h.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.Metrics))
	}

	v1 := e.Group("/v1", SetJSONContentType)
	if cfg.APIKey != "" {
		v1.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/v1/health"
			},
		}))
	}
	v1.GET("/health", h.Health)

	// Each of these costs several RPC round trips
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 20
	}
	chain := v1.Group("", middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(limit),
		Burst:     int(limit) * 2,
		ExpiresIn: 2 * time.Minute,
	})))
	chain.GET("/pools/:address", h.Pool)
	chain.GET("/quote", h.Quote)
	chain.GET("/pairs/:mint", h.Pair)

	flagGroup := v1.Group("/flags")
	flagGroup.GET("", h.FlagsList)
	flagGroup.POST("", h.FlagsUpsert)
	flagGroup.GET("/:key", h.FlagsGet)
	flagGroup.PUT("/:key", h.FlagsUpdate)
	flagGroup.DELETE("/:key", h.FlagsDelete)

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
