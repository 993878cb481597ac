package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/eventcart/backend/api/handler"
)

type Handlers struct {
	Cart   *apiHandler.CartHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Cart commands and queries
	r.POST("/api/v1/carts", authMiddleware(handlers.Cart.OpenCart))
	r.POST("/api/v1/carts/{id}/items", authMiddleware(handlers.Cart.AddProductItem))
	r.DELETE("/api/v1/carts/{id}/items", authMiddleware(handlers.Cart.RemoveProductItem))
	r.POST("/api/v1/carts/{id}/confirm", authMiddleware(handlers.Cart.ConfirmCart))
	r.GET("/api/v1/carts/{id}", authMiddleware(handlers.Cart.GetCart))
	r.GET("/api/v1/carts/{id}/summary", authMiddleware(handlers.Cart.GetCartSummary))

	return r
}
