package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/eventcart/backend/api/transport"
	"github.com/eventcart/backend/domain"
	"github.com/eventcart/backend/pkg/httpcontext"
	cartUC "github.com/eventcart/backend/usecase/cart"
)

type CartHandler struct {
	baseHandler
	uc *cartUC.UseCase
}

func NewCartHandler(uc *cartUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Open shopping cart
// @Tags carts
// @Router /api/v1/carts [post]
func (h *CartHandler) OpenCart(ctx *fasthttp.RequestCtx) {
	clientID := h.clientID(ctx)
	if clientID == "" {
		return
	}

	var req transport.OpenCartRequest
	if body := ctx.PostBody(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
			return
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	cart, err := h.uc.OpenCart(stdCtx, clientID, req.CartID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, cart)
}

// @Summary Add product item
// @Tags carts
// @Router /api/v1/carts/{id}/items [post]
func (h *CartHandler) AddProductItem(ctx *fasthttp.RequestCtx) {
	cartID, item, ok := h.parseItemCommand(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	cart, err := h.uc.AddProductItem(stdCtx, cartID, item)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, cart)
}

// @Summary Remove product item
// @Tags carts
// @Router /api/v1/carts/{id}/items [delete]
func (h *CartHandler) RemoveProductItem(ctx *fasthttp.RequestCtx) {
	cartID, item, ok := h.parseItemCommand(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	cart, err := h.uc.RemoveProductItem(stdCtx, cartID, item)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, cart)
}

// @Summary Confirm shopping cart
// @Tags carts
// @Router /api/v1/carts/{id}/confirm [post]
func (h *CartHandler) ConfirmCart(ctx *fasthttp.RequestCtx) {
	cartID := h.cartID(ctx)
	if cartID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	cart, err := h.uc.ConfirmCart(stdCtx, cartID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, cart)
}

// @Summary Get shopping cart
// @Tags carts
// @Router /api/v1/carts/{id} [get]
func (h *CartHandler) GetCart(ctx *fasthttp.RequestCtx) {
	cartID := h.cartID(ctx)
	if cartID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	cart, err := h.uc.GetCart(stdCtx, cartID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, cart)
}

// @Summary Get shopping cart summary
// @Tags carts
// @Router /api/v1/carts/{id}/summary [get]
func (h *CartHandler) GetCartSummary(ctx *fasthttp.RequestCtx) {
	cartID := h.cartID(ctx)
	if cartID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	view, err := h.uc.GetCartView(stdCtx, cartID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, view)
}

func (h *CartHandler) parseItemCommand(ctx *fasthttp.RequestCtx) (string, domain.ProductItem, bool) {
	cartID := h.cartID(ctx)
	if cartID == "" {
		return "", domain.ProductItem{}, false
	}

	var req transport.ProductItemRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return "", domain.ProductItem{}, false
	}

	item := domain.ProductItem{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	}
	if !item.Valid() {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "product id and positive quantity required", nil))
		return "", domain.ProductItem{}, false
	}
	return cartID, item, true
}

func (h *CartHandler) cartID(ctx *fasthttp.RequestCtx) string {
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing cart id", nil))
	}
	return id
}

func (h *CartHandler) clientID(ctx *fasthttp.RequestCtx) string {
	clientID := string(ctx.Request.Header.Peek("X-Client-ID"))
	if clientID == "" {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "missing client id", nil))
	}
	return clientID
}
