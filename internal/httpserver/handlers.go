package httpserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/payment"
	"storefront/internal/pricing"
	addresssvc "storefront/internal/service/address"
	cartsvc "storefront/internal/service/cart"
	customersvc "storefront/internal/service/customer"
	ordersvc "storefront/internal/service/order"
)

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

type tokenRequest struct {
	GrantType string `form:"grant_type" binding:"required"`
	Username  string `form:"username" binding:"required"`
	Password  string `form:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token,omitempty"`
	TokenType    string           `json:"token_type"`
	ExpiresIn    int              `json:"expires_in"`
	Customer     *domain.Customer `json:"customer,omitempty"`
	AnonymousID  string           `json:"anonymous_id,omitempty"`
}

// orderView adds the total, which is computed from the lines on every read.
type orderView struct {
	domain.Order
	TotalCents int64 `json:"total"`
}

func newOrderView(o domain.Order) orderView {
	return orderView{Order: o, TotalCents: o.TotalCents()}
}

type cartView struct {
	Lines []domain.CartLine `json:"lines"`
	Quote pricing.Quote     `json:"quote"`
}

type placeOrderResponse struct {
	State ordersvc.State `json:"state"`
	Quote pricing.Quote  `json:"quote"`
	Order *orderView     `json:"order,omitempty"`
}

type paymentIntentRequest struct {
	ExistingIntentID string `json:"existingIntentId"`
}

type paymentIntentResponse struct {
	Intent payment.Intent `json:"intent"`
	Quote  pricing.Quote  `json:"quote"`
}

type fulfillmentRequest struct {
	ShippedOn      *time.Time `json:"shippedOn"`
	CompletedOn    *time.Time `json:"completedOn"`
	TrackingNumber *string    `json:"trackingNumber"`
	Notes          *string    `json:"notes"`
}

func (h *handlers) signup(c *gin.Context) {
	var in customersvc.SignupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.writeError(c, badRequest(err))
		return
	}
	cust, err := h.deps.CustomerSvc.Signup(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"customer": cust})
}

// token implements the password grant. A session cart sent along with the
// login is merged into the customer's cart.
func (h *handlers) token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBind(&req); err != nil {
		h.writeError(c, badRequest(err))
		return
	}
	if req.GrantType != "password" {
		c.JSON(http.StatusBadRequest, errorBody{Error: "unsupported_grant_type", Message: "only the password grant is supported"})
		return
	}
	ctx := c.Request.Context()
	session, err := h.deps.CustomerSvc.Login(ctx, req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if anonID := anonymousIDFrom(c); anonID != "" {
		if err := h.deps.CartSvc.MergeInto(ctx, anonID, session.Customer.ID); err != nil {
			h.logger.Warn("session cart merge failed", zap.String("customer", session.Customer.ID), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    session.ExpiresIn,
		Customer:     session.Customer,
	})
}

func (h *handlers) anonymousToken(c *gin.Context) {
	if h.deps.AnonymousSvc == nil {
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: "unavailable", Message: "anonymous sessions are not configured"})
		return
	}
	token, anonID, err := h.deps.AnonymousSvc.Issue(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Anonymous",
		ExpiresIn:   h.deps.AnonymousSvc.AccessTTLSeconds(),
		AnonymousID: anonID,
	})
}

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.deps.Catalog.List(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"results": products, "count": len(products)})
}

func (h *handlers) getProduct(c *gin.Context) {
	p, err := h.deps.Catalog.Get(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) getCart(c *gin.Context) {
	h.respondCart(c, nil)
}

func (h *handlers) clearCart(c *gin.Context) {
	h.respondCart(c, func(cart cartsvc.CartProvider) error { return cart.Clear(c.Request.Context()) })
}

func (h *handlers) addCartItem(c *gin.Context) {
	productID := c.Param("productId")
	h.respondCart(c, func(cart cartsvc.CartProvider) error { return cart.Add(c.Request.Context(), productID) })
}

func (h *handlers) removeCartItem(c *gin.Context) {
	productID := c.Param("productId")
	h.respondCart(c, func(cart cartsvc.CartProvider) error { return cart.Remove(c.Request.Context(), productID) })
}

// respondCart applies mutate, if any, to the caller's cart and writes the
// resulting lines with their quote.
func (h *handlers) respondCart(c *gin.Context, mutate func(cartsvc.CartProvider) error) {
	cart, err := h.deps.CartSvc.For(identityFrom(c), anonymousIDFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if mutate != nil {
		if err := mutate(cart); err != nil {
			h.writeError(c, err)
			return
		}
	}
	lines, err := cart.Lines(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if lines == nil {
		lines = []domain.CartLine{}
	}
	c.JSON(http.StatusOK, cartView{Lines: lines, Quote: pricing.Price(pricing.FromCart(lines))})
}

func (h *handlers) quote(c *gin.Context) {
	q, err := h.deps.OrderSvc.QuotePrice(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *handlers) paymentIntent(c *gin.Context) {
	var req paymentIntentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeError(c, badRequest(err))
			return
		}
	}
	intent, q, err := h.deps.OrderSvc.QuotePayment(c.Request.Context(), identityFrom(c), strings.TrimSpace(req.ExistingIntentID))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentIntentResponse{Intent: intent, Quote: q})
}

func (h *handlers) placeOrder(c *gin.Context) {
	var in ordersvc.PlaceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.writeError(c, badRequest(err))
		return
	}
	res, err := h.deps.OrderSvc.PlaceOrder(c.Request.Context(), identityFrom(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	body := placeOrderResponse{State: res.State, Quote: res.Quote}
	if res.Order != nil {
		v := newOrderView(*res.Order)
		body.Order = &v
	}
	status := http.StatusCreated
	if res.State == ordersvc.StateDryRunValidated {
		status = http.StatusOK
	}
	c.JSON(status, body)
}

func (h *handlers) myOrders(c *gin.Context) {
	orders, err := h.deps.OrderSvc.ListOrders(c.Request.Context(), identityFrom(c))
	h.respondOrders(c, orders, err)
}

func (h *handlers) allOrders(c *gin.Context) {
	orders, err := h.deps.OrderSvc.ListAllOrders(c.Request.Context(), identityFrom(c))
	h.respondOrders(c, orders, err)
}

func (h *handlers) respondOrders(c *gin.Context, orders []domain.Order, err error) {
	if err != nil {
		h.writeError(c, err)
		return
	}
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, newOrderView(o))
	}
	c.JSON(http.StatusOK, gin.H{"results": views, "count": len(views)})
}

func (h *handlers) getOrder(c *gin.Context) {
	o, err := h.deps.OrderSvc.GetOrder(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderView(*o))
}

func (h *handlers) updateFulfillment(c *gin.Context) {
	var req fulfillmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, badRequest(err))
		return
	}
	o, err := h.deps.OrderSvc.UpdateFulfillment(c.Request.Context(), identityFrom(c), c.Param("id"), ordersvc.FulfillmentInput{
		ShippedOn:      req.ShippedOn,
		CompletedOn:    req.CompletedOn,
		TrackingNumber: req.TrackingNumber,
		Notes:          req.Notes,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOrderView(*o))
}

func (h *handlers) listAddresses(c *gin.Context) {
	addrs, err := h.deps.AddressSvc.List(c.Request.Context(), identityFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if addrs == nil {
		addrs = []domain.Address{}
	}
	c.JSON(http.StatusOK, gin.H{"results": addrs, "count": len(addrs)})
}

func (h *handlers) createAddress(c *gin.Context) {
	var in addresssvc.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.writeError(c, badRequest(err))
		return
	}
	a, err := h.deps.AddressSvc.Create(c.Request.Context(), identityFrom(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *handlers) setBillingAddress(c *gin.Context) {
	a, err := h.deps.AddressSvc.SetBilling(c.Request.Context(), identityFrom(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}
