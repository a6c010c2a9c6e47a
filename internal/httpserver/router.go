package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
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

type customerService interface {
	Signup(ctx context.Context, in customersvc.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, email, password string) (*customersvc.Session, error)
	Identify(ctx context.Context, token string) (domain.Identity, error)
}

type anonymousService interface {
	Issue(ctx context.Context) (token, anonymousID string, err error)
	LookupByToken(ctx context.Context, token string) (string, error)
	AccessTTLSeconds() int
}

type catalog interface {
	List(ctx context.Context, id domain.Identity) ([]domain.Product, error)
	Get(ctx context.Context, id domain.Identity, productID string) (*domain.Product, error)
}

type cartService interface {
	For(id domain.Identity, anonymousID string) (cartsvc.CartProvider, error)
	MergeInto(ctx context.Context, anonymousID, customerID string) error
}

type orderService interface {
	PlaceOrder(ctx context.Context, id domain.Identity, in ordersvc.PlaceInput) (ordersvc.Result, error)
	QuotePrice(ctx context.Context, id domain.Identity) (pricing.Quote, error)
	QuotePayment(ctx context.Context, id domain.Identity, existingIntentID string) (payment.Intent, pricing.Quote, error)
	ListOrders(ctx context.Context, id domain.Identity) ([]domain.Order, error)
	ListAllOrders(ctx context.Context, id domain.Identity) ([]domain.Order, error)
	GetOrder(ctx context.Context, id domain.Identity, orderID string) (*domain.Order, error)
	UpdateFulfillment(ctx context.Context, id domain.Identity, orderID string, in ordersvc.FulfillmentInput) (*domain.Order, error)
}

type addressService interface {
	Create(ctx context.Context, id domain.Identity, in addresssvc.CreateInput) (*domain.Address, error)
	List(ctx context.Context, id domain.Identity) ([]domain.Address, error)
	SetBilling(ctx context.Context, id domain.Identity, addressID string) (*domain.Address, error)
}

// Deps are the services the handlers call.
type Deps struct {
	CustomerSvc  customerService
	AnonymousSvc anonymousService
	Catalog      catalog
	CartSvc      cartService
	OrderSvc     orderService
	AddressSvc   addressService
}

func (d Deps) validate() error {
	switch {
	case d.CustomerSvc == nil:
		return errors.New("httpserver: customer service is required")
	case d.Catalog == nil:
		return errors.New("httpserver: catalog is required")
	case d.CartSvc == nil:
		return errors.New("httpserver: cart service is required")
	case d.OrderSvc == nil:
		return errors.New("httpserver: order service is required")
	case d.AddressSvc == nil:
		return errors.New("httpserver: address service is required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db Pinger, deps Deps, corsOrigins []string) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	h := &handlers{deps: deps, logger: logger}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(zap.NewStdLog(logger.Named("access")).Writer()), gin.Recovery())
	if len(corsOrigins) > 0 {
		router.Use(corsMiddleware(corsOrigins))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	api := router.Group("/", h.identify)

	api.POST("/auth/signup", h.signup)
	api.POST("/auth/token", h.token)
	api.POST("/auth/anonymous", h.anonymousToken)

	api.GET("/products", h.listProducts)
	api.GET("/products/:id", h.getProduct)

	api.GET("/cart", h.getCart)
	api.DELETE("/cart", h.clearCart)
	api.POST("/cart/items/:productId", h.addCartItem)
	api.DELETE("/cart/items/:productId", h.removeCartItem)

	customer := api.Group("/", requireCustomer)
	customer.GET("/checkout/quote", h.quote)
	customer.POST("/checkout/payment-intent", h.paymentIntent)
	customer.POST("/checkout/orders", h.placeOrder)
	customer.GET("/me/orders", h.myOrders)
	customer.GET("/orders/:id", h.getOrder)
	customer.GET("/me/addresses", h.listAddresses)
	customer.POST("/me/addresses", h.createAddress)
	customer.POST("/me/addresses/:id/billing", h.setBillingAddress)

	admin := customer.Group("/admin")
	admin.GET("/orders", h.allOrders)
	admin.PATCH("/orders/:id", h.updateFulfillment)

	return router, nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type", anonymousTokenHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
