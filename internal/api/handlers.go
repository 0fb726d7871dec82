package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/example/storefront/internal/command"
	"github.com/example/storefront/internal/domain/customer"
	"github.com/example/storefront/internal/domain/inventory"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/otp"
	"github.com/example/storefront/internal/domain/product"
	"github.com/example/storefront/internal/domain/store"
	"github.com/example/storefront/internal/query"
	"github.com/example/storefront/internal/repository"

	"github.com/example/storefront/internal/auth"
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	stores       repository.StoreRepository
	jwtService   *auth.JWTService
	logger       zerolog.Logger
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, stores repository.StoreRepository, jwtService *auth.JWTService, logger zerolog.Logger) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		stores:       stores,
		jwtService:   jwtService,
		logger:       logger.With().Str("component", "api").Logger(),
	}
}

// Storefront handlers. These are public: no auth, order lookups go through
// the redacted tracking view, never the full aggregate.

func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	storeID := pathSegment(r.URL.Path, "/stores/", "/orders")
	if storeID == "" {
		respondJSONError(w, "store id required", http.StatusBadRequest)
		return
	}

	var cmd command.PlaceOrder
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cmd.StoreID = storeID

	o, err := h.cmdHandler.PlaceOrder(r.Context(), cmd)
	if err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"order_id":     o.ID,
		"order_number": o.Number,
		"status":       o.Status,
		"total":        o.Pricing.Total.String(),
	})
}

func (h *Handlers) TrackOrder(w http.ResponseWriter, r *http.Request) {
	storeID := pathSegment(r.URL.Path, "/stores/", "/track/")
	number := extractPathParam(r.URL.Path, "/stores/"+storeID+"/track/")

	view, err := h.queryHandler.TrackOrder(r.Context(), storeID, number)
	if err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) GetStoreProducts(w http.ResponseWriter, r *http.Request) {
	storeID := pathSegment(r.URL.Path, "/stores/", "/products")
	products, err := h.queryHandler.ListStoreProducts(r.Context(), storeID)
	if err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetStoreProduct(w http.ResponseWriter, r *http.Request) {
	storeID := pathSegment(r.URL.Path, "/stores/", "/products/")
	id := extractPathParam(r.URL.Path, "/stores/"+storeID+"/products/")

	p, err := h.queryHandler.GetProduct(r.Context(), id)
	if err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	if p.StoreID != storeID {
		respondJSONError(w, product.ErrProductNotFound.Error(), http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// Passcode handlers. Both are keyed the way the customer sees the order:
// store plus order number, never the internal id.

func (h *Handlers) SendOrderOtp(w http.ResponseWriter, r *http.Request) {
	storeID, number := otpPathParams(r.URL.Path, "/otp")

	cmd := command.SendOrderOtp{StoreID: storeID, OrderNumber: number}
	if err := h.cmdHandler.SendOrderOtp(r.Context(), cmd); err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "verification code sent"})
}

func (h *Handlers) VerifyOrderOtp(w http.ResponseWriter, r *http.Request) {
	storeID, number := otpPathParams(r.URL.Path, "/verify")

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.cmdHandler.VerifyOrderOtp(r.Context(), command.VerifyOrderOtp{
		StoreID:     storeID,
		OrderNumber: number,
		Code:        req.Code,
	})
	if err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"order_number": o.Number,
		"status":       o.Status,
	})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

// otpPathParams splits /stores/{storeID}/orders/{number}{suffix}.
func otpPathParams(path, suffix string) (storeID, number string) {
	storeID = pathSegment(path, "/stores/", "/orders/")
	number = pathSegment(path, "/stores/"+storeID+"/orders/", suffix)
	return storeID, number
}

// pathSegment pulls the value between prefix and the first occurrence of
// next, e.g. pathSegment("/stores/s-1/orders", "/stores/", "/orders") == "s-1".
func pathSegment(path, prefix, next string) string {
	rest := strings.TrimPrefix(path, prefix)
	if idx := strings.Index(rest, next); idx >= 0 {
		return rest[:idx]
	}
	return rest
}

// statusFor maps domain errors onto HTTP status codes. Unknown errors are
// treated as internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, product.ErrVariantNotFound),
		errors.Is(err, store.ErrStoreNotFound),
		errors.Is(err, customer.ErrCustomerNotFound),
		errors.Is(err, otp.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, otp.ErrResendTooSoon):
		return http.StatusTooManyRequests

	case errors.Is(err, otp.ErrInvalidCode),
		errors.Is(err, otp.ErrExpired),
		errors.Is(err, otp.ErrMaxAttemptsReached),
		errors.Is(err, otp.ErrAlreadyUsed):
		return http.StatusUnauthorized

	case errors.Is(err, order.ErrInvalidStatusTransition),
		errors.Is(err, order.ErrOrderNotPaid),
		errors.Is(err, order.ErrOrderDelivered),
		errors.Is(err, order.ErrOrderCancelled),
		errors.Is(err, command.ErrOrderNotPending),
		errors.Is(err, command.ErrOtpRequired),
		errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, inventory.ErrNegativeStock):
		return http.StatusConflict

	case errors.Is(err, order.ErrInvalidNumber),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrInvalidPaymentMethod),
		errors.Is(err, command.ErrMissingName),
		errors.Is(err, command.ErrInvalidEmail),
		errors.Is(err, command.ErrInvalidPhone),
		errors.Is(err, command.ErrMissingAddress),
		errors.Is(err, command.ErrInvalidReason),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, inventory.ErrZeroDelta):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}
