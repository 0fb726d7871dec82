package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
	"github.com/example/storefront/internal/command"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/product"
)

// LoginRequest represents the merchant login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the store identity plus a bearer token for API
// clients. Browser clients can ignore the token and rely on the cookies.
type LoginResponse struct {
	StoreID     string `json:"store_id"`
	StoreName   string `json:"store_name"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	st, err := h.stores.GetByMerchantEmail(r.Context(), req.Email)
	if err != nil {
		respondJSONError(w, "invalid email or password", http.StatusUnauthorized)
		return
	}

	if !auth.CheckPassword(req.Password, st.PasswordHash) {
		respondJSONError(w, "invalid email or password", http.StatusUnauthorized)
		return
	}

	accessToken := h.setAuthCookies(w, r, st.ID, st.MerchantEmail)

	h.logger.Info().Str("store_id", st.ID).Msg("merchant logged in")

	respondJSON(w, http.StatusOK, LoginResponse{
		StoreID:     st.ID,
		StoreName:   st.Name,
		Email:       st.MerchantEmail,
		AccessToken: accessToken,
	})
}

func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshCookie, err := r.Cookie("refresh_token")
	if err != nil {
		respondJSONError(w, "no refresh token", http.StatusUnauthorized)
		return
	}

	storeID, err := h.jwtService.ValidateRefreshToken(refreshCookie.Value)
	if err != nil {
		h.clearAuthCookies(w)
		respondJSONError(w, "invalid refresh token", http.StatusUnauthorized)
		return
	}

	st, err := h.stores.GetByID(r.Context(), storeID)
	if err != nil {
		h.clearAuthCookies(w)
		respondJSONError(w, "store not found", http.StatusUnauthorized)
		return
	}

	accessToken := h.setAuthCookies(w, r, st.ID, st.MerchantEmail)

	respondJSON(w, http.StatusOK, LoginResponse{
		StoreID:     st.ID,
		StoreName:   st.Name,
		Email:       st.MerchantEmail,
		AccessToken: accessToken,
	})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearAuthCookies(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Merchant order handlers. All of these run behind AuthMiddleware; the
// store id always comes from the token, never from the request, so a
// merchant can only ever touch their own orders.

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	storeID := middleware.GetStoreID(r.Context())
	orders, err := h.queryHandler.ListStoreOrders(r.Context(), storeID)
	if err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := h.ownOrder(w, r, extractPathParam(r.URL.Path, "/merchant/orders/"))
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	id := orderActionParam(r.URL.Path, "/confirm")
	if _, ok := h.ownOrder(w, r, id); !ok {
		return
	}

	o, err := h.cmdHandler.ConfirmOrder(r.Context(), command.ConfirmOrder{OrderID: id})
	if err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) ProcessOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, "/process", func(id string) error {
		return h.cmdHandler.ProcessOrder(r.Context(), command.ProcessOrder{OrderID: id})
	})
}

func (h *Handlers) ShipOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, "/ship", func(id string) error {
		return h.cmdHandler.ShipOrder(r.Context(), command.ShipOrder{OrderID: id})
	})
}

func (h *Handlers) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, "/deliver", func(id string) error {
		return h.cmdHandler.DeliverOrder(r.Context(), command.DeliverOrder{OrderID: id})
	})
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	// Body is optional for cancel.
	_ = json.NewDecoder(r.Body).Decode(&req)

	h.orderAction(w, r, "/cancel", func(id string) error {
		return h.cmdHandler.CancelOrder(r.Context(), command.CancelOrder{
			OrderID: id,
			Reason:  req.Reason,
			Actor:   "merchant",
		})
	})
}

func (h *Handlers) MarkOrderPaid(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TransactionID string `json:"transaction_id"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	h.orderAction(w, r, "/paid", func(id string) error {
		return h.cmdHandler.MarkOrderPaid(r.Context(), command.MarkOrderPaid{
			OrderID:       id,
			TransactionID: req.TransactionID,
		})
	})
}

func (h *Handlers) AddMerchantNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Note == "" {
		respondJSONError(w, "note is required", http.StatusBadRequest)
		return
	}

	h.orderAction(w, r, "/notes", func(id string) error {
		return h.cmdHandler.AddMerchantNote(r.Context(), command.AddMerchantNote{OrderID: id, Note: req.Note})
	})
}

// Merchant inventory handlers

func (h *Handlers) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id := pathSegment(r.URL.Path, "/merchant/products/", "/stock")

	var cmd command.AdjustStock
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cmd.ProductID = id

	if _, ok := h.ownProduct(w, r, id); !ok {
		return
	}

	if err := h.cmdHandler.AdjustStock(r.Context(), cmd); err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "stock adjusted"})
}

func (h *Handlers) GetProductMovements(w http.ResponseWriter, r *http.Request) {
	id := pathSegment(r.URL.Path, "/merchant/products/", "/movements")

	if _, ok := h.ownProduct(w, r, id); !ok {
		return
	}

	movements, err := h.queryHandler.ListProductMovements(r.Context(), id)
	if err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, movements)
}

// Helpers

// ownOrder loads the order and rejects the request when it belongs to a
// different store. It writes the error response itself.
func (h *Handlers) ownOrder(w http.ResponseWriter, r *http.Request, id string) (*order.Order, bool) {
	o, err := h.queryHandler.GetOrder(r.Context(), id)
	if err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return nil, false
	}
	if o.StoreID != middleware.GetStoreID(r.Context()) {
		respondJSONError(w, order.ErrOrderNotFound.Error(), http.StatusNotFound)
		return nil, false
	}
	return o, true
}

func (h *Handlers) ownProduct(w http.ResponseWriter, r *http.Request, id string) (*product.Product, bool) {
	p, err := h.queryHandler.GetProduct(r.Context(), id)
	if err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return nil, false
	}
	if p.StoreID != middleware.GetStoreID(r.Context()) {
		respondJSONError(w, product.ErrProductNotFound.Error(), http.StatusNotFound)
		return nil, false
	}
	return p, true
}

// orderAction runs the shared load-check-execute sequence for the status
// transition endpoints.
func (h *Handlers) orderAction(w http.ResponseWriter, r *http.Request, suffix string, fn func(id string) error) {
	id := orderActionParam(r.URL.Path, suffix)
	if _, ok := h.ownOrder(w, r, id); !ok {
		return
	}
	if err := fn(id); err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	o, err := h.queryHandler.GetOrder(r.Context(), id)
	if err != nil {
		respondJSONError(w, err.Error(), statusFor(err))
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func orderActionParam(path, suffix string) string {
	p := strings.TrimPrefix(path, "/merchant/orders/")
	return strings.TrimSuffix(p, suffix)
}

func (h *Handlers) setAuthCookies(w http.ResponseWriter, r *http.Request, storeID, email string) string {
	accessToken, accessExpiry, _ := h.jwtService.GenerateAccessToken(storeID, email)
	refreshToken, refreshExpiry, _ := h.jwtService.GenerateRefreshToken(storeID)

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		Expires:  accessExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/merchant/refresh",
		Expires:  refreshExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	return accessToken
}

func (h *Handlers) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	http.SetCookie(w, &http.Cookie{Name: "refresh_token", Value: "", Path: "/merchant/refresh", MaxAge: -1, HttpOnly: true})
}
