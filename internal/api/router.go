package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/storefront/internal/api/middleware"
	"github.com/example/storefront/internal/auth"
)

func NewRouter(handlers *Handlers, jwtService *auth.JWTService, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	requireAuth := middleware.AuthMiddleware(jwtService)

	// Passcode endpoints are rate limited per client on top of the domain
	// level resend cooldown and attempt cap.
	otpLimiter := middleware.NewRateLimiter(10, 5)

	sendOtp := otpLimiter.Middleware(http.HandlerFunc(handlers.SendOrderOtp))
	verifyOtp := otpLimiter.Middleware(http.HandlerFunc(handlers.VerifyOrderOtp))

	// Storefront (public)
	mux.HandleFunc("/stores/", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/otp") && r.Method == http.MethodPost:
			sendOtp.ServeHTTP(w, r)
		case strings.HasSuffix(path, "/verify") && r.Method == http.MethodPost:
			verifyOtp.ServeHTTP(w, r)
		case strings.HasSuffix(path, "/orders") && r.Method == http.MethodPost:
			handlers.PlaceOrder(w, r)
		case strings.Contains(path, "/track/") && r.Method == http.MethodGet:
			handlers.TrackOrder(w, r)
		case strings.HasSuffix(path, "/products") && r.Method == http.MethodGet:
			handlers.GetStoreProducts(w, r)
		case strings.Contains(path, "/products/") && r.Method == http.MethodGet:
			handlers.GetStoreProduct(w, r)
		default:
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Merchant auth
	mux.HandleFunc("/merchant/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handlers.Login(w, r)
	})
	mux.HandleFunc("/merchant/refresh", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handlers.Refresh(w, r)
	})
	mux.HandleFunc("/merchant/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handlers.Logout(w, r)
	})

	// Merchant orders (JWT protected)
	mux.Handle("/merchant/orders", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handlers.GetOrders(w, r)
	})))

	mux.Handle("/merchant/orders/", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/confirm") && r.Method == http.MethodPost:
			handlers.ConfirmOrder(w, r)
		case strings.HasSuffix(path, "/process") && r.Method == http.MethodPost:
			handlers.ProcessOrder(w, r)
		case strings.HasSuffix(path, "/ship") && r.Method == http.MethodPost:
			handlers.ShipOrder(w, r)
		case strings.HasSuffix(path, "/deliver") && r.Method == http.MethodPost:
			handlers.DeliverOrder(w, r)
		case strings.HasSuffix(path, "/cancel") && r.Method == http.MethodPost:
			handlers.CancelOrder(w, r)
		case strings.HasSuffix(path, "/paid") && r.Method == http.MethodPost:
			handlers.MarkOrderPaid(w, r)
		case strings.HasSuffix(path, "/notes") && r.Method == http.MethodPost:
			handlers.AddMerchantNote(w, r)
		case r.Method == http.MethodGet:
			handlers.GetOrder(w, r)
		default:
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Merchant inventory (JWT protected)
	mux.Handle("/merchant/products/", requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/stock") && r.Method == http.MethodPost:
			handlers.AdjustStock(w, r)
		case strings.HasSuffix(path, "/movements") && r.Method == http.MethodGet:
			handlers.GetProductMovements(w, r)
		default:
			respondJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return withLogging(mux, logger)
}

func withLogging(next http.Handler, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
