package http

import (
	"net/http"

	"garage-backend/internal/config"
	"garage-backend/internal/logger"
	"garage-backend/internal/security"
	"garage-backend/internal/service"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
)

// Services bundles what the handlers call into.
type Services struct {
	Auth    service.AuthService
	Members service.MemberService
	Ledger  service.LedgerService
	Levels  service.LevelService
	Carts   service.CartService
	Reports service.ReportService
}

type Handler struct {
	svc     Services
	tokens  security.TokenManager
	session config.SessionConfig
}

// NewRouter wires every route. Each route is named; the session gate looks
// the name up in config.RouteSecurity.
func NewRouter(svc Services, tokens security.TokenManager, cfg *config.Config) http.Handler {
	h := &Handler{svc: svc, tokens: tokens, session: cfg.Session}
	gate := &sessionGate{tokens: tokens, session: cfg.Session}
	trusted, err := cfg.RateLimit.TrustedProxyPrefixes()
	if err != nil {
		logger.Error("Ignoring invalid trusted proxy list", "error", err)
		trusted = nil
	}
	limiter := newIPLimiter(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.Burst, trusted)

	r := mux.NewRouter()
	r.Use(recoverMiddleware, tracingMiddleware, accessLogMiddleware, gate.Middleware)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet).Name("healthz")

	api := r.PathPrefix("/api").Subrouter()

	// Auth
	api.HandleFunc("/auth/member/register", limiter.Wrap(h.RegisterMember)).Methods(http.MethodPost).Name("auth.member.register")
	api.HandleFunc("/auth/member/login", limiter.Wrap(h.LoginMember)).Methods(http.MethodPost).Name("auth.member.login")
	api.HandleFunc("/auth/member/logout", h.Logout).Methods(http.MethodPost).Name("auth.member.logout")
	api.HandleFunc("/auth/member/me", h.CurrentMember).Methods(http.MethodGet).Name("auth.member.me")
	api.HandleFunc("/auth/admin/login", limiter.Wrap(h.LoginStaff)).Methods(http.MethodPost).Name("auth.admin.login")
	api.HandleFunc("/auth/admin/logout", h.Logout).Methods(http.MethodPost).Name("auth.admin.logout")
	api.HandleFunc("/auth/admin/me", h.CurrentStaff).Methods(http.MethodGet).Name("auth.admin.me")
	api.HandleFunc("/auth/me", h.Me).Methods(http.MethodGet).Name("auth.me")
	api.HandleFunc("/users", h.CreateUser).Methods(http.MethodPost).Name("users.create")

	// Members
	api.HandleFunc("/members", h.ListMembers).Methods(http.MethodGet).Name("members.list")
	api.HandleFunc("/members", h.CreateMember).Methods(http.MethodPost).Name("members.create")
	api.HandleFunc("/members/{id}", h.GetMember).Methods(http.MethodGet).Name("members.get")
	api.HandleFunc("/members/{id}", h.UpdateMember).Methods(http.MethodPatch).Name("members.update")
	api.HandleFunc("/members/{id}", h.DeleteMember).Methods(http.MethodDelete).Name("members.delete")
	api.HandleFunc("/members/{id}/audit", h.AuditMember).Methods(http.MethodGet).Name("members.audit")

	// Levels
	api.HandleFunc("/member-levels", h.ListLevels).Methods(http.MethodGet).Name("levels.list")
	api.HandleFunc("/member-levels", h.UpsertLevel).Methods(http.MethodPut).Name("levels.upsert")

	// Ledger
	api.HandleFunc("/members/{id}/points/add", h.AddPoints).Methods(http.MethodPost).Name("points.add")
	api.HandleFunc("/members/{id}/points/spend", h.SpendPoints).Methods(http.MethodPost).Name("points.spend")
	api.HandleFunc("/members/{id}/points/adjust", h.AdjustPoints).Methods(http.MethodPost).Name("points.adjust")
	api.HandleFunc("/members/{id}/points/transactions", h.ListPointsTransactions).Methods(http.MethodGet).Name("points.transactions")
	api.HandleFunc("/members/{id}/wallet/topup", h.TopUpWallet).Methods(http.MethodPost).Name("wallet.topup")
	api.HandleFunc("/members/{id}/wallet/deduct", h.DeductWallet).Methods(http.MethodPost).Name("wallet.deduct")
	api.HandleFunc("/members/{id}/wallet/refund", h.RefundWallet).Methods(http.MethodPost).Name("wallet.refund")
	api.HandleFunc("/members/{id}/wallet/adjust", h.AdjustWallet).Methods(http.MethodPost).Name("wallet.adjust")
	api.HandleFunc("/members/{id}/wallet/transactions", h.ListWalletTransactions).Methods(http.MethodGet).Name("wallet.transactions")

	// Carts
	api.HandleFunc("/members/{id}/cart", h.GetCart).Methods(http.MethodGet).Name("cart.get")
	api.HandleFunc("/carts/{id}/items", h.AddCartItem).Methods(http.MethodPost).Name("cart.items.add")
	api.HandleFunc("/cart-items/{id}", h.UpdateCartItem).Methods(http.MethodPatch).Name("cart.items.update")
	api.HandleFunc("/cart-items/{id}", h.DeleteCartItem).Methods(http.MethodDelete).Name("cart.items.delete")
	api.HandleFunc("/carts/{id}/clear", h.ClearCart).Methods(http.MethodPost).Name("cart.clear")
	api.HandleFunc("/carts/{id}/complete", h.CompleteCart).Methods(http.MethodPost).Name("cart.complete")
	api.HandleFunc("/carts/{id}/checkout", h.CheckoutCart).Methods(http.MethodPost).Name("cart.checkout")
	api.HandleFunc("/carts/{id}/abandon", h.AbandonCart).Methods(http.MethodPost).Name("cart.abandon")

	// Reports
	api.HandleFunc("/reports", h.CreateReport).Methods(http.MethodPost).Name("reports.create")
	api.HandleFunc("/reports", h.ListReports).Methods(http.MethodGet).Name("reports.list")
	api.HandleFunc("/reports/mine", h.ListMyReports).Methods(http.MethodGet).Name("reports.mine")
	api.HandleFunc("/reports/{id}", h.GetReport).Methods(http.MethodGet).Name("reports.get")
	api.HandleFunc("/reports/{id}", h.UpdateReport).Methods(http.MethodPatch).Name("reports.update")

	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "traceparent"},
		AllowCredentials: true,
		MaxAge:           300,
	})(r)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
