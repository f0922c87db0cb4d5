package http

import (
	"net"
	"net/http"
	"net/netip"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"garage-backend/internal/config"
	"garage-backend/internal/domain"
	"garage-backend/internal/logger"
	"garage-backend/internal/security"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		return route.GetName()
	}
	return ""
}

// tracingMiddleware starts a server span per request, continuing any trace
// context sent by the caller.
func tracingMiddleware(next http.Handler) http.Handler {
	tracer := otel.Tracer("garage-backend/http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		name := routeName(r)
		if name == "" {
			name = r.Method + " " + r.URL.Path
		}
		ctx, span := tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
			attribute.String("http.user_agent", r.UserAgent()),
		)

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.status_code", rw.status))
		if rw.status >= 500 {
			span.SetStatus(codes.Error, http.StatusText(rw.status))
		}
	})
}

func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.InfoContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", routeName(r),
			"status", rw.status,
			"duration", time.Since(start),
		)
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(r.Context(), "Panic serving request", "path", r.URL.Path, "panic", rec, "stack", string(debug.Stack()))
				respondMessage(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// sessionGate resolves the caller from the session cookie or a Bearer token
// and enforces the security level configured for the matched route.
type sessionGate struct {
	tokens  security.TokenManager
	session config.SessionConfig
}

func (g *sessionGate) extractToken(r *http.Request) (token string, fromCookie bool) {
	if c, err := r.Cookie(g.session.CookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return auth[7:], false
	}
	return "", false
}

func (g *sessionGate) identify(w http.ResponseWriter, r *http.Request) domain.Identity {
	token, fromCookie := g.extractToken(r)
	if token == "" {
		return domain.Identity{}
	}
	id, err := g.tokens.ValidateSession(token)
	if err != nil {
		logger.Debug("Ignoring invalid session", "error", err, "fromCookie", fromCookie)
		if fromCookie {
			clearSessionCookie(w, g.session)
		}
		return domain.Identity{}
	}
	return id
}

func (g *sessionGate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := g.identify(w, r)
		level := config.GetSecurityLevel(routeName(r))

		if level != config.SecurityPublic && !id.IsAuthenticated() {
			respondMessage(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		switch {
		case level == config.SecurityStaff && !id.IsStaff(),
			level == config.SecurityPrivileged && !id.IsPrivileged():
			logger.WarnContext(r.Context(), "Route access denied", "route", routeName(r), "level", level.String(), "userType", id.UserType)
			respondMessage(w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}

func setSessionCookie(w http.ResponseWriter, cfg config.SessionConfig, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, cfg config.SessionConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ipLimiter keeps one token bucket per client address.
type ipLimiter struct {
	trusted   []netip.Prefix
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	lastSweep time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(perMinute, burst int, trusted []netip.Prefix) *ipLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &ipLimiter{
		trusted:   trusted,
		clients:   make(map[string]*clientLimiter),
		limit:     limit,
		burst:     burst,
		lastSweep: time.Now(),
	}
}

func (l *ipLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) > 10*time.Minute {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) > time.Hour {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.Allow()
}

func isTrusted(trusted []netip.Prefix, ip string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// clientKey is the connection address unless that address is a trusted
// proxy. Behind a trusted proxy it is the nearest untrusted X-Forwarded-For
// hop, counted from the right, falling back to X-Real-IP.
func clientKey(r *http.Request, trusted []netip.Prefix) string {
	remote, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remote = r.RemoteAddr
	}
	if !isTrusted(trusted, remote) {
		return remote
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		hops := strings.Split(fwd, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop != "" && !isTrusted(trusted, hop) {
				return hop
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return remote
}

func (l *ipLimiter) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r, l.trusted)
		if !l.Allow(key) {
			logger.WarnContext(r.Context(), "Rate limit exceeded", "client", key, "route", routeName(r))
			w.Header().Set("Retry-After", "60")
			respondMessage(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}
