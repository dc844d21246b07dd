package apiv1

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"household-module-ledger/internal/domain"
	"household-module-ledger/internal/infra/logging"
	"household-module-ledger/internal/infra/metrics"
	"household-module-ledger/internal/usecase"
)

// Server bundles the use cases behind the versioned HTTP API.
type Server struct {
	accountUC     usecase.AccountUseCase
	purchaseUC    usecase.PurchaseUseCase
	voucherUC     usecase.VoucherUseCase
	entitlementUC usecase.EntitlementUseCase
	moduleUC      usecase.ModuleUseCase
	statsUC       usecase.StatsUseCase
	auth          *AuthManager
	adminUser     string
	adminPass     string
	log           *zerolog.Logger
}

func NewServer(
	accountUC usecase.AccountUseCase,
	purchaseUC usecase.PurchaseUseCase,
	voucherUC usecase.VoucherUseCase,
	entitlementUC usecase.EntitlementUseCase,
	moduleUC usecase.ModuleUseCase,
	statsUC usecase.StatsUseCase,
	auth *AuthManager,
	adminUser, adminPass string,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "apiv1").Logger()
	return &Server{
		accountUC:     accountUC,
		purchaseUC:    purchaseUC,
		voucherUC:     voucherUC,
		entitlementUC: entitlementUC,
		moduleUC:      moduleUC,
		statsUC:       statsUC,
		auth:          auth,
		adminUser:     adminUser,
		adminPass:     adminPass,
		log:           &l,
	}
}

// RegisterAPIV1 mounts all routes on the router.
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.guardMiddleware)
		r.Use(s.observeMiddleware)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Use(s.userCtxMiddleware)
			r.Get("/account", s.handleGetAccount)
			r.Get("/transactions", s.handleListTransactions)
			r.Post("/purchases", s.handlePurchase)
			r.Get("/modules", s.handleListModules)
			r.Post("/modules/{key}/activate", s.handleActivate)
			r.Post("/modules/{key}/deactivate", s.handleDeactivate)
		})

		r.Post("/vouchers/validate", s.handleValidateVoucher)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.handleAdminLogin)

			r.Group(func(r chi.Router) {
				r.Use(s.adminMiddleware)
				r.Post("/sweep", s.handleSweep)
				r.Post("/users/{userID}/grant", s.handleGrant)
				r.Get("/modules", s.handleAdminListModules)
				r.Post("/modules", s.handleCreateModule)
				r.Delete("/modules/{key}", s.handleDeleteModule)
				r.Post("/vouchers", s.handleCreateVoucher)
				r.Get("/stats", s.handleStats)
			})
		})
	})
}

// guardMiddleware assigns a trace id, logs the request, and turns a
// handler panic into a 500 instead of killing the connection.
func (s *Server) guardMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := uuid.NewString()
		ctx := logging.WithTraceID(r.Context(), traceID)
		w.Header().Set("X-Trace-Id", traceID)

		defer func() {
			if rec := recover(); rec != nil {
				logging.With(ctx, s.log).Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panic")
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
			}
		}()

		logging.With(ctx, s.log).Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("request")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userCtxMiddleware carries the {userID} path parameter in the context so
// logs emitted under user-scoped routes identify the account they touched.
func (s *Server) userCtxMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := userIDParam(r); err == nil {
			r = r.WithContext(logging.WithUserID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Method + " " + r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = r.Method + " " + rctx.RoutePattern()
		}
		metrics.ObserveHTTPRequest(route, strconv.Itoa(rec.status/100*100), float64(time.Since(start).Milliseconds()))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// adminMiddleware rejects requests without a valid admin session token.
func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidArgument
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps domain errors onto HTTP status codes. Anything not
// recognized is treated as an infrastructure failure.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, domain.ErrInsufficientTokens):
		status = http.StatusPaymentRequired
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrModuleNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyActive),
		errors.Is(err, domain.ErrNotActive),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrVoucherAlreadyUsed):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrVoucherNotFound),
		errors.Is(err, domain.ErrVoucherExpired),
		errors.Is(err, domain.ErrVoucherExhausted),
		errors.Is(err, domain.ErrMinimumPurchaseNotMet):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	default:
		logging.With(r.Context(), s.log).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}
