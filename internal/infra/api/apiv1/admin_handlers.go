package apiv1

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"household-module-ledger/internal/domain"
	"household-module-ledger/internal/domain/model"
	"household-module-ledger/internal/infra/metrics"

	"github.com/go-chi/chi/v5"
)

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.adminUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.adminPass)) == 1
	if s.adminUser == "" || !userOK || !passOK {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Token string `json:"token"`
	}{Token: token})
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	n, err := s.entitlementUC.SweepExpirations(r.Context(), time.Now().UTC())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if n > 0 {
		metrics.IncActivationsExpired(n)
	}
	writeJSON(w, http.StatusOK, struct {
		Expired int `json:"expired"`
	}{Expired: n})
}

type grantRequest struct {
	Amount      string `json:"amount"`
	Reason      string `json:"reason,omitempty"`
	ProcessedBy string `json:"processed_by"`
}

func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}

	entry, err := s.accountUC.Grant(r.Context(), userID, amount, req.Reason, req.ProcessedBy)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	metrics.IncLedgerEntry(string(entry.Type))
	writeJSON(w, http.StatusCreated, toTransactionItem(entry))
}

type moduleCreateRequest struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Category     string `json:"category"`
	DisplayOrder int    `json:"display_order"`
}

func (s *Server) handleCreateModule(w http.ResponseWriter, r *http.Request) {
	var req moduleCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}
	m, err := s.moduleUC.Create(r.Context(), req.Key, req.Name, req.Description, model.ModuleCategory(req.Category), req.DisplayOrder)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleAdminListModules(w http.ResponseWriter, r *http.Request) {
	mods, err := s.moduleUC.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*model.Module `json:"data"`
	}{Data: mods})
}

func (s *Server) handleDeleteModule(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := s.moduleUC.Deactivate(r.Context(), key); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type voucherCreateRequest struct {
	Code            string  `json:"code"`
	DiscountPercent string  `json:"discount_percent"`
	DiscountFixed   string  `json:"discount_fixed"`
	MinimumPurchase string  `json:"minimum_purchase"`
	MaxUses         *int    `json:"max_uses,omitempty"`
	ValidFrom       string  `json:"valid_from"`
	ValidUntil      *string `json:"valid_until,omitempty"`
}

func (s *Server) handleCreateVoucher(w http.ResponseWriter, r *http.Request) {
	var req voucherCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}
	percent, err1 := decimal.NewFromString(orZero(req.DiscountPercent))
	fixed, err2 := decimal.NewFromString(orZero(req.DiscountFixed))
	minimum, err3 := decimal.NewFromString(orZero(req.MinimumPurchase))
	if err1 != nil || err2 != nil || err3 != nil {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}

	validFrom := time.Now().UTC()
	if req.ValidFrom != "" {
		validFrom, err1 = time.Parse(time.RFC3339, req.ValidFrom)
		if err1 != nil {
			s.writeError(w, r, domain.ErrInvalidArgument)
			return
		}
	}
	var validUntil *time.Time
	if req.ValidUntil != nil {
		t, err := time.Parse(time.RFC3339, *req.ValidUntil)
		if err != nil {
			s.writeError(w, r, domain.ErrInvalidArgument)
			return
		}
		validUntil = &t
	}

	v, err := s.voucherUC.Create(r.Context(), req.Code, percent, fixed, minimum, req.MaxUses, validFrom, validUntil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	byModule, outstanding, err := s.statsUC.Totals(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		ActiveByModule    map[string]int `json:"active_by_module"`
		OutstandingTokens string         `json:"outstanding_tokens"`
	}{ActiveByModule: byModule, OutstandingTokens: outstanding.String()})
}
