package apiv1

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"household-module-ledger/internal/domain"
	"household-module-ledger/internal/domain/model"
	"household-module-ledger/internal/infra/metrics"

	"github.com/go-chi/chi/v5"
)

// ---- wire types ----

type accountResponse struct {
	UserID         int64  `json:"user_id"`
	Balance        string `json:"balance"`
	TotalPurchased string `json:"total_purchased"`
}

type transactionItem struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	Amount        string  `json:"amount"`
	BalanceBefore string  `json:"balance_before"`
	BalanceAfter  string  `json:"balance_after"`
	ReferenceType string  `json:"reference_type"`
	ReferenceID   string  `json:"reference_id,omitempty"`
	VoucherID     *string `json:"voucher_id,omitempty"`
	Description   string  `json:"description,omitempty"`
	ProcessedBy   *string `json:"processed_by,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

func toTransactionItem(t *model.TokenTransaction) transactionItem {
	return transactionItem{
		ID:            t.ID,
		Type:          string(t.Type),
		Amount:        t.Amount.String(),
		BalanceBefore: t.BalanceBefore.String(),
		BalanceAfter:  t.BalanceAfter.String(),
		ReferenceType: string(t.ReferenceType),
		ReferenceID:   t.ReferenceID,
		VoucherID:     t.VoucherID,
		Description:   t.Description,
		ProcessedBy:   t.ProcessedBy,
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
}

type moduleStatusItem struct {
	Key          string  `json:"key"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	Category     string  `json:"category"`
	DisplayOrder int     `json:"display_order"`
	Active       bool    `json:"active"`
	ExpiresAt    *string `json:"expires_at,omitempty"`
}

// ---- user-facing handlers ----

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	acct, err := s.accountUC.Get(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{
		UserID:         acct.UserID,
		Balance:        acct.Balance.String(),
		TotalPurchased: acct.TotalPurchased.String(),
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := s.accountUC.ListTransactions(r.Context(), userID, page, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items := make([]transactionItem, 0, len(entries))
	for _, t := range entries {
		items = append(items, toTransactionItem(t))
	}
	writeJSON(w, http.StatusOK, struct {
		Data []transactionItem `json:"data"`
	}{Data: items})
}

type purchaseRequest struct {
	TokenQuantity int64  `json:"token_quantity"`
	VoucherCode   string `json:"voucher_code,omitempty"`
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}

	res, err := s.purchaseUC.Purchase(r.Context(), userID, req.TokenQuantity, req.VoucherCode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	metrics.IncTokenPurchase(req.VoucherCode != "", req.TokenQuantity)
	if req.VoucherCode != "" {
		metrics.IncVoucherRedemption()
	}
	writeJSON(w, http.StatusCreated, struct {
		Transaction   transactionItem `json:"transaction"`
		NewBalance    string          `json:"new_balance"`
		OriginalPrice string          `json:"original_price"`
		Discount      string          `json:"discount"`
		FinalPrice    string          `json:"final_price"`
	}{
		Transaction:   toTransactionItem(res.Transaction),
		NewBalance:    res.NewBalance.String(),
		OriginalPrice: res.OriginalPrice.String(),
		Discount:      res.Discount.String(),
		FinalPrice:    res.FinalPrice.String(),
	})
}

func (s *Server) handleListModules(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	statuses, err := s.entitlementUC.AvailableModules(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items := make([]moduleStatusItem, 0, len(statuses))
	for _, st := range statuses {
		it := moduleStatusItem{
			Key:          st.Module.Key,
			Name:         st.Module.Name,
			Description:  st.Module.Description,
			Category:     string(st.Module.Category),
			DisplayOrder: st.Module.DisplayOrder,
			Active:       st.Active,
		}
		if st.ExpiresAt != nil {
			exp := st.ExpiresAt.Format(time.RFC3339)
			it.ExpiresAt = &exp
		}
		items = append(items, it)
	}
	writeJSON(w, http.StatusOK, struct {
		Data []moduleStatusItem `json:"data"`
	}{Data: items})
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	key := chi.URLParam(r, "key")

	act, err := s.entitlementUC.Activate(r.Context(), userID, key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	metrics.IncActivation(key)
	writeJSON(w, http.StatusCreated, struct {
		ID              string `json:"id"`
		ModuleKey       string `json:"module_key"`
		ActivatedAt     string `json:"activated_at"`
		ExpiresAt       string `json:"expires_at"`
		ActivationOrder int64  `json:"activation_order"`
		TokenUsed       string `json:"token_used"`
	}{
		ID:              act.ID,
		ModuleKey:       act.ModuleKey,
		ActivatedAt:     act.ActivatedAt.Format(time.RFC3339),
		ExpiresAt:       act.ExpiresAt.Format(time.RFC3339),
		ActivationOrder: act.ActivationOrder,
		TokenUsed:       act.TokenUsed.String(),
	})
}

func (s *Server) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	key := chi.URLParam(r, "key")

	res, err := s.entitlementUC.Deactivate(r.Context(), userID, key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	metrics.IncRefund(res.Refunded)
	writeJSON(w, http.StatusOK, struct {
		Refunded     bool   `json:"refunded"`
		RefundAmount string `json:"refund_amount"`
	}{Refunded: res.Refunded, RefundAmount: res.RefundAmount.String()})
}

type voucherValidateRequest struct {
	Code           string `json:"code"`
	PurchaseAmount string `json:"purchase_amount"`
}

func (s *Server) handleValidateVoucher(w http.ResponseWriter, r *http.Request) {
	var req voucherValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}
	amount, err := decimal.NewFromString(req.PurchaseAmount)
	if err != nil {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}

	quote, err := s.voucherUC.Validate(r.Context(), req.Code, amount)
	if err != nil {
		metrics.IncVoucherRejection(rejectionReason(err))
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Code       string `json:"code"`
		Discount   string `json:"discount"`
		FinalPrice string `json:"final_price"`
	}{Code: quote.Voucher.Code, Discount: quote.Discount.String(), FinalPrice: quote.FinalPrice.String()})
}

func rejectionReason(err error) string {
	switch {
	case err == nil:
		return ""
	case err == domain.ErrVoucherExpired:
		return "expired"
	case err == domain.ErrVoucherExhausted:
		return "exhausted"
	case err == domain.ErrMinimumPurchaseNotMet:
		return "minimum_not_met"
	case err == domain.ErrVoucherNotFound:
		return "not_found"
	default:
		return "other"
	}
}
