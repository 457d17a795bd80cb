package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ar1ocker/currencyledger/internal/decimalx"
	"github.com/ar1ocker/currencyledger/internal/engine/adjustments"
	"github.com/ar1ocker/currencyledger/internal/engine/exchanges"
	"github.com/ar1ocker/currencyledger/internal/engine/transfers"
	"github.com/ar1ocker/currencyledger/internal/ledgererr"
	"github.com/ar1ocker/currencyledger/internal/models"
	"github.com/ar1ocker/currencyledger/internal/permission"
)

func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return ledgererr.Validation("malformed request body: %v", err)
	}
	return nil
}

// resolveAutoRejectAfter turns an optional duration override into an
// absolute deadline, falling back to the process default.
func resolveAutoRejectAfter(override *time.Duration, defaultTimedelta time.Duration) time.Time {
	d := defaultTimedelta
	if override != nil {
		d = *override
	}
	return time.Now().UTC().Add(d)
}

// --- Holders ---------------------------------------------------------------

type createHolderRequest struct {
	HolderId   string          `json:"holder_id"`
	HolderType string          `json:"holder_type,omitempty"`
	Info       json.RawMessage `json:"info,omitempty"`
}

type holderResponse struct {
	HolderId   string          `json:"holder_id"`
	HolderType string          `json:"holder_type"`
	Enabled    bool            `json:"enabled"`
	Info       json.RawMessage `json:"info"`
	CreatedNow bool            `json:"created_now"`
}

func (s *Server) handleCreateHolder(w http.ResponseWriter, r *http.Request) {
	doc := permissionsFromContext(r.Context())
	if err := doc.EnforceCreate(permission.SectionHolders); err != nil {
		writeError(w, err)
		return
	}

	var req createHolderRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.HolderId == "" {
		writeError(w, ledgererr.ValidationFields("Validation error", map[string]string{"holder_id": "required"}))
		return
	}

	slug := req.HolderType
	if slug == "" {
		slug = s.cfg.Ledger.DefaultHolderTypeSlug
	}

	existing, err := s.db.GetHolderByHolderID(r.Context(), req.HolderId)
	if err == nil {
		writeJSON(w, http.StatusOK, holderResponse{
			HolderId: existing.HolderId, HolderType: existing.HolderType,
			Enabled: existing.Enabled, Info: existing.Info, CreatedNow: false,
		})
		return
	}

	ht, err := s.db.EnsureHolderType(r.Context(), uuid.NewString(), slug)
	if err != nil {
		writeError(w, err)
		return
	}

	h := models.Holder{Id: uuid.NewString(), HolderId: req.HolderId, Enabled: true, Info: req.Info}
	if err := s.db.CreateHolder(r.Context(), h, ht.Id); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, holderResponse{
		HolderId: h.HolderId, HolderType: ht.Slug, Enabled: h.Enabled, Info: h.Info, CreatedNow: true,
	})
}

func (s *Server) handleGetHolder(w http.ResponseWriter, r *http.Request) {
	doc := permissionsFromContext(r.Context())
	if err := doc.EnforceAccess(permission.SectionHolders); err != nil {
		writeError(w, err)
		return
	}

	holderID := r.URL.Query().Get("holder_id")
	if holderID == "" {
		writeError(w, ledgererr.ValidationFields("Validation error", map[string]string{"holder_id": "required"}))
		return
	}

	h, err := s.db.GetHolderByHolderID(r.Context(), holderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, holderResponse{
		HolderId: h.HolderId, HolderType: h.HolderType, Enabled: h.Enabled, Info: h.Info,
	})
}

func (s *Server) handleListHolders(w http.ResponseWriter, r *http.Request) {
	doc := permissionsFromContext(r.Context())
	if err := doc.EnforceAccess(permission.SectionHolders); err != nil {
		writeError(w, err)
		return
	}

	holders, err := s.db.ListHolders(r.Context(), r.URL.Query().Get("holder_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]holderResponse, 0, len(holders))
	for _, h := range holders {
		out = append(out, holderResponse{HolderId: h.HolderId, HolderType: h.HolderType, Enabled: h.Enabled, Info: h.Info})
	}
	writeJSON(w, http.StatusOK, out)
}

// --- Accounts & units --------------------------------------------------------

type accountResponse struct {
	HolderId string `json:"holder_id"`
	Unit     string `json:"unit_symbol"`
	Amount   string `json:"amount"`
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	doc := permissionsFromContext(r.Context())
	if err := doc.EnforceAccess(permission.SectionAccounts); err != nil {
		writeError(w, err)
		return
	}

	accountID := r.URL.Query().Get("checking_account_id")
	if accountID == "" {
		writeError(w, ledgererr.ValidationFields("Validation error", map[string]string{"checking_account_id": "required"}))
		return
	}

	a, err := s.db.GetCheckingAccount(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{HolderId: a.HolderId, Unit: a.Unit, Amount: decimalx.Format(a.Amount)})
}

type unitResponse struct {
	Symbol            string `json:"symbol"`
	Measurement       string `json:"measurement"`
	Precision         int32  `json:"precision"`
	IsNegativeAllowed bool   `json:"is_negative_allowed"`
}

func (s *Server) handleListUnits(w http.ResponseWriter, r *http.Request) {
	doc := permissionsFromContext(r.Context())
	if err := doc.EnforceAccess(permission.SectionUnits); err != nil {
		writeError(w, err)
		return
	}

	units, err := s.db.ListCurrencyUnits(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]unitResponse, 0, len(units))
	for _, u := range units {
		out = append(out, unitResponse{Symbol: u.Symbol, Measurement: u.Measurement, Precision: u.Precision, IsNegativeAllowed: u.IsNegativeAllowed})
	}
	writeJSON(w, http.StatusOK, out)
}

// --- Adjustments -------------------------------------------------------------

type createAdjustmentRequest struct {
	CheckingAccountId string          `json:"checking_account_id"`
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description"`
	AutoRejectTimeout *time.Duration  `json:"auto_reject_timeout,omitempty"`
}

type transactionResponse struct {
	Uuid   string `json:"uuid"`
	Status string `json:"status"`
	Amount string `json:"amount,omitempty"`
}

func (s *Server) handleCreateAdjustment(w http.ResponseWriter, r *http.Request) {
	doc := permissionsFromContext(r.Context())
	var req createAdjustmentRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := doc.EnforceCreate(permission.SectionAdjustments); err != nil {
		writeError(w, err)
		return
	}
	if err := doc.EnforceAmount(permission.SectionAdjustments, req.Amount); err != nil {
		writeError(w, err)
		return
	}

	t, err := adjustments.Create(r.Context(), s.db, adjustments.CreateParams{
		Service:           serviceFromContext(r.Context()),
		CheckingAccountId: req.CheckingAccountId,
		Amount:            req.Amount,
		Description:       req.Description,
		AutoRejectAfter:    resolveAutoRejectAfter(req.AutoRejectTimeout, s.cfg.Ledger.DefaultAutoRejectTimedelta),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionResponse{Uuid: t.Uuid, Status: string(t.Status), Amount: decimalx.Format(t.Amount)})
}

type closeTransactionRequest struct {
	Uuid              string `json:"uuid"`
	StatusDescription string `json:"status_description"`
}

func (s *Server) handleConfirmAdjustment(w http.ResponseWriter, r *http.Request) {
	s.closeAdjustment(w, r, true)
}

func (s *Server) handleRejectAdjustment(w http.ResponseWriter, r *http.Request) {
	s.closeAdjustment(w, r, false)
}

func (s *Server) closeAdjustment(w http.ResponseWriter, r *http.Request, confirm bool) {
	doc := permissionsFromContext(r.Context())
	section := permission.SectionAdjustments
	caller := serviceFromContext(r.Context())

	var err error
	if confirm {
		err = doc.EnforceConfirm(section, caller)
	} else {
		err = doc.EnforceReject(section, caller)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	var req closeTransactionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if confirm {
		err = adjustments.Confirm(r.Context(), s.db, req.Uuid, req.StatusDescription)
	} else {
		err = adjustments.Reject(r.Context(), s.db, req.Uuid, req.StatusDescription)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"uuid": req.Uuid})
}

// --- Transfers ---------------------------------------------------------------

type createTransferRequest struct {
	RuleName            string          `json:"transfer_rule"`
	FromCheckingAccount string          `json:"from_checking_account_id"`
	ToCheckingAccount   string          `json:"to_checking_account_id"`
	Amount              decimal.Decimal `json:"amount"`
	Description         string          `json:"description"`
	AutoRejectTimeout   *time.Duration  `json:"auto_reject_timeout,omitempty"`
}

func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	doc := permissionsFromContext(r.Context())
	var req createTransferRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := doc.EnforceCreate(permission.SectionTransfers); err != nil {
		writeError(w, err)
		return
	}
	if err := doc.EnforceAmount(permission.SectionTransfers, req.Amount); err != nil {
		writeError(w, err)
		return
	}

	t, err := transfers.Create(r.Context(), s.db, transfers.CreateParams{
		Service:             serviceFromContext(r.Context()),
		RuleName:            req.RuleName,
		FromCheckingAccount: req.FromCheckingAccount,
		ToCheckingAccount:   req.ToCheckingAccount,
		FromAmount:          req.Amount,
		Description:         req.Description,
		AutoRejectAfter:     resolveAutoRejectAfter(req.AutoRejectTimeout, s.cfg.Ledger.DefaultAutoRejectTimedelta),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionResponse{Uuid: t.Uuid, Status: string(t.Status), Amount: decimalx.Format(t.FromAmount)})
}

func (s *Server) handleConfirmTransfer(w http.ResponseWriter, r *http.Request) {
	s.closeTransfer(w, r, true)
}

func (s *Server) handleRejectTransfer(w http.ResponseWriter, r *http.Request) {
	s.closeTransfer(w, r, false)
}

func (s *Server) closeTransfer(w http.ResponseWriter, r *http.Request, confirm bool) {
	doc := permissionsFromContext(r.Context())
	caller := serviceFromContext(r.Context())

	var err error
	if confirm {
		err = doc.EnforceConfirm(permission.SectionTransfers, caller)
	} else {
		err = doc.EnforceReject(permission.SectionTransfers, caller)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	var req closeTransactionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if confirm {
		err = transfers.Confirm(r.Context(), s.db, req.Uuid, req.StatusDescription)
	} else {
		err = transfers.Reject(r.Context(), s.db, req.Uuid, req.StatusDescription)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"uuid": req.Uuid})
}

// --- Exchanges ----------------------------------------------------------------

type createExchangeRequest struct {
	RuleName            string          `json:"exchange_rule"`
	FromCheckingAccount string          `json:"from_checking_account_id"`
	ToCheckingAccount   string          `json:"to_checking_account_id"`
	FromAmount          decimal.Decimal `json:"from_amount"`
	Description         string          `json:"description"`
	AutoRejectTimeout   *time.Duration  `json:"auto_reject_timeout,omitempty"`
}

func (s *Server) handleCreateExchange(w http.ResponseWriter, r *http.Request) {
	doc := permissionsFromContext(r.Context())
	var req createExchangeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := doc.EnforceCreate(permission.SectionExchanges); err != nil {
		writeError(w, err)
		return
	}
	if err := doc.EnforceAmount(permission.SectionExchanges, req.FromAmount); err != nil {
		writeError(w, err)
		return
	}

	t, err := exchanges.Create(r.Context(), s.db, exchanges.CreateParams{
		Service:             serviceFromContext(r.Context()),
		RuleName:            req.RuleName,
		FromCheckingAccount: req.FromCheckingAccount,
		ToCheckingAccount:   req.ToCheckingAccount,
		FromAmount:          req.FromAmount,
		Description:         req.Description,
		AutoRejectAfter:     resolveAutoRejectAfter(req.AutoRejectTimeout, s.cfg.Ledger.DefaultAutoRejectTimedelta),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionResponse{Uuid: t.Uuid, Status: string(t.Status), Amount: decimalx.Format(t.FromAmount)})
}

func (s *Server) handleConfirmExchange(w http.ResponseWriter, r *http.Request) {
	s.closeExchange(w, r, true)
}

func (s *Server) handleRejectExchange(w http.ResponseWriter, r *http.Request) {
	s.closeExchange(w, r, false)
}

func (s *Server) closeExchange(w http.ResponseWriter, r *http.Request, confirm bool) {
	doc := permissionsFromContext(r.Context())
	caller := serviceFromContext(r.Context())

	var err error
	if confirm {
		err = doc.EnforceConfirm(permission.SectionExchanges, caller)
	} else {
		err = doc.EnforceReject(permission.SectionExchanges, caller)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	var req closeTransactionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if confirm {
		err = exchanges.Confirm(r.Context(), s.db, req.Uuid, req.StatusDescription)
	} else {
		err = exchanges.Reject(r.Context(), s.db, req.Uuid, req.StatusDescription)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"uuid": req.Uuid})
}
