package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	app "github.com/sonicpact/sonicpact/internal/app"
	"github.com/sonicpact/sonicpact/internal/app/domain/deal"
	"github.com/sonicpact/sonicpact/internal/app/domain/platform"
	"github.com/sonicpact/sonicpact/internal/app/metrics"
	dealsvc "github.com/sonicpact/sonicpact/internal/app/services/deals"
	"github.com/sonicpact/sonicpact/internal/app/storage"
)

// callerHeader carries the authenticated identity (or identities, for
// dual-consent cancellation) of the caller. Authentication itself
// happens upstream; this layer only forwards identities to the engine.
const callerHeader = "X-Caller"

// handler bundles HTTP endpoints for the escrow services.
type handler struct {
	app *app.Application
}

// NewHandler returns a router exposing the registry and deal API.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/platform", h.initializePlatform).Methods(http.MethodPost)
	r.HandleFunc("/platform", h.getPlatform).Methods(http.MethodGet)
	r.HandleFunc("/platform/fee", h.updateFee).Methods(http.MethodPut)

	r.HandleFunc("/deals", h.createDeal).Methods(http.MethodPost)
	r.HandleFunc("/deals", h.listDeals).Methods(http.MethodGet)
	r.HandleFunc("/deals/{id}", h.getDeal).Methods(http.MethodGet)
	r.HandleFunc("/deals/{id}/accept", h.acceptDeal).Methods(http.MethodPost)
	r.HandleFunc("/deals/{id}/fund", h.fundDeal).Methods(http.MethodPost)
	r.HandleFunc("/deals/{id}/complete", h.completeDeal).Methods(http.MethodPost)
	r.HandleFunc("/deals/{id}/cancel", h.cancelDeal).Methods(http.MethodPost)

	return metrics.Middleware("api", r)
}

func (h *handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- platform ---------------------------------------------------------------

func (h *handler) initializePlatform(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		FeeRateBasisPoints uint64 `json:"fee_rate_bp"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	reg, err := h.app.Platform.Initialize(r.Context(), caller(r), payload.FeeRateBasisPoints)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, platformView(reg))
}

func (h *handler) getPlatform(w http.ResponseWriter, r *http.Request) {
	reg, err := h.app.Platform.Get(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, platformView(reg))
}

func (h *handler) updateFee(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		FeeRateBasisPoints uint64 `json:"fee_rate_bp"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	reg, err := h.app.Platform.UpdateFeeRate(r.Context(), caller(r), payload.FeeRateBasisPoints)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, platformView(reg))
}

// --- deals ------------------------------------------------------------------

func (h *handler) createDeal(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Celebrity   string `json:"celebrity"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Terms       struct {
			PaymentAmount uint64 `json:"payment_amount"`
			DurationDays  uint16 `json:"duration_days"`
			UsageRights   string `json:"usage_rights"`
			Exclusivity   bool   `json:"exclusivity"`
		} `json:"terms"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	usage, err := deal.ParseUsageRights(payload.Terms.UsageRights)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := h.app.Deals.Create(r.Context(), caller(r), payload.Celebrity, deal.Terms{
		PaymentAmount: payload.Terms.PaymentAmount,
		DurationDays:  payload.Terms.DurationDays,
		UsageRights:   usage,
		Exclusivity:   payload.Terms.Exclusivity,
	}, payload.Name, payload.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dealView(created))
}

func (h *handler) listDeals(w http.ResponseWriter, r *http.Request) {
	deals, err := h.app.Deals.List(r.Context(), r.URL.Query().Get("party"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	views := make([]map[string]any, 0, len(deals))
	for _, d := range deals {
		views = append(views, dealView(d))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *handler) getDeal(w http.ResponseWriter, r *http.Request) {
	d, err := h.app.Deals.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dealView(d))
}

func (h *handler) acceptDeal(w http.ResponseWriter, r *http.Request) {
	d, err := h.app.Deals.Accept(r.Context(), mux.Vars(r)["id"], caller(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dealView(d))
}

func (h *handler) fundDeal(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Amount uint64 `json:"amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	d, err := h.app.Deals.Fund(r.Context(), mux.Vars(r)["id"], caller(r), payload.Amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dealView(d))
}

func (h *handler) completeDeal(w http.ResponseWriter, r *http.Request) {
	d, err := h.app.Deals.Complete(r.Context(), mux.Vars(r)["id"], caller(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dealView(d))
}

func (h *handler) cancelDeal(w http.ResponseWriter, r *http.Request) {
	d, err := h.app.Deals.Cancel(r.Context(), mux.Vars(r)["id"], consent(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dealView(d))
}

// --- helpers ----------------------------------------------------------------

// caller returns the first identity in the caller header.
func caller(r *http.Request) string {
	ids := consent(r)
	if len(ids) == 0 {
		return ""
	}
	return ids[0]
}

// consent returns every identity in the caller header. Dual consent is
// two identities in the same request.
func consent(r *http.Request) deal.Consent {
	parts := strings.Split(r.Header.Get(callerHeader), ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		ids = append(ids, strings.TrimSpace(p))
	}
	return deal.NewConsent(ids...)
}

func platformView(reg platform.Registry) map[string]any {
	return map[string]any{
		"id":          reg.ID,
		"authority":   reg.Authority,
		"fee_rate_bp": reg.FeeRateBasisPoints,
		"total_deals": reg.TotalDeals,
		"created_at":  reg.CreatedAt,
		"updated_at":  reg.UpdatedAt,
	}
}

func dealView(d deal.Deal) map[string]any {
	return map[string]any{
		"id":            d.ID,
		"studio":        d.Studio,
		"celebrity":     d.Celebrity,
		"platform":      d.Platform,
		"name":          d.Name,
		"description":   d.Description,
		"status":        string(d.Status),
		"funded_amount": d.FundedAmount,
		"terms": map[string]any{
			"payment_amount": d.Terms.PaymentAmount,
			"duration_days":  d.Terms.DurationDays,
			"usage_rights":   string(d.Terms.UsageRights),
			"exclusivity":    d.Terms.Exclusivity,
		},
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}
}

func decodeJSON(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeDomainError maps engine errors to HTTP statuses deterministically.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, deal.ErrInvalidDealStatus),
		errors.Is(err, platform.ErrAlreadyInitialized),
		errors.Is(err, storage.ErrConflict):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, platform.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, platform.ErrFeeTooHigh),
		errors.Is(err, deal.ErrNameTooLong),
		errors.Is(err, deal.ErrDescriptionTooLong):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, dealsvc.ErrLedgerTransfer):
		writeError(w, http.StatusBadGateway, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
