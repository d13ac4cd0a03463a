package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"freelance-escrow-go/internal/escrow"
	"freelance-escrow-go/internal/models"
)

// Handler exposes the escrow engine over HTTP. Mutating routes authenticate
// the caller from a bearer token and are rate limited per caller.
type Handler struct {
	ledger    *escrow.Ledger
	resolver  *escrow.DisputeResolver
	auth      *Authenticator
	limiter   *RateLimiter
	rateLimit int
	logger    *log.Logger
}

// NewHandler wires the handler over the engine components.
func NewHandler(ledger *escrow.Ledger, resolver *escrow.DisputeResolver, auth *Authenticator, rateLimit int, logger *log.Logger) *Handler {
	return &Handler{
		ledger:    ledger,
		resolver:  resolver,
		auth:      auth,
		limiter:   NewRateLimiter(),
		rateLimit: rateLimit,
		logger:    logger,
	}
}

// Routes registers all endpoints on the router.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/users", h.RegisterUser).Methods("POST")
	r.HandleFunc("/users/me/profile", h.UpdateProfile).Methods("PUT")
	r.HandleFunc("/users/{address}", h.GetUserProfile).Methods("GET")

	r.HandleFunc("/jobs", h.CreateJob).Methods("POST")
	r.HandleFunc("/jobs", h.ListJobs).Methods("GET")
	r.HandleFunc("/jobs/{id}", h.GetJob).Methods("GET")
	r.HandleFunc("/jobs/{id}/bids", h.PlaceBid).Methods("POST")
	r.HandleFunc("/jobs/{id}/bids", h.ListBids).Methods("GET")
	r.HandleFunc("/jobs/{id}/bids/refund", h.RefundBid).Methods("POST")
	r.HandleFunc("/jobs/{id}/select", h.SelectFreelancer).Methods("POST")
	r.HandleFunc("/jobs/{id}/submit", h.SubmitWork).Methods("POST")
	r.HandleFunc("/jobs/{id}/approve", h.ApproveWork).Methods("POST")
	r.HandleFunc("/jobs/{id}/dispute", h.RaiseDispute).Methods("POST")
	r.HandleFunc("/jobs/{id}/cancel", h.CancelJob).Methods("POST")
	r.HandleFunc("/jobs/{id}/resolve", h.ResolveDispute).Methods("POST")
	r.HandleFunc("/jobs/{id}/events", h.JobEvents).Methods("GET")

	r.HandleFunc("/events", h.Events).Methods("GET")
}

/* -------------------------------------------------------------------------- */
/*                                   Users                                    */
/* -------------------------------------------------------------------------- */

// POST /users
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	user, err := h.ledger.RegisterUser(caller)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, user)
}

// GET /users/{address}
func (h *Handler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	addr := models.Address(mux.Vars(r)["address"])
	user, err := h.ledger.GetFullUserProfile(addr)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

// PUT /users/me/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var input struct {
		ProfileCID string `json:"profile_cid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	user, err := h.ledger.UpdateProfile(caller, input.ProfileCID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

/* -------------------------------------------------------------------------- */
/*                                    Jobs                                    */
/* -------------------------------------------------------------------------- */

// POST /jobs
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var input struct {
		Title   string          `json:"title"`
		Budget  decimal.Decimal `json:"budget"`
		SpecCID string          `json:"spec_cid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	job, err := h.ledger.CreateJob(caller, input.Title, input.Budget, input.SpecCID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, job)
}

// GET /jobs        -> open jobs
// GET /jobs?ids=1,2,3 -> batch lookup
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("ids"); raw != "" {
		var ids []uint64
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
			if err != nil {
				http.Error(w, "invalid ids parameter", http.StatusBadRequest)
				return
			}
			ids = append(ids, id)
		}
		jobs, err := h.ledger.GetJobsByIds(ids)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, jobs)
		return
	}

	h.writeJSON(w, http.StatusOK, h.ledger.ListOpenJobs())
}

// GET /jobs/{id}
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}
	job, err := h.ledger.GetJob(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

/* -------------------------------------------------------------------------- */
/*                                  Lifecycle                                 */
/* -------------------------------------------------------------------------- */

// POST /jobs/{id}/bids
func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	var input struct {
		Amount  decimal.Decimal `json:"amount"`
		Message string          `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	bid, err := h.ledger.PlaceBid(caller, id, input.Amount, input.Message)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, bid)
}

// GET /jobs/{id}/bids
func (h *Handler) ListBids(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}
	bids, err := h.ledger.ListBids(id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, bids)
}

// POST /jobs/{id}/bids/refund
func (h *Handler) RefundBid(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	bid, err := h.ledger.RefundBid(caller, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, bid)
}

// POST /jobs/{id}/select
func (h *Handler) SelectFreelancer(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	var input struct {
		Freelancer models.Address  `json:"freelancer"`
		Paid       decimal.Decimal `json:"paid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	job, err := h.ledger.SelectFreelancer(caller, id, input.Freelancer, input.Paid)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

// POST /jobs/{id}/submit
func (h *Handler) SubmitWork(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	var input struct {
		SubmissionCID string `json:"submission_cid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	job, err := h.ledger.SubmitWork(caller, id, input.SubmissionCID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

// POST /jobs/{id}/approve
func (h *Handler) ApproveWork(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	job, err := h.ledger.ApproveWork(caller, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

// POST /jobs/{id}/dispute
func (h *Handler) RaiseDispute(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	job, err := h.ledger.RaiseDispute(caller, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

// POST /jobs/{id}/cancel
func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	job, err := h.ledger.CancelJob(caller, id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

// POST /jobs/{id}/resolve
func (h *Handler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	var input struct {
		ReleaseToFreelancer bool `json:"release_to_freelancer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	job, err := h.resolver.Resolve(caller, id, input.ReleaseToFreelancer)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, job)
}

/* -------------------------------------------------------------------------- */
/*                                   Events                                   */
/* -------------------------------------------------------------------------- */

// GET /events
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.ledger.Events())
}

// GET /jobs/{id}/events
func (h *Handler) JobEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, h.ledger.JobEvents(id))
}

/* -------------------------------------------------------------------------- */
/*                                  Helpers                                   */
/* -------------------------------------------------------------------------- */

// caller authenticates the request and applies the per-caller rate limit,
// writing the response itself on failure.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (models.Address, bool) {
	addr, err := h.auth.CallerFromRequest(r)
	if err != nil {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return "", false
	}
	if !h.limiter.Allow(string(addr), h.rateLimit) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return "", false
	}
	return addr, true
}

func (h *Handler) jobID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid job ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Printf("failed to encode response: %v", err)
	}
}

// writeError maps engine errors to HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, escrow.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, escrow.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, escrow.ErrInvalidState),
		errors.Is(err, escrow.ErrAlreadyRegistered),
		errors.Is(err, escrow.ErrAlreadySelected):
		status = http.StatusConflict
	case errors.Is(err, escrow.ErrInsufficientFunds):
		status = http.StatusBadRequest
	case errors.Is(err, escrow.ErrTransferFailed):
		status = http.StatusBadGateway
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
