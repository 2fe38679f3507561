// Package api exposes the service over HTTP: registration, metered
// feature requests, usage and account endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ahmedtohamy-16/footygateway/internal/cache"
	"github.com/ahmedtohamy-16/footygateway/internal/database"
	"github.com/ahmedtohamy-16/footygateway/internal/gateway"
	"github.com/ahmedtohamy-16/footygateway/internal/ledger"
	"github.com/ahmedtohamy-16/footygateway/internal/models"
	"github.com/ahmedtohamy-16/footygateway/internal/ratelimit"
)

const defaultListLimit = 50

// Handlers owns the request handlers and their dependencies.
type Handlers struct {
	ledger  *ledger.Ledger
	gateway *gateway.Gateway
	limiter *ratelimit.Limiter
	db      *database.DB
	logger  *zap.Logger
}

func NewHandlers(l *ledger.Ledger, gw *gateway.Gateway, limiter *ratelimit.Limiter, db *database.DB, logger *zap.Logger) *Handlers {
	return &Handlers{
		ledger:  l,
		gateway: gw,
		limiter: limiter,
		db:      db,
		logger:  logger,
	}
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]string{"error": message})
}

type registerRequest struct {
	TelegramID   int64  `json:"telegram_id"`
	Username     string `json:"username"`
	ReferralCode string `json:"referral_code,omitempty"`
}

type registerResponse struct {
	User     *models.User           `json:"user"`
	Created  bool                   `json:"created"`
	Referral *models.ReferralResult `json:"referral,omitempty"`
}

// RegisterHandler creates an account, idempotently, and applies an
// optional referral code on first registration.
func (h *Handlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TelegramID <= 0 {
		respondWithError(w, http.StatusBadRequest, "telegram_id is required")
		return
	}

	user, created, referral, err := h.ledger.Register(r.Context(), req.TelegramID, req.Username, req.ReferralCode)
	if err != nil {
		h.logger.Error("registration failed", zap.Int64("telegram_id", req.TelegramID), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondWithJSON(w, status, registerResponse{User: user, Created: created, Referral: referral})
}

type featureRequest struct {
	TelegramID int64             `json:"telegram_id"`
	Feature    string            `json:"feature"`
	Params     map[string]string `json:"params,omitempty"`
}

type featureResponse struct {
	Data      json.RawMessage  `json:"data"`
	CacheHit  bool             `json:"cache_hit"`
	Pool      models.PointPool `json:"pool"`
	Remaining int              `json:"remaining_points"`
	Warning   string           `json:"warning,omitempty"`
}

// FeatureHandler runs the full metered pipeline: resolve user, charge
// one point, fetch through the gateway, audit the request. Points are
// not refunded when the upstream fails, the ledger records what the
// user asked for, not what the upstream delivered.
func (h *Handlers) FeatureHandler(w http.ResponseWriter, r *http.Request) {
	var req featureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	gwReq, err := buildRequest(req.Feature, req.Params, time.Now())
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.ledger.GetUser(r.Context(), req.TelegramID)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "user not registered")
			return
		}
		h.logger.Error("user lookup failed", zap.Int64("telegram_id", req.TelegramID), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "user lookup failed")
		return
	}

	// Finished fixtures never change. Once cached they are served free,
	// no point charged, no upstream quota spent.
	if gwReq.Category == cache.CategoryFinished {
		if payload, hit := h.gateway.Lookup(r.Context(), gwReq); hit {
			h.auditRequest(r.Context(), user.ID, req.Feature, gwReq, models.PoolNone, true, 0, models.OutcomeOK)
			respondWithJSON(w, http.StatusOK, featureResponse{
				Data:      payload,
				CacheHit:  true,
				Pool:      models.PoolNone,
				Remaining: user.TotalPoints(),
			})
			return
		}
	}

	deduction, err := h.ledger.DeductPoint(r.Context(), user.ID, req.Feature)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrInsufficientPoints):
			h.auditRequest(r.Context(), user.ID, req.Feature, gwReq, models.PoolNone, false, 0, models.OutcomeNoPoints)
			respondWithError(w, http.StatusPaymentRequired, "no points remaining")
		case errors.Is(err, database.ErrUserInactive):
			respondWithError(w, http.StatusForbidden, "account is deactivated")
		default:
			h.logger.Error("point deduction failed", zap.Int64("user_id", user.ID), zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "point deduction failed")
		}
		return
	}

	start := time.Now()
	result, err := h.gateway.Fetch(r.Context(), gwReq)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		outcome, status, msg := classifyFetchError(err)
		h.auditRequest(r.Context(), user.ID, req.Feature, gwReq, deduction.PoolUsed, false, latency, outcome)

		if outcome == models.OutcomeQuotaExceeded {
			var quotaErr *ratelimit.QuotaExceededError
			if errors.As(err, &quotaErr) {
				w.Header().Set("Retry-After", strconv.Itoa(int(quotaErr.RetryAfter.Seconds()+1)))
			}
		}
		respondWithError(w, status, msg)
		return
	}

	h.auditRequest(r.Context(), user.ID, req.Feature, gwReq, deduction.PoolUsed, result.CacheHit, latency, models.OutcomeOK)

	resp := featureResponse{
		Data:      result.Payload,
		CacheHit:  result.CacheHit,
		Pool:      deduction.PoolUsed,
		Remaining: deduction.RemainingFree + deduction.RemainingPremium,
	}
	if deduction.ShowPremiumWarning {
		resp.Warning = "free points exhausted, now spending premium points"
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func classifyFetchError(err error) (models.RequestOutcome, int, string) {
	var quotaErr *ratelimit.QuotaExceededError
	if errors.As(err, &quotaErr) {
		return models.OutcomeQuotaExceeded, http.StatusTooManyRequests, "upstream plan ceiling reached, retry later"
	}
	if errors.Is(err, gateway.ErrUpstreamUnavailable) {
		return models.OutcomeUpstreamUnavailable, http.StatusServiceUnavailable, "football data provider unavailable"
	}
	return models.OutcomeUpstreamFatal, http.StatusBadGateway, "football data provider rejected the request"
}

func (h *Handlers) auditRequest(ctx context.Context, userID int64, feature string, gwReq gateway.Request, pool models.PointPool, cacheHit bool, latencyMS int64, outcome models.RequestOutcome) {
	entry := &models.RequestLog{
		UserID:    userID,
		Feature:   feature,
		Endpoint:  gwReq.Spec.Endpoint,
		Pool:      pool,
		CacheHit:  cacheHit,
		LatencyMS: latencyMS,
		Outcome:   outcome,
	}
	if err := h.db.InsertRequestLog(ctx, entry); err != nil {
		h.logger.Error("failed to audit request", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// UsageHandler reports the remaining upstream budget in both windows.
func (h *Handlers) UsageHandler(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, h.limiter.Usage())
}

func (h *Handlers) userIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}

// UserHandler returns an account by internal id.
func (h *Handlers) UserHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userIDFromPath(w, r)
	if !ok {
		return
	}

	user, err := h.db.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "user not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "user lookup failed")
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

type referralsResponse struct {
	Stats     *models.ReferralStats `json:"stats"`
	Referrals []*models.Referral    `json:"referrals"`
}

// ReferralStatsHandler returns a user's referral aggregate together
// with the individual referral records, newest first.
func (h *Handlers) ReferralStatsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userIDFromPath(w, r)
	if !ok {
		return
	}

	stats, err := h.ledger.ReferralStats(r.Context(), id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load referral stats")
		return
	}

	referrals, err := h.ledger.Referrals(r.Context(), id, defaultListLimit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load referrals")
		return
	}
	if referrals == nil {
		referrals = []*models.Referral{}
	}

	respondWithJSON(w, http.StatusOK, referralsResponse{Stats: stats, Referrals: referrals})
}

// TransactionsHandler returns a user's points audit trail.
func (h *Handlers) TransactionsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userIDFromPath(w, r)
	if !ok {
		return
	}

	transactions, err := h.ledger.Transactions(r.Context(), id, defaultListLimit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}
	if transactions == nil {
		transactions = []*models.Transaction{}
	}

	respondWithJSON(w, http.StatusOK, transactions)
}

// RequestLogsHandler returns a user's recent metered requests.
func (h *Handlers) RequestLogsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userIDFromPath(w, r)
	if !ok {
		return
	}

	logs, err := h.db.ListRequestLogsByUser(r.Context(), id, defaultListLimit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load request logs")
		return
	}
	if logs == nil {
		logs = []*models.RequestLog{}
	}

	respondWithJSON(w, http.StatusOK, logs)
}

// DeactivateHandler soft-deletes an account.
func (h *Handlers) DeactivateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.ledger.Deactivate(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "user not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "deactivation failed")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// HealthHandler reports process and database health.
func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Health(r.Context()); err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
