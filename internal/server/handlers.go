package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/ledgermint/saffron/internal/common"
	"github.com/ledgermint/saffron/internal/model"
	"github.com/ledgermint/saffron/internal/normalize"
)

// errorResponse is the JSON body for failed requests. Retryable marks
// storage failures the client may safely retry.
type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps the engine's error taxonomy onto HTTP statuses:
// not_found becomes 404, everything else is treated as a retryable
// storage failure.
func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, common.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, errorResponse{
		Error:     "storage unavailable",
		Retryable: true,
	})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	transactionID := mux.Vars(r)["id"]

	suggestions, err := s.suggester.Suggest(r.Context(), transactionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, suggestions)
}

type setCategoryRequest struct {
	Category string `json:"category"`
}

func (s *Server) handleSetCategory(w http.ResponseWriter, r *http.Request) {
	transactionID := mux.Vars(r)["id"]

	var req setCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Category) == "" {
		writeBadRequest(w, "category is required")
		return
	}

	if err := s.store.SetTransactionCategory(r.Context(), transactionID, req.Category); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

type feedbackRequest struct {
	TransactionID string `json:"transaction_id"`
	Merchant      string `json:"merchant"`
	Category      string `json:"category"`
	Action        string `json:"action"`
}

// handleFeedback acknowledges feedback with 202 even when recording
// fails internally: feedback must never surface as a failure of the
// user's primary categorization action. Only malformed requests are
// rejected.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.TransactionID) == "" ||
		strings.TrimSpace(req.Merchant) == "" ||
		strings.TrimSpace(req.Category) == "" {
		writeBadRequest(w, "transaction_id, merchant, and category are required")
		return
	}

	action := model.FeedbackAction(req.Action)
	if !action.Valid() {
		writeBadRequest(w, "action must be accept or reject")
		return
	}

	if err := s.recorder.Record(r.Context(), req.TransactionID, req.Merchant, req.Category, action); err != nil {
		common.LogError(err, "feedback recording failed", common.Fields{
			"transaction_id": req.TransactionID,
			"merchant":       req.Merchant,
			"category":       req.Category,
		})
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	transactionID := mux.Vars(r)["id"]

	events, err := s.store.GetFeedbackEvents(r.Context(), transactionID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(events))
	for _, event := range events {
		out = append(out, map[string]any{
			"id":         event.ID,
			"merchant":   event.Merchant,
			"category":   event.Category,
			"action":     string(event.Action),
			"created_at": event.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePromotions(w http.ResponseWriter, r *http.Request) {
	dryRun := r.URL.Query().Get("dry_run") == "true"

	summary, err := s.promoter.Run(r.Context(), dryRun)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListHints(w http.ResponseWriter, r *http.Request) {
	hints, err := s.store.GetAllHints(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hintsToDTO(hints))
}

type hintRequest struct {
	Merchant   string   `json:"merchant"`
	Category   string   `json:"category"`
	Confidence *float64 `json:"confidence,omitempty"`
}

type hintResponse struct {
	Merchant   string   `json:"merchant"`
	Category   string   `json:"category"`
	Source     string   `json:"source"`
	Confidence *float64 `json:"confidence,omitempty"`
	UseCount   int      `json:"use_count"`
}

func hintsToDTO(hints []model.Hint) []hintResponse {
	out := make([]hintResponse, 0, len(hints))
	for _, h := range hints {
		out = append(out, hintResponse{
			Merchant:   h.Merchant,
			Category:   h.Category,
			Source:     string(h.Source),
			Confidence: h.Confidence,
			UseCount:   h.UseCount,
		})
	}
	return out
}

func (s *Server) handleCreateHint(w http.ResponseWriter, r *http.Request) {
	var req hintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Merchant) == "" || strings.TrimSpace(req.Category) == "" {
		writeBadRequest(w, "merchant and category are required")
		return
	}

	hint := &model.Hint{
		Merchant:   normalize.Merchant(req.Merchant),
		Category:   req.Category,
		Source:     model.SourceUser,
		Confidence: req.Confidence,
	}

	if err := s.store.SaveHint(r.Context(), hint); err != nil {
		if errors.Is(err, common.ErrUnknownCategory) {
			writeBadRequest(w, err.Error())
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, hintResponse{
		Merchant:   hint.Merchant,
		Category:   hint.Category,
		Source:     string(hint.Source),
		Confidence: hint.Confidence,
	})
}

func (s *Server) handleDeleteHint(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	err := s.store.DeleteHint(r.Context(), vars["merchant"], vars["category"])
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.store.GetAllRules(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if rules == nil {
		rules = []model.Rule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

type ruleRequest struct {
	Name     string `json:"name"`
	Pattern  string `json:"pattern"`
	Target   string `json:"target"`
	Category string `json:"category"`
	Priority int    `json:"priority"`
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Pattern) == "" || strings.TrimSpace(req.Category) == "" {
		writeBadRequest(w, "pattern and category are required")
		return
	}

	target := model.RuleTarget(req.Target)
	if req.Target == "" {
		target = model.TargetMerchant
	}
	if target != model.TargetMerchant && target != model.TargetDescription {
		writeBadRequest(w, "target must be merchant or description")
		return
	}

	// A bad pattern is stored but skipped during matching; tell the
	// author now rather than silently never matching.
	if err := common.ValidatePattern(req.Pattern); err != nil {
		slog.Warn("rule created with non-compiling pattern",
			"pattern", req.Pattern,
			"error", err)
	}

	rule := &model.Rule{
		Name:     req.Name,
		Pattern:  req.Pattern,
		Target:   target,
		Category: req.Category,
		Priority: req.Priority,
		IsActive: true,
	}

	if err := s.store.CreateRule(r.Context(), rule); err != nil {
		if errors.Is(err, common.ErrUnknownCategory) {
			writeBadRequest(w, err.Error())
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleDeactivateRule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeBadRequest(w, "invalid rule ID")
		return
	}

	if err := s.store.DeactivateRule(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.GetCategories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	writeJSON(w, http.StatusOK, names)
}
