package api

import (
	"net/http"
	"time"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/audit"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/playbook"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/recalc"
)

// Stateless engine endpoints. They take a table and return a new one.

type recalculateRequest struct {
	Table           *model.ComparisonTable `json:"table" validate:"required"`
	DiscountToggles model.DiscountToggles  `json:"discountToggles"`
	HiddenRows      model.HiddenRows       `json:"hiddenRows"`
}

func (s *Server) recalculate(w http.ResponseWriter, r *http.Request) {
	var req recalculateRequest
	if !readJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, recalc.Recalculate(req.Table, req.DiscountToggles, req.HiddenRows))
}

type rescaleRequest struct {
	Table     *model.ComparisonTable `json:"table" validate:"required"`
	Headcount float64                `json:"headcount" validate:"gt=0"`
}

func (s *Server) rescale(w http.ResponseWriter, r *http.Request) {
	var req rescaleRequest
	if !readJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, recalc.Rescale(req.Table, req.Headcount))
}

type applyRulesRequest struct {
	Table *model.ComparisonTable `json:"table" validate:"required"`
	Rules []model.PlaybookRule   `json:"rules"`
}

type applyRulesResponse struct {
	Table    *model.ComparisonTable `json:"table"`
	Modified int                    `json:"modified"`
}

func (s *Server) applyPlaybookRules(w http.ResponseWriter, r *http.Request) {
	var req applyRulesRequest
	if !readJSON(w, r, &req) {
		return
	}
	table, modified := playbook.ApplyRules(req.Table, req.Rules)
	writeJSON(w, http.StatusOK, applyRulesResponse{Table: table, Modified: modified})
}

type matchRequest struct {
	// Malformed rules simply do not match.
	Rule    model.PlaybookRule `json:"rule" validate:"-"`
	Context model.CellContext  `json:"context"`
}

func (s *Server) matchCondition(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if !readJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{
		"matches": playbook.MatchesCondition(req.Rule, req.Context),
	})
}

type offsetsRequest struct {
	FullText string `json:"fullText"`
	Snippet  string `json:"snippet"`
}

type offsetsResponse struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (s *Server) findOffsets(w http.ResponseWriter, r *http.Request) {
	var req offsetsRequest
	if !readJSON(w, r, &req) {
		return
	}
	start, end := audit.FindCharOffsets(req.FullText, req.Snippet)
	writeJSON(w, http.StatusOK, offsetsResponse{Start: start, End: end})
}

type auditLogRequest struct {
	Table *model.ComparisonTable `json:"table" validate:"required"`
}

func (s *Server) initialAuditLog(w http.ResponseWriter, r *http.Request) {
	var req auditLogRequest
	if !readJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]model.CellAuditEvent{
		"events": audit.BuildInitialAuditLog(req.Table, time.Now().UTC()),
	})
}
