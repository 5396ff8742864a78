package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/audit"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/compare"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/export"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/extract"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/store"
)

func projectID(r *http.Request) string {
	return chi.URLParam(r, "projectID")
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req compare.CreateRequest
	if !readJSON(w, r, &req) {
		return
	}
	a, err := s.svc.Create(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

type uploadRequest struct {
	Documents     []extract.Document `json:"documents" validate:"required,min=1,dive"`
	ApplyPlaybook bool               `json:"applyPlaybook"`
}

func (s *Server) uploadDocuments(w http.ResponseWriter, r *http.Request) {
	if s.extractor == nil {
		writeError(w, http.StatusNotImplemented, "extraction_disabled", "document extraction is not configured")
		return
	}
	var req uploadRequest
	if !readJSON(w, r, &req) {
		return
	}

	proposals, err := s.extractor.ExtractAll(r.Context(), req.Documents)
	if err != nil {
		writeError(w, http.StatusBadGateway, "extraction_failed", err.Error())
		return
	}
	texts := make(map[string]string, len(req.Documents))
	for _, d := range req.Documents {
		texts[d.ID] = d.Text
	}

	a, err := s.svc.Create(r.Context(), compare.CreateRequest{
		ProjectID:     projectID(r),
		Proposals:     proposals,
		DocumentTexts: texts,
		ApplyPlaybook: req.ApplyPlaybook,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) latest(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Latest(r.Context(), projectID(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) auditLog(w http.ResponseWriter, r *http.Request) {
	events, err := s.svc.AuditLog(r.Context(), projectID(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	if events == nil {
		events = []model.CellAuditEvent{}
	}
	writeJSON(w, http.StatusOK, map[string][]model.CellAuditEvent{"events": events})
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Latest(r.Context(), projectID(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s-v%d.xlsx"`, model.Slug(a.ProjectID), a.Version))
	if err := export.Write(w, a.Table, export.Options{Hidden: a.HiddenRows, Toggles: a.DiscountToggles}); err != nil {
		zap.L().Error("api: export", zap.String("project_id", a.ProjectID), zap.Error(err))
	}
}

type editCellRequest struct {
	model.CellRef
	audit.Edit
	UserID string `json:"userId" validate:"required"`
}

func (s *Server) editCell(w http.ResponseWriter, r *http.Request) {
	var req editCellRequest
	if !readJSON(w, r, &req) {
		return
	}
	a, err := s.svc.EditCell(r.Context(), projectID(r), req.CellRef, req.Edit, req.UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type discountRequest struct {
	Vendor  string `json:"vendor" validate:"required"`
	RowID   string `json:"rowId" validate:"required"`
	Enabled *bool  `json:"enabled" validate:"required"`
}

func (s *Server) setDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if !readJSON(w, r, &req) {
		return
	}
	a, err := s.svc.SetDiscount(r.Context(), projectID(r), req.Vendor, req.RowID, *req.Enabled)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type hiddenRequest struct {
	RowID  string `json:"rowId" validate:"required"`
	Hidden bool   `json:"hidden"`
}

func (s *Server) setHidden(w http.ResponseWriter, r *http.Request) {
	var req hiddenRequest
	if !readJSON(w, r, &req) {
		return
	}
	a, err := s.svc.SetRowHidden(r.Context(), projectID(r), req.RowID, req.Hidden)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type headcountRequest struct {
	Headcount float64 `json:"headcount" validate:"gt=0"`
}

func (s *Server) setHeadcount(w http.ResponseWriter, r *http.Request) {
	var req headcountRequest
	if !readJSON(w, r, &req) {
		return
	}
	a, err := s.svc.SetHeadcount(r.Context(), projectID(r), req.Headcount)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type projectPlaybookResponse struct {
	Analysis *model.Analysis `json:"analysis"`
	Modified int             `json:"modified"`
}

func (s *Server) applyProjectPlaybook(w http.ResponseWriter, r *http.Request) {
	a, modified, err := s.svc.ApplyPlaybook(r.Context(), projectID(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectPlaybookResponse{Analysis: a, Modified: modified})
}

func (s *Server) listRules(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rules, err := s.svc.Rules(r.Context(), store.RuleFilter{
		Vendor:          q.Get("vendor"),
		IncludeDisabled: q.Get("all") == "true",
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	if rules == nil {
		rules = []model.PlaybookRule{}
	}
	writeJSON(w, http.StatusOK, map[string][]model.PlaybookRule{"rules": rules})
}

func (s *Server) saveRule(w http.ResponseWriter, r *http.Request) {
	var rule model.PlaybookRule
	// Validation happens in the service after defaults are filled.
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := decodeBody(r, &rule); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	saved, err := s.svc.SaveRule(r.Context(), rule)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
