// Package compare runs project level operations on comparison analyses:
// every change loads the latest version, applies the edit, recalculates and
// saves the next version with its audit events.
package compare

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/audit"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/playbook"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/recalc"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/store"
)

// ErrInvalidInput is returned for requests that do not fit the analysis.
var ErrInvalidInput = eris.New("compare: invalid input")

// CreateRequest describes a new analysis built from extracted proposals.
type CreateRequest struct {
	ProjectID string                 `json:"projectId" validate:"required"`
	Proposals []model.ParsedProposal `json:"proposals" validate:"required,min=1"`
	// DocumentTexts maps document id to the document's extracted text.
	DocumentTexts map[string]string `json:"documentTexts,omitempty"`
	ApplyPlaybook bool              `json:"applyPlaybook,omitempty"`
}

// Service orchestrates the engines over a store.
type Service struct {
	store store.Store
	now   func() time.Time
}

// NewService creates a Service backed by st.
func NewService(st store.Store) *Service {
	return &Service{store: st, now: func() time.Time { return time.Now().UTC() }}
}

// Create builds, annotates and saves the first version of an analysis.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.Analysis, error) {
	if req.ProjectID == "" || len(req.Proposals) == 0 {
		return nil, eris.Wrap(ErrInvalidInput, "project id and proposals are required")
	}
	log := zap.L().With(zap.String("project_id", req.ProjectID))

	table := BuildTable(req.Proposals)
	audit.AugmentAuditData(table, req.Proposals)
	if len(req.DocumentTexts) > 0 {
		located := audit.AugmentWithDocumentText(table, req.DocumentTexts)
		log.Debug("compare: located source excerpts", zap.Int("located", located))
	}
	events := audit.BuildInitialAuditLog(table, s.now())
	table.AuditLog = append(table.AuditLog, events...)

	if req.ApplyPlaybook {
		rules, err := s.store.ListRules(ctx, store.RuleFilter{})
		if err != nil {
			return nil, eris.Wrap(err, "compare: list rules")
		}
		var modified int
		table, modified = playbook.ApplyRules(table, rules)
		log.Info("compare: applied playbook", zap.Int("rules", len(rules)), zap.Int("modified", modified))
	}

	a := &model.Analysis{
		ProjectID:       req.ProjectID,
		Table:           recalc.Recalculate(table, nil, nil),
		DiscountToggles: model.DiscountToggles{},
		HiddenRows:      model.HiddenRows{},
	}
	if err := s.save(ctx, a, events); err != nil {
		return nil, err
	}
	log.Info("compare: created analysis",
		zap.Int("version", a.Version),
		zap.Int("vendors", len(a.Table.Vendors)),
		zap.Int("events", len(events)),
	)
	return a, nil
}

// Latest returns the newest version of the project's analysis.
func (s *Service) Latest(ctx context.Context, projectID string) (*model.Analysis, error) {
	a, err := s.store.LatestAnalysis(ctx, projectID)
	if err != nil {
		return nil, eris.Wrapf(err, "compare: latest analysis of %s", projectID)
	}
	return a, nil
}

// AuditLog returns the project's append-only event log.
func (s *Service) AuditLog(ctx context.Context, projectID string) ([]model.CellAuditEvent, error) {
	events, err := s.store.ListAuditEvents(ctx, projectID)
	return events, eris.Wrapf(err, "compare: audit log of %s", projectID)
}

// EditCell applies a manual override to one data cell.
func (s *Service) EditCell(ctx context.Context, projectID string, ref model.CellRef, edit audit.Edit, userID string) (*model.Analysis, error) {
	return s.update(ctx, projectID, "edit_cell", func(a *model.Analysis) ([]model.CellAuditEvent, error) {
		table, event, err := audit.ApplyOverride(a.Table, ref, edit, userID, s.now())
		if err != nil {
			return nil, err
		}
		a.Table = table
		return []model.CellAuditEvent{event}, nil
	})
}

// SetDiscount enables or disables one discount row for one vendor.
func (s *Service) SetDiscount(ctx context.Context, projectID, vendor, rowID string, enabled bool) (*model.Analysis, error) {
	return s.update(ctx, projectID, "set_discount", func(a *model.Analysis) ([]model.CellAuditEvent, error) {
		if a.Table.VendorIndex(vendor) < 0 {
			return nil, eris.Wrapf(ErrInvalidInput, "unknown vendor %q", vendor)
		}
		si, _, ok := a.Table.Locate(rowID)
		if !ok || !a.Table.Sections[si].IsDiscounts() {
			return nil, eris.Wrapf(ErrInvalidInput, "%q is not a discount row", rowID)
		}
		a.DiscountToggles = a.DiscountToggles.With(vendor, rowID, enabled)
		return nil, nil
	})
}

// SetRowHidden hides or shows a data row.
func (s *Service) SetRowHidden(ctx context.Context, projectID, rowID string, hidden bool) (*model.Analysis, error) {
	return s.update(ctx, projectID, "set_row_hidden", func(a *model.Analysis) ([]model.CellAuditEvent, error) {
		si, ri, ok := a.Table.Locate(rowID)
		if !ok {
			return nil, eris.Wrapf(ErrInvalidInput, "unknown row %q", rowID)
		}
		if section := a.Table.Sections[si]; section.IsComputed(section.Rows[ri]) {
			return nil, eris.Wrapf(ErrInvalidInput, "row %q is computed", rowID)
		}
		a.HiddenRows = a.HiddenRows.With(rowID, hidden)
		return nil, nil
	})
}

// SetHeadcount rescales the recurring fees to a new headcount.
func (s *Service) SetHeadcount(ctx context.Context, projectID string, headcount float64) (*model.Analysis, error) {
	if headcount <= 0 {
		return nil, eris.Wrapf(ErrInvalidInput, "headcount must be positive, got %v", headcount)
	}
	return s.update(ctx, projectID, "set_headcount", func(a *model.Analysis) ([]model.CellAuditEvent, error) {
		a.Table = recalc.Rescale(a.Table, headcount)
		return nil, nil
	})
}

// ApplyPlaybook runs the enabled rules over the latest version. A new
// version is saved only when a cell changed.
func (s *Service) ApplyPlaybook(ctx context.Context, projectID string) (*model.Analysis, int, error) {
	rules, err := s.store.ListRules(ctx, store.RuleFilter{})
	if err != nil {
		return nil, 0, eris.Wrap(err, "compare: list rules")
	}

	latest, err := s.Latest(ctx, projectID)
	if err != nil {
		return nil, 0, err
	}
	table, modified := playbook.ApplyRules(latest.Table, rules)
	zap.L().Info("compare: applied playbook",
		zap.String("project_id", projectID),
		zap.Int("rules", len(rules)),
		zap.Int("modified", modified),
	)
	if modified == 0 {
		return latest, 0, nil
	}

	next := &model.Analysis{
		ProjectID:       projectID,
		Table:           recalc.Recalculate(table, latest.DiscountToggles, latest.HiddenRows),
		DiscountToggles: latest.DiscountToggles,
		HiddenRows:      latest.HiddenRows,
	}
	if err := s.save(ctx, next, nil); err != nil {
		return nil, 0, err
	}
	return next, modified, nil
}

// update loads the latest version, applies fn, recalculates and saves the
// result as the next version along with the events fn returns.
func (s *Service) update(ctx context.Context, projectID, op string, fn func(a *model.Analysis) ([]model.CellAuditEvent, error)) (*model.Analysis, error) {
	latest, err := s.Latest(ctx, projectID)
	if err != nil {
		return nil, err
	}

	next := &model.Analysis{
		ProjectID:       projectID,
		Table:           latest.Table,
		DiscountToggles: latest.DiscountToggles,
		HiddenRows:      latest.HiddenRows,
	}
	events, err := fn(next)
	if err != nil {
		return nil, eris.Wrapf(err, "compare: %s", op)
	}
	next.Table = recalc.Recalculate(next.Table, next.DiscountToggles, next.HiddenRows)

	if err := s.save(ctx, next, events); err != nil {
		return nil, err
	}
	zap.L().Info("compare: saved analysis",
		zap.String("project_id", projectID),
		zap.String("op", op),
		zap.Int("version", next.Version),
	)
	return next, nil
}

func (s *Service) save(ctx context.Context, a *model.Analysis, events []model.CellAuditEvent) error {
	if err := a.Table.Validate(); err != nil {
		return eris.Wrap(err, "compare: invalid table")
	}
	if err := s.store.SaveAnalysis(ctx, a); err != nil {
		return eris.Wrap(err, "compare: save analysis")
	}
	if err := s.store.AppendAuditEvents(ctx, a.ProjectID, events); err != nil {
		return eris.Wrap(err, "compare: append audit events")
	}
	return nil
}
