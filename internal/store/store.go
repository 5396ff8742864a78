// Package store persists versioned comparison analyses, their append-only
// audit log and the playbook rule set.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
)

// ErrNotFound is returned when a requested analysis does not exist.
var ErrNotFound = eris.New("store: not found")

// RuleFilter specifies criteria for listing playbook rules.
type RuleFilter struct {
	// Vendor limits the result to rules for this vendor and global rules.
	Vendor          string `json:"vendor,omitempty"`
	IncludeDisabled bool   `json:"include_disabled,omitempty"`
}

// Store defines the persistence interface of the comparison service.
type Store interface {
	// Analyses. SaveAnalysis assigns the id, the next version of the project
	// and the creation time.
	SaveAnalysis(ctx context.Context, a *model.Analysis) error
	GetAnalysis(ctx context.Context, id string) (*model.Analysis, error)
	LatestAnalysis(ctx context.Context, projectID string) (*model.Analysis, error)

	// Audit log
	AppendAuditEvents(ctx context.Context, projectID string, events []model.CellAuditEvent) error
	ListAuditEvents(ctx context.Context, projectID string) ([]model.CellAuditEvent, error)

	// Playbook rules, ordered by priority then id
	ListRules(ctx context.Context, filter RuleFilter) ([]model.PlaybookRule, error)
	SaveRule(ctx context.Context, rule model.PlaybookRule) error
	ImportRules(ctx context.Context, rules []model.PlaybookRule) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
