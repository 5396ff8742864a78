package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/compare"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/export"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/extract"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/store"
	"github.com/brettungashick/outsail-proposal-tool-sub000/pkg/anthropic"
)

const coreHRRow = "software_fees_recurring_core_hr"

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	ts := httptest.NewServer(NewRouter(compare.NewService(st), opts))
	t.Cleanup(ts.Close)
	return ts
}

func testProposals() []model.ParsedProposal {
	return []model.ParsedProposal{
		{
			VendorName: "Acme", DocumentID: "doc-acme", DocumentName: "acme.pdf",
			Headcount:    model.Float(100),
			SoftwareFees: []model.FeeLineItem{{Name: "Core HR", Amount: model.Float(12000), Excerpt: "Core HR: $12,000"}},
			Discounts:    []model.FeeLineItem{{Name: "Launch", Amount: model.Float(1000)}},
		},
		{
			VendorName: "Zenith", DocumentID: "doc-zenith", DocumentName: "zenith.pdf",
			SoftwareFees: []model.FeeLineItem{{Name: "Core HR", Amount: model.Float(9000)}},
		},
	}
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() }) //nolint:errcheck
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() }) //nolint:errcheck
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func cell(t *testing.T, table *model.ComparisonTable, rowID, vendor string) model.VendorValue {
	t.Helper()
	si, ri, ok := table.Locate(rowID)
	require.True(t, ok, rowID)
	vi := table.VendorIndex(vendor)
	require.GreaterOrEqual(t, vi, 0, vendor)
	return table.Sections[si].Rows[ri].Values[vi]
}

func createProject(t *testing.T, ts *httptest.Server) *model.Analysis {
	t.Helper()
	resp := post(t, ts.URL+"/v1/projects", compare.CreateRequest{ProjectID: "proj-1", Proposals: testProposals()})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[*model.Analysis](t, resp)
}

func tableOf(t *testing.T) *model.ComparisonTable {
	t.Helper()
	return compare.BuildTable(testProposals())
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]string](t, resp)["status"])
}

func TestRecalculate(t *testing.T) {
	ts := newTestServer(t, Options{})
	table := tableOf(t)
	discountRow := table.Sections[len(table.Sections)-2].Rows[0].ID

	resp := post(t, ts.URL+"/v1/recalculate", map[string]any{
		"table":           table,
		"discountToggles": model.DiscountToggles{}.With("Acme", discountRow, false),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[*model.ComparisonTable](t, resp)

	year1 := cell(t, out, model.RowYear1, "Acme")
	require.NotNil(t, year1.Amount)
	assert.InDelta(t, 12000, *year1.Amount, 0.001, "disabled discount excluded")
}

func TestRecalculate_RequiresTable(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp := post(t, ts.URL+"/v1/recalculate", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_request", decode[errorResponse](t, resp).Code)
}

func TestRecalculate_BadJSON(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp, err := http.Post(ts.URL+"/v1/recalculate", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "bad_json", decode[errorResponse](t, resp).Code)
}

func TestRescale(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp := post(t, ts.URL+"/v1/rescale", map[string]any{"table": tableOf(t), "headcount": 150})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[*model.ComparisonTable](t, resp)

	core := cell(t, out, coreHRRow, "Acme")
	require.NotNil(t, core.Amount)
	assert.InDelta(t, 18000, *core.Amount, 0.001)

	resp = post(t, ts.URL+"/v1/rescale", map[string]any{"table": tableOf(t), "headcount": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestApplyPlaybookRules(t *testing.T) {
	ts := newTestServer(t, Options{})
	rule := model.PlaybookRule{
		ID: "core-note", VendorName: model.GlobalVendor,
		ConditionField: model.FieldLabel, ConditionType: model.ConditionContains, ConditionValue: "core",
		ActionType: model.ActionAddNote, ActionValue: `"Per employee per year"`, Enabled: true, Version: 1,
	}
	resp := post(t, ts.URL+"/v1/playbook/apply", map[string]any{"table": tableOf(t), "rules": []model.PlaybookRule{rule}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[applyRulesResponse](t, resp)
	assert.Equal(t, 2, out.Modified)
	assert.Equal(t, "Per employee per year", cell(t, out.Table, coreHRRow, "Zenith").NoteText())
}

func TestMatchCondition(t *testing.T) {
	ts := newTestServer(t, Options{})
	tests := []struct {
		name  string
		rule  model.PlaybookRule
		label string
		want  bool
	}{
		{"contains", model.PlaybookRule{ConditionField: model.FieldLabel, ConditionType: model.ConditionContains, ConditionValue: "PAYROLL"}, "Payroll add-on", true},
		{"regex", model.PlaybookRule{ConditionField: model.FieldLabel, ConditionType: model.ConditionRegex, ConditionValue: `^core\b`}, "Core HR", true},
		{"invalid regex", model.PlaybookRule{ConditionField: model.FieldLabel, ConditionType: model.ConditionRegex, ConditionValue: `(`}, "Core HR", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+"/v1/playbook/match", map[string]any{
				"rule":    tt.rule,
				"context": model.CellContext{Label: tt.label},
			})
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.want, decode[map[string]bool](t, resp)["matches"])
		})
	}
}

func TestFindOffsets(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp := post(t, ts.URL+"/v1/audit/offsets", offsetsRequest{FullText: "abc Core HR: $12,000 xyz", Snippet: "Core HR: $12,000"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, offsetsResponse{Start: 4, End: 20}, decode[offsetsResponse](t, resp))

	resp = post(t, ts.URL+"/v1/audit/offsets", offsetsRequest{FullText: "abc", Snippet: "missing"})
	assert.Equal(t, offsetsResponse{Start: -1, End: -1}, decode[offsetsResponse](t, resp))
}

func TestInitialAuditLog(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp := post(t, ts.URL+"/v1/audit/log", map[string]any{"table": tableOf(t)})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	events := decode[map[string][]model.CellAuditEvent](t, resp)["events"]
	// Core HR and the discount row, two vendors each.
	assert.Len(t, events, 4)
}

func TestProjectLifecycle(t *testing.T) {
	ts := newTestServer(t, Options{})
	created := createProject(t, ts)
	assert.Equal(t, 1, created.Version)

	base := ts.URL + "/v1/projects/proj-1"
	resp := get(t, base)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created.ID, decode[*model.Analysis](t, resp).ID)

	resp = post(t, base+"/cells", map[string]any{
		"rowId": coreHRRow, "vendor": "Zenith", "amount": 9500, "userId": "user-1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	edited := decode[*model.Analysis](t, resp)
	assert.Equal(t, 2, edited.Version)
	year1 := cell(t, edited.Table, model.RowYear1, "Zenith")
	assert.InDelta(t, 9500, *year1.Amount, 0.001)

	resp = post(t, base+"/cells", map[string]any{
		"rowId": model.RowYear1, "vendor": "Zenith", "amount": 1, "userId": "user-1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "computed row")

	resp = post(t, base+"/hidden", map[string]any{"rowId": coreHRRow, "hidden": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	hidden := decode[*model.Analysis](t, resp)
	assert.True(t, hidden.HiddenRows.Has(coreHRRow))

	resp = post(t, base+"/headcount", map[string]any{"headcount": 200})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 4, decode[*model.Analysis](t, resp).Version)

	resp = get(t, base+"/audit")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	events := decode[map[string][]model.CellAuditEvent](t, resp)["events"]
	require.Len(t, events, 5)
	assert.Equal(t, model.EventUserOverrideCell, events[4].Type)
}

func TestSetDiscount(t *testing.T) {
	ts := newTestServer(t, Options{})
	created := createProject(t, ts)
	discounts := created.Table.Section(model.SectionDiscounts)
	require.NotNil(t, discounts)
	rowID := discounts.Rows[0].ID

	base := ts.URL + "/v1/projects/proj-1/discounts"
	resp := post(t, base, map[string]any{"vendor": "Acme", "rowId": rowID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "enabled is required")

	resp = post(t, base, map[string]any{"vendor": "Acme", "rowId": rowID, "enabled": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	a := decode[*model.Analysis](t, resp)
	assert.False(t, a.DiscountToggles.Enabled("Acme", rowID))
	assert.InDelta(t, 12000, *cell(t, a.Table, model.RowYear1, "Acme").Amount, 0.001)

	resp = post(t, base, map[string]any{"vendor": "Acme", "rowId": coreHRRow, "enabled": false})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProjectNotFound(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp := get(t, ts.URL+"/v1/projects/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", decode[errorResponse](t, resp).Code)

	resp = post(t, ts.URL+"/v1/projects/missing/playbook", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExport(t *testing.T) {
	ts := newTestServer(t, Options{})
	createProject(t, ts)

	resp := get(t, ts.URL+"/v1/projects/proj-1/export")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "proj_1-v1.xlsx")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	f, err := xlsx.OpenBinary(raw)
	require.NoError(t, err)
	sheet := f.Sheet[export.ComparisonSheet]
	require.NotNil(t, sheet)
	assert.Equal(t, "Acme", sheet.Rows[0].Cells[1].Value)
}

func TestRules(t *testing.T) {
	ts := newTestServer(t, Options{})
	rule := model.PlaybookRule{
		ID: "setup-tbc", VendorName: "Acme",
		ConditionField: model.FieldLabel, ConditionType: model.ConditionContains, ConditionValue: "setup",
		ActionType: model.ActionSetStatus, ActionValue: `"tbc"`, Enabled: true,
	}
	resp := post(t, ts.URL+"/v1/rules", rule)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[model.PlaybookRule](t, resp).Version)

	bad := rule
	bad.ID = "bad"
	bad.ActionValue = "not json"
	resp = post(t, ts.URL+"/v1/rules", bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = get(t, ts.URL+"/v1/rules?vendor=Zenith")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[map[string][]model.PlaybookRule](t, resp)["rules"])

	resp = get(t, ts.URL+"/v1/rules?vendor=Acme")
	rules := decode[map[string][]model.PlaybookRule](t, resp)["rules"]
	require.Len(t, rules, 1)
	assert.Equal(t, "setup-tbc", rules[0].ID)
}

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func TestUploadDocuments(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		ts := newTestServer(t, Options{})
		resp := post(t, ts.URL+"/v1/projects/p/documents", uploadRequest{Documents: []extract.Document{{ID: "d", Text: "x"}}})
		assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	})

	t.Run("extracts and creates", func(t *testing.T) {
		client := &mockAnthropicClient{}
		client.On("CreateMessage", mock.Anything, mock.Anything).Return(&anthropic.MessageResponse{
			Content: []anthropic.ContentBlock{{Type: "text", Text: `{"vendorName":"Acme","headcount":50,` +
				`"softwareFees":[{"name":"Core HR","amount":6000,"status":"currency","excerpt":"Core HR costs $6,000"}]}`}},
		}, nil)
		ts := newTestServer(t, Options{Extractor: extract.New(client, extract.Config{Model: "m"})})

		resp := post(t, ts.URL+"/v1/projects/p/documents", uploadRequest{Documents: []extract.Document{{
			ID: "doc-1", Name: "acme.pdf", Text: "Intro. Core HR costs $6,000 annually.",
		}}})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		a := decode[*model.Analysis](t, resp)
		assert.Equal(t, "p", a.ProjectID)
		core := cell(t, a.Table, coreHRRow, "Acme")
		require.NotNil(t, core.Audit)
		require.NotEmpty(t, core.Audit.Sources)
		assert.Equal(t, 7, core.Audit.Sources[0].StartOffset)
	})

	t.Run("validates documents", func(t *testing.T) {
		ts := newTestServer(t, Options{Extractor: extract.New(&mockAnthropicClient{}, extract.Config{})})
		resp := post(t, ts.URL+"/v1/projects/p/documents", uploadRequest{Documents: []extract.Document{{ID: "d"}}})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
