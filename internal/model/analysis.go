package model

import (
	"encoding/json"
	"sort"
	"time"
)

// DiscountToggles maps vendor → discount row id → enabled. A missing entry
// means enabled.
type DiscountToggles map[string]map[string]bool

// Enabled reports whether the discount row applies to vendor.
func (d DiscountToggles) Enabled(vendor, rowID string) bool {
	enabled, ok := d[vendor][rowID]
	return !ok || enabled
}

// With returns a copy of d with one toggle set.
func (d DiscountToggles) With(vendor, rowID string, enabled bool) DiscountToggles {
	out := make(DiscountToggles, len(d)+1)
	for v, rows := range d {
		cp := make(map[string]bool, len(rows))
		for id, on := range rows {
			cp[id] = on
		}
		out[v] = cp
	}
	if out[vendor] == nil {
		out[vendor] = make(map[string]bool)
	}
	out[vendor][rowID] = enabled
	return out
}

// HiddenRows is the set of row ids excluded from aggregation. It encodes to
// JSON as a sorted array of ids.
type HiddenRows map[string]bool

// NewHiddenRows builds a set from ids.
func NewHiddenRows(ids ...string) HiddenRows {
	h := make(HiddenRows, len(ids))
	for _, id := range ids {
		h[id] = true
	}
	return h
}

// Has reports whether rowID is hidden.
func (h HiddenRows) Has(rowID string) bool {
	return h[rowID]
}

// With returns a copy of h with rowID added or removed.
func (h HiddenRows) With(rowID string, hidden bool) HiddenRows {
	out := make(HiddenRows, len(h)+1)
	for id := range h {
		if h[id] {
			out[id] = true
		}
	}
	if hidden {
		out[rowID] = true
	} else {
		delete(out, rowID)
	}
	return out
}

// IDs returns the hidden row ids in sorted order.
func (h HiddenRows) IDs() []string {
	ids := make([]string, 0, len(h))
	for id, hidden := range h {
		if hidden {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (h HiddenRows) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.IDs())
}

func (h *HiddenRows) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*h = NewHiddenRows(ids...)
	return nil
}

// Analysis is one persisted version of a project's comparison.
type Analysis struct {
	ID              string           `json:"id"`
	ProjectID       string           `json:"projectId"`
	Version         int              `json:"version"`
	Table           *ComparisonTable `json:"table"`
	DiscountToggles DiscountToggles  `json:"discountToggles"`
	HiddenRows      HiddenRows       `json:"hiddenRows"`
	CreatedAt       time.Time        `json:"createdAt"`
}
