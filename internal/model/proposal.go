package model

// FeeLineItem is one priced item read from a proposal.
type FeeLineItem struct {
	Name      string     `json:"name"`
	Amount    *float64   `json:"amount"`
	Status    CellStatus `json:"status,omitempty"`
	Frequency string     `json:"frequency,omitempty"`
	Note      string     `json:"note,omitempty"`
	Excerpt   string     `json:"excerpt,omitempty"`
	Page      int        `json:"page,omitempty"`
}

// ParsedProposal is the structured pricing data extracted from one vendor's
// proposal document.
type ParsedProposal struct {
	VendorName         string        `json:"vendorName"`
	DocumentID         string        `json:"documentId"`
	DocumentName       string        `json:"documentName"`
	Headcount          *float64      `json:"headcount"`
	Modules            []string      `json:"modules,omitempty"`
	SoftwareFees       []FeeLineItem `json:"softwareFees,omitempty"`
	ImplementationFees []FeeLineItem `json:"implementationFees,omitempty"`
	ServiceFees        []FeeLineItem `json:"serviceFees,omitempty"`
	Discounts          []FeeLineItem `json:"discounts,omitempty"`
	Notes              []string      `json:"notes,omitempty"`
}

// ItemsBySection returns the proposal's line items keyed by the section they
// belong to.
func (p ParsedProposal) ItemsBySection() map[string][]FeeLineItem {
	return map[string][]FeeLineItem{
		SectionSoftware:       p.SoftwareFees,
		SectionImplementation: p.ImplementationFees,
		SectionService:        p.ServiceFees,
		SectionDiscounts:      p.Discounts,
	}
}

// ProposalFor returns the proposal submitted by vendor, or nil.
func ProposalFor(proposals []ParsedProposal, vendor string) *ParsedProposal {
	for i := range proposals {
		if proposals[i].VendorName == vendor {
			return &proposals[i]
		}
	}
	return nil
}
