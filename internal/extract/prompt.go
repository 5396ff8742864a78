package extract

import (
	"fmt"
	"strings"
)

// maxDocumentBytes caps the document text sent in one request.
const maxDocumentBytes = 400_000

const systemPrompt = `You extract pricing from HR and payroll software vendor proposals.

Return a single JSON object and nothing else, with this shape:
{
  "vendorName": string,
  "headcount": number or null,
  "modules": [string],
  "softwareFees": [LineItem],
  "implementationFees": [LineItem],
  "serviceFees": [LineItem],
  "discounts": [LineItem],
  "notes": [string]
}

LineItem is:
{
  "name": string,
  "amount": number or null,
  "status": "currency" | "included" | "included_in_bundle" | "not_included" | "tbc" | "na",
  "frequency": "annual" | "monthly" | "one_time" | "",
  "note": string,
  "excerpt": string,
  "page": number
}

Rules:
- softwareFees and serviceFees are recurring; report them as annual amounts.
- implementationFees are one-time.
- Use status "currency" only with a numeric amount.
- Use "tbc" when the proposal mentions an item without a price.
- Discounts are positive amounts describing the reduction.
- amount is a raw number in US dollars, without symbols or separators.
- excerpt is the exact sentence of the document the value was read from.
- page is the 1-based page of the excerpt, or 0 when unknown.
- Use only the document. Do not guess prices.`

func userPrompt(doc Document) string {
	text := doc.Text
	if len(text) > maxDocumentBytes {
		text = text[:maxDocumentBytes]
	}
	var sb strings.Builder
	if doc.VendorName != "" {
		fmt.Fprintf(&sb, "Vendor: %s\n", doc.VendorName)
	}
	fmt.Fprintf(&sb, "Document: %s\n\n<document>\n%s\n</document>", doc.Name, text)
	return sb.String()
}

// cleanJSON strips markdown fences and surrounding prose from a response.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(text, "```json"); ok {
		text = rest
	} else if rest, ok := strings.CutPrefix(text, "```"); ok {
		text = rest
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}
