// Package extract turns proposal document text into ParsedProposals through
// a language model client.
package extract

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
	"github.com/brettungashick/outsail-proposal-tool-sub000/pkg/anthropic"
)

// ErrEmptyResponse is returned when the model answers without any JSON.
var ErrEmptyResponse = eris.New("extract: empty response")

// Document is the raw text of one uploaded proposal.
type Document struct {
	ID         string `json:"id" validate:"required"`
	Name       string `json:"name"`
	VendorName string `json:"vendorName"`
	Text       string `json:"text" validate:"required"`
}

// Config tunes the extractor.
type Config struct {
	Model         string
	MaxTokens     int64
	MaxConcurrent int
}

// Extractor calls the model once per document.
type Extractor struct {
	client anthropic.Client
	cfg    Config
}

// New returns an Extractor that uses client.
func New(client anthropic.Client, cfg Config) *Extractor {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8192
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	return &Extractor{client: client, cfg: cfg}
}

// Extract parses one document.
func (e *Extractor) Extract(ctx context.Context, doc Document) (*model.ParsedProposal, error) {
	temp := 0.0
	resp, err := e.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.cfg.Model,
		MaxTokens: e.cfg.MaxTokens,
		System: []anthropic.SystemBlock{{
			Text:         systemPrompt,
			CacheControl: &anthropic.CacheControl{TTL: "5m"},
		}},
		Messages:    []anthropic.Message{{Role: "user", Content: userPrompt(doc)}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "extract: document %s", doc.ID)
	}
	resp.Usage.LogCost(e.cfg.Model, doc.ID)

	text := cleanJSON(resp.Text())
	if text == "" {
		return nil, eris.Wrapf(ErrEmptyResponse, "document %s", doc.ID)
	}
	var p model.ParsedProposal
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, eris.Wrapf(err, "extract: decode proposal for document %s", doc.ID)
	}
	normalize(&p, doc)
	return &p, nil
}

// ExtractAll parses docs concurrently and returns proposals in input order.
// The first failure cancels the remaining calls.
func (e *Extractor) ExtractAll(ctx context.Context, docs []Document) ([]model.ParsedProposal, error) {
	out := make([]model.ParsedProposal, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.MaxConcurrent)
	for i, doc := range docs {
		g.Go(func() error {
			p, err := e.Extract(gctx, doc)
			if err != nil {
				zap.L().Error("extract: document failed",
					zap.String("document_id", doc.ID),
					zap.Error(err),
				)
				return err
			}
			out[i] = *p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("extract: documents parsed", zap.Int("documents", len(docs)))
	return out, nil
}

// normalize stamps document identity on p and drops values the table
// builder cannot use.
func normalize(p *model.ParsedProposal, doc Document) {
	p.DocumentID = doc.ID
	p.DocumentName = doc.Name
	if doc.VendorName != "" {
		p.VendorName = doc.VendorName
	}
	p.VendorName = strings.TrimSpace(p.VendorName)
	if p.VendorName == "" {
		p.VendorName = doc.Name
	}
	if p.Headcount != nil && *p.Headcount <= 0 {
		p.Headcount = nil
	}

	p.SoftwareFees = cleanItems(p.SoftwareFees)
	p.ImplementationFees = cleanItems(p.ImplementationFees)
	p.ServiceFees = cleanItems(p.ServiceFees)
	p.Discounts = cleanItems(p.Discounts)
}

func cleanItems(items []model.FeeLineItem) []model.FeeLineItem {
	out := items[:0]
	for _, it := range items {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" {
			continue
		}
		if !it.Status.Valid() || (it.Status == model.StatusCurrency && it.Amount == nil) {
			it.Status = ""
		}
		if it.Status != "" && it.Status != model.StatusCurrency {
			it.Amount = nil
		}
		out = append(out, it)
	}
	return out
}
