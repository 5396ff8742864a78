package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/compare"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/extract"
	"github.com/brettungashick/outsail-proposal-tool-sub000/internal/model"
	"github.com/brettungashick/outsail-proposal-tool-sub000/pkg/anthropic"
)

type createOptions struct {
	project       string
	proposals     string
	texts         []string
	applyPlaybook bool
}

var createOpts createOptions

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project analysis from parsed proposals",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := createOpts
		var proposals []model.ParsedProposal
		if err := readJSONFile(opts.proposals, &proposals); err != nil {
			return err
		}
		texts, _, err := readDocuments(opts.texts)
		if err != nil {
			return err
		}
		return createAnalysis(cmd, compare.CreateRequest{
			ProjectID:     opts.project,
			Proposals:     proposals,
			DocumentTexts: texts,
			ApplyPlaybook: opts.applyPlaybook,
		})
	},
}

type extractOptions struct {
	project       string
	applyPlaybook bool
}

var extractOpts extractOptions

var extractCmd = &cobra.Command{
	Use:   "extract [document.txt ...]",
	Short: "Extract proposals from document text with the model and create an analysis",
	Long: "Each argument is the extracted text of one proposal document. The file name " +
		"without extension is the document id.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("extract"); err != nil {
			return err
		}
		texts, docs, err := readDocuments(args)
		if err != nil {
			return err
		}

		client := newAnthropicClient()
		proposals, err := newExtractor(client).ExtractAll(cmd.Context(), docs)
		if err != nil {
			return err
		}
		return createAnalysis(cmd, compare.CreateRequest{
			ProjectID:     extractOpts.project,
			Proposals:     proposals,
			DocumentTexts: texts,
			ApplyPlaybook: extractOpts.applyPlaybook,
		})
	},
}

func newAnthropicClient() anthropic.Client {
	return anthropic.NewClient(cfg.Anthropic.Key,
		anthropic.WithBaseURL(cfg.Anthropic.BaseURL),
		anthropic.WithRateLimit(cfg.Anthropic.RequestsPerSecond),
		anthropic.WithMaxRetries(cfg.Anthropic.MaxRetries),
	)
}

func newExtractor(client anthropic.Client) *extract.Extractor {
	return extract.New(client, extract.Config{
		Model:         cfg.Anthropic.Model,
		MaxTokens:     cfg.Anthropic.MaxTokens,
		MaxConcurrent: cfg.Extract.MaxConcurrentDocuments,
	})
}

func createAnalysis(cmd *cobra.Command, req compare.CreateRequest) error {
	st, err := initStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	a, err := compare.NewService(st).Create(cmd.Context(), req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s version %d (%d vendors)\n", a.ProjectID, a.Version, len(a.Table.Vendors))
	return nil
}

// readDocuments loads text files keyed by their base name without extension.
func readDocuments(paths []string) (map[string]string, []extract.Document, error) {
	texts := make(map[string]string, len(paths))
	docs := make([]extract.Document, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "read %s", p)
		}
		name := filepath.Base(p)
		id := strings.TrimSuffix(name, filepath.Ext(name))
		if _, dup := texts[id]; dup {
			return nil, nil, eris.Errorf("duplicate document id %q", id)
		}
		texts[id] = string(data)
		docs = append(docs, extract.Document{ID: id, Name: name, Text: string(data)})
	}
	return texts, docs, nil
}

func init() {
	createCmd.Flags().StringVar(&createOpts.project, "project", "", "project id")
	createCmd.Flags().StringVar(&createOpts.proposals, "proposals", "-", "parsed proposals JSON file (- for stdin)")
	createCmd.Flags().StringSliceVar(&createOpts.texts, "text", nil, "document text files used to locate excerpts")
	createCmd.Flags().BoolVar(&createOpts.applyPlaybook, "apply-playbook", false, "apply stored rules to the new table")
	_ = createCmd.MarkFlagRequired("project")

	extractCmd.Flags().StringVar(&extractOpts.project, "project", "", "project id")
	extractCmd.Flags().BoolVar(&extractOpts.applyPlaybook, "apply-playbook", false, "apply stored rules to the new table")
	_ = extractCmd.MarkFlagRequired("project")

	rootCmd.AddCommand(createCmd, extractCmd)
}
