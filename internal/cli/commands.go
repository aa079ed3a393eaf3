package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/kiranshivaraju/costlab/internal/config"
	"github.com/kiranshivaraju/costlab/internal/render"
	"github.com/kiranshivaraju/costlab/internal/workflow"
	"github.com/kiranshivaraju/costlab/pkg/models"
)

var formatFlag = &cli.StringFlag{
	Name:    "format",
	Aliases: []string{"f"},
	Value:   FormatText,
	Usage:   "Output format: text or json",
	Validator: func(v string) error {
		if v != FormatText && v != FormatJSON {
			return fmt.Errorf("unknown output format: %q", v)
		}
		return nil
	},
}

func (s *settings) validateCmd() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check that the environment is configured for every workflow",
		Action: func(_ context.Context, _ *cli.Command) error {
			cfg, err := s.loadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			problems := cfg.Validate()
			if len(problems) == 0 {
				fmt.Fprintf(s.out, "Configuration OK (provider=%s, project=%s)\n", cfg.AI.Provider, cfg.GCP.ProjectID)
				return nil
			}
			for _, p := range problems {
				fmt.Fprintf(s.out, "- %s\n", p)
			}
			return cli.Exit(fmt.Sprintf("%d configuration problem(s) found", len(problems)), 1)
		},
	}
}

func (s *settings) datasetsCmd() *cli.Command {
	return &cli.Command{
		Name:  "datasets",
		Usage: "List the public BigQuery tables available to the SQL workflow",
		Flags: []cli.Flag{formatFlag},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.String("format") == FormatJSON {
				return writeJSON(s, config.DefaultDatasets)
			}

			t := render.Table{Title: "Datasets", Columns: []string{"Name", "Table", "Description"}}
			for _, d := range config.DefaultDatasets {
				t.Rows = append(t.Rows, []string{d.Name, d.FullTable(), d.Description})
			}
			return render.WriteTable(s.out, t)
		},
	}
}

func (s *settings) runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Generate metadata for a domain and print the recommendations",
		Commands: []*cli.Command{
			s.domainCmd(models.DomainSQL, "Optimize generated BigQuery anti-pattern queries", 5,
				&cli.StringFlag{
					Name:    "dataset",
					Aliases: []string{"d"},
					Usage:   "Dataset name or dataset.table (default: first listed by 'costlab datasets')",
				}),
			s.domainCmd(models.DomainStorage, "Analyze generated Cloud Storage buckets", 10),
			s.domainCmd(models.DomainSchedule, "Analyze generated scheduled queries", 10),
			s.domainCmd(models.DomainML, "Analyze generated ML training jobs", 10),
		},
	}
}

func (s *settings) domainCmd(domain, usage string, defaultCount int, extra ...cli.Flag) *cli.Command {
	flags := []cli.Flag{
		&cli.IntFlag{
			Name:    "count",
			Aliases: []string{"n"},
			Value:   defaultCount,
			Usage:   "Number of items to generate (clamped to the domain's range)",
		},
		&cli.Uint64Flag{
			Name:  "seed",
			Usage: "Seed for reproducible metadata (0 picks a random seed)",
		},
		formatFlag,
	}

	return &cli.Command{
		Name:  domain,
		Usage: usage,
		Flags: append(flags, extra...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return s.runDomain(ctx, cmd, domain)
		},
	}
}

func (s *settings) runDomain(ctx context.Context, cmd *cli.Command, domain string) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var ds models.Dataset
	if domain == models.DomainSQL {
		var ok bool
		ds, ok = findDataset(cmd.String("dataset"))
		if !ok {
			return cli.Exit(fmt.Sprintf("unknown dataset %q; run 'costlab datasets' to list them", cmd.String("dataset")), 2)
		}
	}

	var opts []workflow.Option
	if seed := cmd.Uint64("seed"); seed != 0 {
		opts = append(opts, workflow.WithSeed(seed))
	}
	if domain == models.DomainSQL && cmd.String("format") == FormatText {
		opts = append(opts, workflow.WithProgress(func(done, total int) {
			fmt.Fprintf(s.errOut, "Dry-run progress: %d/%d\n", done, total)
		}))
	}

	wf, closeFn, err := s.newWorkflow(ctx, cfg, opts...)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer func() {
		if err := closeFn(); err != nil {
			s.logger.Warn("shutdown failed", "error", err)
		}
	}()

	st, err := wf.Run(ctx, workflow.State{}, domain, ds, cmd.Int("count"))
	if err != nil {
		return cli.Exit(describe(err, cfg.IsDevelopment()), 1)
	}

	v, _ := render.ViewOf(st, domain, cfg.Pricing)
	if cmd.String("format") == FormatJSON {
		return writeJSON(s, v)
	}
	return render.WriteView(s.out, v)
}

// describe renders a workflow failure for the terminal.
func describe(err error, debug bool) string {
	var we *workflow.Error
	if !errors.As(err, &we) {
		return "Error: " + err.Error()
	}
	return fmt.Sprintf("Error [%s at %s]: %s", we.Kind, we.Step, we.Detail(debug))
}

func findDataset(name string) (models.Dataset, bool) {
	if name == "" {
		return config.DefaultDatasets[0], true
	}
	for _, d := range config.DefaultDatasets {
		if strings.EqualFold(d.Name, name) || d.FullTable() == name {
			return d, true
		}
	}
	return models.Dataset{}, false
}

func writeJSON(s *settings, v any) error {
	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
