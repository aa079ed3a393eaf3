// Package cli implements the costlab command line: configuration checks, the
// dataset catalogue and one-shot optimization runs printed as text or JSON.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/kiranshivaraju/costlab/internal/app"
	"github.com/kiranshivaraju/costlab/internal/config"
	"github.com/kiranshivaraju/costlab/internal/workflow"
	"github.com/kiranshivaraju/costlab/pkg/models"
)

const name = "costlab"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Workflow runs one domain optimization.
type Workflow interface {
	Run(ctx context.Context, state workflow.State, domain string, ds models.Dataset, count int) (workflow.State, error)
}

// WorkflowFactory builds a Workflow for cfg. The returned close function is
// called once the command finishes.
type WorkflowFactory func(ctx context.Context, cfg *config.Config, opts ...workflow.Option) (Workflow, func() error, error)

type settings struct {
	loadConfig  func() (*config.Config, error)
	newWorkflow WorkflowFactory
	out         io.Writer
	errOut      io.Writer
	logger      *slog.Logger
}

type Option func(*settings)

// WithConfigLoader replaces config.Load.
func WithConfigLoader(fn func() (*config.Config, error)) Option {
	return func(s *settings) { s.loadConfig = fn }
}

// WithWorkflowFactory replaces the production wiring.
func WithWorkflowFactory(fn WorkflowFactory) Option {
	return func(s *settings) { s.newWorkflow = fn }
}

// WithOutput directs results to out and progress and logs to errOut.
func WithOutput(out, errOut io.Writer) Option {
	return func(s *settings) {
		s.out = out
		s.errOut = errOut
	}
}

// New returns the root command. Errors, including exit codes, are returned
// from Run rather than terminating the process.
func New(version string, opts ...Option) *cli.Command {
	s := &settings{
		loadConfig: config.Load,
		out:        os.Stdout,
		errOut:     os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(s.errOut, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	if s.newWorkflow == nil {
		s.newWorkflow = s.buildWorkflow
	}

	return &cli.Command{
		Name:                  name,
		Version:               version,
		Usage:                 "Simulate GCP cost metadata and get AI-driven optimization recommendations",
		EnableShellCompletion: true,
		Writer:                s.out,
		ErrWriter:             s.errOut,
		ExitErrHandler:        func(context.Context, *cli.Command, error) {},
		Commands: []*cli.Command{
			s.validateCmd(),
			s.datasetsCmd(),
			s.runCmd(),
		},
	}
}

func (s *settings) buildWorkflow(ctx context.Context, cfg *config.Config, opts ...workflow.Option) (Workflow, func() error, error) {
	a, err := app.Build(ctx, cfg, nil, s.logger, opts...)
	if err != nil {
		return nil, nil, err
	}
	return a.Runner, a.Close, nil
}
