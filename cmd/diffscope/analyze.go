package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agusespa/diffscope/internal/analyzer"
	"github.com/agusespa/diffscope/internal/git"
	"github.com/agusespa/diffscope/internal/logging"
	"github.com/agusespa/diffscope/pkg/config"
	"github.com/agusespa/diffscope/pkg/spinner"
)

type analyzeOptions struct {
	repoDir    string
	repoURL    string
	configFile string
	format     string
	workers    int
}

func newAnalyzeCmd() *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <commit>",
		Short: "Report the tests impacted by a commit",
		Long: `Analyze compares a commit against its parent and reports every test
the change impacts: tests whose own lines changed, tests in added or
deleted files, and tests that reference a changed helper function.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.repoDir, "repo", ".", "path to the local repository")
	cmd.Flags().StringVar(&opts.repoURL, "repo-url", "", "clone this URL to a temporary directory and analyze it")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "path to the configuration file")
	cmd.Flags().StringVar(&opts.format, "format", "", "output format: human, json or markdown")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "number of parallel scan workers")
	return cmd
}

func runAnalyze(cmd *cobra.Command, commit string, opts analyzeOptions) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}
	if opts.format != "" {
		cfg.Output.Format = opts.format
	}
	if opts.workers > 0 {
		cfg.Analysis.Workers = opts.workers
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logging.New(os.Stderr, logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	ctx := cmd.Context()

	repoDir := opts.repoDir
	if opts.repoURL != "" {
		dir, cleanup, err := git.CloneTemp(ctx, opts.repoURL, log)
		if err != nil {
			return err
		}
		defer cleanup()
		repoDir = dir
	}

	timeout := time.Duration(cfg.Git.CommandTimeoutSeconds) * time.Second
	repo, err := git.Open(repoDir, timeout, log)
	if err != nil {
		return err
	}

	var spin *spinner.Spinner
	if cfg.Output.Format == config.FormatHuman {
		spin = spinner.New("analyzing commit " + commit)
		spin.Start()
	}

	report, err := analyzer.New(repo, cfg, log).Analyze(ctx, commit)
	if spin != nil {
		if err != nil {
			spin.Stop("")
		} else {
			spin.Stop(fmt.Sprintf("analyzed commit %s, %d impacted tests", report.Commit.Short, len(report.Records)))
		}
	}
	if err != nil {
		return err
	}

	return analyzer.NewReportGenerator(cfg.Output, cmd.OutOrStdout()).Generate(report)
}
