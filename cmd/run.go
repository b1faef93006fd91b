package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobthai-scout/internal/candidate"
	"github.com/spigell/jobthai-scout/internal/config"
	"github.com/spigell/jobthai-scout/internal/jobthai"
	"github.com/spigell/jobthai-scout/internal/scout"
)

const (
	PromptDone                = "Done"
	PromptReportByKeyword     = "Report by keyword"
	PromptCandidatesToFile    = "Dump candidates to file"
	PromptAppendToExcludeFile = "Append all candidates to exclude file"
)

var errExit = errors.New("exit requested")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Search resumes, notify about qualified candidates and record them",
	Run: func(cmd *cobra.Command, _ []string) {
		if err := run(cmd); err != nil {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("manual", false, "send pending digests regardless of the weekday")
	runCmd.Flags().StringSliceP("keyword", "k", nil, "search keyword, repeatable (overrides search.keywords)")
	runCmd.Flags().Bool("dry-run", false, "log notifications instead of sending them, skip remote recorders and keep the history file untouched")
	runCmd.Flags().Bool("no-history", false, "neither consult nor update the notification history")
	runCmd.Flags().Bool("no-images", false, "do not screenshot candidate photos")
	runCmd.Flags().BoolP("review", "r", false, "review the kept candidates interactively after the run")
	runCmd.Flags().StringP("exclude-file", "e", "", "file with candidates to exclude. Default is unset.")

	viper.BindPFlag("exclude-file", runCmd.Flags().Lookup("exclude-file"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()
	defer logger.Sync()

	cfg, err := getConfig()
	if err != nil {
		logger.Error("getting a config", zap.Error(err), configHint(err))
		return err
	}

	opts, err := runOptions(cmd, cfg)
	if err != nil {
		logger.Error("reading flags", zap.Error(err))
		return err
	}

	logger.Info("starting the jobthai-scout",
		zap.String("version", version),
		zap.String("driver", cfg.Portal.Driver),
		zap.Strings("keywords", opts.Keywords),
		zap.Bool("manual", opts.Manual),
		zap.Bool("dry_run", opts.DryRun),
	)

	s, cleanup, err := newScout(ctx, cfg, opts, logger)
	if err != nil {
		logger.Error("preparing the run", zap.Error(err))
		return err
	}
	defer cleanup()

	res, runErr := s.Run(ctx)
	if runErr != nil {
		if errors.Is(runErr, jobthai.ErrLoginFailed) {
			logger.Error("exiting", zap.Error(runErr), zap.String("hint", "check JOBTHAI_USER and JOBTHAI_PASS"))
			return runErr
		}
		logger.Error("run finished with errors", zap.Error(runErr))
	}

	if opts.Review && res.Records.Len() > 0 {
		if err := review(logger, cfg, res.Records); err != nil && !errors.Is(err, errExit) {
			logger.Error("review", zap.Error(err))
			return err
		}
	}

	return runErr
}

// runFlags are the command line switches layered over the config.
type runFlags struct {
	scout.Options
	Manual    bool
	NoHistory bool
	Review    bool
}

func runOptions(cmd *cobra.Command, cfg *config.Config) (runFlags, error) {
	flags := cmd.Flags()

	keywords, err := flags.GetStringSlice("keyword")
	if err != nil {
		return runFlags{}, err
	}
	if len(keywords) == 0 {
		keywords = cfg.Search.Keywords
	}

	manual, _ := flags.GetBool("manual")
	dryRun, _ := flags.GetBool("dry-run")
	noHistory, _ := flags.GetBool("no-history")
	noImages, _ := flags.GetBool("no-images")
	reviewFlag, _ := flags.GetBool("review")

	opts := runFlags{
		Options: scout.Options{
			Keywords:   keywords,
			DryRun:     dryRun,
			SaveImages: !noImages,
		},
		Manual:    manual || cfg.Manual(),
		NoHistory: noHistory,
		Review:    reviewFlag,
	}
	if !noHistory {
		opts.HistoryFile = cfg.Routing.HistoryFile
	}
	return opts, nil
}

var prompt = promptui.Select{
	Label: "Review the candidates",
	Items: []string{PromptReportByKeyword, PromptCandidatesToFile, PromptAppendToExcludeFile, PromptDone},
}

func review(logger *zap.Logger, cfg *config.Config, records *candidate.Records) error {
	for {
		_, action, err := prompt.Run()
		if err != nil {
			return err
		}

		if err := handleAction(action, logger, cfg, records); err != nil {
			return err
		}
	}
}

func handleAction(action string, logger *zap.Logger, cfg *config.Config, records *candidate.Records) error {
	switch action {
	case PromptDone:
		return errExit
	case PromptReportByKeyword:
		// do not bother error since the report is plain maps of strings
		pretty, _ := json.MarshalIndent(records.ReportByKeyword(), "", "  ")
		logger.Info(string(pretty), zap.Int("candidates count", records.Len()))
		return nil
	case PromptCandidatesToFile:
		filename, err := records.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump candidates to file: %w", err)
		}
		logger.Info("dumping candidates to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		return appendToExcludeFile(logger, cfg.ExcludeFile, records)
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func appendToExcludeFile(logger *zap.Logger, path string, records *candidate.Records) error {
	if path == "" {
		logger.Warn("exclude file is not configured", zap.String("hint", "set exclude-file or pass --exclude-file"))
		return nil
	}

	excluded, err := candidate.ExcludedFromFile(path)
	if err != nil {
		return err
	}
	excluded.Append(records.ToExcluded("reviewed", time.Now()))

	if err := excluded.ToFile(path); err != nil {
		return err
	}

	logger.Info("appended to exclude file", zap.String("filename", path), zap.Int("count", records.Len()))
	records.Exclude(excluded.IDs())
	return nil
}
