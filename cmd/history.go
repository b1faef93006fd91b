package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobthai-scout/internal/config"
	"github.com/spigell/jobthai-scout/internal/history"
	"github.com/spigell/jobthai-scout/internal/recorder"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and edit the notification history",
}

var historyShowCmd = &cobra.Command{
	Use:   "show [candidate-id]",
	Short: "List notified candidates, or the stored rows of one candidate",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		if len(args) == 1 {
			limit, _ := cmd.Flags().GetUint64("limit")
			return showStored(cmd.Context(), cmd.OutOrStdout(), cfg, args[0], limit)
		}

		h, err := history.Load(cfg.Routing.HistoryFile)
		if err != nil {
			return err
		}
		return showHistory(cmd.OutOrStdout(), h, time.Now().In(cfg.Location()))
	},
}

var historyForgetCmd = &cobra.Command{
	Use:   "forget <candidate-id>...",
	Short: "Remove candidates from the history so they can be notified again",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		defer logger.Sync()

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		path := cfg.Routing.HistoryFile

		h, err := history.Load(path)
		if err != nil {
			return err
		}

		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			confirm := promptui.Prompt{
				Label:     fmt.Sprintf("Forget %d candidate(s) in %s", len(args), path),
				IsConfirm: true,
			}
			if _, err := confirm.Run(); err != nil {
				if errors.Is(err, promptui.ErrAbort) {
					logger.Info("exiting", zap.String("reason", "got no from prompt"))
					return nil
				}
				return err
			}
		}

		forgotten := forget(h, args, logger)
		if forgotten == 0 {
			return nil
		}
		if err := h.Save(path); err != nil {
			return err
		}
		logger.Info("history updated", zap.String("path", path), zap.Int("forgotten", forgotten), zap.Int("entries", h.Len()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd, historyForgetCmd)

	historyShowCmd.Flags().Uint64("limit", 20, "maximum number of stored rows shown for a candidate")
	historyForgetCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

func showHistory(w io.Writer, h *history.History, now time.Time) error {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CANDIDATE\tNOTIFIED\tDAYS AGO")
	for _, id := range h.IDs() {
		last, ok := h.Last(id)
		if !ok {
			fmt.Fprintf(tw, "%s\t%s\t-\n", id, h.Entries()[id])
			continue
		}
		days := int(today.Sub(last).Hours() / 24)
		fmt.Fprintf(tw, "%s\t%s\t%d\n", id, last.Format(history.DateLayout), days)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d candidate(s)\n", h.Len())
	return err
}

func showStored(ctx context.Context, w io.Writer, cfg *config.Config, id string, limit uint64) error {
	if !cfg.SQLite.Enabled() {
		return errors.New("stored rows need sqlite.path to be configured")
	}

	db, err := recorder.OpenSQLite(ctx, cfg.SQLite.Path, uuid.Nil, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Recent(ctx, id, limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tKEYWORD\tNAME\tDAYS\tLINK")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", r.RunID, r.Keyword, r.Name, r.DaysSinceUpdate, r.Link)
	}
	return tw.Flush()
}

func forget(h *history.History, ids []string, logger *zap.Logger) int {
	n := 0
	for _, id := range ids {
		if !h.Forget(id) {
			logger.Warn("candidate is not in the history", zap.String("candidate_id", id))
			continue
		}
		n++
	}
	return n
}
