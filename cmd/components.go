package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/jobthai-scout/internal/candidate"
	"github.com/spigell/jobthai-scout/internal/config"
	"github.com/spigell/jobthai-scout/internal/degree"
	"github.com/spigell/jobthai-scout/internal/filtering"
	"github.com/spigell/jobthai-scout/internal/fuzzy"
	"github.com/spigell/jobthai-scout/internal/history"
	"github.com/spigell/jobthai-scout/internal/jobthai"
	applog "github.com/spigell/jobthai-scout/internal/logger"
	"github.com/spigell/jobthai-scout/internal/notify"
	"github.com/spigell/jobthai-scout/internal/pacing"
	"github.com/spigell/jobthai-scout/internal/qualify"
	"github.com/spigell/jobthai-scout/internal/recorder"
	"github.com/spigell/jobthai-scout/internal/scout"
	"github.com/spigell/jobthai-scout/internal/secrets"
	"github.com/spigell/jobthai-scout/internal/thaidate"
)

// newScout wires every component of a run. cleanup releases the browser and
// the database connections and is safe to call when err is nil.
func newScout(ctx context.Context, cfg *config.Config, opts runFlags, logger *zap.Logger) (*scout.Scout, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*scout.Scout, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	loc := cfg.Location()

	builder, err := newBuilder(cfg, loc, logger)
	if err != nil {
		return fail(err)
	}

	filters := newFilters(cfg, logger)
	if err := filters.Validate(); err != nil {
		return fail(fmt.Errorf("validating filters: %w", err))
	}

	var hist *history.History
	if !opts.NoHistory {
		hist, err = history.Load(cfg.Routing.HistoryFile)
		if err != nil {
			return fail(err)
		}
		logger.Debug("history loaded", zap.String("path", cfg.Routing.HistoryFile), zap.Int("entries", hist.Len()))
	}

	notifier, err := newNotifier(cfg, opts.DryRun, logger)
	if err != nil {
		return fail(err)
	}

	router := notify.NewRouter(notifier, hist, notify.Options{
		Policy: notify.Policy{
			HotDays:       cfg.Routing.HotDays,
			BatchDays:     cfg.Routing.BatchDays,
			HotCooldown:   cfg.Routing.HotCooldownDays,
			BatchCooldown: cfg.Routing.BatchCooldownDays,
			UseHistory:    cfg.Routing.UseHistory,
		},
		FlushDay: cfg.FlushDay(),
		Manual:   opts.Manual,
		Location: loc,
		Logger:   applog.Component(logger, applog.ComponentRouter),
	})

	rec, closeRecorders, err := newRecorder(ctx, cfg, opts.DryRun, loc, logger)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeRecorders)

	portal, err := newPortal(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() {
		if err := portal.Close(); err != nil {
			logger.Warn("closing the browser", zap.Error(err))
		}
	})

	s := &scout.Scout{
		Portal:   scout.JobThai(portal),
		Builder:  builder,
		Filters:  filters,
		Router:   router,
		Recorder: rec,
		History:  hist,
		Pacer:    pacing.New(cfg.Pacing, applog.Component(logger, applog.ComponentPacing)),
		Logger:   logger,
		Options:  opts.Options,
	}
	return s, cleanup, nil
}

func newBuilder(cfg *config.Config, loc *time.Location, logger *zap.Logger) (*candidate.Builder, error) {
	watchlists, err := config.LoadWatchlists(cfg.Watchlists)
	if err != nil {
		return nil, fmt.Errorf("loading watchlists: %w", err)
	}
	for _, w := range watchlists {
		logger.Debug("watchlist loaded", zap.String("name", w.Name), zap.Int("companies", len(w.Companies)))
	}

	matcher := fuzzy.New(cfg.Threshold)
	return &candidate.Builder{
		Dates:      thaidate.New(loc),
		Qualifier:  qualify.New(matcher, degree.NewRanker(cfg.Degrees)),
		Targets:    cfg.Targets,
		Categories: cfg.Categories,
		Watchlists: watchlists,
		Matcher:    matcher,
		Logger:     applog.Component(logger, applog.ComponentBuilder),
	}, nil
}

func newFilters(cfg *config.Config, logger *zap.Logger) *filtering.Filtering {
	steps := []filtering.Filter{
		filtering.NewExcludeFile(cfg.ExcludeFile),
		filtering.NewDuplicates(logger),
		filtering.NewCategories(cfg.Filters.Categories),
		filtering.NewMinDegree(cfg.Filters.MinDegreeRank),
	}

	for _, st := range filtering.Describe(steps) {
		logger.Debug("filter step", zap.String("name", st.Name), zap.Bool("enabled", st.Enabled), zap.String("reason", st.Reason))
	}
	return filtering.New(steps, logger)
}

// newNotifier fans out to every configured sink. A dry run, or a config
// without sinks, only logs.
func newNotifier(cfg *config.Config, dryRun bool, logger *zap.Logger) (notify.Notifier, error) {
	if dryRun {
		return notify.NewLog(applog.Component(logger, applog.ComponentNotify)), nil
	}

	var sinks []notify.Notifier
	if cfg.Email.Enabled() {
		password, err := secrets.Load(secrets.Source{
			Name:  "email password",
			Value: cfg.Email.Password,
			File:  cfg.Email.PasswordFile,
		})
		if err != nil {
			return nil, err
		}
		email, err := notify.NewEmail(notify.EmailConfig{
			Host:      cfg.Email.Host,
			Port:      cfg.Email.Port,
			Sender:    cfg.Email.Sender,
			Password:  password,
			Receivers: cfg.Email.Receivers,
			Timeout:   cfg.Email.Timeout,
		}, applog.Component(logger, applog.ComponentEmail))
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, email)
	}

	if cfg.Telegram.Enabled() {
		token, err := secrets.Load(secrets.Source{
			Name:  "telegram bot token",
			Value: cfg.Telegram.Token,
			File:  cfg.Telegram.TokenFile,
		})
		if err != nil {
			return nil, err
		}
		tg, err := notify.NewTelegram(token, cfg.Telegram.ChatID, applog.Component(logger, applog.ComponentTelegram))
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, tg)
	}

	if len(sinks) == 0 {
		logger.Warn("no notifier configured, notifications are only logged", zap.String("hint", "set email.sender or telegram.chat-id"))
		return notify.NewLog(applog.Component(logger, applog.ComponentNotify)), nil
	}
	return notify.NewMulti(sinks...), nil
}

// newRecorder opens every configured store under one run id. A dry run keeps
// only the local SQLite file.
func newRecorder(ctx context.Context, cfg *config.Config, dryRun bool, loc *time.Location, logger *zap.Logger) (recorder.Recorder, func(), error) {
	runID := uuid.New()
	log := applog.Component(logger, applog.ComponentRecorder).With(zap.String("run_id", runID.String()))

	var (
		recorders []recorder.Recorder
		closers   []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.SQLite.Enabled() {
		db, err := recorder.OpenSQLite(ctx, cfg.SQLite.Path, runID, log)
		if err != nil {
			return nil, closeAll, err
		}
		recorders = append(recorders, db)
		closers = append(closers, func() {
			if err := db.Close(); err != nil {
				log.Warn("closing sqlite", zap.Error(err))
			}
		})
	}

	if dryRun {
		return recorder.NewMulti(log, recorders...), closeAll, nil
	}

	if cfg.Postgres.Enabled() {
		pg, err := recorder.ConnectPostgres(ctx, cfg.Postgres.DSN, cfg.Postgres.Table, runID, log)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		recorders = append(recorders, pg)
		closers = append(closers, pg.Close)
	}

	if cfg.Sheets.Enabled() {
		key, err := secrets.Load(secrets.Source{
			Name:  "google service account key",
			Value: cfg.Sheets.Key,
			File:  cfg.Sheets.KeyFile,
		})
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		sh, err := recorder.NewSheets(ctx, recorder.SheetsConfig{
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			Name:            cfg.Sheets.Name,
			CredentialsJSON: []byte(key),
			Location:        loc,
		}, log)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		recorders = append(recorders, sh)
	}

	if len(recorders) == 0 {
		log.Warn("no recorder configured, candidates are not stored")
	}
	return recorder.NewMulti(log, recorders...), closeAll, nil
}

func newPortal(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*jobthai.Portal, error) {
	password, err := secrets.Load(secrets.Source{
		Name:  "jobthai password",
		Value: cfg.Portal.Password,
		File:  cfg.Portal.PasswordFile,
	})
	if err != nil {
		return nil, err
	}

	driver, err := jobthai.NewDriver(ctx, cfg.Portal.Driver, jobthai.DriverOptions{
		ShowBrowser: cfg.Portal.ShowBrowser,
		Timeout:     cfg.Portal.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("starting %s: %w", cfg.Portal.Driver, err)
	}

	return jobthai.New(driver, jobthai.Config{
		LoginURL:      cfg.Portal.LoginURL,
		SearchURL:     cfg.Portal.SearchURL,
		Username:      cfg.Portal.Username,
		Password:      password,
		LoginAttempts: cfg.Portal.LoginAttempts,
		PageAttempts:  cfg.Portal.PageAttempts,
		ImageDir:      cfg.Portal.ImageDir,
	}, applog.Component(logger, applog.ComponentPortal)), nil
}
