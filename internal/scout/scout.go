// Package scout runs one pass over the search keywords: it collects resume
// links, qualifies every candidate, routes notifications and stores the
// qualified records.
package scout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jobthai-scout/internal/candidate"
	"github.com/spigell/jobthai-scout/internal/filtering"
	"github.com/spigell/jobthai-scout/internal/history"
	"github.com/spigell/jobthai-scout/internal/jobthai"
	"github.com/spigell/jobthai-scout/internal/logger"
	"github.com/spigell/jobthai-scout/internal/notify"
	"github.com/spigell/jobthai-scout/internal/pacing"
	"github.com/spigell/jobthai-scout/internal/recorder"
)

// shutdownTimeout bounds the work done after the run was cancelled.
const shutdownTimeout = 30 * time.Second

// Page is a loaded resume page.
type Page interface {
	candidate.Page
	jobthai.PhotoPage
}

// Portal is the page fetcher a run drives.
type Portal interface {
	Login(ctx context.Context) error
	Search(ctx context.Context, keyword string) error
	Links(ctx context.Context) ([]string, error)
	Open(ctx context.Context, link string) (Page, error)
	SaveImage(ctx context.Context, page jobthai.PhotoPage, id string) (string, error)
	Close() error
}

// JobThai adapts a portal session to Portal.
func JobThai(p *jobthai.Portal) Portal {
	return jobthaiPortal{p}
}

type jobthaiPortal struct {
	*jobthai.Portal
}

func (p jobthaiPortal) Open(ctx context.Context, link string) (Page, error) {
	page, err := p.Portal.Open(ctx, link)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Options configure a run.
type Options struct {
	Keywords []string
	// HistoryFile is written at the end of the run unless DryRun is set.
	HistoryFile string
	DryRun      bool
	// SaveImages screenshots the photo of every kept candidate.
	SaveImages bool
}

// Scout wires the pipeline of one run.
type Scout struct {
	Portal   Portal
	Builder  *candidate.Builder
	Filters  *filtering.Filtering
	Router   *notify.Router
	Recorder recorder.Recorder
	History  *history.History
	Pacer    *pacing.Pacer
	Logger   *zap.Logger
	Options  Options
}

// Result summarizes a run.
type Result struct {
	Keywords  int
	Links     int
	Failed    int
	Rejected  int
	Filtered  int
	Records   *candidate.Records
	Decisions map[notify.Decision]int
	Duration  time.Duration
}

// Run logs in and processes every keyword. Page failures skip one candidate;
// sink failures are collected and returned together after the run finished.
// A cancelled run still stores the records of the current keyword and saves
// the history before it returns.
func (s *Scout) Run(ctx context.Context) (*Result, error) {
	log := logger.OrNop(s.Logger)
	started := time.Now()
	res := &Result{Records: &candidate.Records{}}

	if err := s.Portal.Login(ctx); err != nil {
		return res, fmt.Errorf("logging in: %w", err)
	}

	var errs []error
	for i, kw := range s.Options.Keywords {
		if i > 0 {
			if err := s.Pacer.AfterKeyword(ctx); err != nil {
				errs = append(errs, err)
				break
			}
		}

		kept, err := s.keyword(ctx, kw, res)
		if err != nil && ctx.Err() == nil {
			errs = append(errs, err)
		}
		res.Keywords++

		if err := s.record(ctx, kw, kept); err != nil {
			errs = append(errs, err)
		}

		if err := ctx.Err(); err != nil {
			log.Warn("run interrupted", zap.String(logger.FieldKeyword, kw), zap.Int("stored", len(kept)))
			errs = append(errs, err)
			break
		}
	}

	if s.Filters != nil {
		s.Filters.LogSummary()
	}
	res.Decisions = s.Router.Counts()

	if err := s.saveHistory(log); err != nil {
		errs = append(errs, err)
	}

	res.Duration = time.Since(started)
	log.Info("run finished",
		zap.Int("keywords", res.Keywords),
		zap.Int("links", res.Links),
		zap.Int("kept", res.Records.Len()),
		zap.Int("rejected", res.Rejected),
		zap.Int("filtered", res.Filtered),
		zap.Int("failed", res.Failed),
		zap.Duration("took", res.Duration),
	)
	return res, errors.Join(errs...)
}

// record stores the records kept for kw. Once ctx is done the append runs on a
// detached context bounded by shutdownTimeout.
func (s *Scout) record(ctx context.Context, kw string, kept []*candidate.Record) error {
	if len(kept) == 0 || s.Recorder == nil {
		return nil
	}

	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
	}

	if err := s.Recorder.Append(ctx, kept); err != nil {
		return fmt.Errorf("recording %q: %w", kw, err)
	}
	return nil
}

// keyword processes one search and returns the records kept for storage.
// The returned error carries notification failures only.
func (s *Scout) keyword(ctx context.Context, kw string, res *Result) ([]*candidate.Record, error) {
	log := logger.OrNop(s.Logger).With(zap.String(logger.FieldKeyword, kw))
	s.Router.Begin(kw)

	if err := s.Portal.Search(ctx, kw); err != nil {
		if errors.Is(err, jobthai.ErrNoResults) {
			log.Info("no resumes found")
		} else {
			log.Error("search failed", zap.Error(err))
		}
		return nil, s.Router.End(ctx)
	}

	links, err := s.Portal.Links(ctx)
	if err != nil {
		log.Error("collecting links failed", zap.Error(err), zap.Int("collected", len(links)))
	}
	res.Links += len(links)
	log.Info("processing resumes", zap.Int("links", len(links)))

	var kept []*candidate.Record
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return kept, err
		}

		rec, err := s.candidate(ctx, kw, link, res)
		if err != nil {
			return kept, err
		}
		if rec != nil {
			s.Router.Route(ctx, rec)
			kept = append(kept, rec)
			res.Records.Append(rec)
		}

		if err := s.Pacer.AfterProfile(ctx); err != nil {
			return kept, err
		}
	}

	return kept, s.Router.End(ctx)
}

// candidate loads and qualifies one link. A nil record means the candidate is
// skipped; an error is returned only when ctx is done.
func (s *Scout) candidate(ctx context.Context, kw, link string, res *Result) (*candidate.Record, error) {
	log := logger.OrNop(s.Logger).With(logger.CandidateFields("", kw, link)...)

	page, err := s.Portal.Open(ctx, link)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		res.Failed++
		log.Warn("resume page failed", zap.Error(err))
		return nil, nil
	}

	rec, verdict := s.Builder.Build(page, link, kw)
	if rec == nil {
		res.Rejected++
		log.Debug("candidate not qualified", zap.Int("education_entries", len(page.Education())))
		return nil, nil
	}
	log = log.With(zap.String(logger.FieldCandidate, rec.ID))

	if s.Filters != nil {
		left, err := s.Filters.RunFilters(ctx, &candidate.Records{Items: []*candidate.Record{rec}})
		if err != nil {
			log.Error("filtering failed", zap.Error(err))
			res.Failed++
			return nil, nil
		}
		if left.Len() == 0 {
			res.Filtered++
			return nil, nil
		}
	}

	if s.Options.SaveImages {
		path, err := s.Portal.SaveImage(ctx, page, rec.ID)
		if err != nil {
			log.Warn("saving photo failed", zap.Error(err))
		}
		rec.ImagePath = path
	}

	log.Info("qualified candidate",
		zap.String("degree", verdict.HighestDegreeLabel),
		zap.String("institution", verdict.MatchedInstitution),
		zap.Int("days_since_update", rec.DaysSinceUpdate),
	)
	return rec, nil
}

func (s *Scout) saveHistory(log *zap.Logger) error {
	if s.History == nil || s.Options.HistoryFile == "" {
		return nil
	}
	if s.Options.DryRun {
		log.Info("dry run, history not saved", zap.Int("entries", s.History.Len()))
		return nil
	}
	if err := s.History.Save(s.Options.HistoryFile); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	log.Debug("history saved", zap.String("path", s.Options.HistoryFile), zap.Int("entries", s.History.Len()))
	return nil
}
