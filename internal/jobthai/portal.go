// Package jobthai drives the JobThai employer portal: login, resume search,
// result pagination and resume pages.
package jobthai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/spigell/jobthai-scout/internal/pacing"
)

const (
	DefaultLoginURL  = "https://www.jobthai.com/th/employer"
	DefaultSearchURL = "https://www3.jobthai.com/findresume/findresume.php?l=th"

	usernameSel = "#login-form-username, input[name='username']"
	passwordSel = "#login-form-password, input[name='password']"
	loginErrSel = ".error-message"
	keywordID   = "KeyWord"
	searchBtnID = "buttonsearch"
	resumeLinks = "a[href*='ResumeDetail'], a[href*='/resume/']"
	nextSel     = "#content-l > div:nth-of-type(2) > div:nth-of-type(1) > table > tbody > tr > td:nth-of-type(8) a"

	dismissPopupsJS = `(() => {
	const pdpa = document.querySelector('#pdpa-consent-dialog button');
	if (pdpa) pdpa.click();
	const modal = document.querySelector('.modal-close-btn');
	if (modal) modal.click();
})()`

	employerTabJS = `(() => {
	document.querySelectorAll('li[data-tab]').forEach(el => el.classList.remove('active'));
	const tab = document.querySelector('li[data-tab="employer"]');
	if (tab) tab.classList.add('active');
	const seeker = document.getElementById('login-form-jobseeker');
	if (seeker) seeker.style.display = 'none';
	const employer = document.getElementById('login-form-employer');
	if (employer) employer.style.display = 'block';
})()`

	submitLoginJS = `(() => {
	const btn = document.querySelector('#btn-login, button[type="submit"]');
	if (btn) { btn.click(); return; }
	const pass = document.querySelector("#login-form-password, input[name='password']");
	if (pass && pass.form) pass.form.submit();
})()`

	maxResultPages = 200
)

var (
	// ErrLoginFailed is returned when every login attempt failed.
	ErrLoginFailed = errors.New("login failed")
	// ErrNoResults is returned by Search when the portal reports no resumes.
	ErrNoResults = errors.New("no results")
)

// Config configures the portal flow.
type Config struct {
	LoginURL      string
	SearchURL     string
	Username      string
	Password      string
	LoginAttempts int
	PageAttempts  int
	// ImageDir receives candidate photos.
	ImageDir string

	LoginWait   time.Duration
	SearchWait  time.Duration
	ResultsWait time.Duration
	PageTurn    time.Duration
	// RetryMin and RetryMax bound the random pause before reloading a page.
	RetryMin time.Duration
	RetryMax time.Duration
}

func (c *Config) setDefaults() {
	if c.LoginURL == "" {
		c.LoginURL = DefaultLoginURL
	}
	if c.SearchURL == "" {
		c.SearchURL = DefaultSearchURL
	}
	if c.LoginAttempts <= 0 {
		c.LoginAttempts = 5
	}
	if c.PageAttempts <= 0 {
		c.PageAttempts = 3
	}
	if c.ImageDir == "" {
		c.ImageDir = "resume_images"
	}
	if c.LoginWait == 0 {
		c.LoginWait = 20 * time.Second
	}
	if c.SearchWait == 0 {
		c.SearchWait = 20 * time.Second
	}
	if c.ResultsWait == 0 {
		c.ResultsWait = 15 * time.Second
	}
	if c.PageTurn == 0 {
		c.PageTurn = 3 * time.Second
	}
	if c.RetryMin == 0 && c.RetryMax == 0 {
		c.RetryMin, c.RetryMax = 5*time.Second, 10*time.Second
	}
}

// Portal is a logged-in session on the employer portal.
type Portal struct {
	driver Driver
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// New wraps driver. The portal owns the driver and closes it in Close.
func New(driver Driver, cfg Config, logger *zap.Logger) *Portal {
	cfg.setDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Portal{driver: driver, cfg: cfg, logger: logger, now: time.Now}
}

// NewDriver starts the browser named by kind.
func NewDriver(ctx context.Context, kind string, opts DriverOptions) (Driver, error) {
	switch kind {
	case DriverPlaywright, "":
		return NewPlaywright(opts)
	case DriverChromedp:
		return NewChromedp(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown browser driver %q", kind)
	}
}

// Login signs in, retrying up to LoginAttempts times. Cookies are cleared
// between attempts.
func (p *Portal) Login(ctx context.Context) error {
	for attempt := 1; attempt <= p.cfg.LoginAttempts; attempt++ {
		log := p.logger.With(zap.Int("attempt", attempt), zap.Int("of", p.cfg.LoginAttempts))
		log.Info("logging in")

		err := p.login(ctx)
		if err == nil {
			log.Info("login succeeded")
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Warn("login attempt failed", zap.Error(err), zap.String("portal_error", p.loginError(ctx)))
		if err := p.driver.ClearCookies(ctx); err != nil {
			log.Debug("clearing cookies failed", zap.Error(err))
		}
	}
	return fmt.Errorf("%w after %d attempts", ErrLoginFailed, p.cfg.LoginAttempts)
}

func (p *Portal) login(ctx context.Context) error {
	if err := p.driver.Navigate(ctx, p.cfg.LoginURL); err != nil {
		return fmt.Errorf("opening login page: %w", err)
	}
	start, err := p.driver.URL(ctx)
	if err != nil {
		return err
	}

	if err := p.driver.Evaluate(ctx, dismissPopupsJS); err != nil {
		p.logger.Debug("dismissing popups failed", zap.Error(err))
	}
	if err := p.driver.Evaluate(ctx, employerTabJS); err != nil {
		p.logger.Debug("switching to employer tab failed", zap.Error(err))
	}

	if err := p.driver.Fill(ctx, usernameSel, p.cfg.Username); err != nil {
		return fmt.Errorf("filling username: %w", err)
	}
	if err := p.driver.Fill(ctx, passwordSel, p.cfg.Password); err != nil {
		return fmt.Errorf("filling password: %w", err)
	}
	if err := p.driver.Evaluate(ctx, submitLoginJS); err != nil {
		return fmt.Errorf("submitting login form: %w", err)
	}

	if err := p.driver.WaitUntil(ctx, loggedInExpr(start), p.cfg.LoginWait); err != nil {
		return fmt.Errorf("waiting for redirect: %w", err)
	}
	return nil
}

// loggedInExpr is true once the page left the login form.
func loggedInExpr(start string) string {
	return fmt.Sprintf(`location.href.includes("findresume") || (location.href !== %s && !location.href.includes("login"))`, jsString(start))
}

func (p *Portal) loginError(ctx context.Context) string {
	html, err := p.driver.HTML(ctx)
	if err != nil {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find(loginErrSel).First().Text())
}

// Search submits keyword on the resume search page. It returns ErrNoResults
// when the portal reports an empty result.
func (p *Portal) Search(ctx context.Context, keyword string) error {
	if err := p.driver.Navigate(ctx, p.cfg.SearchURL); err != nil {
		return fmt.Errorf("opening search page: %w", err)
	}
	if err := p.driver.WaitUntil(ctx, fmt.Sprintf("document.getElementById(%s) !== null", jsString(keywordID)), p.cfg.SearchWait); err != nil {
		return fmt.Errorf("waiting for search form: %w", err)
	}

	script := fmt.Sprintf(`document.getElementById(%s).value = %s; document.getElementById(%s).click();`,
		jsString(keywordID), jsString(keyword), jsString(searchBtnID))
	if err := p.driver.Evaluate(ctx, script); err != nil {
		return fmt.Errorf("submitting search: %w", err)
	}

	ready := fmt.Sprintf(`(() => { const h = document.documentElement.innerHTML; return h.includes(%s) || h.includes(%s) || h.includes(%s); })()`,
		jsString(resumeLinkPart), jsString(noResultsTH), jsString(noResultsEN))
	if err := p.driver.WaitUntil(ctx, ready, p.cfg.ResultsWait); err != nil {
		return fmt.Errorf("waiting for results: %w", err)
	}

	html, err := p.driver.HTML(ctx)
	if err != nil {
		return err
	}
	if NoResults(html) {
		return ErrNoResults
	}
	return nil
}

// Links collects resume links from every result page, following the next
// control until a page adds nothing new.
func (p *Portal) Links(ctx context.Context) ([]string, error) {
	var (
		links []string
		seen  = make(map[string]bool)
	)

	for page := 1; page <= maxResultPages; page++ {
		html, err := p.driver.HTML(ctx)
		if err != nil {
			return links, fmt.Errorf("reading result page %d: %w", page, err)
		}
		base, _ := p.driver.URL(ctx)

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return links, fmt.Errorf("parsing result page %d: %w", page, err)
		}

		added := 0
		for _, link := range ResultLinks(doc, base) {
			if !seen[link] {
				seen[link] = true
				links = append(links, link)
				added++
			}
		}
		p.logger.Info("collected links", zap.Int("page", page), zap.Int("added", added), zap.Int("total", len(links)))

		if added == 0 {
			break
		}

		next := NextControl(doc)
		if next < 0 {
			break
		}
		click := fmt.Sprintf(`document.querySelectorAll(%s)[%d].click()`, jsString(nextSel), next)
		if err := p.driver.Evaluate(ctx, click); err != nil {
			p.logger.Debug("next page click failed", zap.Error(err))
			break
		}
		if err := pacing.WaitFor(ctx, p.cfg.PageTurn); err != nil {
			return links, err
		}
	}
	return links, nil
}

// Open loads a resume page, retrying up to PageAttempts times.
func (p *Portal) Open(ctx context.Context, link string) (*ProfilePage, error) {
	var lastErr error
	for attempt := 1; attempt <= p.cfg.PageAttempts; attempt++ {
		if attempt > 1 {
			if err := pacing.WaitFor(ctx, p.retryPause()); err != nil {
				return nil, err
			}
		}

		if err := p.driver.Navigate(ctx, link); err != nil {
			lastErr = err
			p.logger.Warn("page load failed", zap.String("link", link), zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		html, err := p.driver.HTML(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		return ParseProfile(html)
	}
	return nil, fmt.Errorf("opening %s: %w", link, lastErr)
}

func (p *Portal) retryPause() time.Duration {
	spread := p.cfg.RetryMax - p.cfg.RetryMin
	if spread <= 0 {
		return p.cfg.RetryMin
	}
	return p.cfg.RetryMin + time.Duration(rand.Int64N(int64(spread)))
}

// PhotoPage reports whether a page shows a candidate photo.
type PhotoPage interface {
	HasPhoto() bool
}

// SaveImage screenshots the candidate photo of the current page to
// ImageDir/<id>.png and returns the path. A page without a photo yields "".
func (p *Portal) SaveImage(ctx context.Context, page PhotoPage, id string) (string, error) {
	if !page.HasPhoto() {
		return "", nil
	}
	if err := os.MkdirAll(p.cfg.ImageDir, 0o755); err != nil {
		return "", fmt.Errorf("creating image dir: %w", err)
	}

	path := filepath.Join(p.cfg.ImageDir, ImageName(id, p.now()))
	if err := p.driver.Screenshot(ctx, PhotoSel, path); err != nil {
		return "", fmt.Errorf("saving photo: %w", err)
	}
	return path, nil
}

// ImageName is <id>.png, or unknown_<unix>.png without an id.
func ImageName(id string, now time.Time) string {
	id = strings.TrimSpace(id)
	if id == "" {
		id = fmt.Sprintf("unknown_%d", now.Unix())
	}
	return filepath.Base(id) + ".png"
}

// Close shuts the browser down.
func (p *Portal) Close() error {
	return p.driver.Close()
}

// NoResults reports whether a result page says nothing was found.
func NoResults(html string) bool {
	return strings.Contains(html, noResultsTH) || strings.Contains(html, noResultsEN)
}

// ResultLinks returns the resume links of a result page in document order,
// resolved against base and without duplicates.
func ResultLinks(doc *goquery.Document, base string) []string {
	baseURL, _ := url.Parse(base)

	var (
		out  []string
		seen = make(map[string]bool)
	)
	doc.Find(resumeLinks).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		if baseURL != nil {
			if ref, err := url.Parse(href); err == nil {
				href = baseURL.ResolveReference(ref).String()
			}
		}
		if !seen[href] {
			seen[href] = true
			out = append(out, href)
		}
	})
	return out
}

// NextControl returns the index of the next-page anchor among the pager
// anchors, or -1 when there is none.
func NextControl(doc *goquery.Document) int {
	anchors := doc.Find(nextSel)
	if anchors.Length() == 0 {
		return -1
	}

	idx := 0
	anchors.EachWithBreak(func(i int, a *goquery.Selection) bool {
		text := a.Text()
		if strings.Contains(text, "ถัดไป") || strings.Contains(text, "Next") || strings.Contains(text, ">") {
			idx = i
			return false
		}
		return true
	})
	return idx
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
