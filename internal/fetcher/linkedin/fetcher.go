// Package linkedin fetches job postings from the LinkedIn guest search
// endpoint using colly.
package linkedin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/jobsparser/jobsparser/internal/proxy"
	"github.com/jobsparser/jobsparser/internal/ratelimit"
	"github.com/jobsparser/jobsparser/internal/scraper"
)

// Config controls collector behavior.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://www.linkedin.com"
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	}
	if c.Timeout == 0 {
		c.Timeout = 15 * time.Second
	}
}

// Fetcher implements scraper.Fetcher against the guest jobs search. The
// endpoint pages with a plain start index, so offsets map onto it directly.
type Fetcher struct {
	cfg       Config
	transport http.RoundTripper
	limiter   *ratelimit.Limiter
	logger    *zap.Logger
	base      *colly.Collector
}

// New builds a Fetcher. The rotator and limiter may be nil.
func New(cfg Config, rotator *proxy.Rotator, limiter *ratelimit.Limiter, logger *zap.Logger) *Fetcher {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	if rotator == nil {
		rotator = &proxy.Rotator{}
	}
	c := colly.NewCollector(colly.Async(false))
	return &Fetcher{
		cfg:       cfg,
		transport: rotator.Transport(),
		limiter:   limiter,
		logger:    logger,
		base:      c,
	}
}

// FetchPage returns up to req.Limit job cards starting at req.Offset. The
// guest endpoint serves a server-fixed number of cards per request (usually
// fewer than a batch), so the fetcher keeps paging internally until the limit
// is filled or the endpoint returns no more cards. A page shorter than the
// limit therefore really means the provider ran dry.
func (f *Fetcher) FetchPage(ctx context.Context, req scraper.FetchRequest) ([]scraper.JobRecord, error) {
	var records []scraper.JobRecord
	for len(records) < req.Limit {
		page, err := f.fetchSearchPage(ctx, req.Params, req.Offset+len(records))
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		records = append(records, page...)
	}

	if len(records) > req.Limit {
		records = records[:req.Limit]
	}
	if req.Params.FetchDescription {
		f.fillDescriptions(ctx, records)
	}
	return records, nil
}

// fetchSearchPage visits one guest search page and parses its cards.
func (f *Fetcher) fetchSearchPage(ctx context.Context, params scraper.ScrapeParams, start int) ([]scraper.JobRecord, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, scraper.SiteLinkedIn); err != nil {
			return nil, err
		}
	}

	var (
		records  []scraper.JobRecord
		fetchErr error
	)
	collector := f.newCollector()
	collector.OnHTML("div.base-search-card", func(e *colly.HTMLElement) {
		records = append(records, f.parseCard(e))
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := f.visit(ctx, collector, f.searchURL(params, start)); err != nil {
		return nil, err
	}
	if fetchErr != nil {
		return nil, fmt.Errorf("linkedin search failed: %w", fetchErr)
	}
	return records, nil
}

func (f *Fetcher) newCollector() *colly.Collector {
	collector := f.base.Clone()
	collector.UserAgent = f.cfg.UserAgent
	collector.IgnoreRobotsTxt = true
	// Retries revisit the same search URL, so the dedupe store must not
	// reject them.
	collector.AllowURLRevisit = true
	collector.SetRequestTimeout(f.cfg.Timeout)
	collector.WithTransport(f.transport)
	return collector
}

func (f *Fetcher) searchURL(params scraper.ScrapeParams, start int) string {
	q := url.Values{}
	q.Set("keywords", params.SearchTerm)
	q.Set("location", params.Location)
	q.Set("start", strconv.Itoa(start))
	if params.Distance > 0 {
		q.Set("distance", strconv.Itoa(params.Distance))
	}
	if params.HoursOld > 0 {
		q.Set("f_TPR", "r"+strconv.Itoa(params.HoursOld*3600))
	}
	if code, ok := jobTypeCodes[params.JobType]; ok {
		q.Set("f_JT", code)
	}
	if codes := experienceCodes(params.ExperienceLevels); codes != "" {
		q.Set("f_E", codes)
	}
	return f.cfg.BaseURL + "/jobs-guest/jobs/api/seeMoreJobPostings/search?" + q.Encode()
}

var jobTypeCodes = map[scraper.JobType]string{
	scraper.JobTypeFullTime:   "F",
	scraper.JobTypePartTime:   "P",
	scraper.JobTypeContract:   "C",
	scraper.JobTypeInternship: "I",
}

var experienceLevelCodes = map[scraper.ExperienceLevel]string{
	scraper.ExperienceInternship: "1",
	scraper.ExperienceEntry:      "2",
	scraper.ExperienceAssociate:  "3",
	scraper.ExperienceMidSenior:  "4",
	scraper.ExperienceDirector:   "5",
	scraper.ExperienceExecutive:  "6",
}

func experienceCodes(levels []scraper.ExperienceLevel) string {
	codes := make([]string, 0, len(levels))
	for _, lvl := range levels {
		if code, ok := experienceLevelCodes[lvl]; ok {
			codes = append(codes, code)
		}
	}
	return strings.Join(codes, ",")
}

func (f *Fetcher) parseCard(e *colly.HTMLElement) scraper.JobRecord {
	rec := scraper.JobRecord{
		Site:     scraper.SiteLinkedIn,
		Title:    strings.TrimSpace(e.ChildText(".base-search-card__title")),
		Company:  strings.TrimSpace(e.ChildText(".base-search-card__subtitle")),
		Location: strings.TrimSpace(e.ChildText(".job-search-card__location")),
		JobURL:   cleanJobURL(e.ChildAttr("a.base-card__full-link", "href")),
	}
	if posted := e.ChildAttr("time.job-search-card__listdate", "datetime"); posted != "" {
		if ts, err := time.Parse("2006-01-02", posted); err == nil {
			rec.DatePosted = &ts
		}
	}
	return rec
}

// cleanJobURL strips tracking parameters from a job link.
func cleanJobURL(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return strings.TrimSpace(href)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// fillDescriptions visits each job page and extracts the posting body.
// Failures leave the description empty rather than failing the batch.
func (f *Fetcher) fillDescriptions(ctx context.Context, records []scraper.JobRecord) {
	for i := range records {
		if records[i].JobURL == "" {
			continue
		}
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx, scraper.SiteLinkedIn); err != nil {
				return
			}
		}
		descr, err := f.fetchDescription(ctx, records[i].JobURL)
		if err != nil {
			f.logger.Debug("description fetch failed",
				zap.String("url", records[i].JobURL),
				zap.Error(err),
			)
			continue
		}
		records[i].Description = descr
	}
}

func (f *Fetcher) fetchDescription(ctx context.Context, jobURL string) (string, error) {
	var descr string
	collector := f.newCollector()
	collector.OnHTML(".show-more-less-html__markup", func(e *colly.HTMLElement) {
		descr = strings.TrimSpace(e.Text)
	})
	if err := f.visit(ctx, collector, jobURL); err != nil {
		return "", err
	}
	return descr, nil
}

func (f *Fetcher) visit(ctx context.Context, collector *colly.Collector, target string) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(target)
	}()
	select {
	case <-ctx.Done():
		return fmt.Errorf("linkedin fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("linkedin visit failed: %w", err)
		}
		return nil
	}
}
