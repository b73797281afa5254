// Package ziprecruiter fetches job postings from the ZipRecruiter mobile API.
package ziprecruiter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jobsparser/jobsparser/internal/proxy"
	"github.com/jobsparser/jobsparser/internal/ratelimit"
	"github.com/jobsparser/jobsparser/internal/scraper"
)

const defaultUserAgent = "Jobs App/91.0 (iPhone; iOS 16.6.1)"

// Config controls the API client.
type Config struct {
	// BaseURL is the public site, used to build job page links.
	BaseURL string
	// APIURL is the mobile API endpoint.
	APIURL  string
	Timeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://www.ziprecruiter.com"
	}
	if c.APIURL == "" {
		c.APIURL = "https://api.ziprecruiter.com"
	}
	if c.Timeout == 0 {
		c.Timeout = 15 * time.Second
	}
}

// Fetcher implements scraper.Fetcher against the jobs-app API. The API pages
// with an opaque continue token, so the fetcher keeps a forward-only cursor
// and buffers records fetched past the caller's limit.
type Fetcher struct {
	cfg     Config
	client  *http.Client
	limiter *ratelimit.Limiter
	logger  *zap.Logger

	sessionOnce sync.Once

	mu sync.Mutex
	// handed is the absolute index of the next record to serve.
	handed   int
	buffered []scraper.JobRecord
	token    string
	drained  bool
	seen     map[string]bool
}

// New builds a Fetcher. The rotator and limiter may be nil.
func New(cfg Config, rotator *proxy.Rotator, limiter *ratelimit.Limiter, logger *zap.Logger) *Fetcher {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	client := &http.Client{Timeout: cfg.Timeout}
	// The session cookies earned by primeSession must ride along on every
	// jobs query, as the API refuses cookieless clients.
	if jar, err := cookiejar.New(nil); err == nil {
		client.Jar = jar
	}
	if rotator != nil {
		client.Transport = rotator.Transport()
	}
	return &Fetcher{
		cfg:     cfg,
		client:  client,
		limiter: limiter,
		logger:  logger,
		seen:    make(map[string]bool),
	}
}

// FetchPage returns up to req.Limit records starting at req.Offset. Requests
// must arrive in ascending offset order; a failed call may be retried at the
// same offset without losing the cursor.
func (f *Fetcher) FetchPage(ctx context.Context, req scraper.FetchRequest) ([]scraper.JobRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if req.Offset != f.handed {
		return nil, fmt.Errorf("ziprecruiter: non-sequential offset %d, cursor at %d", req.Offset, f.handed)
	}

	f.sessionOnce.Do(func() { f.primeSession(ctx) })

	for len(f.buffered) < req.Limit && !f.drained {
		if err := f.fetchNextAPIPage(ctx, req.Params); err != nil {
			// Buffered records survive so a retry resumes where this
			// call failed.
			return nil, err
		}
	}

	n := req.Limit
	if n > len(f.buffered) {
		n = len(f.buffered)
	}
	out := make([]scraper.JobRecord, n)
	copy(out, f.buffered[:n])
	f.buffered = f.buffered[n:]
	f.handed += n
	return out, nil
}

func (f *Fetcher) fetchNextAPIPage(ctx context.Context, params scraper.ScrapeParams) error {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, scraper.SiteZipRecruiter); err != nil {
			return err
		}
	}

	endpoint := f.cfg.APIURL + "/jobs-app/jobs?" + f.queryParams(params).Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", defaultUserAgent)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ziprecruiter request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("ziprecruiter: blocked with status 429")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ziprecruiter: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	for _, job := range page.Jobs {
		rec, ok := f.toRecord(job)
		if ok {
			f.buffered = append(f.buffered, rec)
		}
	}
	f.token = page.Continue
	if len(page.Jobs) == 0 || page.Continue == "" {
		f.drained = true
	}
	f.logger.Debug("fetched api page",
		zap.Int("jobs", len(page.Jobs)),
		zap.Bool("drained", f.drained),
	)
	return nil
}

func (f *Fetcher) queryParams(params scraper.ScrapeParams) url.Values {
	q := url.Values{}
	q.Set("search", params.SearchTerm)
	q.Set("location", params.Location)
	if params.Distance > 0 {
		q.Set("radius", strconv.Itoa(params.Distance))
	}
	if params.HoursOld > 0 {
		days := params.HoursOld / 24
		if days < 1 {
			days = 1
		}
		q.Set("days", strconv.Itoa(days))
	}
	if et, ok := employmentTypes[params.JobType]; ok {
		q.Set("employment_type", et)
	}
	if f.token != "" {
		q.Set("continue_from", f.token)
	}
	return q
}

var employmentTypes = map[scraper.JobType]string{
	scraper.JobTypeFullTime:   "full_time",
	scraper.JobTypePartTime:   "part_time",
	scraper.JobTypeContract:   "contract",
	scraper.JobTypeInternship: "internship",
}

func (f *Fetcher) toRecord(job apiJob) (scraper.JobRecord, bool) {
	jobURL := fmt.Sprintf("%s/jobs//j?lvk=%s", f.cfg.BaseURL, job.ListingKey)
	if f.seen[jobURL] {
		return scraper.JobRecord{}, false
	}
	f.seen[jobURL] = true

	rec := scraper.JobRecord{
		Site:        scraper.SiteZipRecruiter,
		Title:       job.Name,
		Company:     job.HiringCompany.Name,
		Location:    joinLocation(job.JobCity, job.JobState),
		JobURL:      jobURL,
		JobType:     strings.ReplaceAll(job.EmploymentType, "_", ""),
		SalaryMin:   job.CompensationMin,
		SalaryMax:   job.CompensationMax,
		Currency:    job.CompensationCurrency,
		IsRemote:    job.Remote,
		Description: strings.TrimSpace(job.JobDescription),
	}
	if job.PostedTime != "" {
		if ts, err := time.Parse(time.RFC3339, job.PostedTime); err == nil {
			rec.DatePosted = &ts
		}
	}
	return rec, true
}

func joinLocation(city, state string) string {
	switch {
	case city == "":
		return state
	case state == "":
		return city
	default:
		return city + ", " + state
	}
}

// primeSession replays the mobile app's session event so subsequent job
// queries carry the expected cookies. Failures are not fatal.
func (f *Fetcher) primeSession(ctx context.Context) {
	body := strings.NewReader("event_type=session&logged_in=false&number_of_retry=1")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.APIURL+"/jobs-app/event", body)
	if err != nil {
		return
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug("session prime failed", zap.Error(err))
		return
	}
	resp.Body.Close()
}

type apiResponse struct {
	Jobs     []apiJob `json:"jobs"`
	Continue string   `json:"continue"`
}

type apiJob struct {
	Name           string `json:"name"`
	ListingKey     string `json:"listing_key"`
	JobDescription string `json:"job_description"`
	HiringCompany  struct {
		Name string `json:"name"`
	} `json:"hiring_company"`
	JobCity              string  `json:"job_city"`
	JobState             string  `json:"job_state"`
	JobCountry           string  `json:"job_country"`
	EmploymentType       string  `json:"employment_type"`
	PostedTime           string  `json:"posted_time"`
	CompensationInterval string  `json:"compensation_interval"`
	CompensationMin      float64 `json:"compensation_min"`
	CompensationMax      float64 `json:"compensation_max"`
	CompensationCurrency string  `json:"compensation_currency"`
	Remote               bool    `json:"remote"`
}
