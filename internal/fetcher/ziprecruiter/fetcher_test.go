package ziprecruiter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobsparser/jobsparser/internal/scraper"
)

type fakeAPI struct {
	mu           sync.Mutex
	pages        []apiResponse
	queries      []url.Values
	fail         int      // number of /jobs-app/jobs calls to fail with 429 first
	sessionValue string   // cookie set by /jobs-app/event when non-empty
	jobsCookies  []string // session cookie value seen on each /jobs-app/jobs call
}

func (a *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/jobs-app/event", func(w http.ResponseWriter, _ *http.Request) {
		a.mu.Lock()
		if a.sessionValue != "" {
			http.SetCookie(w, &http.Cookie{Name: "zva", Value: a.sessionValue, Path: "/"})
		}
		a.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/jobs-app/jobs", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()
		session := ""
		if c, err := r.Cookie("zva"); err == nil {
			session = c.Value
		}
		a.jobsCookies = append(a.jobsCookies, session)
		if a.fail > 0 {
			a.fail--
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		q := r.URL.Query()
		a.queries = append(a.queries, q)
		idx := 0
		if tok := q.Get("continue_from"); tok != "" {
			fmt.Sscanf(tok, "page-%d", &idx)
		}
		if idx >= len(a.pages) {
			_ = json.NewEncoder(w).Encode(apiResponse{})
			return
		}
		_ = json.NewEncoder(w).Encode(a.pages[idx])
	})
	return mux
}

func makePage(start, count int, next string) apiResponse {
	page := apiResponse{Continue: next}
	for i := 0; i < count; i++ {
		job := apiJob{
			Name:           fmt.Sprintf("engineer %d", start+i),
			ListingKey:     fmt.Sprintf("key-%d", start+i),
			JobCity:        "London",
			JobState:       "LDN",
			EmploymentType: "full_time",
			PostedTime:     "2026-08-01T09:00:00Z",
		}
		job.HiringCompany.Name = "Acme"
		page.Jobs = append(page.Jobs, job)
	}
	return page
}

func newTestFetcher(t *testing.T, api *fakeAPI) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, APIURL: srv.URL}, nil, nil, nil)
}

func TestFetchPage_BuffersAcrossTokenChain(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{pages: []apiResponse{
		makePage(0, 20, "page-1"),
		makePage(20, 20, "page-2"),
		makePage(40, 20, ""),
	}}
	f := newTestFetcher(t, api)
	ctx := context.Background()

	first, err := f.FetchPage(ctx, scraper.FetchRequest{Site: scraper.SiteZipRecruiter, Offset: 0, Limit: 15})
	require.NoError(t, err)
	require.Len(t, first, 15)
	require.Equal(t, "engineer 0", first[0].Title)
	require.Equal(t, scraper.SiteZipRecruiter, first[0].Site)

	// The leftover 5 records are served before the next API page.
	second, err := f.FetchPage(ctx, scraper.FetchRequest{Site: scraper.SiteZipRecruiter, Offset: 15, Limit: 15})
	require.NoError(t, err)
	require.Len(t, second, 15)
	require.Equal(t, "engineer 15", second[0].Title)
	require.Equal(t, "engineer 29", second[14].Title)
}

func TestFetchPage_DrainsOnEmptyContinue(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{pages: []apiResponse{makePage(0, 7, "")}}
	f := newTestFetcher(t, api)
	ctx := context.Background()

	records, err := f.FetchPage(ctx, scraper.FetchRequest{Offset: 0, Limit: 30})
	require.NoError(t, err)
	require.Len(t, records, 7)

	records, err = f.FetchPage(ctx, scraper.FetchRequest{Offset: 7, Limit: 30})
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestFetchPage_RejectsNonSequentialOffset(t *testing.T) {
	t.Parallel()
	f := newTestFetcher(t, &fakeAPI{pages: []apiResponse{makePage(0, 5, "")}})

	_, err := f.FetchPage(context.Background(), scraper.FetchRequest{Offset: 40, Limit: 10})
	require.Error(t, err)
	require.Contains(t, err.Error(), "non-sequential")
}

func TestFetchPage_RetryResumesCursor(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{
		pages: []apiResponse{makePage(0, 10, "")},
		fail:  1,
	}
	f := newTestFetcher(t, api)
	ctx := context.Background()

	_, err := f.FetchPage(ctx, scraper.FetchRequest{Offset: 0, Limit: 10})
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")

	records, err := f.FetchPage(ctx, scraper.FetchRequest{Offset: 0, Limit: 10})
	require.NoError(t, err)
	require.Len(t, records, 10)
}

func TestFetchPage_SendsSearchParams(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{pages: []apiResponse{makePage(0, 3, "")}}
	f := newTestFetcher(t, api)

	params := scraper.ScrapeParams{
		SearchTerm: "data engineer",
		Location:   "Manchester",
		Distance:   50,
		HoursOld:   72,
		JobType:    scraper.JobTypePartTime,
	}
	_, err := f.FetchPage(context.Background(), scraper.FetchRequest{Params: params, Offset: 0, Limit: 5})
	require.NoError(t, err)

	require.NotEmpty(t, api.queries)
	q := api.queries[0]
	require.Equal(t, "data engineer", q.Get("search"))
	require.Equal(t, "Manchester", q.Get("location"))
	require.Equal(t, "50", q.Get("radius"))
	require.Equal(t, "3", q.Get("days"))
	require.Equal(t, "part_time", q.Get("employment_type"))
}

func TestFetchPage_ReplaysSessionCookies(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{
		pages:        []apiResponse{makePage(0, 20, "page-1"), makePage(20, 20, "")},
		sessionValue: "session-token",
	}
	f := newTestFetcher(t, api)
	ctx := context.Background()

	_, err := f.FetchPage(ctx, scraper.FetchRequest{Offset: 0, Limit: 20})
	require.NoError(t, err)
	_, err = f.FetchPage(ctx, scraper.FetchRequest{Offset: 20, Limit: 20})
	require.NoError(t, err)

	require.Len(t, api.jobsCookies, 2)
	for _, got := range api.jobsCookies {
		require.Equal(t, "session-token", got, "session cookie travels on every jobs query")
	}
}

func TestFetchPage_DeduplicatesListings(t *testing.T) {
	t.Parallel()
	dup := makePage(0, 5, "page-1")
	api := &fakeAPI{pages: []apiResponse{dup, makePage(0, 5, "")}}
	f := newTestFetcher(t, api)

	records, err := f.FetchPage(context.Background(), scraper.FetchRequest{Offset: 0, Limit: 30})
	require.NoError(t, err)
	require.Len(t, records, 5)
}

func TestToRecord_MapsFields(t *testing.T) {
	t.Parallel()
	f := New(Config{}, nil, nil, nil)
	job := apiJob{
		Name:                 "Platform Engineer",
		ListingKey:           "abc123",
		JobDescription:       "  build things  ",
		JobCity:              "Leeds",
		JobState:             "LS",
		EmploymentType:       "full_time",
		PostedTime:           "2026-07-15T08:30:00Z",
		CompensationMin:      50000,
		CompensationMax:      70000,
		CompensationCurrency: "GBP",
		Remote:               true,
	}
	job.HiringCompany.Name = "Acme"

	rec, ok := f.toRecord(job)
	require.True(t, ok)
	require.Equal(t, "Platform Engineer", rec.Title)
	require.Equal(t, "Acme", rec.Company)
	require.Equal(t, "Leeds, LS", rec.Location)
	require.Equal(t, "https://www.ziprecruiter.com/jobs//j?lvk=abc123", rec.JobURL)
	require.Equal(t, "fulltime", rec.JobType)
	require.NotNil(t, rec.DatePosted)
	require.Equal(t, float64(50000), rec.SalaryMin)
	require.Equal(t, "GBP", rec.Currency)
	require.True(t, rec.IsRemote)
	require.Equal(t, "build things", rec.Description)
}
