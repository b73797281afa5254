package fetcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobsparser/jobsparser/internal/scraper"
)

type fakeProvider struct {
	calls   int
	records []scraper.JobRecord
}

func (f *fakeProvider) FetchPage(_ context.Context, _ scraper.FetchRequest) ([]scraper.JobRecord, error) {
	f.calls++
	return f.records, nil
}

func TestRegistry_RoutesBySite(t *testing.T) {
	t.Parallel()
	linkedin := &fakeProvider{records: []scraper.JobRecord{{Site: scraper.SiteLinkedIn, Title: "a"}}}
	zip := &fakeProvider{records: []scraper.JobRecord{{Site: scraper.SiteZipRecruiter, Title: "b"}}}
	r := NewRegistry(map[scraper.Site]scraper.Fetcher{
		scraper.SiteLinkedIn:     linkedin,
		scraper.SiteZipRecruiter: zip,
	})

	records, err := r.FetchPage(context.Background(), scraper.FetchRequest{Site: scraper.SiteZipRecruiter})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, scraper.SiteZipRecruiter, records[0].Site)
	require.Equal(t, 1, zip.calls)
	require.Zero(t, linkedin.calls)
}

func TestRegistry_UnknownSiteErrors(t *testing.T) {
	t.Parallel()
	r := NewRegistry(map[scraper.Site]scraper.Fetcher{
		scraper.SiteLinkedIn: &fakeProvider{},
	})

	_, err := r.FetchPage(context.Background(), scraper.FetchRequest{Site: scraper.SiteGlassdoor})
	require.Error(t, err)
	require.Contains(t, err.Error(), "glassdoor")
}

func TestRegistry_SupportsAndSites(t *testing.T) {
	t.Parallel()
	r := NewRegistry(map[scraper.Site]scraper.Fetcher{
		scraper.SiteZipRecruiter: &fakeProvider{},
		scraper.SiteLinkedIn:     &fakeProvider{},
		scraper.SiteIndeed:       nil,
	})

	require.True(t, r.Supports(scraper.SiteLinkedIn))
	require.False(t, r.Supports(scraper.SiteIndeed))
	require.Equal(t, []scraper.Site{scraper.SiteLinkedIn, scraper.SiteZipRecruiter}, r.Sites())
}
