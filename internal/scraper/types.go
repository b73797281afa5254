package scraper

import "time"

// Site identifies one external job-search provider.
type Site string

// Supported provider identifiers.
const (
	SiteLinkedIn     Site = "linkedin"
	SiteIndeed       Site = "indeed"
	SiteGlassdoor    Site = "glassdoor"
	SiteZipRecruiter Site = "ziprecruiter"
)

// JobType narrows a search to a contract category.
type JobType string

// Supported job types.
const (
	JobTypeFullTime   JobType = "fulltime"
	JobTypePartTime   JobType = "parttime"
	JobTypeContract   JobType = "contract"
	JobTypeInternship JobType = "internship"
)

// ExperienceLevel filters LinkedIn searches by seniority.
type ExperienceLevel string

// Supported experience levels.
const (
	ExperienceInternship ExperienceLevel = "internship"
	ExperienceEntry      ExperienceLevel = "entry"
	ExperienceAssociate  ExperienceLevel = "associate"
	ExperienceMidSenior  ExperienceLevel = "mid-senior"
	ExperienceDirector   ExperienceLevel = "director"
	ExperienceExecutive  ExperienceLevel = "executive"
)

// JobRecord is one row returned by a provider. The task and orchestrator
// layers never inspect its fields; they only count and forward records.
type JobRecord struct {
	Site        Site       `json:"site"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location"`
	JobURL      string     `json:"job_url"`
	JobType     string     `json:"job_type,omitempty"`
	DatePosted  *time.Time `json:"date_posted,omitempty"`
	SalaryMin   float64    `json:"salary_min,omitempty"`
	SalaryMax   float64    `json:"salary_max,omitempty"`
	Currency    string     `json:"currency,omitempty"`
	IsRemote    bool       `json:"is_remote,omitempty"`
	Description string     `json:"description,omitempty"`
}

// ScrapeParams captures the immutable search parameters for one run. It is
// shared read-only across every site task.
type ScrapeParams struct {
	SearchTerm       string
	Location         string
	Distance         int
	JobType          JobType
	Country          string
	FetchDescription bool
	Proxies          []string
	HoursOld         int
	ExperienceLevels []ExperienceLevel
}

// SessionConfig holds the per-run tunables driving pagination and retries.
type SessionConfig struct {
	Sites         []Site
	ResultsWanted int
	BatchSize     int
	SleepTime     time.Duration
	MaxRetries    int
}

// Validate enforces the session invariants before any task is spawned.
func (c SessionConfig) Validate() error {
	if len(c.Sites) == 0 {
		return configError("at least one site is required")
	}
	if c.ResultsWanted <= 0 {
		return configError("results_wanted must be > 0")
	}
	if c.BatchSize <= 0 {
		return configError("batch_size must be > 0")
	}
	if c.SleepTime < 0 {
		return configError("sleep_time must be >= 0")
	}
	if c.MaxRetries < 0 {
		return configError("max_retries must be >= 0")
	}
	return nil
}

// Outcome is the terminal state a site task ends in. Configuration rejection
// has no outcome: invalid sessions fail with ErrConfiguration before any task
// is spawned, so no SiteResult exists to carry it.
type Outcome string

// Terminal outcomes recorded on SiteResult.
const (
	// OutcomeDone means the task reached its target or the provider ran dry.
	OutcomeDone Outcome = "done"
	// OutcomeGaveUp means the retry budget was exhausted before a batch succeeded.
	OutcomeGaveUp Outcome = "gave_up_after_retries"
	// OutcomeFailed means an unclassified error escaped the task.
	OutcomeFailed Outcome = "failed"
)

// SiteResult is the immutable output of one completed site task.
type SiteResult struct {
	Site      Site
	Records   []JobRecord
	Count     int
	Exhausted bool
	Outcome   Outcome
	Err       error
}

// AggregatedResult merges every site's records. Records and Sites are ordered
// by task completion, not submission.
type AggregatedResult struct {
	RunID   string
	Records []JobRecord
	Sites   []SiteResult
}

// Append folds one completed site result into the aggregate.
func (a *AggregatedResult) Append(res SiteResult) {
	a.Records = append(a.Records, res.Records...)
	a.Sites = append(a.Sites, res)
}

// Summary condenses an aggregated run for reporting.
type Summary struct {
	RecordsCollected int
	SitesProcessed   int
	SitesExhausted   int
	SitesGaveUp      int
	SitesFailed      int
}

// Summarize computes the run summary from the per-site breakdown.
func (a AggregatedResult) Summarize() Summary {
	s := Summary{
		RecordsCollected: len(a.Records),
		SitesProcessed:   len(a.Sites),
	}
	for _, res := range a.Sites {
		switch res.Outcome {
		case OutcomeDone:
			if res.Exhausted {
				s.SitesExhausted++
			}
		case OutcomeGaveUp:
			s.SitesGaveUp++
		case OutcomeFailed:
			s.SitesFailed++
		}
	}
	return s
}
