// Package sink exports aggregated run results to durable destinations.
package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/jobsparser/jobsparser/internal/scraper"
)

var csvHeader = []string{
	"site", "title", "company", "location", "job_url",
	"job_type", "date_posted", "salary_min", "salary_max",
	"currency", "is_remote", "description",
}

// CSVSink writes one CSV file per run into a directory. Each run picks the
// first unused jobs_N.csv name, so earlier runs are never overwritten.
type CSVSink struct {
	dir    string
	logger *zap.Logger
}

// NewCSVSink returns a sink rooted at dir, creating it if needed.
func NewCSVSink(dir string, logger *zap.Logger) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVSink{dir: dir, logger: logger}, nil
}

// Export writes all aggregated records to a fresh CSV file.
func (s *CSVSink) Export(ctx context.Context, result scraper.AggregatedResult) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context canceled: %w", err)
	}
	path, err := s.nextFreePath()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range result.Records {
		if err := w.Write(csvRow(rec)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	s.logger.Info("saved results",
		zap.String("path", path),
		zap.Int("records", len(result.Records)),
		zap.String("run_id", result.RunID),
	)
	return nil
}

// nextFreePath finds the first jobs_N.csv that does not exist yet.
func (s *CSVSink) nextFreePath() (string, error) {
	for counter := 0; ; counter++ {
		path := filepath.Join(s.dir, fmt.Sprintf("jobs_%d.csv", counter))
		_, err := os.Stat(path)
		if os.IsNotExist(err) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
	}
}

func csvRow(rec scraper.JobRecord) []string {
	posted := ""
	if rec.DatePosted != nil {
		posted = rec.DatePosted.Format("2006-01-02")
	}
	return []string{
		string(rec.Site),
		rec.Title,
		rec.Company,
		rec.Location,
		rec.JobURL,
		rec.JobType,
		posted,
		formatFloat(rec.SalaryMin),
		formatFloat(rec.SalaryMax),
		rec.Currency,
		strconv.FormatBool(rec.IsRemote),
		rec.Description,
	}
}

func formatFloat(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
