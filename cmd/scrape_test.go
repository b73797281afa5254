package cmd

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestScrapeCmd_BindsFlagsToConfig(t *testing.T) {
	v := viper.New()
	cmd := newScrapeCmd(v)

	require.NoError(t, cmd.ParseFlags([]string{
		"--search-term", "go engineer",
		"--location", "London",
		"--site", "linkedin",
		"--site", "ziprecruiter",
		"--sleep-time", "5",
		"--max-retries", "2",
		"--fetch-description=false",
		"--db-dsn", "postgres://localhost/jobs",
	}))

	require.Equal(t, "go engineer", v.GetString("search.term"))
	require.Equal(t, "London", v.GetString("search.location"))
	require.Equal(t, []string{"linkedin", "ziprecruiter"}, v.GetStringSlice("session.sites"))
	require.Equal(t, 5, v.GetInt("session.sleep_seconds"))
	require.Equal(t, 2, v.GetInt("session.max_retries"))
	require.False(t, v.GetBool("search.fetch_description"))
	require.Equal(t, "postgres://localhost/jobs", v.GetString("db.dsn"))
}

func TestScrapeCmd_FlagDefaults(t *testing.T) {
	v := viper.New()
	cmd := newScrapeCmd(v)
	require.NoError(t, cmd.ParseFlags(nil))

	require.Equal(t, 100, v.GetInt("session.results_wanted"))
	require.Equal(t, 30, v.GetInt("session.batch_size"))
	require.Equal(t, "data", v.GetString("output.dir"))
	require.False(t, v.GetBool("metrics.enabled"))
}

func TestRootCmd_HasScrapeSubcommand(t *testing.T) {
	root := newRootCmd()
	sub, _, err := root.Find([]string{"scrape"})
	require.NoError(t, err)
	require.Equal(t, "scrape", sub.Name())
}
