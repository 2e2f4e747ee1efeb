package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("WATCHLIST", "")
	t.Setenv("WATCHLIST_FILE", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	out, err := execute(t, "parse", "rust", "projects", "with", "500+", "stars")
	require.NoError(t, err)

	var explanation map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &explanation))
	assert.Contains(t, explanation["github_query"], "stars:>=500")
	assert.Contains(t, explanation, "suggestions")
}

func TestAnalyzeCommand_RequiresQuery(t *testing.T) {
	_, err := execute(t, "analyze")
	assert.Error(t, err)
}

func TestAnalyzeCommand_RejectsUnknownPlatform(t *testing.T) {
	_, err := execute(t, "analyze", "--platforms", "github,myspace", "golang")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "myspace")
}

func TestReportCommand_RequiresWatchlist(t *testing.T) {
	_, err := execute(t, "report", "--dry-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no watchlist configured")
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "trendscope version "+version+"\n", out)
}
