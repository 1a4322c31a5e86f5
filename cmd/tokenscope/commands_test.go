package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

// isolate runs the command from an empty directory so the file history and
// config lookups stay inside the test.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HISTORY_BACKEND", "file")
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := root.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func analysisServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyzeCommand_PrintsResultAndRecordsHistory(t *testing.T) {
	isolate(t)
	srv := analysisServer(t, http.StatusOK, `{"analysis":"Bearish short-term.","marketSnapshot":{"symbol":"BONK","priceUsd":"0.00002","volume24h":"1500000","liquidityUsd":"N/A","priceChange24hPct":"-5.2","marketCapUsd":"N/A","venueId":"raydium"}}`)

	out, errOut, err := execute(t, "analyze", testToken, "--server", srv.URL)
	require.NoError(t, err)

	assert.Contains(t, errOut, "Analyzing Dez")
	assert.Contains(t, out, "Token Data")
	assert.Contains(t, out, "BONK")
	assert.Contains(t, out, "-5.20% (Down)")
	assert.Contains(t, out, "$1.5M")
	assert.Contains(t, out, "Bearish short-term.")

	out, _, err = execute(t, "history")
	require.NoError(t, err)
	assert.Equal(t, "1. "+testToken+"\n", out)

	out, _, err = execute(t, "history", "--clear")
	require.NoError(t, err)
	assert.Equal(t, "Search history cleared.\n", out)

	out, _, err = execute(t, "history")
	require.NoError(t, err)
	assert.Equal(t, "No recent searches.\n", out)
}

func TestAnalyzeCommand_InvalidAddress(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "analyze", "not-an-address")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid Solana token address")
}

func TestAnalyzeCommand_TimeoutWhileRetrying(t *testing.T) {
	isolate(t)
	srv := analysisServer(t, http.StatusNotFound, `{"error":"No trading pairs found for this token"}`)

	_, errOut, err := execute(t, "analyze", testToken, "--server", srv.URL, "--timeout", "300ms")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis interrupted")
	assert.Contains(t, errOut, "Request failed: No trading pairs found for this token. Retrying (attempt 2)...")
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCmd()
	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"analyze", "chat", "history"})
	assert.NotNil(t, root.PersistentFlags().Lookup("server"))
	assert.NotNil(t, root.PersistentFlags().Lookup("debug"))
}

func TestChatCommand_InvalidAddress(t *testing.T) {
	isolate(t)

	_, _, err := execute(t, "chat", "0OIl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tokenIdentifier")
}
