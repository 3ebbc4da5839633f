package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPIKey = "bce-v3/ALTAK-0123456789/abcdefghij"

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	cmd, err := newRootCmd()
	require.NoError(t, err)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err = cmd.Execute()
	return out.String(), err
}

func okServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testAPIKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"id":"as-1","choices":[{"message":{"role":"assistant","content":"无职转生"}}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRoot_ProbesWithFlags(t *testing.T) {
	srv := okServer(t, http.StatusOK)

	out, err := runRoot(t, "--api-url", srv.URL, "--api-key", testAPIKey, "--provider", "openai")
	require.NoError(t, err)
	assert.Contains(t, out, "Provider: openai")
	assert.Contains(t, out, "Model: qwen3-14b")
	assert.Contains(t, out, "API probe succeeded")
	assert.NotContains(t, out, testAPIKey)
}

func TestRoot_FailureExitsCleanByDefault(t *testing.T) {
	srv := okServer(t, http.StatusInternalServerError)

	out, err := runRoot(t, "--api-url", srv.URL, "--api-key", testAPIKey)
	require.NoError(t, err)
	assert.Contains(t, out, "status code: 500")
}

func TestRoot_StrictReturnsErrorOnFailure(t *testing.T) {
	srv := okServer(t, http.StatusInternalServerError)

	_, err := runRoot(t, "--api-url", srv.URL, "--api-key", testAPIKey, "--strict")
	require.ErrorIs(t, err, errProbeFailed)
}

func TestRoot_APIKeyFromEnv(t *testing.T) {
	srv := okServer(t, http.StatusOK)
	t.Setenv("AIPROBE_API_KEY", testAPIKey)

	out, err := runRoot(t, "--api-url", srv.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "API probe succeeded")
}

func TestRoot_APIKeyFromDotenv(t *testing.T) {
	srv := okServer(t, http.StatusOK)
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("AIPROBE_API_KEY="+testAPIKey+"\n"), 0o600))
	t.Setenv("AIPROBE_API_KEY", "")
	require.NoError(t, os.Unsetenv("AIPROBE_API_KEY"))

	out, err := runRoot(t, "--api-url", srv.URL, "--env-file", envPath)
	require.NoError(t, err)
	assert.Contains(t, out, "API probe succeeded")
}

func TestRoot_ConfigFile(t *testing.T) {
	srv := okServer(t, http.StatusOK)
	dir := t.TempDir()
	path := filepath.Join(dir, "aiprobe.yaml")
	content := "api_url: " + srv.URL + "\napi_key: " + testAPIKey + "\nmodel: ernie-4.0\nprovider: OpenAI\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	out, err := runRoot(t, "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Model: ernie-4.0")
	assert.Contains(t, out, "Provider: openai")
	assert.Contains(t, out, "API probe succeeded")
}

func TestRoot_MissingAPIKey(t *testing.T) {
	t.Setenv("AIPROBE_API_KEY", "")

	_, err := runRoot(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is required")
}

func TestRoot_RejectsUnknownProvider(t *testing.T) {
	_, err := runRoot(t, "--api-key", testAPIKey, "--provider", "xyz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider")
}

func TestProvidersCmd_ListsCatalog(t *testing.T) {
	out, err := runRoot(t, "providers")
	require.NoError(t, err)
	assert.Contains(t, out, "baidu")
	assert.Contains(t, out, "https://qianfan.baidubce.com/v2/chat/completions")
	assert.Contains(t, out, "gpt-4o-mini")
	assert.Less(t, strings.Index(out, "baidu"), strings.Index(out, "openai"))
}

func TestConfigCmd_PrintsRedactedYAML(t *testing.T) {
	out, err := runRoot(t, "config", "--api-key", testAPIKey, "--model", "ernie-speed")
	require.NoError(t, err)
	assert.Contains(t, out, "model: ernie-speed")
	assert.Contains(t, out, "provider: baidu")
	assert.Contains(t, out, "api_key: bce-v3/ALT...fghij")
	assert.NotContains(t, out, testAPIKey)
}

func TestRoot_DebugDumpsRawBody(t *testing.T) {
	srv := okServer(t, http.StatusOK)

	out, err := runRoot(t, "--api-url", srv.URL, "--api-key", testAPIKey, "--debug")
	require.NoError(t, err)
	assert.Contains(t, out, "Raw response body (")

	out, err = runRoot(t, "--api-url", srv.URL, "--api-key", testAPIKey)
	require.NoError(t, err)
	assert.NotContains(t, out, "Raw response body")
}
