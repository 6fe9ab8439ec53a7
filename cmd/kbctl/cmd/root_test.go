package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-caller-be/internal/entity"
	"ai-caller-be/pkg/elevenlabs"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeKnowledgeBase(t *testing.T) *httptest.Server {
	t.Helper()

	jsonBody := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/convai/knowledge-base", jsonBody(`{"documents":[
		{"id":"d1","type":"url","name":"Docs","url":"https://x.test/docs"},
		{"id":"d2","type":"text","name":"Notes"}
	]}`))
	mux.HandleFunc("GET /v1/convai/knowledge-base/d1", jsonBody(`{"id":"d1","content":"hello from the docs page","size":"1 kB"}`))
	mux.HandleFunc("GET /v1/convai/knowledge-base/d1/dependent-agents", jsonBody(`{"agents":[{"id":"agent_1","name":"Support"}]}`))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func runKbctl(t *testing.T, args ...string) (string, error) {
	t.Helper()

	withLocal, jsonOut, listTypeFlag = false, false, ""
	color.NoColor = true

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func setKnowledgeBaseEnv(t *testing.T, baseURL, apiKey string) {
	t.Setenv("ELEVENLABS_BASE_URL", baseURL)
	t.Setenv("ELEVENLABS_API_KEY", apiKey)
	t.Setenv("KB_REQUESTS_PER_SECOND", "0")
	t.Setenv("DB_CONNECTION_STRING", "")
}

func TestKbctl_TextOutput(t *testing.T) {
	srv := newFakeKnowledgeBase(t)
	setKnowledgeBaseEnv(t, srv.URL, "test-key")

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{"list", []string{"list"}, []string{"2 document(s)", "d1", "Docs", "url: https://x.test/docs", "d2", "Notes"}, nil},
		{"list filtered by type", []string{"list", "--type", "TEXT"}, []string{"1 document(s)", "d2"}, []string{"d1"}},
		{"dependents", []string{"dependents", "d1"}, []string{"1 dependent agent(s):", "Support (agent_1)"}, nil},
		{"dependents lookup failure is empty", []string{"dependents", "missing"}, []string{"No dependent agents"}, nil},
		{"show", []string{"show", "d1"}, []string{"Document d1", "Size: 1 kB", "hello from the docs page", "Support (agent_1)"}, []string{"Content unavailable"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runKbctl(t, tt.args...)
			require.NoError(t, err)
			for _, s := range tt.want {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.notWant {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestKbctl_JSONOutput(t *testing.T) {
	srv := newFakeKnowledgeBase(t)
	setKnowledgeBaseEnv(t, srv.URL, "test-key")

	out, err := runKbctl(t, "list", "--json")
	require.NoError(t, err)
	var docs []entity.MergedDocument
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "d1", docs[0].Id)
	assert.Equal(t, "-", docs[0].CreatedBy)

	out, err = runKbctl(t, "dependents", "d1", "--json")
	require.NoError(t, err)
	var agents []elevenlabs.DependentAgent
	require.NoError(t, json.Unmarshal([]byte(out), &agents))
	assert.Equal(t, []elevenlabs.DependentAgent{{ID: "agent_1", Name: "Support"}}, agents)
}

func TestKbctl_Errors(t *testing.T) {
	srv := newFakeKnowledgeBase(t)

	t.Run("missing api key", func(t *testing.T) {
		setKnowledgeBaseEnv(t, srv.URL, "")
		out, err := runKbctl(t, "list")
		require.Error(t, err)
		assert.True(t, elevenlabs.IsUnauthorized(err))
		assert.Contains(t, out, "Failed to list documents")
	})

	t.Run("local without database", func(t *testing.T) {
		setKnowledgeBaseEnv(t, srv.URL, "test-key")
		_, err := runKbctl(t, "list", "--local")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DB_CONNECTION_STRING")
	})
}
