package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func withTestServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	old := newAPIClient
	t.Cleanup(func() { newAPIClient = old })
	newAPIClient = func() *apiClient {
		return &apiClient{baseURL: srv.URL, httpClient: &http.Client{Timeout: 5 * time.Second}}
	}
}

func TestQueryCommand(t *testing.T) {
	var gotPath string
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","result":{"response":"Hola","interaction_id":"abc","category":"pricing"}}`))
	})

	defer rootCmd.SetArgs(nil)
	rootCmd.SetArgs([]string{"query", "¿cuánto cuesta un suv?", "--context", "season=high"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("query command failed: %v", err)
	}
	if gotPath != "/query" {
		t.Errorf("request path = %q, want /query", gotPath)
	}
}

func TestQueryCommandRejectsBadContext(t *testing.T) {
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be reached for invalid flags")
	})

	defer rootCmd.SetArgs(nil)
	rootCmd.SetArgs([]string{"query", "hola", "--context", "not-a-pair"})
	err := rootCmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "key=value") {
		t.Errorf("expected key=value error, got %v", err)
	}
}

func TestFeedbackCommand(t *testing.T) {
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"status":"recorded"}`))
	})

	defer rootCmd.SetArgs(nil)
	rootCmd.SetArgs([]string{"feedback", "abc", "4.5", "--comments", "muy útil"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("feedback command failed: %v", err)
	}
}

func TestFeedbackCommandRejectsBadScore(t *testing.T) {
	defer rootCmd.SetArgs(nil)
	rootCmd.SetArgs([]string{"feedback", "abc", "not-a-number"})
	if err := rootCmd.Execute(); err == nil {
		t.Error("expected error for non-numeric score")
	}
}

func TestFeedbackCommandServerError(t *testing.T) {
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":"error","message":"interaction not found"}`))
	})

	defer rootCmd.SetArgs(nil)
	rootCmd.SetArgs([]string{"feedback", "missing", "3.0"})
	err := rootCmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("expected 404 error, got %v", err)
	}
}

func TestColorize(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	if result := colorize(colorGreen, "done"); strings.Contains(result, "\033") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}

	noColor = false
	if result := colorize(colorGreen, "done"); !strings.Contains(result, "\033") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}
