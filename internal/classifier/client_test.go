package classifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClassify_RoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/classify-row" {
			t.Errorf("path = %s, want /classify-row", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s, want application/json", ct)
		}

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.QuestionNumber != 12 {
			t.Errorf("question number = %d, want 12", req.QuestionNumber)
		}
		if req.ImageBase64 == "" {
			t.Error("request carries no image")
		}

		json.NewEncoder(w).Encode(Classification{SelectedOption: "4", Confidence: 0.87})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	result, err := client.Classify(context.Background(), &Request{
		QuestionNumber: 12,
		ImageBase64:    "aGVsbG8=",
	})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if result.SelectedOption != "4" || result.Confidence != 0.87 {
		t.Errorf("Classify = %+v", result)
	}
}

func TestClassify_Non200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, _ := NewClient(server.URL, nil)

	_, err := client.Classify(context.Background(), &Request{QuestionNumber: 1})
	if err == nil {
		t.Fatal("non-200 response did not fail")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("error %q does not carry the status code", err)
	}
	if !strings.Contains(err.Error(), "model overloaded") {
		t.Errorf("error %q does not carry the response body", err)
	}
}

func TestClassify_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client, _ := NewClient(server.URL, nil)

	if _, err := client.Classify(context.Background(), &Request{QuestionNumber: 1}); err == nil {
		t.Fatal("malformed body did not fail")
	}
}

func TestClassify_ClampsConfidence(t *testing.T) {
	tests := []struct {
		raw  float64
		want float64
	}{
		{raw: 1.7, want: 1},
		{raw: -0.3, want: 0},
		{raw: 0.5, want: 0.5},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(Classification{SelectedOption: "1", Confidence: tt.raw})
		}))

		client, _ := NewClient(server.URL, nil)
		result, err := client.Classify(context.Background(), &Request{QuestionNumber: 1})
		server.Close()

		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if result.Confidence != tt.want {
			t.Errorf("confidence %v clamped to %v, want %v", tt.raw, result.Confidence, tt.want)
		}
	}
}

func TestClassify_ContextCancellation(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the connection read loop observes the client
		// disconnect; otherwise the request context is never canceled and
		// the handler blocks forever.
		io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	client, _ := NewClient(server.URL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	if _, err := client.Classify(ctx, &Request{QuestionNumber: 1}); err == nil {
		t.Fatal("canceled context did not fail")
	}
}

func TestNewClient_InvalidURL(t *testing.T) {
	if _, err := NewClient("http://%zz", nil); err == nil {
		t.Error("invalid url did not fail")
	}
}
