package printer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gridbooth/gridbooth/pkg/errors"
	"github.com/gridbooth/gridbooth/pkg/httputil"
)

func testClient(t *testing.T, serverURL string) *HTTPClient {
	t.Helper()
	cache, err := httputil.NewCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return &HTTPClient{
		endpoint: serverURL,
		apiKey:   "test-key",
		http:     &http.Client{Timeout: 5 * time.Second},
		cache:    cache.Namespace("printer:jobs:"),
		attempts: 3,
		delay:    10 * time.Millisecond,
	}
}

func testJob() Job {
	return Job{Data: []byte("fake-jpeg-data"), PageLabel: "4x6", Copies: 2}
}

func TestHTTPClientSubmit(t *testing.T) {
	var gotAuth, gotPage, gotCopies, gotFilename string
	var gotFile []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/v1/jobs" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart form: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		gotPage = r.FormValue("page")
		gotCopies = r.FormValue("copies")

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotFilename = header.Filename
		gotFile, _ = io.ReadAll(file)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "job-123"})
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	id, err := c.Submit(context.Background(), testJob())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if id != "job-123" {
		t.Errorf("expected job-123, got %s", id)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if gotPage != "4x6" {
		t.Errorf("expected page 4x6, got %q", gotPage)
	}
	if gotCopies != "2" {
		t.Errorf("expected copies 2, got %q", gotCopies)
	}
	if gotFilename != "composite.jpg" {
		t.Errorf("expected filename composite.jpg, got %q", gotFilename)
	}
	if string(gotFile) != "fake-jpeg-data" {
		t.Errorf("file part does not match job data: %q", gotFile)
	}
}

func TestHTTPClientSubmitDefaultsCopies(t *testing.T) {
	var gotCopies string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart form: %v", err)
		}
		gotCopies = r.FormValue("copies")
		json.NewEncoder(w).Encode(map[string]string{"id": "job-1"})
	}))
	defer server.Close()

	job := testJob()
	job.Copies = 0

	if _, err := testClient(t, server.URL).Submit(context.Background(), job); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if gotCopies != "1" {
		t.Errorf("expected copies to default to 1, got %q", gotCopies)
	}
}

func TestHTTPClientSubmitRetriesServerError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "printer on fire", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "job-77"})
	}))
	defer server.Close()

	id, err := testClient(t, server.URL).Submit(context.Background(), testJob())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if id != "job-77" {
		t.Errorf("expected job-77, got %s", id)
	}
	if calls != 2 {
		t.Errorf("expected 2 requests, got %d", calls)
	}
}

func TestHTTPClientSubmitExhaustsRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := testClient(t, server.URL).Submit(context.Background(), testJob())
	if !errors.Is(err, errors.ErrCodePrinter) {
		t.Errorf("expected PRINTER_ERROR, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestHTTPClientSubmitStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode errors.Code
	}{
		{"unauthorized", http.StatusUnauthorized, errors.ErrCodeUnauthorized},
		{"forbidden", http.StatusForbidden, errors.ErrCodeUnauthorized},
		{"not found", http.StatusNotFound, errors.ErrCodeNotFound},
		{"bad request", http.StatusBadRequest, errors.ErrCodePrinter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := testClient(t, server.URL).Submit(context.Background(), testJob())
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}
			if calls != 1 {
				t.Errorf("expected 1 request (no retry), got %d", calls)
			}
		})
	}
}

func TestHTTPClientSubmitRateLimited(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := testClient(t, server.URL).Submit(context.Background(), testJob())
	if !errors.Is(err, errors.ErrCodeRateLimited) {
		t.Fatalf("expected RATE_LIMITED, got %v", err)
	}

	var rl *errors.RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitedError in chain, got %v", err)
	}
	if rl.RetryAfter != 30 {
		t.Errorf("expected retry-after 30, got %d", rl.RetryAfter)
	}
	if calls != 1 {
		t.Errorf("expected 1 request (no retry), got %d", calls)
	}
}

func TestHTTPClientSubmitNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := testClient(t, url).Submit(context.Background(), testJob())
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("expected NETWORK_ERROR, got %v", err)
	}
}

func TestHTTPClientSubmitEmptyJobID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": ""})
	}))
	defer server.Close()

	_, err := testClient(t, server.URL).Submit(context.Background(), testJob())
	if !errors.Is(err, errors.ErrCodePrinter) {
		t.Errorf("expected PRINTER_ERROR for missing job id, got %v", err)
	}
}

func TestHTTPClientSubmitInvalidJob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	tests := []struct {
		name     string
		job      Job
		wantCode errors.Code
	}{
		{"no data", Job{PageLabel: "4x6"}, errors.ErrCodeInvalidRequest},
		{"bad page label", Job{Data: []byte("x"), PageLabel: "letter"}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Submit(context.Background(), tt.job); !errors.Is(err, tt.wantCode) {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestHTTPClientStatus(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/api/v1/jobs/job-9" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(JobStatus{ID: "job-9", State: StatePrinting})
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	status, err := c.Status(context.Background(), "job-9")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.ID != "job-9" || status.State != StatePrinting {
		t.Errorf("unexpected status %+v", status)
	}

	// Non-terminal states are never cached.
	if _, err := c.Status(context.Background(), "job-9"); err != nil {
		t.Fatalf("second Status failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 requests for a non-terminal job, got %d", calls)
	}
}

func TestHTTPClientStatusCachesTerminal(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(JobStatus{ID: "job-5", State: StateDone, Message: "out tray 2"})
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	first, err := c.Status(context.Background(), "job-5")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	second, err := c.Status(context.Background(), "job-5")
	if err != nil {
		t.Fatalf("cached Status failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected terminal status to be served from cache, got %d requests", calls)
	}
	if first != second {
		t.Errorf("cached status %+v does not match original %+v", second, first)
	}
}

func TestHTTPClientStatusNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := testClient(t, server.URL).Status(context.Background(), "job-404")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestHTTPClientStatusEmptyID(t *testing.T) {
	c := testClient(t, "http://localhost:1")

	if _, err := c.Status(context.Background(), ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestNewHTTPClient(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := NewHTTPClient("", "key", 0); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for empty endpoint, got %v", err)
	}
	if _, err := NewHTTPClient("ftp://printer.local", "key", 0); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for non-http scheme, got %v", err)
	}

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/jobs" {
			t.Errorf("trailing slash not trimmed, path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]string{"id": "job-1"})
	}))
	defer server.Close()

	c, err := NewHTTPClient(server.URL+"/", "", 0)
	if err != nil {
		t.Fatalf("NewHTTPClient failed: %v", err)
	}
	if _, err := c.Submit(context.Background(), testJob()); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("expected no auth header without api key, got %q", gotAuth)
	}
}

func TestNullClient(t *testing.T) {
	c := NewNullClient()
	ctx := context.Background()

	id, err := c.Submit(ctx, testJob())
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a job id")
	}

	other, err := c.Submit(ctx, testJob())
	if err != nil {
		t.Fatalf("second Submit failed: %v", err)
	}
	if other == id {
		t.Error("expected unique job ids")
	}

	status, err := c.Status(ctx, id)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.State != StateDone {
		t.Errorf("expected done, got %s", status.State)
	}

	if _, err := c.Status(ctx, "unknown-job"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND for unknown job, got %v", err)
	}

	if _, err := c.Submit(ctx, Job{PageLabel: "4x6"}); !errors.Is(err, errors.ErrCodeInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST for empty job, got %v", err)
	}
}

func TestJobValidate(t *testing.T) {
	tests := []struct {
		name     string
		job      Job
		wantCode errors.Code
	}{
		{"valid", Job{Data: []byte("x"), PageLabel: "4x6"}, ""},
		{"valid fractional label", Job{Data: []byte("x"), PageLabel: "3.5x5"}, ""},
		{"no data", Job{PageLabel: "4x6"}, errors.ErrCodeInvalidRequest},
		{"negative copies", Job{Data: []byte("x"), PageLabel: "4x6", Copies: -1}, errors.ErrCodeInvalidRequest},
		{"empty label", Job{Data: []byte("x")}, errors.ErrCodeInvalidInput},
		{"word label", Job{Data: []byte("x"), PageLabel: "letter"}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.job.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("expected valid job, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestStateTerminal(t *testing.T) {
	tests := []struct {
		state State
		want  bool
	}{
		{StateQueued, false},
		{StatePrinting, false},
		{StateDone, true},
		{StateFailed, true},
		{State("unknown"), false},
	}

	for _, tt := range tests {
		if got := tt.state.Terminal(); got != tt.want {
			t.Errorf("Terminal(%s) = %v, want %v", tt.state, got, tt.want)
		}
	}
}
