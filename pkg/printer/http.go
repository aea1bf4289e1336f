package printer

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gridbooth/gridbooth/pkg/errors"
	"github.com/gridbooth/gridbooth/pkg/httputil"
	"github.com/gridbooth/gridbooth/pkg/observability"
)

const (
	// defaultTimeout bounds a single HTTP request to the print service.
	defaultTimeout = 30 * time.Second

	// statusCacheTTL keeps terminal job statuses around for the reprint
	// window, so repeated status checks stay off the wire.
	statusCacheTTL = 24 * time.Hour

	retryAttempts = 3
	retryDelay    = time.Second
)

// HTTPClient talks to a print service over HTTP.
//
// Jobs are submitted as multipart POSTs to {endpoint}/api/v1/jobs and
// queried with GETs to {endpoint}/api/v1/jobs/{id}. Requests carry a
// bearer API key when one is configured. Transient failures (network
// errors, timeouts, 5xx responses) are retried with exponential backoff;
// everything else fails immediately with a coded error.
type HTTPClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
	cache    *httputil.Cache
	attempts int
	delay    time.Duration
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the print service at endpoint.
// A non-positive timeout falls back to 30 seconds. The API key may be
// empty for services that do not authenticate.
func NewHTTPClient(endpoint, apiKey string, timeout time.Duration) (*HTTPClient, error) {
	if err := errors.ValidateURL(endpoint); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	cache, err := httputil.NewCache("", statusCacheTTL)
	if err != nil {
		return nil, err
	}
	return &HTTPClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
		cache:    cache.Namespace("printer:jobs:"),
		attempts: retryAttempts,
		delay:    retryDelay,
	}, nil
}

// Submit sends the job to the print service and returns the job id it
// assigned. The composite bytes travel as a multipart file part alongside
// the page label and copy count.
func (c *HTTPClient) Submit(ctx context.Context, job Job) (string, error) {
	if err := job.Validate(); err != nil {
		return "", err
	}
	copies := max(job.Copies, 1)

	body, contentType, err := encodeJobForm(job, copies)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encode print job")
	}

	observability.Print().OnSubmitStart(ctx, job.PageLabel, copies)
	start := time.Now()

	var jobID string
	err = httputil.Retry(ctx, c.attempts, c.delay, func() error {
		id, err := c.submitOnce(ctx, body, contentType)
		if err != nil {
			return err
		}
		jobID = id
		return nil
	})
	observability.Print().OnSubmitComplete(ctx, job.PageLabel, jobID, time.Since(start), err)
	if err != nil {
		return "", err
	}
	return jobID, nil
}

// Status reports the current state of a submitted job. Terminal states
// are cached, so polling a finished job does not hit the service again.
func (c *HTTPClient) Status(ctx context.Context, jobID string) (JobStatus, error) {
	if jobID == "" {
		return JobStatus{}, errors.New(errors.ErrCodeInvalidInput, "job id cannot be empty")
	}

	var status JobStatus
	if ok, _ := c.cache.Get(jobID, &status); ok {
		return status, nil
	}

	err := httputil.Retry(ctx, c.attempts, c.delay, func() error {
		s, err := c.statusOnce(ctx, jobID)
		if err != nil {
			return err
		}
		status = s
		return nil
	})
	if err != nil {
		return JobStatus{}, err
	}
	if status.State.Terminal() {
		_ = c.cache.Set(jobID, status)
	}
	return status, nil
}

func (c *HTTPClient) submitOnce(ctx context.Context, body []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/v1/jobs", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "build print request")
	}
	req.Header.Set("Content-Type", contentType)
	c.authorize(req)

	resp, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(errors.ErrCodePrinter, err, "decode print service response")
	}
	if out.ID == "" {
		return "", errors.New(errors.ErrCodePrinter, "print service returned no job id")
	}
	return out.ID, nil
}

func (c *HTTPClient) statusOnce(ctx context.Context, jobID string) (JobStatus, error) {
	u := c.endpoint + "/api/v1/jobs/" + url.PathEscape(jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return JobStatus{}, errors.Wrap(errors.ErrCodeInternal, err, "build status request")
	}
	c.authorize(req)

	resp, err := c.do(ctx, req)
	if err != nil {
		return JobStatus{}, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return JobStatus{}, errors.New(errors.ErrCodeNotFound, "print job %s not found", jobID)
		}
		return JobStatus{}, err
	}

	var status JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return JobStatus{}, errors.Wrap(errors.ErrCodePrinter, err, "decode job status")
	}
	if status.ID == "" {
		status.ID = jobID
	}
	return status, nil
}

// do executes the request and normalizes transport failures. Network
// errors and timeouts come back wrapped as retryable so the caller's
// retry loop picks them up.
func (c *HTTPClient) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	observability.HTTP().OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		code := errors.ErrCodeNetwork
		var uerr *url.Error
		if errors.As(err, &uerr) && uerr.Timeout() {
			code = errors.ErrCodeTimeout
		}
		return nil, &httputil.RetryableError{Err: errors.Wrap(code, err, "print service request")}
	}

	observability.HTTP().OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))
	return resp, nil
}

func (c *HTTPClient) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "not found")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.New(errors.ErrCodeUnauthorized, "print service rejected the API key")
	case resp.StatusCode == http.StatusTooManyRequests:
		cause := &errors.RateLimitedError{RetryAfter: retryAfterSeconds(resp)}
		return errors.Wrap(errors.ErrCodeRateLimited, cause, "print service is busy")
	case resp.StatusCode >= 500:
		return &httputil.RetryableError{Err: errors.New(errors.ErrCodePrinter, "print service error: status %d", resp.StatusCode)}
	default:
		return errors.New(errors.ErrCodePrinter, "print service error: status %d", resp.StatusCode)
	}
}

func retryAfterSeconds(resp *http.Response) int {
	s, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
	return max(s, 0)
}

func encodeJobForm(job Job, copies int) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", "composite.jpg")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(job.Data); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("page", job.PageLabel); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("copies", strconv.Itoa(copies)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
