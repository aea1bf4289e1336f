// Package printer submits finished composites to a print service.
//
// A print job carries the encoded composite bytes, the physical page label
// the layout planner resolved (for example "4x6"), and a copy count. The
// package exposes a small [Client] interface with two implementations:
//
//   - [HTTPClient]: talks to a print service over its HTTP API with
//     bearer-token auth, retry on transient failures, and cached lookups
//     of finished jobs.
//   - [NullClient]: accepts every job and reports it done. Used by kiosks
//     that run without a printer, and as the test double everywhere else.
//
// Usage:
//
//	client, err := printer.NewHTTPClient(cfg.Endpoint, cfg.APIKey, cfg.Timeout)
//	if err != nil {
//	    return err
//	}
//	jobID, err := client.Submit(ctx, printer.Job{
//	    Data:      composite.Data,
//	    PageLabel: composite.Page.Label,
//	    Copies:    1,
//	})
package printer

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/gridbooth/gridbooth/pkg/errors"
)

// Job is one print request: the encoded composite plus the physical page
// it should be printed on.
type Job struct {
	// Data holds the encoded composite image (JPEG or PNG bytes).
	Data []byte

	// PageLabel names the physical page size, e.g. "4x6" or "5x7".
	// It matches the label carried by compose.PageSize.
	PageLabel string

	// Copies is the number of prints to make. Zero means one.
	Copies int
}

// Validate checks that the job can be submitted.
func (j Job) Validate() error {
	if len(j.Data) == 0 {
		return errors.New(errors.ErrCodeInvalidRequest, "print job has no image data")
	}
	if j.Copies < 0 {
		return errors.New(errors.ErrCodeInvalidRequest, "copies cannot be negative, got %d", j.Copies)
	}
	return errors.ValidatePageLabel(j.PageLabel)
}

// State describes where a print job is in its lifecycle.
type State string

const (
	StateQueued   State = "queued"
	StatePrinting State = "printing"
	StateDone     State = "done"
	StateFailed   State = "failed"
)

// Terminal reports whether the state is final. Terminal states never
// change again, so their status responses can be cached.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// JobStatus is the print service's view of a submitted job.
type JobStatus struct {
	ID      string `json:"id"`
	State   State  `json:"state"`
	Message string `json:"message,omitempty"`
}

// Client submits print jobs and reports their progress.
type Client interface {
	// Submit sends a job to the print service and returns its job id.
	Submit(ctx context.Context, job Job) (string, error)

	// Status reports the current state of a previously submitted job.
	// Unknown job ids return a NOT_FOUND error.
	Status(ctx context.Context, jobID string) (JobStatus, error)
}

// NullClient is a Client for kiosks without a printer. Every submitted
// job is accepted and immediately reported done. It remembers the ids it
// handed out so Status behaves like a real service for unknown jobs.
type NullClient struct {
	mu   sync.Mutex
	jobs map[string]struct{}
}

var _ Client = (*NullClient)(nil)

// NewNullClient creates an empty NullClient.
func NewNullClient() *NullClient {
	return &NullClient{jobs: make(map[string]struct{})}
}

// Submit validates the job and returns a fresh job id without printing.
func (c *NullClient) Submit(ctx context.Context, job Job) (string, error) {
	if err := job.Validate(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	c.mu.Lock()
	c.jobs[id] = struct{}{}
	c.mu.Unlock()
	return id, nil
}

// Status reports done for every job this client has accepted.
func (c *NullClient) Status(ctx context.Context, jobID string) (JobStatus, error) {
	c.mu.Lock()
	_, ok := c.jobs[jobID]
	c.mu.Unlock()
	if !ok {
		return JobStatus{}, errors.New(errors.ErrCodeNotFound, "print job %s not found", jobID)
	}
	return JobStatus{ID: jobID, State: StateDone}, nil
}
