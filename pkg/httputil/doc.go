// Package httputil provides HTTP utilities for external service clients.
//
// # Overview
//
// This package provides infrastructure used by the print service client:
//
//   - [Cache]: File-based HTTP response caching
//   - [Retry]: Automatic retry with exponential backoff
//
// # Caching
//
// [Cache] stores HTTP responses in the filesystem (~/.cache/gridbooth/)
// with configurable TTL. This keeps job status polling cheap and lets the
// kiosk ride out short print-service outages on cached capability data.
//
// Usage:
//
//	cache, err := httputil.NewCache(24 * time.Hour)
//	data, ok := cache.Get("printer:caps:lobby-1")  // Check cache
//	if !ok {
//	    data = fetchFromAPI()
//	    cache.Set("printer:caps:lobby-1", data)   // Store for later
//	}
//
// Cache keys should be namespaced by service to avoid collisions.
//
// # Retry
//
// [Retry] wraps HTTP requests with automatic retry for transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// It uses exponential backoff with jitter to avoid thundering herd:
//
//	resp, err := httputil.Retry(func() (*http.Response, error) {
//	    return http.Get(url)
//	})
//
// # Configuration
//
// Default settings are suitable for most use cases:
//
//   - Cache directory: ~/.cache/gridbooth/
//   - Default TTL: 24 hours
//   - Max retries: 3
//   - Base backoff: 1 second
//
// The cache can be cleared via `gridbooth cache clear` or by deleting
// the cache directory.
package httputil
