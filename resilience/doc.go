// Package resilience retries fallible calls with exponential backoff.
//
// Paged sources use it to re-read a window that failed transiently:
//
//	page, err := resilience.Retry(ctx, cfg, func(ctx context.Context) ([]Row, error) {
//	    return pager.Read(ctx, skip, take)
//	})
//
// Errors that already terminated a pipe, and context cancellation, are never
// retried by DefaultRetryIf.
package resilience
