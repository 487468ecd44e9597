// Package httputil provides HTTP helpers shared by the sync client and the
// CLI.
//
// # Retry
//
// [Retry] re-runs an operation with exponential backoff. Only errors marked
// with [Retryable] are retried; everything else fails fast:
//
//	err := httputil.Retry(ctx, 3, 200*time.Millisecond, func() error {
//	    resp, err := http.DefaultClient.Do(req)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    defer resp.Body.Close()
//	    if httputil.RetryableStatus(resp.StatusCode) {
//	        return httputil.Retryable(fmt.Errorf("status %d", resp.StatusCode))
//	    }
//	    return nil
//	})
//
// # Cache
//
// [Cache] keeps the last good response per key in ~/.cache/mindgraph/ so
// read-only commands can still show something when the server is down.
// Entries older than the TTL are reported with [ErrExpired].
package httputil
