// Package httputil provides the HTTP plumbing shared by upstream API
// clients such as the NetBox adapter.
//
// # Client
//
// [Client] issues JSON GET requests with default headers (for example the
// NetBox API token), reports every request to the observability HTTP hooks
// and maps response statuses onto errors:
//
//   - 404: [ErrNotFound]
//   - 401 and 403: coded UNAUTHORIZED and FORBIDDEN errors
//   - 429: a retryable rate-limit error carrying Retry-After
//   - 5xx and transport failures: retryable [ErrNetwork]
//
// [Client.Cached] combines a cache lookup, the retried fetch and the cache
// write:
//
//	var page sitePage
//	err := client.Cached(ctx, key, refresh, &page, func() error {
//	    return client.Get(ctx, url, &page)
//	})
//
// # Retry
//
// [Retry] re-runs an operation while its error is marked with [Retryable],
// doubling the delay after each attempt. A [Client] makes 3 attempts with a
// 1 second initial delay unless [Client.WithRetry] says otherwise.
package httputil
