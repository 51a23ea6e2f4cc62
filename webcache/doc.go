// Package webcache caches fetched pages in a Store for a short time and
// counts every access.
//
// Each Get increments count:{url}. A live cache:{url} entry is returned
// without fetching; otherwise the page is fetched and stored with the
// policy TTL (10 seconds by default). Fetch errors are returned and never
// cached.
//
// Without WithCoalescing, concurrent misses for one URL each fetch.
package webcache
