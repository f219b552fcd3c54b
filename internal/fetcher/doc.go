// Package fetcher downloads article pages for golf-news.
//
// A Client performs one HTTP GET per URL with a per-attempt timeout, retries
// transport failures and timeouts with exponential backoff, and takes one
// rate-limiter slot for every attempt. HTTP error statuses are never retried;
// they are handed back in Response.StatusCode for the caller to classify.
// robots.txt rules can optionally be honoured per host.
package fetcher
