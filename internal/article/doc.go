// Package article defines the per-URL result record produced by the golf-news pipeline.
//
// An Article is created when processing of a URL starts and is filled in as the
// page is fetched and extracted. Its Status classifies the outcome exactly once.
// Stats are derived from a result list by Summarize and carry no state of their own.
package article
