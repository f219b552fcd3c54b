// Package cli implements the command-line interface for golf-news.
//
// The cli package provides the Cobra-based CLI: scrape processes a batch of
// article URLs, discover collects article links from listing pages, watch
// repeats scrape runs on a cron schedule, history lists processed URLs and
// notify posts headlines from a saved report. It wires config, processor,
// report, history and notifier together.
package cli
