// Package processor runs the fetch and extract pipeline over a batch of URLs.
//
// A Processor admits at most Config.Concurrency URLs at a time, classifies
// every outcome into an article.Article and returns the results in input
// order. Statistics accumulate across calls and are available from Stats.
package processor
