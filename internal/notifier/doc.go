// Package notifier publishes headlines of successfully extracted articles.
//
// The dry-run notifier writes the posts it would make to a writer. The
// Twitter notifier posts them through the v1.1 statuses API using OAuth1
// credentials from the environment, pausing between posts.
package notifier
