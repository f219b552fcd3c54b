// Package history records which URLs have been processed in a SQLite database.
//
// The scrape and watch commands use it to skip URLs that were already
// extracted successfully. Failed URLs stay eligible for the next run.
package history
