// Package report formats batch results for people and machines.
//
// A Document is the serializable form of one batch run. It can be written as
// a text table or JSON, saved to disk and loaded again. Successful articles
// can also be exported as Markdown files with YAML front matter.
package report
