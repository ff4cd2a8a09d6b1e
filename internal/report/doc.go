// Package report renders DevKit output: timestamped status lines on the
// log stream and tables, summaries and JSON on the output stream.
package report
