// Package logs reads the analyzer's log file for the `logs` command.
//
// Last returns the trailing lines of the file; Follow keeps polling from the
// returned offset until its context ends. Both accept a Filter so a single
// run can be isolated by its run ID.
package logs
