// Package logs reads back the JSON log file written by takeoutfix.
//
// It keeps memory bounded when scanning large log files, can narrow records to
// a single run or a minimum level, and supports a follow mode for
// `takeoutfix logs --follow`. Callers supply a context so polling stops when
// the CLI exits.
package logs
