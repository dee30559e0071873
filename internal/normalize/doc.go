// Package normalize converts bank-specific amount and date text into
// decimal amounts and calendar dates.
//
// Every parser reports success with a boolean instead of an error. Callers
// decide per field what a failure means: an unparseable amount is treated as
// zero, an unparseable date drops the row.
package normalize
