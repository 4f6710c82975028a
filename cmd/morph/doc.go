// Command morph submits files to a remote conversion service and tracks the
// resulting jobs from the terminal.
package main
