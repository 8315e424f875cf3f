package core

import "strings"

// Tokenize splits a raw input line into an argument vector on runs of
// whitespace. No quoting, escaping, or variable expansion is performed:
// every field is passed to the command as a literal argument. An empty or
// all-whitespace line yields an empty vector, which the main loop drops
// before dispatch.
func Tokenize(line string) []string {
	return strings.Fields(line)
}
