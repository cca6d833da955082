// Package proc builds and runs the external command lines the driver
// depends on: the solve engine, the prepare engine, the download
// transports, and the plotting tool chain.
package proc

import (
	"strings"
)

// Command accumulates the words of one shell command line.
//
// Words are kept pre-escaped: Add appends trusted literals (flags, the
// "|" and ">" composition operators), AddEscaped shell-quotes untrusted
// values such as file paths. String joins the words with single spaces,
// which is exactly what gets handed to "sh -c".
type Command struct {
	words []string
}

func NewCommand() *Command { return &Command{} }

// Add appends trusted words verbatim.
func (c *Command) Add(words ...string) *Command {
	c.words = append(c.words, words...)
	return c
}

// AddEscaped appends an untrusted value, shell-quoted.
func (c *Command) AddEscaped(value string) *Command {
	c.words = append(c.words, ShellEscape(value))
	return c
}

// Pipe appends the shell pipeline operator between two tool stages.
func (c *Command) Pipe() *Command { return c.Add("|") }

// RedirectTo appends "> path", sending the final stage's stdout to path.
func (c *Command) RedirectTo(path string) *Command {
	return c.Add(">").AddEscaped(path)
}

// Len reports how many words have been added.
func (c *Command) Len() int { return len(c.words) }

func (c *Command) String() string {
	return strings.Join(c.words, " ")
}

// ShellEscape quotes a value for safe interpolation into an sh command
// line. Values made only of clearly inert characters pass through
// unchanged; everything else is single-quoted with embedded single
// quotes spliced out of the quoted region.
func ShellEscape(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n\"'\\$&;()<>|*?[]{}~`#!") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
