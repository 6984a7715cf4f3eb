// Package gcode reads G-code and turns it into plotter operations.
package gcode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidNumber = errors.New("invalid number")
	ErrUnexpected    = errors.New("unexpected character")
)

// Command is one parsed G-code line
type Command struct {
	Type       byte             // 'G', 'M', 'T', or 0 for a bare parameter line
	Number     int              // e.g. 0 for G0, 28 for G28
	Parameters map[byte]float64 // X, Y, F, S, ...
	Comment    string
}

// Parser splits G-code lines into commands. The zero value is ready to use.
type Parser struct{}

// NewParser creates a new G-code parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseLine parses a single line of G-code. Blank lines, bare line numbers
// and program delimiters yield a nil command.
func (p *Parser) ParseLine(line string) (*Command, error) {
	code, comment := splitComment(line)
	if i := strings.IndexByte(code, '*'); i >= 0 {
		code = code[:i]
	}

	cmd := &Command{
		Parameters: make(map[byte]float64),
		Comment:    comment,
	}
	words := 0
	for rest := code; ; {
		rest = strings.TrimLeft(rest, " \t%")
		if rest == "" {
			break
		}
		letter := rest[0] &^ 0x20
		if letter < 'A' || letter > 'Z' {
			return nil, fmt.Errorf("%w %q", ErrUnexpected, rest[0])
		}
		rest = strings.TrimLeft(rest[1:], " \t")
		n := numberLen(rest)
		text := rest[:n]
		rest = rest[n:]

		switch {
		case letter == 'N' && words == 0:
			// line numbers are dropped
		case words == 0 && (letter == 'G' || letter == 'M' || letter == 'T'):
			num, err := strconv.Atoi(text)
			if err != nil {
				return nil, fmt.Errorf("%w %c%s", ErrInvalidNumber, letter, text)
			}
			cmd.Type = letter
			cmd.Number = num
			words++
		default:
			var value float64
			if text != "" {
				v, err := strconv.ParseFloat(text, 64)
				if err != nil {
					return nil, fmt.Errorf("%w %c%s", ErrInvalidNumber, letter, text)
				}
				value = v
			}
			cmd.Parameters[letter] = value
			words++
		}
	}

	if words == 0 && comment == "" {
		return nil, nil
	}
	return cmd, nil
}

// splitComment separates a trailing ';' or '(' comment from the code
func splitComment(line string) (string, string) {
	if i := strings.IndexAny(line, ";("); i >= 0 {
		return line[:i], line[i:]
	}
	return line, ""
}

// numberLen is the length of the numeric run at the start of s
func numberLen(s string) int {
	n := 0
	for n < len(s) {
		c := s[n]
		if (c < '0' || c > '9') && c != '.' && c != '-' && c != '+' {
			break
		}
		n++
	}
	return n
}

// HasParameter reports whether the command carries param
func (cmd *Command) HasParameter(param byte) bool {
	_, ok := cmd.Parameters[param]
	return ok
}

// GetParameter returns the value of param, or def when it is absent
func (cmd *Command) GetParameter(param byte, def float64) float64 {
	if v, ok := cmd.Parameters[param]; ok {
		return v
	}
	return def
}
