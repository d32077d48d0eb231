package handler

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"go.uber.org/multierr"
)

// Matches reports whether line satisfies the expectation.
func (e Expectation) Matches(line string) bool {
	return strings.Contains(line, e.Level) &&
		strings.Contains(line, e.Tag) &&
		strings.Contains(line, e.Message)
}

// ValidateLines checks that r holds exactly one line per expectation,
// in order, each matching its expectation. All mismatches are returned.
func ValidateLines(r io.Reader, expected []Expectation) error {
	var errs error
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	n := 0
	for sc.Scan() {
		line := sc.Text()
		if n >= len(expected) {
			errs = multierr.Append(errs, fmt.Errorf("unexpected line %d: %q", n+1, line))
		} else if want := expected[n]; !want.Matches(line) {
			errs = multierr.Append(errs, fmt.Errorf("line %d: %q does not match level %q, tag %q, message %q",
				n+1, line, want.Level, want.Tag, want.Message))
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return multierr.Append(errs, fmt.Errorf("read log: %w", err))
	}
	if n < len(expected) {
		errs = multierr.Append(errs, fmt.Errorf("missing lines: got %d, expected %d", n, len(expected)))
	}
	return errs
}
