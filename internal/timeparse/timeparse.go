// Package timeparse resolves user-entered times for the --at flags.
//
// It accepts absolute layouts first and falls back to natural language
// phrases like "yesterday at 11pm".
package timeparse

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// layouts are tried in order before natural language parsing. Clock-only
// layouts resolve against the base date.
var layouts = []struct {
	format    string
	clockOnly bool
}{
	{time.RFC3339, false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02 15:04", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02", false},
	{"15:04", true},
	{time.Kitchen, true},
}

var (
	parserOnce sync.Once
	parser     *when.Parser
)

func naturalParser() *when.Parser {
	parserOnce.Do(func() {
		parser = when.New(nil)
		parser.Add(en.All...)
		parser.Add(common.All...)
	})
	return parser
}

// Parse resolves s into a concrete time relative to base.
func Parse(s string, base time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("time cannot be empty")
	}
	if strings.EqualFold(s, "now") {
		return base, nil
	}

	for _, l := range layouts {
		t, err := time.ParseInLocation(l.format, s, base.Location())
		if err != nil {
			continue
		}
		if l.clockOnly {
			t = time.Date(base.Year(), base.Month(), base.Day(),
				t.Hour(), t.Minute(), 0, 0, base.Location())
		}
		return t, nil
	}

	r, err := naturalParser().Parse(s, base)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse time %q: %w", s, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("could not parse time %q", s)
	}
	return r.Time, nil
}
