package tool

import (
	"context"
	"strings"
	"time"

	"github.com/tmc/langchaingo/tools"
)

var _ tools.Tool = Clock{}

// Clock tells the current time, in UTC unless the input names a time zone.
type Clock struct {
	// Now is used instead of time.Now when set.
	Now func() time.Time
}

// Name returns the name of the tool.
func (Clock) Name() string {
	return "clock"
}

// Description returns the description of the tool.
func (Clock) Description() string {
	return "Returns the current date and time in RFC 3339 format. " +
		"Input may be an IANA time zone such as 'Europe/Paris'; empty means UTC."
}

// Call returns the current time.
func (c Clock) Call(_ context.Context, input string) (string, error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	loc := time.UTC
	if name := strings.TrimSpace(input); name != "" {
		var err error
		if loc, err = time.LoadLocation(name); err != nil {
			return "", err
		}
	}
	return now().In(loc).Format(time.RFC3339), nil
}
