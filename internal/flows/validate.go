package flows

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/aretw0/calendarbot/pkg/domain"
)

// ValidAttendees accepts a semicolon separated list of bare email addresses.
// Empty entries are skipped.
func ValidAttendees(list string) bool {
	for _, entry := range strings.Split(list, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.IndexByte(entry, '@') <= 0 {
			return false
		}
		addr, err := mail.ParseAddress(entry)
		if err != nil || addr.Address != entry {
			return false
		}
	}
	return true
}

// SplitAttendees returns the addresses of a list accepted by ValidAttendees.
// The result is never nil.
func SplitAttendees(list string) []string {
	out := []string{}
	for _, entry := range strings.Split(list, ";") {
		if entry = strings.TrimSpace(entry); entry != "" {
			out = append(out, entry)
		}
	}
	return out
}

// ValidStart accepts a definite date and time.
func ValidStart(_ context.Context, c domain.Candidate, _ any) bool {
	return c.Definite()
}

// ValidEnd accepts a definite date and time strictly after the start passed
// as validations.
func ValidEnd(_ context.Context, c domain.Candidate, validations any) bool {
	if !c.Definite() {
		return false
	}
	start, ok := asTime(validations)
	if !ok {
		return false
	}
	return c.Value.After(start)
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		return parsed, err == nil
	}
	return time.Time{}, false
}
