package cards

import (
	"strconv"
	"strings"
	"time"
)

// DefaultLayout is used when the mailbox has no date or time format.
const DefaultLayout = "2006-01-02 15:04"

// hour24 stands for the unpadded 24-hour clock ("H"), which Go layouts
// cannot express. Format substitutes it.
const hour24 = "\x00"

// windowsTokens maps .NET custom format specifiers to Go layout elements,
// longest first so "MMMM" wins over "MM".
var windowsTokens = []struct{ from, to string }{
	{"yyyy", "2006"},
	{"yy", "06"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"MM", "01"},
	{"M", "1"},
	{"dddd", "Monday"},
	{"ddd", "Mon"},
	{"dd", "02"},
	{"d", "2"},
	{"HH", "15"},
	{"H", hour24},
	{"hh", "03"},
	{"h", "3"},
	{"mm", "04"},
	{"m", "4"},
	{"ss", "05"},
	{"s", "5"},
	{"tt", "PM"},
	{"t", "PM"},
}

// Layout converts the mailbox date and time formats ("dd/MM/yyyy", "h:mm tt")
// into a single Go time layout. Render it with Format, not time.Time.Format:
// a bare "H" has no Go equivalent and is filled in afterwards.
func Layout(dateFormat, timeFormat string) string {
	if dateFormat == "" && timeFormat == "" {
		return DefaultLayout
	}
	return strings.TrimSpace(convert(dateFormat) + " " + convert(timeFormat))
}

func convert(format string) string {
	var b strings.Builder
	for i := 0; i < len(format); {
		if format[i] == '\'' {
			// Quoted literal.
			end := strings.IndexByte(format[i+1:], '\'')
			if end < 0 {
				b.WriteString(format[i+1:])
				break
			}
			b.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		}
		matched := false
		for _, tok := range windowsTokens {
			if strings.HasPrefix(format[i:], tok.from) {
				b.WriteString(tok.to)
				i += len(tok.from)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(format[i])
			i++
		}
	}
	return b.String()
}

// Format renders t with a layout built by Layout.
func Format(t time.Time, layout string) string {
	out := t.Format(layout)
	if strings.Contains(out, hour24) {
		out = strings.ReplaceAll(out, hour24, strconv.Itoa(t.Hour()))
	}
	return out
}
