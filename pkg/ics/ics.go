// Package ics renders iCalendar (RFC 5545) feeds. It covers only what the
// schedule export needs: timed and all-day events with stable UIDs.
package ics

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Event is one calendar entry. All-day events span whole days; the times are
// truncated to their dates on output.
type Event struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
	AllDay  bool
}

// Calendar is a named collection of events
type Calendar struct {
	Name   string
	Events []Event
}

const (
	timeLayout = "20060102T150405Z"
	dateLayout = "20060102"
)

// escape applies RFC 5545 text escaping to property values
func escape(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\n", `\n`,
		"\r", "",
	)
	return r.Replace(s)
}

// Encode writes the calendar to w. Lines use CRLF endings as the format
// requires; timed events are written in UTC.
func Encode(w io.Writer, cal Calendar, now time.Time) error {
	var b strings.Builder
	line := func(format string, args ...any) {
		b.WriteString(fmt.Sprintf(format, args...))
		b.WriteString("\r\n")
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:-//Perma//Schedule//EN")
	line("CALSCALE:GREGORIAN")
	if cal.Name != "" {
		line("X-WR-CALNAME:%s", escape(cal.Name))
	}

	stamp := now.UTC().Format(timeLayout)
	for _, ev := range cal.Events {
		line("BEGIN:VEVENT")
		line("UID:%s", escape(ev.UID))
		line("DTSTAMP:%s", stamp)
		line("SUMMARY:%s", escape(ev.Summary))
		if ev.AllDay {
			start := ev.Start.Format(dateLayout)
			// DTEND is exclusive; a single-day event ends the next day.
			end := ev.End
			if !end.After(ev.Start) {
				end = ev.Start
			}
			line("DTSTART;VALUE=DATE:%s", start)
			line("DTEND;VALUE=DATE:%s", end.AddDate(0, 0, 1).Format(dateLayout))
		} else {
			line("DTSTART:%s", ev.Start.UTC().Format(timeLayout))
			line("DTEND:%s", ev.End.UTC().Format(timeLayout))
		}
		line("END:VEVENT")
	}
	line("END:VCALENDAR")

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	return nil
}
