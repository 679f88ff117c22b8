// Package render turns event summaries into display text. The core
// guarantees the data; every display string lives here.
package render

import (
	"fmt"

	"github.com/calpoll/calpoll/internal/event"
)

const dateLayout = "Mon 02 Jan 2006 15:04 MST"

// Lines renders a summary as plain text, one line per entry.
func Lines(s event.Summary) []string {
	if s.Finalized {
		return finalizedLines(s)
	}
	return openLines(s)
}

func openLines(s event.Summary) []string {
	lines := []string{s.Name}
	if len(s.Proposals) == 0 {
		lines = append(lines, "no dates proposed yet")
	}
	for _, p := range s.Proposals {
		marker := ""
		if p.Leading {
			marker = "  (leading)"
		}
		lines = append(lines, fmt.Sprintf("[%d] %s  %d going%s",
			p.Index, p.When.Format(dateLayout), p.YesCount, marker))
	}
	for _, inv := range s.Invitees {
		state := "no response yet"
		if inv.Responded {
			state = "responded"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", inv.UID, state))
	}
	return lines
}

func finalizedLines(s event.Summary) []string {
	lines := []string{
		s.Name,
		"finalized for " + s.FinalDate.Format(dateLayout),
	}
	for _, inv := range s.Invitees {
		var state string
		switch inv.State {
		case event.Attending:
			state = "attending"
		case event.NotAttending:
			state = "not attending"
		default:
			state = "no response yet"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", inv.UID, state))
	}
	return lines
}
