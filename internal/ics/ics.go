// Package ics bridges events to the iCalendar format: finalized events
// are exported as a VCALENDAR, and uploaded calendars can seed an
// event's candidate dates.
package ics

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/calpoll/calpoll/internal/event"
)

const productID = "-//calpoll//EN"

// Export renders every finalized event as one VEVENT. Events still in
// negotiation have no date to publish and are skipped.
func Export(events []*event.Event, now time.Time) (string, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, e := range events {
		final, err := e.FinalProposal()
		if errors.Is(err, event.ErrEventNotFinalized) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("export event %s: %w", e.ID(), err)
		}
		ve := cal.AddEvent(e.ID())
		ve.SetDtStampTime(now)
		ve.SetStartAt(final.When())
		ve.SetSummary(e.Name())
	}
	return cal.Serialize(), nil
}

// CandidateDates extracts the start timestamps from an iCalendar
// payload, in chronological order, so a caller can bulk-propose them.
// VEVENTs without a parseable DTSTART are skipped; a calendar yielding
// no usable dates is an error.
func CandidateDates(payload []byte) ([]time.Time, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}
	var dates []time.Time
	for _, ve := range cal.Events() {
		start, err := ve.GetStartAt()
		if err != nil || start.IsZero() {
			continue
		}
		dates = append(dates, start)
	}
	if len(dates) == 0 {
		return nil, errors.New("calendar contains no dated events")
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}
