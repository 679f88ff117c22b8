package event

import "time"

// EarliestDate returns the timestamp used when this event competes for
// "soonest": the finalized date once chosen, otherwise the earliest
// live proposal. ok is false when the event has no live proposals.
func (e *Event) EarliestDate() (when time.Time, ok bool) {
	if e.IsFinalized() {
		return e.proposals[e.finalized].when, true
	}
	if e.earliest == nil {
		return time.Time{}, false
	}
	return e.earliest.when, true
}

// LatestDate is the counterpart of EarliestDate for the latest live
// proposal. When finalized, both return the finalized date.
func (e *Event) LatestDate() (when time.Time, ok bool) {
	if e.IsFinalized() {
		return e.proposals[e.finalized].when, true
	}
	if e.latest == nil {
		return time.Time{}, false
	}
	return e.latest.when, true
}

// Compare orders events by EarliestDate. Events without any comparison
// date sort before all dated events; two undated events compare equal.
func (e *Event) Compare(other *Event) int {
	a, aok := e.EarliestDate()
	b, bok := other.EarliestDate()
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}
	return a.Compare(b)
}

// Filter is a conjunctive predicate over a single event. Zero-valued
// fields are absent clauses and always pass.
type Filter struct {
	Finalized   bool
	Unfinalized bool
	Before      *time.Time
	After       *time.Time
	Invited     string
}

// Matches reports whether every present clause of f holds. The Before
// and After bounds compare against the event's comparison dates; events
// without a comparison date pass those clauses vacuously.
func (e *Event) Matches(f Filter) bool {
	if f.Finalized && !e.IsFinalized() {
		return false
	}
	if f.Unfinalized && e.IsFinalized() {
		return false
	}
	if f.Before != nil {
		if when, ok := e.EarliestDate(); ok && when.After(*f.Before) {
			return false
		}
	}
	if f.After != nil {
		if when, ok := e.LatestDate(); ok && when.Before(*f.After) {
			return false
		}
	}
	if f.Invited != "" {
		found := false
		for _, uid := range e.invitees {
			if uid == f.Invited {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
