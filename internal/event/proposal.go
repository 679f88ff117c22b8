package event

import "time"

// Proposal is a single candidate date for an event together with the
// invitees who have accepted that specific date. Votes are per-proposal:
// accepting one candidate says nothing about any other.
type Proposal struct {
	when     time.Time
	accepted []string
	leading  bool
}

func newProposal(when time.Time) *Proposal {
	return &Proposal{when: when}
}

// When returns the candidate date. It never changes after creation.
func (p *Proposal) When() time.Time { return p.when }

// Yes records uid as attending. Repeat calls are no-ops.
func (p *Proposal) Yes(uid string) {
	if p.IsAttending(uid) {
		return
	}
	p.accepted = append(p.accepted, uid)
}

// No withdraws uid's acceptance. Unknown uids are ignored.
func (p *Proposal) No(uid string) {
	for i, v := range p.accepted {
		if v == uid {
			p.accepted = append(p.accepted[:i], p.accepted[i+1:]...)
			return
		}
	}
}

// IsAttending reports whether uid has accepted this date.
func (p *Proposal) IsAttending(uid string) bool {
	for _, v := range p.accepted {
		if v == uid {
			return true
		}
	}
	return false
}

// YesCount returns the number of accepting invitees.
func (p *Proposal) YesCount() int { return len(p.accepted) }

// Leading reports whether the owning event currently considers this
// proposal a front-runner. The flag is recomputed by the event after
// every vote and cannot be set by callers.
func (p *Proposal) Leading() bool { return p.leading }

func (p *Proposal) markLeader()  { p.leading = true }
func (p *Proposal) clearLeader() { p.leading = false }

// Attendees returns a copy of the accepted set in acceptance order.
func (p *Proposal) Attendees() []string {
	out := make([]string, len(p.accepted))
	copy(out, p.accepted)
	return out
}
