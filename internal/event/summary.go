package event

import "time"

// ResponseState classifies an invitee against a finalized date.
type ResponseState string

const (
	Unresponded  ResponseState = "unresponded"
	Attending    ResponseState = "attending"
	NotAttending ResponseState = "not_attending"
)

// ProposalLine is one candidate date in an open summary.
type ProposalLine struct {
	Index    int       `json:"index"`
	When     time.Time `json:"when"`
	YesCount int       `json:"yes_count"`
	Leading  bool      `json:"leading"`
}

// InviteeStatus is one invitee row. Responded is always populated;
// State is populated only on finalized summaries.
type InviteeStatus struct {
	UID       string        `json:"uid"`
	Responded bool          `json:"responded"`
	State     ResponseState `json:"state,omitempty"`
}

// Summary is the render-agnostic view of an event handed to the
// presentation layer. It carries data and classification only; display
// strings are the renderer's concern.
type Summary struct {
	EventID     string          `json:"event_id"`
	Name        string          `json:"name"`
	GeneratedAt time.Time       `json:"generated_at"`
	Finalized   bool            `json:"finalized"`
	FinalDate   time.Time       `json:"final_date,omitzero"`
	Proposals   []ProposalLine  `json:"proposals,omitempty"`
	Invitees    []InviteeStatus `json:"invitees,omitempty"`
}

// Summarize assembles the summary as of now. Open events list every
// live proposal in index order plus each invitee's responded flag;
// finalized events carry the chosen date and classify each invitee as
// unresponded, attending, or not attending.
func (e *Event) Summarize(now time.Time) Summary {
	s := Summary{
		EventID:     e.id,
		Name:        e.name,
		GeneratedAt: now,
		Finalized:   e.IsFinalized(),
	}
	if s.Finalized {
		final := e.proposals[e.finalized]
		s.FinalDate = final.when
		for _, uid := range e.invitees {
			s.Invitees = append(s.Invitees, InviteeStatus{
				UID:       uid,
				Responded: e.HasResponded(uid),
				State:     e.classify(final, uid),
			})
		}
		return s
	}
	for idx, p := range e.proposals {
		if p == nil {
			continue
		}
		s.Proposals = append(s.Proposals, ProposalLine{
			Index:    idx,
			When:     p.when,
			YesCount: p.YesCount(),
			Leading:  p.Leading(),
		})
	}
	for _, uid := range e.invitees {
		s.Invitees = append(s.Invitees, InviteeStatus{UID: uid, Responded: e.HasResponded(uid)})
	}
	return s
}

// classify depends on global response membership, not on the finalized
// proposal's accepted set alone: accepting a different candidate still
// counts as having responded, just not as attending.
func (e *Event) classify(final *Proposal, uid string) ResponseState {
	if !e.HasResponded(uid) {
		return Unresponded
	}
	if final.IsAttending(uid) {
		return Attending
	}
	return NotAttending
}
