package event

import (
	"testing"
	"time"
)

func TestSummarizeOpen(t *testing.T) {
	t.Parallel()

	e := New("e1", "retro dinner")
	p0 := mustPropose(t, e, date(10, 19))
	p1 := mustPropose(t, e, date(11, 19))
	gone := mustPropose(t, e, date(12, 19))
	if err := e.Unpropose(gone); err != nil {
		t.Fatal(err)
	}
	e.Invite("alice")
	e.Invite("bob")
	for _, uid := range []string{"alice", "bob", "carol"} {
		if err := e.AcceptProposal(uid, p1); err != nil {
			t.Fatal(err)
		}
	}

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	s := e.Summarize(now)

	if s.Finalized || !s.GeneratedAt.Equal(now) || s.EventID != "e1" || s.Name != "retro dinner" {
		t.Fatalf("unexpected summary header: %+v", s)
	}
	if len(s.Proposals) != 2 {
		t.Fatalf("proposal lines = %d, want 2 (removed slot skipped)", len(s.Proposals))
	}
	if s.Proposals[0].Index != p0 || s.Proposals[1].Index != p1 {
		t.Fatalf("proposal lines out of index order: %+v", s.Proposals)
	}
	if s.Proposals[1].YesCount != 3 || !s.Proposals[1].Leading {
		t.Fatalf("expected leading line with 3 votes: %+v", s.Proposals[1])
	}
	if s.Proposals[0].Leading {
		t.Fatal("zero-vote proposal must not lead")
	}

	// alice and bob were explicitly invited, carol joined by voting.
	if len(s.Invitees) != 3 {
		t.Fatalf("invitee rows = %d, want 3", len(s.Invitees))
	}
	for _, row := range s.Invitees {
		if !row.Responded {
			t.Fatalf("invitee %s should have responded", row.UID)
		}
		if row.State != "" {
			t.Fatalf("open summary must not classify, got %q for %s", row.State, row.UID)
		}
	}
}

func TestSummarizeOpenNoInvitees(t *testing.T) {
	t.Parallel()

	e := New("e1", "x")
	mustPropose(t, e, date(10, 19))
	s := e.Summarize(time.Now())
	if len(s.Invitees) != 0 {
		t.Fatalf("expected no invitee rows, got %+v", s.Invitees)
	}
}

func TestSummarizeFinalized(t *testing.T) {
	t.Parallel()

	e := New("e1", "x")
	other := mustPropose(t, e, date(10, 19))
	chosen := mustPropose(t, e, date(11, 19))
	e.Invite("attends")
	e.Invite("declined")
	e.Invite("silent")
	e.Invite("elsewhere")

	if err := e.AcceptProposal("attends", chosen); err != nil {
		t.Fatal(err)
	}
	if err := e.RejectProposal("declined", chosen); err != nil {
		t.Fatal(err)
	}
	// Voted for a different date: responded, but not attending.
	if err := e.AcceptProposal("elsewhere", other); err != nil {
		t.Fatal(err)
	}
	if err := e.Finalize(chosen); err != nil {
		t.Fatal(err)
	}

	s := e.Summarize(time.Now())
	if !s.Finalized || !s.FinalDate.Equal(date(11, 19)) {
		t.Fatalf("unexpected finalized summary: %+v", s)
	}
	if len(s.Proposals) != 0 {
		t.Fatal("finalized summary must not list open proposals")
	}

	want := map[string]ResponseState{
		"attends":   Attending,
		"declined":  NotAttending,
		"silent":    Unresponded,
		"elsewhere": NotAttending,
	}
	if len(s.Invitees) != len(want) {
		t.Fatalf("invitee rows = %d, want %d", len(s.Invitees), len(want))
	}
	for _, row := range s.Invitees {
		if row.State != want[row.UID] {
			t.Fatalf("state for %s = %q, want %q", row.UID, row.State, want[row.UID])
		}
	}
}
