package event

import (
	"errors"
	"testing"
	"time"
)

func date(day, hour int) time.Time {
	return time.Date(2026, 9, day, hour, 0, 0, 0, time.UTC)
}

func mustPropose(t *testing.T, e *Event, when time.Time) int {
	t.Helper()
	idx, err := e.ProposeDate(when)
	if err != nil {
		t.Fatalf("ProposeDate(%v): %v", when, err)
	}
	return idx
}

func TestProposeDateAssignsStableIndices(t *testing.T) {
	t.Parallel()

	e := New("e1", "game night")
	for want := 0; want < 3; want++ {
		if got := mustPropose(t, e, date(10+want, 19)); got != want {
			t.Fatalf("index = %d, want %d", got, want)
		}
	}

	if err := e.Unpropose(1); err != nil {
		t.Fatalf("Unpropose(1): %v", err)
	}
	if _, err := e.Proposal(1); !errors.Is(err, ErrInvalidProposal) {
		t.Fatalf("Proposal(1) after remove = %v, want ErrInvalidProposal", err)
	}
	// Freed slots are never handed out again.
	if got := mustPropose(t, e, date(20, 19)); got != 3 {
		t.Fatalf("index after removal = %d, want 3", got)
	}
}

func TestProposalLookupErrors(t *testing.T) {
	t.Parallel()

	e := New("e1", "x")
	for _, idx := range []int{-1, 0, 7} {
		if _, err := e.Proposal(idx); !errors.Is(err, ErrInvalidProposal) {
			t.Fatalf("Proposal(%d) = %v, want ErrInvalidProposal", idx, err)
		}
		if err := e.Unpropose(idx); !errors.Is(err, ErrInvalidProposal) {
			t.Fatalf("Unpropose(%d) = %v, want ErrInvalidProposal", idx, err)
		}
		if err := e.AcceptProposal("a", idx); !errors.Is(err, ErrInvalidProposal) {
			t.Fatalf("AcceptProposal(%d) = %v, want ErrInvalidProposal", idx, err)
		}
		if err := e.RejectProposal("a", idx); !errors.Is(err, ErrInvalidProposal) {
			t.Fatalf("RejectProposal(%d) = %v, want ErrInvalidProposal", idx, err)
		}
	}
}

func TestEarliestLatestTracking(t *testing.T) {
	t.Parallel()

	e := New("e1", "x")
	if _, ok := e.EarliestDate(); ok {
		t.Fatal("empty event must have no earliest date")
	}

	// Out of chronological order on purpose.
	mid := mustPropose(t, e, date(15, 19))
	last := mustPropose(t, e, date(20, 19))
	first := mustPropose(t, e, date(10, 19))

	if when, ok := e.EarliestDate(); !ok || !when.Equal(date(10, 19)) {
		t.Fatalf("EarliestDate() = %v %v, want %v", when, ok, date(10, 19))
	}
	if when, ok := e.LatestDate(); !ok || !when.Equal(date(20, 19)) {
		t.Fatalf("LatestDate() = %v %v, want %v", when, ok, date(20, 19))
	}

	// Removing the extremes forces a rescan of the survivors.
	if err := e.Unpropose(first); err != nil {
		t.Fatal(err)
	}
	if err := e.Unpropose(last); err != nil {
		t.Fatal(err)
	}
	if when, _ := e.EarliestDate(); !when.Equal(date(15, 19)) {
		t.Fatalf("earliest after removals = %v, want %v", when, date(15, 19))
	}
	if when, _ := e.LatestDate(); !when.Equal(date(15, 19)) {
		t.Fatalf("latest after removals = %v, want %v", when, date(15, 19))
	}

	if err := e.Unpropose(mid); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.EarliestDate(); ok {
		t.Fatal("all proposals removed, earliest must be absent")
	}
	if _, ok := e.LatestDate(); ok {
		t.Fatal("all proposals removed, latest must be absent")
	}
}

func TestEarliestLatestTiesKeepFirst(t *testing.T) {
	t.Parallel()

	e := New("e1", "x")
	a := mustPropose(t, e, date(10, 19))
	mustPropose(t, e, date(10, 19))

	pa, _ := e.Proposal(a)
	if e.earliest != pa || e.latest != pa {
		t.Fatal("tie on insert must keep the previously cached proposal")
	}
}

func TestAcceptRejectRosterSideEffects(t *testing.T) {
	t.Parallel()

	e := New("e1", "x")
	idx := mustPropose(t, e, date(10, 19))

	if err := e.AcceptProposal("alice", idx); err != nil {
		t.Fatal(err)
	}
	if got := e.Invitees(); len(got) != 1 || got[0] != "alice" {
		t.Fatalf("accept must add to invitees, got %v", got)
	}
	if !e.HasResponded("alice") {
		t.Fatal("accept must count as response")
	}

	// Reject responds without inviting.
	if err := e.RejectProposal("bob", idx); err != nil {
		t.Fatal(err)
	}
	if got := e.Invitees(); len(got) != 1 {
		t.Fatalf("reject must not add to invitees, got %v", got)
	}
	if !e.HasResponded("bob") {
		t.Fatal("reject must count as response")
	}
}

func TestInviteUninvite(t *testing.T) {
	t.Parallel()

	e := New("e1", "x")
	e.Invite("carol")
	e.Invite("alice")
	e.Invite("carol")
	if got := e.Invitees(); len(got) != 2 || got[0] != "carol" || got[1] != "alice" {
		t.Fatalf("invitees = %v, want insertion order [carol alice]", got)
	}
	e.Uninvite("carol")
	e.Uninvite("nobody")
	if got := e.Invitees(); len(got) != 1 || got[0] != "alice" {
		t.Fatalf("invitees after uninvite = %v", got)
	}
	if e.HasResponded("alice") {
		t.Fatal("invite must not touch responses")
	}
}

func TestFinalizeLifecycle(t *testing.T) {
	t.Parallel()

	e := New("e1", "x")
	if _, err := e.FinalProposal(); !errors.Is(err, ErrEventNotFinalized) {
		t.Fatalf("FinalProposal on open event = %v, want ErrEventNotFinalized", err)
	}

	a := mustPropose(t, e, date(10, 19))
	b := mustPropose(t, e, date(11, 19))

	if err := e.Finalize(99); !errors.Is(err, ErrInvalidProposal) {
		t.Fatalf("Finalize(99) = %v, want ErrInvalidProposal", err)
	}
	if err := e.Finalize(a); err != nil {
		t.Fatal(err)
	}
	if !e.IsFinalized() {
		t.Fatal("expected finalized")
	}

	// A second finalize fails regardless of index, valid or not.
	for _, idx := range []int{a, b, 99} {
		if err := e.Finalize(idx); !errors.Is(err, ErrEventAlreadyFinalized) {
			t.Fatalf("Finalize(%d) on finalized event = %v, want ErrEventAlreadyFinalized", idx, err)
		}
	}
	if _, err := e.ProposeDate(date(12, 19)); !errors.Is(err, ErrEventFinalized) {
		t.Fatalf("ProposeDate on finalized event = %v, want ErrEventFinalized", err)
	}

	fp, err := e.FinalProposal()
	if err != nil {
		t.Fatal(err)
	}
	if !fp.When().Equal(date(10, 19)) {
		t.Fatalf("final proposal date = %v", fp.When())
	}

	// Switching dates requires an explicit reopen.
	e.Unfinalize()
	e.Unfinalize()
	if err := e.Finalize(b); err != nil {
		t.Fatal(err)
	}
}

func TestUnproposeFinalizedClearsChoice(t *testing.T) {
	t.Parallel()

	e := New("e1", "x")
	idx := mustPropose(t, e, date(10, 19))
	if err := e.Finalize(idx); err != nil {
		t.Fatal(err)
	}
	if err := e.Unpropose(idx); err != nil {
		t.Fatal(err)
	}
	if e.IsFinalized() {
		t.Fatal("removing the finalized proposal must reopen the event")
	}
	if _, err := e.FinalProposal(); !errors.Is(err, ErrEventNotFinalized) {
		t.Fatalf("FinalProposal = %v, want ErrEventNotFinalized", err)
	}
}

// Mirrors the negotiation walkthrough: three candidates, three voters,
// a two-way tie below the floor, then a breakout leader, then a
// finalize that respects the votes already on the chosen date.
func TestNegotiationScenario(t *testing.T) {
	t.Parallel()

	e := New("e1", "team dinner")
	p0 := mustPropose(t, e, date(10, 19))
	p1 := mustPropose(t, e, date(11, 19))
	p2 := mustPropose(t, e, date(12, 19))
	for _, uid := range []string{"A", "B", "C"} {
		e.Invite(uid)
	}

	votes := []struct {
		uid string
		idx int
	}{
		{"A", p0}, {"B", p0},
		{"B", p1}, {"C", p1},
		{"C", p2},
	}
	for _, v := range votes {
		if err := e.AcceptProposal(v.uid, v.idx); err != nil {
			t.Fatal(err)
		}
	}

	counts := map[int]int{p0: 2, p1: 2, p2: 1}
	for idx, want := range counts {
		p, err := e.Proposal(idx)
		if err != nil {
			t.Fatal(err)
		}
		if p.YesCount() != want {
			t.Fatalf("proposal %d YesCount = %d, want %d", idx, p.YesCount(), want)
		}
		if p.Leading() {
			t.Fatalf("proposal %d leading with max vote count 2", idx)
		}
	}

	// A's extra vote pushes proposal 1 over the floor.
	if err := e.AcceptProposal("A", p1); err != nil {
		t.Fatal(err)
	}
	for idx, wantLeading := range map[int]bool{p0: false, p1: true, p2: false} {
		p, _ := e.Proposal(idx)
		if p.Leading() != wantLeading {
			t.Fatalf("proposal %d leading = %v, want %v", idx, p.Leading(), wantLeading)
		}
	}

	e.Invite("D")
	if err := e.Finalize(p1); err != nil {
		t.Fatal(err)
	}
	fp, err := e.FinalProposal()
	if err != nil {
		t.Fatal(err)
	}
	for _, uid := range []string{"A", "B", "C"} {
		if !fp.IsAttending(uid) {
			t.Fatalf("expected %s attending the finalized date", uid)
		}
	}
	if fp.IsAttending("D") || e.HasResponded("D") {
		t.Fatal("late invitee D must be neither attending nor responded")
	}
}

func TestLeaderTiesAboveFloor(t *testing.T) {
	t.Parallel()

	e := New("e1", "x")
	p0 := mustPropose(t, e, date(10, 19))
	p1 := mustPropose(t, e, date(11, 19))
	for _, uid := range []string{"a", "b", "c"} {
		if err := e.AcceptProposal(uid, p0); err != nil {
			t.Fatal(err)
		}
		if err := e.AcceptProposal(uid, p1); err != nil {
			t.Fatal(err)
		}
	}
	for _, idx := range []int{p0, p1} {
		p, _ := e.Proposal(idx)
		if !p.Leading() {
			t.Fatalf("proposal %d must share the lead at 3-3", idx)
		}
	}

	// Dropping one vote pulls the max back to the floor for that slot.
	if err := e.RejectProposal("c", p1); err != nil {
		t.Fatal(err)
	}
	pa, _ := e.Proposal(p0)
	pb, _ := e.Proposal(p1)
	if !pa.Leading() || pb.Leading() {
		t.Fatalf("leading = %v/%v, want sole leader on first proposal", pa.Leading(), pb.Leading())
	}
}
