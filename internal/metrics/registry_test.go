package metrics

import "testing"

func TestRegistryCounters(t *testing.T) {
	r := NewRegistry()

	for i := 0; i < 3; i++ {
		r.RecordAction()
	}
	r.RecordDuplicate()
	r.RecordPollCycle()
	r.RecordCommand()
	r.RecordCommand()
	r.RecordRelayPost()
	r.RecordRelayError()

	snap := r.Snapshot()
	if snap.ActionsRecorded != 3 {
		t.Fatalf("actions = %d, want 3", snap.ActionsRecorded)
	}
	if snap.DuplicatesSkipped != 1 || snap.PollCycles != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.CommandsServed != 2 {
		t.Fatalf("commands = %d, want 2", snap.CommandsServed)
	}
	if snap.RelayPosts != 1 || snap.RelayFailures != 1 {
		t.Fatalf("relay counters wrong: %+v", snap)
	}
	if snap.Uptime <= 0 {
		t.Fatalf("uptime not positive: %v", snap.Uptime)
	}
}
