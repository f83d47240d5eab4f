package metrics

import (
	"sync/atomic"
	"time"
)

// Registry tracks bot-level counters. All counters are atomics so event
// handlers can bump them without coordination.
type Registry struct {
	actionsRecorded   uint64
	duplicatesSkipped uint64
	pollCycles        uint64
	commandsServed    uint64
	relayPosts        uint64
	relayFailures     uint64
	startTime         int64
}

func NewRegistry() *Registry {
	return &Registry{
		startTime: time.Now().UnixNano(),
	}
}

func (r *Registry) RecordAction()     { atomic.AddUint64(&r.actionsRecorded, 1) }
func (r *Registry) RecordDuplicate()  { atomic.AddUint64(&r.duplicatesSkipped, 1) }
func (r *Registry) RecordPollCycle()  { atomic.AddUint64(&r.pollCycles, 1) }
func (r *Registry) RecordCommand()    { atomic.AddUint64(&r.commandsServed, 1) }
func (r *Registry) RecordRelayPost()  { atomic.AddUint64(&r.relayPosts, 1) }
func (r *Registry) RecordRelayError() { atomic.AddUint64(&r.relayFailures, 1) }

// Snapshot is a point-in-time copy for display.
type Snapshot struct {
	ActionsRecorded   uint64
	DuplicatesSkipped uint64
	PollCycles        uint64
	CommandsServed    uint64
	RelayPosts        uint64
	RelayFailures     uint64
	Uptime            time.Duration
	ActionsPerSecond  float64
}

func (r *Registry) Snapshot() Snapshot {
	actions := atomic.LoadUint64(&r.actionsRecorded)
	elapsed := time.Now().UnixNano() - atomic.LoadInt64(&r.startTime)

	var rate float64
	if elapsed > 0 {
		rate = float64(actions) / (float64(elapsed) / 1e9)
	}

	return Snapshot{
		ActionsRecorded:   actions,
		DuplicatesSkipped: atomic.LoadUint64(&r.duplicatesSkipped),
		PollCycles:        atomic.LoadUint64(&r.pollCycles),
		CommandsServed:    atomic.LoadUint64(&r.commandsServed),
		RelayPosts:        atomic.LoadUint64(&r.relayPosts),
		RelayFailures:     atomic.LoadUint64(&r.relayFailures),
		Uptime:            time.Duration(elapsed),
		ActionsPerSecond:  rate,
	}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}
