package auditlog

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/swoopingasaservice/discordbots/internal/logging"
	"github.com/swoopingasaservice/discordbots/internal/metrics"
)

// Heartbeater receives liveness signals from the poll loop.
type Heartbeater interface {
	Heartbeat(name string)
}

// HeartbeatName identifies the poller to its health monitor.
const HeartbeatName = "audit-poller"

// Poller sweeps every guild the session is in on a fixed interval and
// imports any moderation actions that happened since the last sweep.
// Dedup in the store makes overlapping sweeps harmless.
type Poller struct {
	importer *Importer
	interval time.Duration
	health   Heartbeater

	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func NewPoller(importer *Importer, interval time.Duration) *Poller {
	return &Poller{
		importer: importer,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// SetHealthMonitor wires a liveness monitor. Call before Start.
func (p *Poller) SetHealthMonitor(h Heartbeater) {
	p.health = h
}

// Start launches the background poll loop. The first sweep runs
// immediately so a restart catches up without waiting a full interval.
func (p *Poller) Start(s *discordgo.Session) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		logging.Info("Audit log poller started (interval %s)", p.interval)
		p.sweep(s)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.sweep(s)
			case <-p.stop:
				return
			}
		}
	}()
}

// Stop halts the poll loop and waits for the current sweep to finish.
func (p *Poller) Stop() {
	p.once.Do(func() { close(p.stop) })
	p.wg.Wait()
}

func (p *Poller) sweep(s *discordgo.Session) {
	guilds := s.State.Guilds
	for i, guild := range guilds {
		report, err := p.importer.ImportGuild(s, guild.ID)
		if err != nil {
			logging.Warn("Poll sweep failed for guild %s: %v", guild.ID, err)
			continue
		}
		if report.Recorded > 0 {
			logging.Info("Poll sweep guild %s: %d new actions (%d scanned, %d duplicates)",
				guild.ID, report.Recorded, report.Scanned, report.Duplicates)
		}

		// Space guild fetches out to stay clear of rate limits.
		if i < len(guilds)-1 {
			select {
			case <-time.After(2 * time.Second):
			case <-p.stop:
				return
			}
		}
	}
	metrics.Default().RecordPollCycle()
	if p.health != nil {
		p.health.Heartbeat(HeartbeatName)
	}
}
