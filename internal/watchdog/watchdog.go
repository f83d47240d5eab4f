package watchdog

import (
	"sync/atomic"
	"time"

	"github.com/swoopingasaservice/discordbots/internal/logging"
	"github.com/swoopingasaservice/discordbots/internal/metrics"
)

// Watchdog tracks liveness of the bot's long-running components. Each
// component heartbeats as it works; a component that stays silent past
// its threshold is reported unhealthy until it beats again.
type Watchdog struct {
	components    map[string]*ComponentHealth
	checkInterval time.Duration
	running       uint32
}

type ComponentHealth struct {
	Name          string
	LastHeartbeat int64
	IsHealthy     uint32
	Threshold     time.Duration
}

func NewWatchdog(checkInterval time.Duration) *Watchdog {
	return &Watchdog{
		components:    make(map[string]*ComponentHealth),
		checkInterval: checkInterval,
	}
}

// RegisterComponent must be called before Start; the component map is
// not guarded after the monitor loop begins.
func (w *Watchdog) RegisterComponent(name string, threshold time.Duration) {
	w.components[name] = &ComponentHealth{
		Name:          name,
		LastHeartbeat: time.Now().UnixNano(),
		IsHealthy:     1,
		Threshold:     threshold,
	}
}

func (w *Watchdog) Heartbeat(name string) {
	if comp, exists := w.components[name]; exists {
		atomic.StoreInt64(&comp.LastHeartbeat, time.Now().UnixNano())
		atomic.StoreUint32(&comp.IsHealthy, 1)
	}
}

func (w *Watchdog) Start() {
	atomic.StoreUint32(&w.running, 1)
	go w.monitorLoop()
}

func (w *Watchdog) Stop() {
	atomic.StoreUint32(&w.running, 0)
}

func (w *Watchdog) monitorLoop() {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for atomic.LoadUint32(&w.running) == 1 {
		<-ticker.C
		w.checkAllComponents()
		w.logSnapshot()
	}
}

func (w *Watchdog) checkAllComponents() {
	now := time.Now().UnixNano()
	for _, comp := range w.components {
		last := atomic.LoadInt64(&comp.LastHeartbeat)
		silent := time.Duration(now - last)

		if silent > comp.Threshold {
			if atomic.CompareAndSwapUint32(&comp.IsHealthy, 1, 0) {
				logging.Error("Component %s unhealthy: no heartbeat for %s", comp.Name, silent.Round(time.Second))
			}
		} else if atomic.CompareAndSwapUint32(&comp.IsHealthy, 0, 1) {
			logging.Info("Component %s recovered", comp.Name)
		}
	}
}

func (w *Watchdog) logSnapshot() {
	snap := metrics.Default().Snapshot()
	logging.Info("Health: uptime=%s actions=%d duplicates=%d polls=%d commands=%d relay=%d/%d",
		snap.Uptime.Round(time.Second),
		snap.ActionsRecorded,
		snap.DuplicatesSkipped,
		snap.PollCycles,
		snap.CommandsServed,
		snap.RelayPosts,
		snap.RelayFailures)
}
