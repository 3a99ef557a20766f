package radio

import (
	"log"
	"sync"
)

// ----- Calculation Gate ----- //

// calcGate keeps the calculation pass away from the mix list while it is
// being restructured. Pause counts, so nested pauses need as many resumes;
// it also waits for a cycle already in progress.
type calcGate struct {
	mu      sync.Mutex
	cond    *sync.Cond
	paused  int
	running bool
}

func newCalcGate() *calcGate {
	g := &calcGate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

func (g *calcGate) Pause() {
	g.mu.Lock()
	g.paused++
	for g.running {
		g.cond.Wait()
	}
	g.mu.Unlock()
}

func (g *calcGate) Resume() {
	g.mu.Lock()
	if g.paused == 0 {
		log.Println("[WARN] resume without pause")
	} else {
		g.paused--
	}
	g.mu.Unlock()
}

// enter starts a cycle. It returns false while paused; the cycle is skipped.
func (g *calcGate) enter() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused > 0 {
		return false
	}
	g.running = true
	return true
}

func (g *calcGate) exit() {
	g.mu.Lock()
	g.running = false
	g.cond.Broadcast()
	g.mu.Unlock()
}

func (g *calcGate) isPaused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused > 0
}
