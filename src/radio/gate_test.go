package radio

import (
	"testing"
	"time"

	"github.com/jinjor/desktop-mixer/src/mixer"
)

func TestGatePauseWaitsForRunningCycle(t *testing.T) {
	g := newCalcGate()
	expectEqual(t, g.enter(), true)

	paused := make(chan struct{})
	go func() {
		g.Pause()
		close(paused)
	}()
	select {
	case <-paused:
		t.Fatalf("Pause returned while a cycle was running")
	case <-time.After(50 * time.Millisecond):
	}
	g.exit()
	select {
	case <-paused:
	case <-time.After(time.Second):
		t.Fatalf("Pause did not return after the cycle ended")
	}

	expectEqual(t, g.enter(), false)
	g.Resume()
	expectEqual(t, g.enter(), true)
	g.exit()
}

func TestGateNestedPauses(t *testing.T) {
	g := newCalcGate()
	g.Pause()
	g.Pause()
	expectEqual(t, g.enter(), false)
	g.Resume()
	expectEqual(t, g.isPaused(), true)
	expectEqual(t, g.enter(), false)
	g.Resume()
	expectEqual(t, g.isPaused(), false)
	expectEqual(t, g.enter(), true)
	g.exit()

	// an unmatched resume is ignored
	g.Resume()
	g.Pause()
	expectEqual(t, g.enter(), false)
	g.Resume()
	expectEqual(t, g.enter(), true)
	g.exit()
}

func TestPausedEngineSkipsCycles(t *testing.T) {
	e, sources := newEngine(t, mix(0, mixer.SourceRud))
	expectNoError(t, sources.Set(mixer.SourceRud, 300))
	e.cycle(10)
	expectOutputs(t, e, 300)

	expectNoError(t, sources.Set(mixer.SourceRud, 600))
	e.Pause()
	e.Pause()
	e.cycle(10)
	e.Resume()
	e.cycle(10)
	expectOutputs(t, e, 300)
	expectEqual(t, e.Skipped(), int64(2))

	e.Resume()
	e.cycle(10)
	expectOutputs(t, e, 600)
	expectEqual(t, e.Skipped(), int64(2))
}
