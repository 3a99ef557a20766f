package radio

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/jinjor/desktop-mixer/src/mixer"
)

func expectEqual(t *testing.T, actual, expected interface{}) {
	t.Helper()
	if actual != expected {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func expectNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("expected no error, but got: %v", err)
	}
}

func expectError(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Errorf("expected %v, but got: %v", target, err)
	}
}

func expectOutputs(t *testing.T, e *Engine, expected ...int) {
	t.Helper()
	outputs := e.Outputs()
	for i, v := range expected {
		if outputs[i] != v {
			t.Errorf("channel %d: expected %d, but got: %d", i, v, outputs[i])
		}
	}
}

func mix(ch int, src mixer.Source) mixer.MixData {
	return mixer.MixData{DestCh: ch, SrcRaw: src, Weight: 100}
}

func newEngine(t *testing.T, mixes ...mixer.MixData) (*Engine, *SourceTable) {
	t.Helper()
	model := mixer.NewModel("test", 16, 4)
	expectNoError(t, model.Mixes.Load(mixes))
	sources, err := NewSourceTable(model.Inputs, DefaultProfile(), 4)
	expectNoError(t, err)
	e := NewEngine(model, sources, 4)
	model.Mixes.SetGate(e)
	return e, sources
}

func TestWeightAndOffset(t *testing.T) {
	half := mix(0, mixer.SourceRud)
	half.Weight = 50
	offset := mix(1, mixer.SourceEle)
	offset.Offset = 10
	e, sources := newEngine(t, half, offset)
	expectNoError(t, sources.Set(mixer.SourceRud, 1000))
	e.cycle(10)
	expectOutputs(t, e, 500, 102)
}

func TestMultiplex(t *testing.T) {
	multiply := mix(0, mixer.SourceRud)
	multiply.Mltpx = mixer.MultiplexMultiply
	replace := mix(1, mixer.SourceEle)
	replace.Mltpx = mixer.MultiplexReplace
	negative := mix(3, mixer.SourceMax)
	negative.Weight = -200
	e, sources := newEngine(t,
		mix(0, mixer.SourceMax), multiply,
		mix(1, mixer.SourceRud), replace,
		mix(2, mixer.SourceMax), mix(2, mixer.SourceMax),
		negative,
	)
	expectNoError(t, sources.Set(mixer.SourceRud, 512))
	expectNoError(t, sources.Set(mixer.SourceEle, -300))
	e.cycle(10)
	expectOutputs(t, e, 512, -300, 1024, -1024)
}

func TestSwitchAndFlightMode(t *testing.T) {
	on := mix(0, mixer.SourceMax)
	on.Swtch = 1
	inverted := mix(1, mixer.SourceMax)
	inverted.Swtch = -1
	masked := mix(2, mixer.SourceMax)
	masked.FlightModes = 1 << 1
	e, sources := newEngine(t, on, inverted, masked)

	e.cycle(10)
	expectOutputs(t, e, 0, 1024, 1024)

	expectNoError(t, sources.Set(mixer.SwitchSource(0), 1024))
	expectNoError(t, e.SetFlightMode(1))
	e.cycle(10)
	expectOutputs(t, e, 1024, 0, 0)

	if err := e.SetFlightMode(mixer.MaxFlightModes); err == nil {
		t.Errorf("expected an error for flight mode %d", mixer.MaxFlightModes)
	}
}

func TestChannelAndInputSources(t *testing.T) {
	e, sources := newEngine(t, mix(0, mixer.SourceRud), mix(1, mixer.Channel(0)), mix(2, mixer.Input(1)))
	expectNoError(t, e.model.Inputs.Bind(1, mixer.SourceThr))
	expectNoError(t, sources.Set(mixer.SourceRud, 300))
	expectNoError(t, sources.Set(mixer.SourceThr, 700))

	// channels read the previous cycle
	e.cycle(10)
	expectOutputs(t, e, 300, 0, 700)
	e.cycle(10)
	expectOutputs(t, e, 300, 300, 700)
}

func TestPausedCycleKeepsOutputs(t *testing.T) {
	e, sources := newEngine(t, mix(0, mixer.SourceRud))
	expectNoError(t, sources.Set(mixer.SourceRud, 100))
	e.cycle(10)
	expectOutputs(t, e, 100)

	e.Pause()
	expectNoError(t, sources.Set(mixer.SourceRud, 200))
	e.cycle(10)
	expectOutputs(t, e, 100)
	expectEqual(t, e.Skipped(), int64(1))

	e.Resume()
	e.cycle(10)
	expectOutputs(t, e, 200)
}

func TestSlow(t *testing.T) {
	slow := mix(0, mixer.SourceRud)
	slow.SpeedUp = 10 // 1 s for the full range
	e, sources := newEngine(t, slow)

	e.cycle(100)
	expectOutputs(t, e, 0)

	expectNoError(t, sources.Set(mixer.SourceRud, 1024))
	e.cycle(100)
	expectOutputs(t, e, 204)
	for i := 0; i < 4; i++ {
		e.cycle(100)
	}
	expectOutputs(t, e, 1024)

	// no slow down
	expectNoError(t, sources.Set(mixer.SourceRud, 0))
	e.cycle(100)
	expectOutputs(t, e, 0)
}

func TestEditsDuringCalculation(t *testing.T) {
	e, sources := newEngine(t, mix(0, mixer.SourceRud), mix(1, mixer.SourceEle))
	expectNoError(t, sources.Set(mixer.SourceRud, 400))
	list := e.model.Mixes

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ctx.Err() == nil {
			e.cycle(1)
		}
	}()
	for i := 0; i < 200; i++ {
		expectNoError(t, list.Insert(1, 0))
		expectNoError(t, list.Duplicate(0))
		list.TrySwap(2, mixer.Down)
		expectNoError(t, list.Remove(1))
		expectNoError(t, list.Remove(1))
		expectNoError(t, list.Validate())
	}
	cancel()
	wg.Wait()
	expectEqual(t, e.gate.isPaused(), false)
}

func TestRead(t *testing.T) {
	e, _ := newEngine(t, mix(0, mixer.SourceRud))
	ctx, cancel := context.WithCancel(context.Background())
	e.ctx = ctx

	buf := make([]byte, bufferSizeInBytes)
	n, err := e.Read(buf)
	expectNoError(t, err)
	expectEqual(t, n, len(buf))
	// a frame starts with a pulse on both channels
	left := int16(uint16(buf[0]) | uint16(buf[1])<<8)
	right := int16(uint16(buf[2]) | uint16(buf[3])<<8)
	level := ppmLevel
	expectEqual(t, left, int16(level*32767))
	expectEqual(t, right, left)

	cancel()
	_, err = e.Read(buf)
	expectEqual(t, err, io.EOF)
}
