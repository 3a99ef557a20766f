package radio

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"sync"

	"github.com/jinjor/desktop-mixer/src/mixer"
)

const (
	sampleRate      = 48000
	channelNum      = 2
	bitDepthInBytes = 2
	samplesPerCycle = 1024
)
const bytesPerSample = bitDepthInBytes * channelNum
const bufferSizeInBytes = samplesPerCycle * bytesPerSample // should be >= 4096
const secPerSample = 1.0 / sampleRate

// ----- Engine ----- //

// Engine is the periodic consumer of the mix list. Every Read runs one
// calculation cycle and renders the channel outputs as PPM.
type Engine struct {
	ctx     context.Context
	gate    *calcGate
	model   *mixer.Model
	sources *SourceTable

	mu         sync.Mutex
	flightMode int
	gen        uint64
	acc        []int
	outputs    []int
	slows      []transitiveValue
	skipped    int64
	ppm        *ppmEncoder
	out        []float64
}

var _ io.Reader = (*Engine)(nil)
var _ mixer.Gate = (*Engine)(nil)

// NewEngine ...
func NewEngine(model *mixer.Model, sources *SourceTable, ppmChannels int) *Engine {
	channels := model.Mixes.Channels()
	return &Engine{
		ctx:     context.Background(),
		gate:    newCalcGate(),
		model:   model,
		sources: sources,
		acc:     make([]int, channels),
		outputs: make([]int, channels),
		slows:   make([]transitiveValue, model.Mixes.Capacity()),
		ppm:     newPPMEncoder(min(ppmChannels, channels)),
		out:     make([]float64, samplesPerCycle),
	}
}

// Pause stops the calculation until the matching Resume.
func (e *Engine) Pause() { e.gate.Pause() }

// Resume ...
func (e *Engine) Resume() { e.gate.Resume() }

// SetFlightMode ...
func (e *Engine) SetFlightMode(fm int) error {
	if fm < 0 || fm >= mixer.MaxFlightModes {
		return fmt.Errorf("flight mode out of range: %d", fm)
	}
	e.mu.Lock()
	e.flightMode = fm
	e.mu.Unlock()
	return nil
}

// FlightMode ...
func (e *Engine) FlightMode() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.flightMode
}

// Outputs returns a copy of the channel outputs of the last cycle.
func (e *Engine) Outputs() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	ret := make([]int, len(e.outputs))
	copy(ret, e.outputs)
	return ret
}

// Skipped returns the number of cycles skipped while paused.
func (e *Engine) Skipped() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.skipped
}

func (e *Engine) Read(buf []byte) (int, error) {
	select {
	case <-e.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
	}
	bufSamples := len(buf) / bytesPerSample
	e.cycle(float64(bufSamples) * secPerSample * 1000)

	e.mu.Lock()
	defer e.mu.Unlock()
	if cap(e.out) < bufSamples {
		e.out = make([]float64, bufSamples)
	}
	out := e.out[:bufSamples]
	e.ppm.encode(e.outputs, out)
	writeBuffer(out, buf, 0)
	writeBuffer(out, buf, 1)
	return len(buf), nil
}

// cycle evaluates the mix list once; dt is the time since the last cycle in ms.
// While the gate is paused the last outputs are kept.
func (e *Engine) cycle(dt float64) {
	if !e.gate.enter() {
		e.mu.Lock()
		e.skipped++
		e.mu.Unlock()
		return
	}
	defer e.gate.exit()

	e.mu.Lock()
	defer e.mu.Unlock()
	list := e.model.Mixes
	if gen := list.Generation(); gen != e.gen {
		for i := range e.slows {
			e.slows[i] = transitiveValue{}
		}
		e.gen = gen
	}
	for i := range e.acc {
		e.acc[i] = 0
	}
	list.Each(func(i int, m *mixer.MixData) {
		if m.DestCh < 0 || m.DestCh >= len(e.acc) {
			return
		}
		active := m.ActiveInFlightMode(e.flightMode) && e.switchOn(m.Swtch)
		target := 0
		if active {
			target = e.sourceValue(m.SrcRaw)*m.Weight/100 + m.Offset*resxMax/100
		}
		v := target
		if m.SpeedUp > 0 || m.SpeedDown > 0 {
			v = e.slow(&e.slows[i], m, target, dt)
			if !active && v == 0 {
				return
			}
		} else if !active {
			return
		}
		acc := &e.acc[m.DestCh]
		switch m.Mltpx {
		case mixer.MultiplexMultiply:
			*acc = *acc * v / resxMax
		case mixer.MultiplexReplace:
			*acc = v
		default:
			*acc += v
		}
	})
	for i, v := range e.acc {
		e.outputs[i] = clamp(v)
	}
}

func (e *Engine) slow(tv *transitiveValue, m *mixer.MixData, target int, dt float64) int {
	t := float64(target)
	if !tv.started {
		tv.init(t)
	} else if t != tv.targetValue {
		speed := m.SpeedDown
		if t > tv.value {
			speed = m.SpeedUp
		}
		// speed is the time in 0.1 s for the full range
		tv.linear(float64(speed)*100*math.Abs(t-tv.value)/(2*resxMax), t)
	}
	tv.step(dt)
	return int(tv.value)
}

func (e *Engine) switchOn(sw int) bool {
	switch {
	case sw > 0:
		return e.sources.Value(mixer.SwitchSource(sw-1)) > 0
	case sw < 0:
		return e.sources.Value(mixer.SwitchSource(-sw-1)) <= 0
	}
	return true
}

// sourceValue reads channels from the previous cycle.
func (e *Engine) sourceValue(src mixer.Source) int {
	if src.IsInput() {
		bound := e.model.Inputs.Bound(int(src-mixer.SourceFirstInput) + 1)
		if bound.IsInput() {
			return 0
		}
		src = bound
	}
	if src.IsChannel() {
		ch := int(src - mixer.SourceFirstChannel)
		if ch < len(e.outputs) {
			return e.outputs[ch]
		}
		return 0
	}
	return e.sources.Value(src)
}
