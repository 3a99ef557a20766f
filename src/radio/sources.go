package radio

import (
	"fmt"
	"log"
	"sync"

	"github.com/jinjor/desktop-mixer/src/mixer"
)

// full scale of a source or channel value
const resxMax = 1024

// ----- Source Table ----- //

// SourceTable holds the live values of the hardware sources and decides
// which sources exist on this transmitter.
type SourceTable struct {
	sync.RWMutex
	values   [mixer.SourceLast + 1]int
	pots     int
	switches int
	channels int
	inputs   *mixer.Inputs
	cc       map[uint8]mixer.Source
}

var _ mixer.SourcePolicy = (*SourceTable)(nil)

// NewSourceTable ...
func NewSourceTable(inputs *mixer.Inputs, profile *Profile, channels int) (*SourceTable, error) {
	cc, err := profile.ccMap()
	if err != nil {
		return nil, err
	}
	t := &SourceTable{
		pots:     profile.Pots,
		switches: profile.Switches,
		channels: channels,
		inputs:   inputs,
		cc:       cc,
	}
	for i := 0; i < mixer.MaxSwitches; i++ {
		t.values[mixer.SwitchSource(i)] = -resxMax
	}
	t.values[mixer.SourceMax] = resxMax
	return t, nil
}

// IsSourceAvailable ...
func (t *SourceTable) IsSourceAvailable(src mixer.Source) bool {
	switch {
	case src.IsInput():
		bound := t.inputs.Bound(int(src-mixer.SourceFirstInput) + 1)
		return bound != mixer.SourceNone && !bound.IsInput() && t.IsSourceAvailable(bound)
	case src.IsStick(), src == mixer.SourceMax:
		return true
	case src.IsPot():
		return int(src-mixer.SourceFirstPot) < t.pots
	case src.IsSwitch():
		return int(src-mixer.SourceFirstSwitch) < t.switches
	case src.IsChannel():
		return int(src-mixer.SourceFirstChannel) < t.channels
	}
	return false
}

// Set stores the live value of a hardware source, clamped to the full scale.
func (t *SourceTable) Set(src mixer.Source, value int) error {
	if !src.IsStick() && !src.IsPot() && !src.IsSwitch() {
		return fmt.Errorf("%v is not a hardware source", src)
	}
	t.Lock()
	t.values[src] = clamp(value)
	t.Unlock()
	return nil
}

// Value returns the live value of src. Inputs resolve to their bound source;
// channels are resolved by the engine.
func (t *SourceTable) Value(src mixer.Source) int {
	if src.IsInput() {
		src = t.inputs.Bound(int(src-mixer.SourceFirstInput) + 1)
		if src.IsInput() {
			return 0
		}
	}
	if src <= mixer.SourceNone || src > mixer.SourceLast || src.IsChannel() {
		return 0
	}
	t.RLock()
	defer t.RUnlock()
	return t.values[src]
}

// ApplyMidi updates a source from a control change message and reports
// whether the message was mapped.
func (t *SourceTable) ApplyMidi(data []byte) bool {
	if len(data) < 3 || data[0]>>4 != 0xB {
		return false
	}
	src, ok := t.cc[data[1]]
	if !ok {
		return false
	}
	value := int(data[2])*2*resxMax/127 - resxMax
	if src.IsSwitch() {
		value = -resxMax
		if data[2] >= 64 {
			value = resxMax
		}
	}
	if err := t.Set(src, value); err != nil {
		log.Printf("[WARN] midi cc %d: %v\n", data[1], err)
		return false
	}
	return true
}

func clamp(v int) int {
	return max(-resxMax, min(resxMax, v))
}
