package mixer

import (
	"encoding/json"
	"fmt"
	"sync"
)

// ----- Inputs ----- //

// Inputs binds the model's input lines to raw sources. An unbound input is
// not available as a mix source.
type Inputs struct {
	mu    sync.RWMutex
	bound [MaxInputs]Source
}

// Bind attaches input n (1-based) to src; SourceNone unbinds it.
func (in *Inputs) Bind(n int, src Source) error {
	if n < 1 || n > MaxInputs {
		return fmt.Errorf("input out of range: %d", n)
	}
	if src.IsInput() {
		return fmt.Errorf("input %d: cannot bind to another input", n)
	}
	in.mu.Lock()
	in.bound[n-1] = src
	in.mu.Unlock()
	return nil
}

// Bound returns the source behind input n (1-based).
func (in *Inputs) Bound(n int) Source {
	if n < 1 || n > MaxInputs {
		return SourceNone
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.bound[n-1]
}

func (in *Inputs) snapshot() [MaxInputs]Source {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.bound
}

func (in *Inputs) reset(bound [MaxInputs]Source) {
	in.mu.Lock()
	in.bound = bound
	in.mu.Unlock()
}

// ----- Model ----- //

// Model is the persisted part of the transmitter that the mixer works on.
type Model struct {
	mu     sync.RWMutex // guards Name against readers on other goroutines
	Name   string
	Inputs *Inputs
	Mixes  *MixList
}

// GetName ...
func (m *Model) GetName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Name
}

// Rename ...
func (m *Model) Rename(name string) {
	m.mu.Lock()
	m.Name = name
	m.mu.Unlock()
}

// NewModel creates an empty model.
func NewModel(name string, capacity, channels int) *Model {
	return &Model{
		Name:   name,
		Inputs: &Inputs{},
		Mixes:  NewMixList(capacity, channels),
	}
}

type inputJSON struct {
	Index  int    `json:"index"`
	Source Source `json:"source"`
}

type modelJSON struct {
	Name   string      `json:"name"`
	Inputs []inputJSON `json:"inputs"`
	Mixes  []MixData   `json:"mixes"`
}

// ApplyJSON replaces the model content. The list keeps its capacity; a file
// holding more mixes than fit, or a broken mix, is rejected.
func (m *Model) ApplyJSON(data []byte) error {
	var j modelJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	var bound [MaxInputs]Source
	for _, in := range j.Inputs {
		if in.Index < 1 || in.Index > MaxInputs {
			return fmt.Errorf("input out of range: %d", in.Index)
		}
		if in.Source.IsInput() || in.Source < SourceNone || in.Source > SourceLast {
			return fmt.Errorf("input %d: %w: %d", in.Index, ErrInvalidSource, int(in.Source))
		}
		bound[in.Index-1] = in.Source
	}
	// mixes and bindings switch in one pause so no cycle mixes old and new
	if err := m.Mixes.load(j.Mixes, func() { m.Inputs.reset(bound) }); err != nil {
		return err
	}
	m.Rename(j.Name)
	return nil
}

// ToJSON ...
func (m *Model) ToJSON() []byte {
	bound := m.Inputs.snapshot()
	inputs := make([]inputJSON, 0, MaxInputs)
	for i, src := range bound {
		if src != SourceNone {
			inputs = append(inputs, inputJSON{Index: i + 1, Source: src})
		}
	}
	bytes, err := json.MarshalIndent(&modelJSON{
		Name:   m.GetName(),
		Inputs: inputs,
		Mixes:  m.Mixes.Mixes(),
	}, "", "  ")
	if err != nil {
		panic(err)
	}
	return bytes
}

// NewTemplate creates a model with the first four inputs bound to the sticks
// in channel order and one mix per stick channel.
func NewTemplate(name string, order ChannelOrder, capacity, channels int) (*Model, error) {
	m := NewModel(name, capacity, channels)
	for ch, stick := range order {
		if err := m.Inputs.Bind(ch+1, SourceFirstStick+Source(stick)); err != nil {
			return nil, err
		}
	}
	m.Mixes.SetSourcePolicy(m.Inputs, order)
	for ch := 0; ch < NumSticks && ch < m.Mixes.Channels(); ch++ {
		if err := m.Mixes.Insert(ch, ch); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// IsSourceAvailable lets the bound inputs act as a source policy on their
// own: inputs must be bound, every other source is available.
func (in *Inputs) IsSourceAvailable(src Source) bool {
	if src.IsInput() {
		return in.Bound(int(src-SourceFirstInput)+1) != SourceNone
	}
	return src > SourceNone && src <= SourceLast
}
