package mixer

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type clipboardData struct {
	Mixes []MixData `yaml:"mixes"`
}

// MarshalMixes serialises the mixes in [start, end) for the clipboard.
func (l *MixList) MarshalMixes(start, end int) ([]byte, error) {
	mixes := l.Mixes()
	start = max(start, 0)
	end = min(end, len(mixes))
	if start >= end {
		return nil, fmt.Errorf("%w: empty range [%d, %d)", ErrInvalidIndex, start, end)
	}
	return yaml.Marshal(&clipboardData{Mixes: mixes[start:end]})
}

// PasteMixes inserts clipboard mixes at index at, all re-targeted to channel
// ch so the grouping stays intact. Every mix must be valid and fit, or
// nothing changes.
// It returns the number of pasted mixes.
func (l *MixList) PasteMixes(at, ch int, data []byte) (int, error) {
	var clip clipboardData
	if err := yaml.Unmarshal(data, &clip); err != nil {
		return 0, err
	}
	pasted := make([]MixData, 0, len(clip.Mixes))
	for i, m := range clip.Mixes {
		if m.Empty() {
			continue
		}
		if err := l.checkSource(&m); err != nil {
			return 0, fmt.Errorf("clipboard mix %d: %w", i, err)
		}
		m.DestCh = ch
		pasted = append(pasted, m)
	}
	if len(pasted) == 0 {
		return 0, nil
	}
	if l.Count()+len(pasted) > l.Capacity() {
		return 0, ErrCapacityExceeded
	}
	l.mu.RLock()
	err := l.checkPlacement(at, ch)
	l.mu.RUnlock()
	if err != nil {
		return 0, err
	}

	// one pause for the whole block so the pass sees all or none of it
	l.gate.Pause()
	defer l.gate.Resume()
	for i, m := range pasted {
		if err := l.InsertMix(at+i, m); err != nil {
			return i, err
		}
	}
	return len(pasted), nil
}
