package mixer

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MaxInputs   = 32
	NumSticks   = 4
	MaxPots     = 4
	MaxSwitches = 8
)

// Source identifies a raw mix source. Zero means "no source" and marks an
// empty mixer slot.
type Source int

const (
	SourceNone       Source = 0
	SourceFirstInput Source = 1
	SourceLastInput         = SourceFirstInput + MaxInputs - 1

	SourceRud        = SourceLastInput + 1
	SourceEle        = SourceRud + 1
	SourceThr        = SourceRud + 2
	SourceAil        = SourceRud + 3
	SourceFirstStick = SourceRud

	SourceFirstPot     = SourceRud + NumSticks
	SourceMax          = SourceFirstPot + MaxPots
	SourceFirstSwitch  = SourceMax + 1
	SourceFirstChannel = SourceFirstSwitch + MaxSwitches
	SourceLast         = SourceFirstChannel + MaxOutputChannels - 1
)

var stickNames = [NumSticks]string{"Rud", "Ele", "Thr", "Ail"}
var potNames = [MaxPots]string{"S1", "S2", "LS", "RS"}

// Input returns the source of input line n (1-based).
func Input(n int) Source { return SourceFirstInput + Source(n-1) }

// Channel returns the source reading the output of channel ch (0-based).
func Channel(ch int) Source { return SourceFirstChannel + Source(ch) }

// SwitchSource returns the source of switch n (0-based, SA = 0).
func SwitchSource(n int) Source { return SourceFirstSwitch + Source(n) }

func (s Source) IsInput() bool   { return s >= SourceFirstInput && s <= SourceLastInput }
func (s Source) IsStick() bool   { return s >= SourceFirstStick && s < SourceFirstPot }
func (s Source) IsPot() bool     { return s >= SourceFirstPot && s < SourceMax }
func (s Source) IsSwitch() bool  { return s >= SourceFirstSwitch && s < SourceFirstChannel }
func (s Source) IsChannel() bool { return s >= SourceFirstChannel && s <= SourceLast }

func (s Source) String() string {
	switch {
	case s == SourceNone:
		return "---"
	case s.IsInput():
		return "I" + strconv.Itoa(int(s-SourceFirstInput)+1)
	case s.IsStick():
		return stickNames[s-SourceFirstStick]
	case s.IsPot():
		return potNames[s-SourceFirstPot]
	case s == SourceMax:
		return "MAX"
	case s.IsSwitch():
		return "S" + string(rune('A'+int(s-SourceFirstSwitch)))
	case s.IsChannel():
		return "CH" + strconv.Itoa(int(s-SourceFirstChannel)+1)
	}
	return "?" + strconv.Itoa(int(s))
}

// ParseSource accepts the names produced by String as well as raw numbers.
func ParseSource(name string) (Source, error) {
	if n, err := strconv.Atoi(name); err == nil {
		if n < 0 || Source(n) > SourceLast {
			return SourceNone, fmt.Errorf("source out of range: %d", n)
		}
		return Source(n), nil
	}
	upper := strings.ToUpper(name)
	for i, s := range stickNames {
		if strings.ToUpper(s) == upper {
			return SourceFirstStick + Source(i), nil
		}
	}
	for i, p := range potNames {
		if p == upper {
			return SourceFirstPot + Source(i), nil
		}
	}
	switch {
	case upper == "MAX":
		return SourceMax, nil
	case strings.HasPrefix(upper, "CH"):
		n, err := strconv.Atoi(upper[2:])
		if err == nil && n >= 1 && n <= MaxOutputChannels {
			return Channel(n - 1), nil
		}
	case strings.HasPrefix(upper, "I"):
		n, err := strconv.Atoi(upper[1:])
		if err == nil && n >= 1 && n <= MaxInputs {
			return Input(n), nil
		}
	case len(upper) == 2 && upper[0] == 'S' && upper[1] >= 'A' && upper[1] < 'A'+MaxSwitches:
		return SwitchSource(int(upper[1] - 'A')), nil
	}
	return SourceNone, fmt.Errorf("unknown source %q", name)
}

// SourcePolicy decides whether a raw source can currently be assigned to a mix.
type SourcePolicy interface {
	IsSourceAvailable(src Source) bool
}

type allSources struct{}

func (allSources) IsSourceAvailable(src Source) bool {
	return src > SourceNone && src <= SourceLast
}

// ChannelOrder maps the first channels to sticks, e.g. "AETR" puts aileron
// on channel 1. Each entry is a stick index (0 = Rud).
type ChannelOrder [NumSticks]int

// DefaultChannelOrder is RETA, the stick order itself.
var DefaultChannelOrder = ChannelOrder{0, 1, 2, 3}

// ParseChannelOrder parses a four letter permutation of R, E, T and A.
func ParseChannelOrder(s string) (ChannelOrder, error) {
	var order ChannelOrder
	if len(s) != NumSticks {
		return order, fmt.Errorf("invalid channel order %q", s)
	}
	seen := 0
	for i, c := range strings.ToUpper(s) {
		idx := strings.IndexRune("RETA", c)
		if idx < 0 || seen&(1<<idx) != 0 {
			return order, fmt.Errorf("invalid channel order %q", s)
		}
		seen |= 1 << idx
		order[i] = idx
	}
	return order, nil
}

func (o ChannelOrder) String() string {
	b := make([]byte, NumSticks)
	for i, stick := range o {
		b[i] = "RETA"[stick]
	}
	return string(b)
}

// DefaultSource picks the source a freshly inserted mix on channel ch points
// to. The input mapped one-to-one with the channel wins; otherwise the stick
// the channel order assigns to ch, then every following source in turn.
func DefaultSource(policy SourcePolicy, order ChannelOrder, ch int) (Source, error) {
	src := Input(ch + 1)
	if policy.IsSourceAvailable(src) {
		return src, nil
	}
	if ch < NumSticks {
		src = SourceFirstStick + Source(order[ch])
	} else {
		src = SourceFirstStick + Source(ch)
	}
	total := int(SourceLast)
	for i := 0; i < total; i++ {
		if src > SourceLast {
			src = SourceFirstInput
		}
		if policy.IsSourceAvailable(src) {
			return src, nil
		}
		src++
	}
	return SourceNone, ErrNoSourceAvailable
}
