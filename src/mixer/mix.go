package mixer

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MaxMixers         = 64
	MaxOutputChannels = 32
	MaxFlightModes    = 9
	MaxNameLen        = 6
)

// ----- Multiplex ----- //

// Multiplex tells how a mix combines with the mixes before it on the same channel.
type Multiplex uint8

const (
	MultiplexAdd Multiplex = iota
	MultiplexMultiply
	MultiplexReplace
)

var multiplexNames = [...]string{"add", "multiply", "replace"}

func (m Multiplex) String() string {
	if int(m) < len(multiplexNames) {
		return multiplexNames[m]
	}
	return "?"
}

func parseMultiplex(value string) (Multiplex, error) {
	for i, name := range multiplexNames {
		if name == value {
			return Multiplex(i), nil
		}
	}
	return 0, fmt.Errorf("unknown multiplex %q", value)
}

// ----- Curve ----- //

type CurveType uint8

const (
	CurveDiff CurveType = iota
	CurveExpo
	CurveFunc
	CurveCustom
)

var curveNames = [...]string{"diff", "expo", "func", "custom"}

func (c CurveType) String() string {
	if int(c) < len(curveNames) {
		return curveNames[c]
	}
	return "?"
}

// CurveRef selects a curve and its parameter. The list never looks inside it.
type CurveRef struct {
	Type  CurveType `json:"type" yaml:"type"`
	Value int       `json:"value" yaml:"value"`
}

// ----- Mix ----- //

// MixData is one mixer line. The zero value is an empty slot.
type MixData struct {
	DestCh      int       `json:"destCh" yaml:"destCh"`
	SrcRaw      Source    `json:"srcRaw" yaml:"srcRaw"`
	Weight      int       `json:"weight" yaml:"weight"`
	Offset      int       `json:"offset" yaml:"offset"`
	Curve       CurveRef  `json:"curve" yaml:"curve"`
	CarryTrim   bool      `json:"carryTrim,omitempty" yaml:"carryTrim,omitempty"`
	FlightModes uint16    `json:"flightModes,omitempty" yaml:"flightModes,omitempty"` // bit set = disabled in that flight mode
	Swtch       int       `json:"swtch,omitempty" yaml:"swtch,omitempty"`             // 0 = always on, negative = inverted
	Mltpx       Multiplex `json:"mltpx" yaml:"mltpx"`
	DelayUp     uint8     `json:"delayUp,omitempty" yaml:"delayUp,omitempty"`
	DelayDown   uint8     `json:"delayDown,omitempty" yaml:"delayDown,omitempty"`
	SpeedUp     uint8     `json:"speedUp,omitempty" yaml:"speedUp,omitempty"`
	SpeedDown   uint8     `json:"speedDown,omitempty" yaml:"speedDown,omitempty"`
	Name        string    `json:"name,omitempty" yaml:"name,omitempty"`
}

// Empty reports whether the slot is unused.
func (m *MixData) Empty() bool {
	return m.SrcRaw == SourceNone
}

// ActiveInFlightMode reports whether the flight mode mask lets the mix run in fm.
func (m *MixData) ActiveInFlightMode(fm int) bool {
	return m.FlightModes&(1<<uint(fm)) == 0
}

func parseUint8(value string) (uint8, error) {
	v, err := strconv.ParseUint(value, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

// SetField changes a field of a mix that is not in a list yet.
func (m *MixData) SetField(key, value string) error {
	return m.set(key, value)
}

// set changes a single field from its textual form. The destination channel
// and the source are edited through their own checks in MixList.Edit.
func (m *MixData) set(key string, value string) error {
	switch key {
	case "source":
		src, err := ParseSource(value)
		if err != nil {
			return err
		}
		m.SrcRaw = src
	case "weight":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		m.Weight = v
	case "offset":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		m.Offset = v
	case "curve":
		// "<type>:<value>", e.g. "expo:30"
		parts := strings.SplitN(value, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid curve %q", value)
		}
		t := -1
		for i, name := range curveNames {
			if name == parts[0] {
				t = i
			}
		}
		if t < 0 {
			return fmt.Errorf("unknown curve type %q", parts[0])
		}
		v, err := strconv.Atoi(parts[1])
		if err != nil {
			return err
		}
		m.Curve = CurveRef{Type: CurveType(t), Value: v}
	case "carry_trim":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		m.CarryTrim = v
	case "flight_modes":
		v, err := strconv.ParseUint(value, 2, MaxFlightModes)
		if err != nil {
			return err
		}
		m.FlightModes = uint16(v)
	case "switch":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		if v < -MaxSwitches || v > MaxSwitches {
			return fmt.Errorf("switch out of range: %d", v)
		}
		m.Swtch = v
	case "multiplex":
		v, err := parseMultiplex(value)
		if err != nil {
			return err
		}
		m.Mltpx = v
	case "delay_up", "delay_down", "speed_up", "speed_down":
		v, err := parseUint8(value)
		if err != nil {
			return err
		}
		switch key {
		case "delay_up":
			m.DelayUp = v
		case "delay_down":
			m.DelayDown = v
		case "speed_up":
			m.SpeedUp = v
		case "speed_down":
			m.SpeedDown = v
		}
	case "name":
		if len(value) > MaxNameLen {
			value = value[:MaxNameLen]
		}
		m.Name = value
	default:
		return fmt.Errorf("unknown mix field %q", key)
	}
	return nil
}
