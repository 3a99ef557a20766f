package radio

import (
	"fmt"
	"os"

	"github.com/jinjor/desktop-mixer/src/mixer"
	"gopkg.in/yaml.v3"
)

// Profile describes the transmitter hardware.
type Profile struct {
	Pots         int           `yaml:"pots"`
	Switches     int           `yaml:"switches"`
	ChannelOrder string        `yaml:"channel_order"`
	PPMChannels  int           `yaml:"ppm_channels"`
	Midi         []MidiBinding `yaml:"midi"`
}

// MidiBinding maps a control change number to a hardware source.
type MidiBinding struct {
	CC     uint8  `yaml:"cc"`
	Source string `yaml:"source"`
}

// DefaultProfile maps the first controls of a common MIDI controller.
func DefaultProfile() *Profile {
	return &Profile{
		Pots:         2,
		Switches:     4,
		ChannelOrder: "RETA",
		PPMChannels:  8,
		Midi: []MidiBinding{
			{CC: 1, Source: "Rud"},
			{CC: 2, Source: "Ele"},
			{CC: 3, Source: "Thr"},
			{CC: 4, Source: "Ail"},
			{CC: 5, Source: "S1"},
			{CC: 6, Source: "S2"},
			{CC: 64, Source: "SA"},
			{CC: 65, Source: "SB"},
			{CC: 66, Source: "SC"},
			{CC: 67, Source: "SD"},
		},
	}
}

// LoadProfile reads a YAML profile. An empty path or a missing file gives the
// default profile.
func LoadProfile(path string) (*Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return p, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

func (p *Profile) validate() error {
	if p.Pots < 0 || p.Pots > mixer.MaxPots {
		return fmt.Errorf("pots out of range: %d", p.Pots)
	}
	if p.Switches < 0 || p.Switches > mixer.MaxSwitches {
		return fmt.Errorf("switches out of range: %d", p.Switches)
	}
	if p.PPMChannels < 0 || p.PPMChannels > maxPPMChannels {
		return fmt.Errorf("ppm_channels out of range: %d", p.PPMChannels)
	}
	if _, err := p.order(); err != nil {
		return err
	}
	_, err := p.ccMap()
	return err
}

func (p *Profile) order() (mixer.ChannelOrder, error) {
	if p.ChannelOrder == "" {
		return mixer.DefaultChannelOrder, nil
	}
	return mixer.ParseChannelOrder(p.ChannelOrder)
}

func (p *Profile) ccMap() (map[uint8]mixer.Source, error) {
	m := make(map[uint8]mixer.Source, len(p.Midi))
	for _, b := range p.Midi {
		src, err := mixer.ParseSource(b.Source)
		if err != nil {
			return nil, fmt.Errorf("midi cc %d: %w", b.CC, err)
		}
		if !src.IsStick() && !src.IsPot() && !src.IsSwitch() {
			return nil, fmt.Errorf("midi cc %d: %v is not a hardware source", b.CC, src)
		}
		m[b.CC] = src
	}
	return m, nil
}
