package radio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jinjor/desktop-mixer/src/mixer"
)

func TestSourceAvailability(t *testing.T) {
	inputs := &mixer.Inputs{}
	sources, err := NewSourceTable(inputs, DefaultProfile(), 4)
	expectNoError(t, err)

	cases := []struct {
		src       mixer.Source
		available bool
	}{
		{mixer.SourceRud, true},
		{mixer.SourceMax, true},
		{mixer.SourceFirstPot + 1, true},
		{mixer.SourceFirstPot + 2, false},
		{mixer.SwitchSource(3), true},
		{mixer.SwitchSource(4), false},
		{mixer.Channel(3), true},
		{mixer.Channel(4), false},
		{mixer.Input(1), false},
		{mixer.SourceNone, false},
	}
	for _, c := range cases {
		if sources.IsSourceAvailable(c.src) != c.available {
			t.Errorf("%v: expected available=%v", c.src, c.available)
		}
	}

	expectNoError(t, inputs.Bind(1, mixer.SourceFirstPot+3))
	expectEqual(t, sources.IsSourceAvailable(mixer.Input(1)), false)
	expectNoError(t, inputs.Bind(1, mixer.SourceAil))
	expectEqual(t, sources.IsSourceAvailable(mixer.Input(1)), true)
}

func TestApplyMidi(t *testing.T) {
	sources, err := NewSourceTable(&mixer.Inputs{}, DefaultProfile(), 8)
	expectNoError(t, err)

	expectEqual(t, sources.ApplyMidi([]byte{0xB0, 1, 127}), true)
	expectEqual(t, sources.Value(mixer.SourceRud), 1024)
	expectEqual(t, sources.ApplyMidi([]byte{0xB3, 1, 0}), true)
	expectEqual(t, sources.Value(mixer.SourceRud), -1024)
	expectEqual(t, sources.ApplyMidi([]byte{0xB0, 1, 64}), true)
	expectEqual(t, sources.Value(mixer.SourceRud), 8)

	expectEqual(t, sources.Value(mixer.SwitchSource(0)), -1024)
	expectEqual(t, sources.ApplyMidi([]byte{0xB0, 64, 127}), true)
	expectEqual(t, sources.Value(mixer.SwitchSource(0)), 1024)

	expectEqual(t, sources.ApplyMidi([]byte{0xB0, 99, 127}), false)
	expectEqual(t, sources.ApplyMidi([]byte{0x90, 1, 127}), false)
	expectEqual(t, sources.ApplyMidi([]byte{0xB0}), false)
}

func TestSetClamps(t *testing.T) {
	sources, err := NewSourceTable(&mixer.Inputs{}, DefaultProfile(), 8)
	expectNoError(t, err)
	expectNoError(t, sources.Set(mixer.SourceThr, 5000))
	expectEqual(t, sources.Value(mixer.SourceThr), 1024)
	if err := sources.Set(mixer.Channel(0), 10); err == nil {
		t.Errorf("expected an error when setting a channel")
	}
}

func TestLoadProfile(t *testing.T) {
	p, err := LoadProfile("")
	expectNoError(t, err)
	expectEqual(t, p.ChannelOrder, "RETA")

	dir := t.TempDir()
	p, err = LoadProfile(filepath.Join(dir, "missing.yaml"))
	expectNoError(t, err)
	expectEqual(t, p.Pots, 2)

	path := filepath.Join(dir, "profile.yaml")
	expectNoError(t, os.WriteFile(path, []byte(`
pots: 3
switches: 8
channel_order: AETR
ppm_channels: 6
midi:
  - cc: 10
    source: LS
  - cc: 11
    source: SH
`), 0o644))
	p, err = LoadProfile(path)
	expectNoError(t, err)
	expectEqual(t, p.Pots, 3)
	expectEqual(t, p.PPMChannels, 6)
	order, err := p.order()
	expectNoError(t, err)
	expectEqual(t, order.String(), "AETR")
	cc, err := p.ccMap()
	expectNoError(t, err)
	expectEqual(t, len(cc), 2)
	expectEqual(t, cc[11], mixer.SwitchSource(7))

	for _, bad := range []string{
		"pots: 5\n",
		"channel_order: AAAA\n",
		"midi:\n  - cc: 1\n    source: I1\n",
		"pots: [\n",
	} {
		expectNoError(t, os.WriteFile(path, []byte(bad), 0o644))
		if _, err := LoadProfile(path); err == nil {
			t.Errorf("expected an error for %q", bad)
		}
	}
}
