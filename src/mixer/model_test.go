package mixer

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	order, _ := ParseChannelOrder("TAER")
	m, err := NewTemplate("heli", order, MaxMixers, 8)
	expectNoError(t, err)
	expectEqual(t, m.Mixes.Count(), 4)
	expectEqual(t, m.Inputs.Bound(1), SourceThr)
	expectEqual(t, m.Inputs.Bound(4), SourceRud)
	for ch := 0; ch < 4; ch++ {
		mix, _ := m.Mixes.Mix(ch)
		expectEqual(t, mix.DestCh, ch)
		expectEqual(t, mix.SrcRaw, Input(ch+1))
		expectEqual(t, mix.Weight, 100)
	}
	expectNoError(t, m.Mixes.Validate())
}

func TestModelJSON(t *testing.T) {
	m, err := NewTemplate("plane", DefaultChannelOrder, 16, 8)
	expectNoError(t, err)
	expectNoError(t, m.Mixes.Set(1, "name", "elev"))

	loaded := NewModel("", 16, 8)
	expectNoError(t, loaded.ApplyJSON(m.ToJSON()))
	expectEqual(t, loaded.Name, "plane")
	expectEqual(t, loaded.Inputs.Bound(3), SourceThr)
	expectEqual(t, loaded.Mixes.Count(), 4)
	mix, _ := loaded.Mixes.Mix(1)
	expectEqual(t, mix.Name, "elev")

	small := NewModel("", 2, 8)
	expectError(t, small.ApplyJSON(m.ToJSON()), ErrCapacityExceeded)
	expectEqual(t, small.Name, "")
}

func TestBindRejectsInputs(t *testing.T) {
	in := &Inputs{}
	if err := in.Bind(1, Input(2)); err == nil {
		t.Errorf("expected an error when binding an input to an input")
	}
	if err := in.Bind(0, SourceRud); err == nil {
		t.Errorf("expected an error for input 0")
	}
	expectEqual(t, in.IsSourceAvailable(Input(1)), false)
	expectNoError(t, in.Bind(1, SourceRud))
	expectEqual(t, in.IsSourceAvailable(Input(1)), true)
}

func TestClipboard(t *testing.T) {
	l, _, _ := newList(t, 6, 3, mix(0, Input(1)), mix(0, Input(2)), mix(2, Input(3)))
	data, err := l.MarshalMixes(0, 2)
	expectNoError(t, err)
	if !strings.Contains(string(data), "mixes:") {
		t.Errorf("unexpected clipboard content: %s", data)
	}

	at, _ := l.ChannelRange(1)
	n, err := l.PasteMixes(at, 1, data)
	expectNoError(t, err)
	expectEqual(t, n, 2)
	expectEqual(t, l.Count(), 5)
	expectEqual(t, l.mixes[2].DestCh, 1)
	expectEqual(t, l.mixes[3].SrcRaw, Input(2))
	expectNoError(t, l.Validate())

	before := snapshot(l)
	_, err = l.PasteMixes(0, 0, data)
	expectError(t, err, ErrCapacityExceeded)
	expectSlots(t, l, before)

	_, err = l.MarshalMixes(4, 2)
	expectError(t, err, ErrInvalidIndex)
}

func TestPasteRejectsInvalidMixes(t *testing.T) {
	l, g, n := scenarioList(t)
	l.SetSourcePolicy(policyFunc(func(s Source) bool { return s != SourceAil }), DefaultChannelOrder)
	before := snapshot(l)
	for _, data := range []string{
		"mixes:\n- srcRaw: -7\n",
		"mixes:\n- srcRaw: 1\n  name: waytoolongname\n",
		"mixes:\n- srcRaw: 1\n- srcRaw: 1000\n",
		"mixes:\n- srcRaw: 1\n- srcRaw: 36\n",
	} {
		if _, err := l.PasteMixes(0, 0, []byte(data)); err == nil {
			t.Errorf("expected an error for %q", data)
		}
	}
	expectSlots(t, l, before)
	expectEqual(t, g.pauses, 0)
	expectEqual(t, n.dirty, 0)
}

type resumeGate struct {
	onResume func()
}

func (g *resumeGate) Pause()  {}
func (g *resumeGate) Resume() { g.onResume() }

func TestApplyJSONSwitchesInputsInOnePause(t *testing.T) {
	m := NewModel("a", 4, 2)
	expectNoError(t, m.Inputs.Bind(1, SourceRud))
	expectNoError(t, m.Mixes.Load([]MixData{mix(0, Input(1))}))

	next := NewModel("b", 4, 2)
	expectNoError(t, next.Inputs.Bind(1, SourceEle))
	expectNoError(t, next.Mixes.Load([]MixData{mix(0, Input(1)), mix(1, Input(1))}))

	var bound Source
	var count int
	m.Mixes.SetGate(&resumeGate{onResume: func() {
		bound = m.Inputs.Bound(1)
		count = m.Mixes.count()
	}})
	expectNoError(t, m.ApplyJSON(next.ToJSON()))
	expectEqual(t, bound, SourceEle)
	expectEqual(t, count, 2)

	broken := []byte(`{"name":"c","inputs":[{"index":1,"source":2}],"mixes":[]}`)
	if err := m.ApplyJSON(broken); err == nil {
		t.Errorf("expected an error for an input bound to an input")
	}
	expectEqual(t, m.Inputs.Bound(1), SourceEle)
}
