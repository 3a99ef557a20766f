package mixer

import "testing"

func TestParseSource(t *testing.T) {
	cases := []struct {
		name string
		src  Source
	}{
		{"I1", Input(1)},
		{"i32", Input(32)},
		{"Rud", SourceRud},
		{"ail", SourceAil},
		{"S2", SourceFirstPot + 1},
		{"MAX", SourceMax},
		{"SC", SwitchSource(2)},
		{"CH16", Channel(15)},
		{"3", Source(3)},
	}
	for _, c := range cases {
		src, err := ParseSource(c.name)
		expectNoError(t, err)
		expectEqual(t, src, c.src)
		if c.name != "3" && c.name != "i32" && c.name != "ail" {
			expectEqual(t, src.String(), c.name)
		}
	}
	for _, bad := range []string{"I33", "CH0", "SZ", "foo", "-1"} {
		if _, err := ParseSource(bad); err == nil {
			t.Errorf("expected an error for %q", bad)
		}
	}
}

func TestParseChannelOrder(t *testing.T) {
	order, err := ParseChannelOrder("AETR")
	expectNoError(t, err)
	expectEqual(t, order, ChannelOrder{3, 1, 2, 0})
	expectEqual(t, order.String(), "AETR")
	for _, bad := range []string{"AET", "AETT", "AEXR"} {
		if _, err := ParseChannelOrder(bad); err == nil {
			t.Errorf("expected an error for %q", bad)
		}
	}
}

func TestDefaultSource(t *testing.T) {
	aetr, _ := ParseChannelOrder("AETR")
	unbound := &Inputs{}

	src, err := DefaultSource(allSources{}, aetr, 2)
	expectNoError(t, err)
	expectEqual(t, src, Input(3))

	// without inputs the channel order decides
	src, err = DefaultSource(unbound, aetr, 0)
	expectNoError(t, err)
	expectEqual(t, src, SourceAil)
	src, err = DefaultSource(unbound, aetr, 3)
	expectNoError(t, err)
	expectEqual(t, src, SourceRud)

	// beyond the sticks the fallback continues with the pots
	src, err = DefaultSource(unbound, aetr, 5)
	expectNoError(t, err)
	expectEqual(t, src, SourceFirstPot+1)

	onlyMax := policyFunc(func(s Source) bool { return s == SourceMax })
	src, err = DefaultSource(onlyMax, aetr, 0)
	expectNoError(t, err)
	expectEqual(t, src, SourceMax)

	// probing wraps around to the inputs
	onlyI1 := policyFunc(func(s Source) bool { return s == Input(1) })
	src, err = DefaultSource(onlyI1, aetr, 1)
	expectNoError(t, err)
	expectEqual(t, src, Input(1))

	_, err = DefaultSource(policyFunc(func(Source) bool { return false }), aetr, 0)
	expectError(t, err, ErrNoSourceAvailable)
}
