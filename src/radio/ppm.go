package radio

const (
	maxPPMChannels = 16
	ppmFrameUs     = 22500
	ppmSyncUs      = 5000
	ppmPulseUs     = 300
	ppmCenterUs    = 1500
	ppmRangeUs     = 512
	ppmLevel       = 0.8
)

func usToSamples(us int) int {
	return us * sampleRate / 1000000
}

// ppmFrameLength returns the frame length in µs; long frames grow to keep
// room for the sync gap.
func ppmFrameLength(channels int) int {
	return max(ppmFrameUs, channels*2000+ppmSyncUs)
}

// ----- PPM Encoder ----- //

// ppmEncoder renders channel outputs as a PPM trainer signal. Every channel
// period and the final sync gap start with a fixed pulse; the values are
// latched at the start of each frame.
type ppmEncoder struct {
	channels int
	pulse    int   // samples
	bounds   []int // start sample of every period, the last one is the sync gap
	frame    int   // samples
	pos      int
	seg      int
}

func newPPMEncoder(channels int) *ppmEncoder {
	return &ppmEncoder{
		channels: channels,
		pulse:    usToSamples(ppmPulseUs),
		bounds:   make([]int, channels+1),
	}
}

func (p *ppmEncoder) latch(outputs []int) {
	start := 0
	for i := 0; i < p.channels; i++ {
		v := 0
		if i < len(outputs) {
			v = clamp(outputs[i])
		}
		p.bounds[i] = start
		start += usToSamples(ppmCenterUs + v*ppmRangeUs/resxMax)
	}
	p.bounds[p.channels] = start
	p.frame = usToSamples(ppmFrameLength(p.channels))
	p.pos = 0
	p.seg = 0
}

func (p *ppmEncoder) encode(outputs []int, out []float64) {
	for i := range out {
		if p.pos >= p.frame {
			p.latch(outputs)
		}
		for p.seg < p.channels && p.pos >= p.bounds[p.seg+1] {
			p.seg++
		}
		if p.pos-p.bounds[p.seg] < p.pulse {
			out[i] = ppmLevel
		} else {
			out[i] = -ppmLevel
		}
		p.pos++
	}
}

func writeBuffer(out []float64, buf []byte, ch int) {
	sampleLength := min(len(out), len(buf)/bytesPerSample)
	for i := 0; i < sampleLength; i++ {
		const max = 32767
		b := int16(out[i] * max)
		buf[bytesPerSample*i+2*ch] = byte(b)
		buf[bytesPerSample*i+2*ch+1] = byte(b >> 8)
	}
}
