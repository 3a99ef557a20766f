package radio

import "testing"

// risingEdges returns the sample indices where a pulse starts.
func risingEdges(out []float64) []int {
	var edges []int
	for i, v := range out {
		if v > 0 && (i == 0 || out[i-1] <= 0) {
			edges = append(edges, i)
		}
	}
	return edges
}

func TestPPMFrame(t *testing.T) {
	outputs := []int{0, 1024, -1024, 512}
	p := newPPMEncoder(4)
	frame := usToSamples(ppmFrameUs)
	out := make([]float64, frame*2)
	p.encode(outputs, out)

	edges := risingEdges(out)
	expectEqual(t, len(edges), 10)
	expectEqual(t, edges[0], 0)
	expectEqual(t, edges[5], frame)

	expected := []int{
		usToSamples(1500),
		usToSamples(2012),
		usToSamples(988),
		usToSamples(1756),
	}
	for i, width := range expected {
		expectEqual(t, edges[i+1]-edges[i], width)
	}

	high := 0
	for out[high] > 0 {
		high++
	}
	expectEqual(t, high, usToSamples(ppmPulseUs))
}

func TestPPMLatchesAtFrameStart(t *testing.T) {
	p := newPPMEncoder(2)
	frame := usToSamples(ppmFrameUs)
	first := make([]float64, 100)
	p.encode([]int{0, 0}, first)

	// values changed mid-frame apply to the next frame only
	rest := make([]float64, frame*2-100)
	p.encode([]int{1024, 0}, rest)
	out := append(first, rest...)
	edges := risingEdges(out)
	expectEqual(t, edges[1]-edges[0], usToSamples(1500))
	expectEqual(t, edges[4]-edges[3], usToSamples(2012))
}

func TestPPMFrameLength(t *testing.T) {
	expectEqual(t, ppmFrameLength(8), ppmFrameUs)
	expectEqual(t, ppmFrameLength(16), 16*2000+ppmSyncUs)
}

func TestWriteBuffer(t *testing.T) {
	buf := make([]byte, 2*bytesPerSample)
	writeBuffer([]float64{1, -1}, buf, 1)
	expectEqual(t, int16(uint16(buf[2])|uint16(buf[3])<<8), int16(32767))
	expectEqual(t, int16(uint16(buf[6])|uint16(buf[7])<<8), int16(-32767))
	expectEqual(t, buf[0], byte(0))
}
