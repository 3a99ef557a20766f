package radio

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/hajimehoshi/oto"
)

// ----- Output ----- //

// Output plays the engine's PPM signal on the audio device.
type Output struct {
	otoContext *oto.Context
}

// NewOutput ...
func NewOutput() (*Output, error) {
	otoContext, err := oto.NewContext(sampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, err
	}
	return &Output{otoContext: otoContext}, nil
}

// Play blocks until r returns io.EOF.
func (o *Output) Play(r io.Reader) error {
	p := o.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	if _, err := io.CopyBuffer(p, r, make([]byte, bufferSizeInBytes)); err != nil {
		return err
	}
	return nil
}

// Close ...
func (o *Output) Close() error {
	log.Println("Closing Output...")
	return o.otoContext.Close()
}

// playHeadless pulls r at the audio rate without a device.
func playHeadless(ctx context.Context, r io.Reader) error {
	buf := make([]byte, bufferSizeInBytes)
	t := time.NewTicker(time.Duration(float64(time.Second) * secPerSample * samplesPerCycle))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if _, err := r.Read(buf); err == io.EOF {
				return nil
			} else if err != nil {
				return err
			}
		}
	}
}
