package console

import (
	"log"
	"sync"

	"golang.design/x/clipboard"
)

type clip interface {
	read() []byte
	write(data []byte)
}

// systemClip shares yanked mixes with other applications.
type systemClip struct{}

func (systemClip) read() []byte      { return clipboard.Read(clipboard.FmtText) }
func (systemClip) write(data []byte) { clipboard.Write(clipboard.FmtText, data) }

// memClip is used where no system clipboard is available (headless, CI).
type memClip struct {
	sync.Mutex
	data []byte
}

func (c *memClip) read() []byte {
	c.Lock()
	defer c.Unlock()
	return c.data
}

func (c *memClip) write(data []byte) {
	c.Lock()
	c.data = append([]byte(nil), data...)
	c.Unlock()
}

var (
	clipOnce sync.Once
	clipOK   bool
)

func newClip() clip {
	clipOnce.Do(func() {
		if err := clipboard.Init(); err != nil {
			log.Printf("[WARN] system clipboard unavailable: %v\n", err)
			return
		}
		clipOK = true
	})
	if !clipOK {
		return &memClip{}
	}
	return systemClip{}
}
