package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jinjor/desktop-mixer/src/mixer"
	"golang.org/x/term"
)

// ErrQuit is returned by Run when the user leaves the console.
var ErrQuit = errors.New("console closed")

// Radio is what the console needs from the transmitter.
type Radio interface {
	Commands() chan<- []string
	Mixes() *mixer.MixList
	Outputs() []int
}

const help = `commands:
  list                    show the mix list
  outputs                 show the channel outputs
  yank <start> <end>      copy mixes [start, end) to the clipboard
  put <index> <channel>   paste the clipboard at index on channel
  quit                    leave the console
anything else is sent to the radio, e.g. "insert 0 0", "set 1 weight 50"
`

// Console is a line editor on the terminal that drives the radio.
type Console struct {
	radio Radio
	out   io.Writer
	clip  clip
}

// New ...
func New(radio Radio, out io.Writer) *Console {
	return &Console{
		radio: radio,
		out:   out,
		clip:  newClip(),
	}
}

// Run reads commands from stdin until ctx is done or the user quits.
func Run(ctx context.Context, radio Radio) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("stdin is not a terminal")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer func() {
		if err := term.Restore(fd, oldState); err != nil {
			log.Printf("failed to restore terminal: %v\n", err)
		}
	}()
	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, "mix> ")
	c := New(radio, t)

	lines, errCh := readLines(ctx, t)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			return readError(err)
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errCh:
					return readError(err)
				default:
					return nil
				}
			}
			quit, err := c.exec(line)
			if err != nil {
				fmt.Fprintf(t, "error: %v\n", err)
			}
			if quit {
				return ErrQuit
			}
		}
	}
}

func readError(err error) error {
	if err == io.EOF {
		return ErrQuit
	}
	return err
}

type lineReader interface {
	ReadLine() (string, error)
}

// readLines forwards lines from r until a read fails or ctx is done. The
// line channel is closed when the reader goroutine ends.
func readLines(ctx context.Context, r lineReader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		defer close(lines)
		for {
			line, err := r.ReadLine()
			if err != nil {
				errCh <- err
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines, errCh
}

func (c *Console) exec(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	switch fields[0] {
	case "quit", "exit":
		return true, nil
	case "help":
		fmt.Fprint(c.out, help)
	case "list":
		c.list()
	case "outputs":
		for ch, v := range c.radio.Outputs() {
			fmt.Fprintf(c.out, "CH%-2d %5d\n", ch+1, v)
		}
	case "yank":
		v, err := parseInts(fields[1:], 2)
		if err != nil {
			return false, err
		}
		data, err := c.radio.Mixes().MarshalMixes(v[0], v[1])
		if err != nil {
			return false, err
		}
		c.clip.write(data)
		fmt.Fprintf(c.out, "yanked %d..%d\n", v[0], v[1])
	case "put":
		if _, err := parseInts(fields[1:], 2); err != nil {
			return false, err
		}
		data := c.clip.read()
		if len(data) == 0 {
			return false, errors.New("clipboard is empty")
		}
		c.radio.Commands() <- []string{"paste", fields[1], fields[2], string(data)}
	default:
		c.radio.Commands() <- fields
	}
	return false, nil
}

func (c *Console) list() {
	list := c.radio.Mixes()
	mixes := list.Mixes()
	fmt.Fprintf(c.out, "%d/%d mixes, %d lines\n", len(mixes), list.Capacity(), list.LineCount())
	i := 0
	for ch := 0; ch < list.Channels(); ch++ {
		if i >= len(mixes) || mixes[i].DestCh != ch {
			fmt.Fprintf(c.out, "    CH%-2d\n", ch+1)
			continue
		}
		label := fmt.Sprintf("CH%-2d", ch+1)
		for ; i < len(mixes) && mixes[i].DestCh == ch; i++ {
			m := &mixes[i]
			fmt.Fprintf(c.out, "%3d %s %-4s %4d%% %-8s %s\n", i, label, m.SrcRaw, m.Weight, m.Mltpx, m.Name)
			label = "    "
		}
	}
}

func parseInts(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("expected %d arguments, got %d", n, len(args))
	}
	ret := make([]int, n)
	for i, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return nil, err
		}
		ret[i] = v
	}
	return ret, nil
}
