package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jinjor/desktop-mixer/src/console"
	"github.com/jinjor/desktop-mixer/src/mixer"
	"github.com/jinjor/desktop-mixer/src/radio"
	"golang.org/x/sync/errgroup"
)

var (
	sockFileName = flag.String("socket", "/tmp/desktop-mixer.sock", "unix socket for the UI; empty disables it")
	modelDir     = flag.String("models", "models", "model directory")
	modelName    = flag.String("model", "default", "model to load")
	capacity     = flag.Int("capacity", mixer.MaxMixers, "mixer slots")
	channels     = flag.Int("channels", 16, "output channels")
	profilePath  = flag.String("profile", "profile.yaml", "hardware profile")
	midiPort     = flag.String("midi", "", "MIDI IN port name (first port if empty)")
	useConsole   = flag.Bool("console", false, "interactive console on stdin")
	script       = flag.String("script", "", "Lua script to run at startup")
	headless     = flag.Bool("headless", false, "run without an audio device")
	writeDelay   = flag.Duration("write-delay", 2*time.Second, "delay before edits are saved")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	log.Printf("NumCPU: %v\n", runtime.NumCPU())

	profile, err := radio.LoadProfile(*profilePath)
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r, err := radio.NewRadio(radio.Config{
		ModelDir:   *modelDir,
		ModelName:  *modelName,
		Capacity:   *capacity,
		Channels:   *channels,
		WriteDelay: *writeDelay,
		Profile:    profile,
		Headless:   *headless,
	})
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	defer r.Close()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		sig := <-signalCh
		log.Printf("Caught signal %s: shutting down...\n", sig)
		cancel()
	}()
	if *script != "" {
		r.CommandCh <- []string{"run", *script}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.Start(ctx)
	})
	g.Go(func() error {
		return r.RunStorage(ctx)
	})
	g.Go(func() error {
		for data := range radio.ListenToMidiIn(ctx, *midiPort) {
			r.AddMidiEvent(data)
		}
		return nil
	})
	if *useConsole {
		g.Go(func() error {
			err := console.Run(ctx, r)
			if errors.Is(err, console.ErrQuit) {
				cancel()
				return nil
			}
			return err
		})
	}
	if *sockFileName != "" {
		g.Go(func() error {
			return withIPCConnection(ctx, *sockFileName, func(conn net.Conn) error {
				g, ctx := errgroup.WithContext(ctx)
				g.Go(func() error {
					return receiveCommands(ctx, conn, r.CommandCh)
				})
				g.Go(func() error {
					return sendReports(ctx, conn, r)
				})
				return g.Wait()
			})
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

func withIPCConnection(ctx context.Context, sockFileName string, f func(net.Conn) error) error {
	os.Remove(sockFileName)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", sockFileName)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() {
		listener.Close()
	})
	defer func() {
		log.Println("Closing IPC...")
		if stop() {
			if err := listener.Close(); err != nil {
				log.Printf("error while closing listener: %v", err)
			}
		}
		os.Remove(sockFileName)
	}()
	log.Printf("start listening...\n")
	conn, err := listener.Accept()
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return err
	}
	stopConn := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer func() {
		if stopConn() {
			if err := conn.Close(); err != nil {
				log.Printf("error while closing connection: %v", err)
			}
		}
	}()
	return f(conn)
}

func receiveCommands(ctx context.Context, conn net.Conn, commandCh chan<- []string) error {
	reader := bufio.NewReader(conn)
	var line []byte
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("Connection interrupted")
			break loop
		default:
		}
		next, isPrefix, err := reader.ReadLine()
		if err == io.EOF || ctx.Err() != nil {
			break loop
		}
		if err != nil {
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		command, err := parseCommand(string(line))
		if err != nil {
			log.Printf("invalid command %q: %v\n", line, err)
		} else {
			commandCh <- command
			log.Printf("received: %s\n", string(line))
		}
		line = []byte{}
	}
	log.Println("receiveCommands() ended.")
	return nil
}

func parseCommand(line string) ([]string, error) {
	lineStr := strings.Split(line, " ")
	for i, item := range lineStr {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		lineStr[i] = escaped
	}
	return lineStr, nil
}

func sendReports(ctx context.Context, conn net.Conn, r *radio.Radio) error {
	t := time.NewTicker(time.Second / 60)
	defer t.Stop()
	r.Changes.Add("data")
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("sendReports() interrupted")
			break loop
		case <-t.C:
			s := "outputs"
			for _, value := range r.Outputs() {
				s += " " + strconv.Itoa(value)
			}
			s += "\n"
			if r.Changes.Has("data") {
				r.Changes.Delete("data")
				s += "data " + string(r.ToJSON()) + "\n"
			}
			if _, err := conn.Write([]byte(s)); err != nil {
				log.Printf("connection closed: %v\n", err)
				break loop
			}
		}
	}
	log.Println("sendReports() ended.")
	return nil
}
