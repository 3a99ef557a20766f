package radio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/jinjor/desktop-mixer/src/mixer"
)

// ErrSessionActive rejects list edits while a copy or move is in progress.
var ErrSessionActive = errors.New("copy/move session in progress")

// ----- Changes ----- //

// Changes ...
type Changes struct {
	sync.Mutex
	dict map[string]struct{}
}

// Add ...
func (c *Changes) Add(key string) {
	c.Lock()
	c.dict[key] = struct{}{}
	c.Unlock()
}

// Has ...
func (c *Changes) Has(key string) bool {
	c.Lock()
	_, ok := c.dict[key]
	c.Unlock()
	return ok
}

// Delete ...
func (c *Changes) Delete(key string) {
	c.Lock()
	delete(c.dict, key)
	c.Unlock()
}

// ----- Radio ----- //

// Config ...
type Config struct {
	ModelDir   string
	ModelName  string
	Capacity   int
	Channels   int
	WriteDelay time.Duration
	Profile    *Profile
	Headless   bool
}

// Radio wires the model to the engine, the sources and the storage, and
// applies the text commands.
type Radio struct {
	CommandCh chan []string
	Changes   *Changes
	Model     *mixer.Model
	engine    *Engine
	sources   *SourceTable
	store     *ModelStore
	storage   *Storage
	headless  bool

	sessionMu sync.Mutex // guards session against ToJSON
	session   *mixer.Session
}

type radioJSON struct {
	Model      json.RawMessage `json:"model"`
	FlightMode int             `json:"flightMode"`
	Session    string          `json:"session,omitempty"`
}

// NewRadio loads the configured model, or creates it from the template.
func NewRadio(cfg Config) (*Radio, error) {
	profile := cfg.Profile
	if profile == nil {
		profile = DefaultProfile()
	}
	order, err := profile.order()
	if err != nil {
		return nil, err
	}
	model, err := mixer.NewTemplate(cfg.ModelName, order, cfg.Capacity, cfg.Channels)
	if err != nil {
		return nil, err
	}
	store := NewModelStore(cfg.ModelDir)
	exists := store.Exists(cfg.ModelName)
	if exists {
		if err := store.Load(cfg.ModelName, model); err != nil {
			return nil, err
		}
		log.Printf("loaded model %s\n", cfg.ModelName)
	}
	sources, err := NewSourceTable(model.Inputs, profile, model.Mixes.Channels())
	if err != nil {
		return nil, err
	}
	commandCh := make(chan []string, 256)
	r := &Radio{
		CommandCh: commandCh,
		Changes: &Changes{
			dict: make(map[string]struct{}),
		},
		Model:    model,
		engine:   NewEngine(model, sources, profile.PPMChannels),
		sources:  sources,
		store:    store,
		headless: cfg.Headless,
	}
	r.storage = NewStorage(cfg.WriteDelay, func() error {
		return store.Save(model)
	})
	model.Mixes.SetGate(r.engine)
	model.Mixes.SetNotifier(r.storage)
	model.Mixes.SetSourcePolicy(sources, order)
	if !exists {
		r.storage.Dirty()
	}
	go processCommands(r, commandCh)
	return r, nil
}

func processCommands(r *Radio, commandCh <-chan []string) {
	for command := range commandCh {
		if err := r.update(command); err != nil {
			log.Printf("command %v failed: %v\n", command, err)
		}
	}
	log.Println("processCommands() ended.")
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

func (r *Radio) update(command []string) error {
	if len(command) == 0 {
		return errors.New("empty command")
	}
	list := r.Model.Mixes
	args := command[1:]
	switch command[0] {
	case "insert", "remove", "duplicate", "swap", "copy", "move", "clear", "paste", "load", "run":
		if r.session != nil {
			return ErrSessionActive
		}
	}

	switch command[0] {
	case "insert":
		v, err := parseInts(args, 2)
		if err != nil {
			return err
		}
		if list.IsAtCapacity() {
			return mixer.ErrCapacityExceeded
		}
		if err := list.Insert(v[0], v[1]); err != nil {
			return err
		}
	case "remove":
		v, err := parseInts(args, 1)
		if err != nil {
			return err
		}
		if err := list.Remove(v[0]); err != nil {
			return err
		}
	case "duplicate":
		v, err := parseInts(args, 1)
		if err != nil {
			return err
		}
		if list.IsAtCapacity() {
			return mixer.ErrCapacityExceeded
		}
		if err := list.Duplicate(v[0]); err != nil {
			return err
		}
	case "swap":
		if len(args) != 2 {
			return fmt.Errorf("invalid swap %v", args)
		}
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		dir, err := mixer.ParseDirection(args[1])
		if err != nil {
			return err
		}
		if _, ok := list.TrySwap(index, dir); !ok {
			log.Printf("mix %d cannot move %v\n", index, dir)
			return nil
		}
		r.storage.Dirty()
	case "set":
		if len(args) != 3 {
			return fmt.Errorf("invalid key-value pair %v", args)
		}
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		if err := list.Set(index, args[1], args[2]); err != nil {
			return err
		}
	case "copy", "move":
		v, err := parseInts(args, 1)
		if err != nil {
			return err
		}
		mode := mixer.CopyMode
		if command[0] == "move" {
			mode = mixer.MoveMode
		}
		session, err := mixer.StartSession(list, mode, v[0])
		if err != nil {
			return err
		}
		r.setSession(session)
	case "step":
		if r.session == nil {
			return errors.New("no copy/move session")
		}
		if len(args) != 1 {
			return fmt.Errorf("invalid step %v", args)
		}
		dir, err := mixer.ParseDirection(args[0])
		if err != nil {
			return err
		}
		if err := r.session.Step(dir); err != nil {
			return err
		}
	case "commit":
		if r.session == nil {
			return errors.New("no copy/move session")
		}
		r.session.Commit()
		r.setSession(nil)
	case "cancel":
		if r.session == nil {
			return nil
		}
		err := r.session.Cancel()
		r.setSession(nil)
		if err != nil {
			return err
		}
	case "clear":
		list.Clear()
	case "paste":
		if len(args) != 3 {
			return fmt.Errorf("invalid paste %v", args)
		}
		v, err := parseInts(args[:2], 2)
		if err != nil {
			return err
		}
		if _, err := list.PasteMixes(v[0], v[1], []byte(args[2])); err != nil {
			return err
		}
	case "input":
		if len(args) != 2 {
			return fmt.Errorf("invalid input %v", args)
		}
		src, err := mixer.ParseSource(args[0])
		if err != nil {
			return err
		}
		value, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		return r.sources.Set(src, value)
	case "bind":
		if len(args) != 2 {
			return fmt.Errorf("invalid bind %v", args)
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		src, err := mixer.ParseSource(args[1])
		if err != nil {
			return err
		}
		if err := r.Model.Inputs.Bind(n, src); err != nil {
			return err
		}
		r.storage.Dirty()
	case "flight_mode":
		v, err := parseInts(args, 1)
		if err != nil {
			return err
		}
		if err := r.engine.SetFlightMode(v[0]); err != nil {
			return err
		}
	case "save":
		return r.storage.Flush()
	case "load":
		if len(args) != 1 {
			return fmt.Errorf("invalid load %v", args)
		}
		if err := r.load(args[0]); err != nil {
			return err
		}
	case "run":
		if len(args) != 1 {
			return fmt.Errorf("invalid run %v", args)
		}
		if err := r.RunScript(context.Background(), args[0]); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown command %v", command[0])
	}
	r.Changes.Add("data")
	return nil
}

func (r *Radio) setSession(s *mixer.Session) {
	r.sessionMu.Lock()
	r.session = s
	r.sessionMu.Unlock()
}

// load saves pending edits of the current model before switching.
func (r *Radio) load(name string) error {
	if err := r.storage.Flush(); err != nil {
		return err
	}
	return r.storage.Exclusive(func() error {
		return r.store.Load(name, r.Model)
	})
}

// ToJSON ...
func (r *Radio) ToJSON() []byte {
	session := ""
	r.sessionMu.Lock()
	if r.session != nil {
		session = r.session.Mode().String()
	}
	r.sessionMu.Unlock()
	bytes, err := json.Marshal(&radioJSON{
		Model:      r.Model.ToJSON(),
		FlightMode: r.engine.FlightMode(),
		Session:    session,
	})
	if err != nil {
		panic(err)
	}
	return bytes
}

// Commands ...
func (r *Radio) Commands() chan<- []string {
	return r.CommandCh
}

// Mixes ...
func (r *Radio) Mixes() *mixer.MixList {
	return r.Model.Mixes
}

// Outputs returns the channel outputs of the last cycle.
func (r *Radio) Outputs() []int {
	return r.engine.Outputs()
}

// AddMidiEvent ...
func (r *Radio) AddMidiEvent(data []byte) {
	if len(data) > 0 && !r.sources.ApplyMidi(data) {
		log.Printf("ignored MIDI message: %v\n", data)
	}
}

// Close ...
func (r *Radio) Close() error {
	log.Println("Closing Radio...")
	close(r.CommandCh)
	return nil
}

// Start runs the calculation until ctx is done, on the audio device or
// headless.
func (r *Radio) Start(ctx context.Context) error {
	r.engine.ctx = ctx
	if r.headless {
		return playHeadless(ctx, r.engine)
	}
	output, err := NewOutput()
	if err != nil {
		return err
	}
	defer output.Close()

	// block until cancel() called
	if err := output.Play(r.engine); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}

// RunStorage saves the model after edits until ctx is done.
func (r *Radio) RunStorage(ctx context.Context) error {
	return r.storage.Run(ctx)
}
