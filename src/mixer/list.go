package mixer

import (
	"fmt"
	"sync"
)

// Gate is the pause/resume hook of the real-time calculation pass. Calls may
// nest; the pass stays paused until every Pause has been matched by a Resume.
type Gate interface {
	Pause()
	Resume()
}

// Notifier receives a signal after every mutation so the model gets saved.
type Notifier interface {
	Dirty()
}

type nopGate struct{}

func (nopGate) Pause()  {}
func (nopGate) Resume() {}

type nopNotifier struct{}

func (nopNotifier) Dirty() {}

// Direction of a swap: Up moves towards index 0.
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// ParseDirection accepts "up" and "down".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	}
	return Up, fmt.Errorf("invalid direction %q", s)
}

// ----- Mix List ----- //

// MixList is the fixed-capacity, channel-grouped array of mixes. Populated
// slots form a contiguous prefix, grouped by destination channel in
// non-decreasing order.
//
// Mutations are expected from one goroutine at a time. Readers on other
// goroutines use the query methods, which take a read lock.
type MixList struct {
	mu       sync.RWMutex
	mixes    []MixData // len == capacity, never resized
	channels int
	gen      uint64

	gate     Gate
	notifier Notifier
	sources  SourcePolicy
	order    ChannelOrder
}

// NewMixList allocates a zeroed list of capacity slots for channels output channels.
func NewMixList(capacity, channels int) *MixList {
	if capacity <= 0 {
		capacity = MaxMixers
	}
	if channels <= 0 || channels > MaxOutputChannels {
		channels = MaxOutputChannels
	}
	return &MixList{
		mixes:    make([]MixData, capacity),
		channels: channels,
		gate:     nopGate{},
		notifier: nopNotifier{},
		sources:  allSources{},
		order:    DefaultChannelOrder,
	}
}

// SetGate wires the calculation pass that must not observe half-done mutations.
func (l *MixList) SetGate(g Gate) {
	if g == nil {
		g = nopGate{}
	}
	l.gate = g
}

// SetNotifier wires the persistence layer.
func (l *MixList) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	l.notifier = n
}

// SetSourcePolicy sets the availability policy and channel order used when
// choosing the source of inserted mixes.
func (l *MixList) SetSourcePolicy(p SourcePolicy, order ChannelOrder) {
	if p == nil {
		p = allSources{}
	}
	l.sources = p
	l.order = order
}

// Notifier returns the wired persistence notifier.
func (l *MixList) Notifier() Notifier { return l.notifier }

func (l *MixList) Capacity() int { return len(l.mixes) }
func (l *MixList) Channels() int { return l.channels }

// Generation increases on every structural change (insert, remove, duplicate,
// content swap, load).
func (l *MixList) Generation() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.gen
}

// ----- Queries ----- //

func (l *MixList) count() int {
	count := 0
	for i := len(l.mixes) - 1; i >= 0; i-- {
		if !l.mixes[i].Empty() {
			count++
		}
	}
	return count
}

// Count returns the number of populated slots.
func (l *MixList) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count()
}

// IsAtCapacity must be checked before Insert or Duplicate.
func (l *MixList) IsAtCapacity() bool {
	return l.Count() >= l.Capacity()
}

// LineCount returns the display lines of the list: one per channel plus one
// for every extra mix on a channel.
func (l *MixList) LineCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	lastch := -1
	count := l.channels
	for i := range l.mixes {
		if l.mixes[i].Empty() {
			break
		}
		ch := l.mixes[i].DestCh
		if ch == lastch {
			count++
		} else {
			lastch = ch
		}
	}
	return count
}

// Mix returns a copy of slot i.
func (l *MixList) Mix(i int) (MixData, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.mixes) {
		return MixData{}, false
	}
	return l.mixes[i], true
}

// Mixes returns a copy of the populated prefix.
func (l *MixList) Mixes() []MixData {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for n < len(l.mixes) && !l.mixes[n].Empty() {
		n++
	}
	ret := make([]MixData, n)
	copy(ret, l.mixes[:n])
	return ret
}

// Each calls fn for every populated slot in order. fn must not call back into
// the list's mutating methods.
func (l *MixList) Each(fn func(i int, m *MixData)) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := range l.mixes {
		if l.mixes[i].Empty() {
			return
		}
		fn(i, &l.mixes[i])
	}
}

// ChannelRange returns the slots [start, end) of channel ch. For a channel
// without mixes start == end is the index where its first mix would go.
func (l *MixList) ChannelRange(ch int) (start, end int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	start = 0
	for start < len(l.mixes) && !l.mixes[start].Empty() && l.mixes[start].DestCh < ch {
		start++
	}
	end = start
	for end < len(l.mixes) && !l.mixes[end].Empty() && l.mixes[end].DestCh == ch {
		end++
	}
	return start, end
}

// Validate checks the contiguous prefix and channel grouping invariants.
func (l *MixList) Validate() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return validate(l.mixes, l.channels)
}

func validate(mixes []MixData, channels int) error {
	end := false
	lastch := 0
	for i := range mixes {
		m := &mixes[i]
		if m.Empty() {
			end = true
			if *m != (MixData{}) {
				return fmt.Errorf("slot %d: empty slot not zeroed", i)
			}
			continue
		}
		if end {
			return fmt.Errorf("slot %d: mix after end of data", i)
		}
		if err := checkMix(m); err != nil {
			return fmt.Errorf("slot %d: %w", i, err)
		}
		if m.DestCh < 0 || m.DestCh >= channels {
			return fmt.Errorf("slot %d: %w: %d", i, ErrInvalidChannel, m.DestCh)
		}
		if m.DestCh < lastch {
			return fmt.Errorf("slot %d: %w: %d after %d", i, ErrOutOfOrder, m.DestCh, lastch)
		}
		lastch = m.DestCh
	}
	return nil
}

// checkMix rejects source ids and names no slot can hold.
func checkMix(m *MixData) error {
	if m.SrcRaw < SourceNone || m.SrcRaw > SourceLast {
		return fmt.Errorf("%w: %d", ErrInvalidSource, int(m.SrcRaw))
	}
	if len(m.Name) > MaxNameLen {
		return fmt.Errorf("name too long: %q", m.Name)
	}
	return nil
}

// checkSource is checkMix plus the availability policy, for sources picked
// by the user.
func (l *MixList) checkSource(m *MixData) error {
	if err := checkMix(m); err != nil {
		return err
	}
	if !l.sources.IsSourceAvailable(m.SrcRaw) {
		return fmt.Errorf("%w: %v is not available", ErrInvalidSource, m.SrcRaw)
	}
	return nil
}

// ----- Mutations ----- //

// checkPlacement reports whether a mix on channel ch can sit at index at
// without a gap or a channel order violation.
func (l *MixList) checkPlacement(at, ch int) error {
	if at < 0 || at >= len(l.mixes) || at > l.count() {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, at)
	}
	if ch < 0 || ch >= l.channels {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, ch)
	}
	if at > 0 && l.mixes[at-1].DestCh > ch {
		return fmt.Errorf("%w: channel %d at %d", ErrOutOfOrder, ch, at)
	}
	if !l.mixes[at].Empty() && l.mixes[at].DestCh < ch {
		return fmt.Errorf("%w: channel %d at %d", ErrOutOfOrder, ch, at)
	}
	return nil
}

// Insert creates a mix on channel ch at index at, shifting the following
// slots one to the right. The new mix points to the default source of the
// channel with full weight.
func (l *MixList) Insert(at, ch int) error {
	return l.InsertMix(at, MixData{DestCh: ch, Weight: 100})
}

// InsertMix inserts a copy of m at index at. A missing source is replaced by
// the channel's default source; a given one must be available.
func (l *MixList) InsertMix(at int, m MixData) error {
	l.mu.RLock()
	full := l.count() >= len(l.mixes)
	err := l.checkPlacement(at, m.DestCh)
	l.mu.RUnlock()
	if full {
		return ErrCapacityExceeded
	}
	if err != nil {
		return err
	}
	if m.SrcRaw != SourceNone {
		if err := l.checkSource(&m); err != nil {
			return err
		}
	} else {
		if err := checkMix(&m); err != nil {
			return err
		}
		src, err := DefaultSource(l.sources, l.order, m.DestCh)
		if err != nil {
			return fmt.Errorf("channel %d: %w", m.DestCh, err)
		}
		m.SrcRaw = src
	}

	l.gate.Pause()
	l.mu.Lock()
	copy(l.mixes[at+1:], l.mixes[at:len(l.mixes)-1])
	l.mixes[at] = m
	l.gen++
	l.mu.Unlock()
	l.gate.Resume()
	l.notifier.Dirty()
	return nil
}

// Remove deletes slot at, shifting the following slots left and zeroing the
// last one. Removing an empty slot only shifts empty slots.
func (l *MixList) Remove(at int) error {
	if at < 0 || at >= len(l.mixes) {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, at)
	}
	l.gate.Pause()
	l.mu.Lock()
	copy(l.mixes[at:], l.mixes[at+1:])
	l.mixes[len(l.mixes)-1] = MixData{}
	l.gen++
	l.mu.Unlock()
	l.gate.Resume()
	l.notifier.Dirty()
	return nil
}

// Duplicate clones slot at. The original stays at at and the copy lands at
// at+1; both are independent afterwards.
func (l *MixList) Duplicate(at int) error {
	l.mu.RLock()
	count := l.count()
	l.mu.RUnlock()
	if count >= len(l.mixes) {
		return ErrCapacityExceeded
	}
	if at < 0 || at >= count {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, at)
	}
	l.gate.Pause()
	l.mu.Lock()
	copy(l.mixes[at+1:], l.mixes[at:len(l.mixes)-1])
	l.gen++
	l.mu.Unlock()
	l.gate.Resume()
	l.notifier.Dirty()
	return nil
}

// TrySwap moves the mix at index one step in dir. Next to a channel boundary
// the mix changes channel and keeps its slot; otherwise it swaps contents
// with its neighbour. It returns the new index of the mix and false when the
// mix is already on the first (or last) channel and cannot move further.
//
// TrySwap does not notify; callers mark the storage dirty on success.
func (l *MixList) TrySwap(index int, dir Direction) (int, bool) {
	if index < 0 || index >= len(l.mixes) {
		return index, false
	}
	target := index + 1
	if dir == Up {
		target = index - 1
	}

	l.mu.Lock()
	x := &l.mixes[index]
	if x.Empty() {
		l.mu.Unlock()
		return index, false
	}
	if target < 0 || target >= len(l.mixes) ||
		l.mixes[target].Empty() || l.mixes[target].DestCh != x.DestCh {
		ok := l.moveChannel(x, dir)
		l.mu.Unlock()
		return index, ok
	}
	l.mu.Unlock()

	l.gate.Pause()
	l.mu.Lock()
	l.mixes[index], l.mixes[target] = l.mixes[target], l.mixes[index]
	l.gen++
	l.mu.Unlock()
	l.gate.Resume()
	return target, true
}

func (l *MixList) moveChannel(x *MixData, dir Direction) bool {
	if dir == Up {
		if x.DestCh == 0 {
			return false
		}
		x.DestCh--
		return true
	}
	if x.DestCh >= l.channels-1 {
		return false
	}
	x.DestCh++
	return true
}

// Edit applies fn to slot at. The mix must stay populated and on its channel,
// and a new source must be available; otherwise the edit is rolled back. Single-record edits don't pause the gate.
func (l *MixList) Edit(at int, fn func(m *MixData) error) error {
	l.mu.Lock()
	if at < 0 || at >= len(l.mixes) {
		l.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrInvalidIndex, at)
	}
	m := &l.mixes[at]
	if m.Empty() {
		l.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrEmptySlot, at)
	}
	edited := *m
	if err := fn(&edited); err != nil {
		l.mu.Unlock()
		return err
	}
	if edited.Empty() {
		l.mu.Unlock()
		return fmt.Errorf("mix %d: source must not be empty", at)
	}
	if edited.DestCh != m.DestCh {
		l.mu.Unlock()
		return fmt.Errorf("mix %d: channel changes only through swap", at)
	}
	check := checkMix
	if edited.SrcRaw != m.SrcRaw {
		check = l.checkSource
	}
	if err := check(&edited); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("mix %d: %w", at, err)
	}
	*m = edited
	l.mu.Unlock()
	l.notifier.Dirty()
	return nil
}

// Set changes one field of slot at from its textual form.
func (l *MixList) Set(at int, key, value string) error {
	return l.Edit(at, func(m *MixData) error {
		return m.set(key, value)
	})
}

// Clear empties the whole list.
func (l *MixList) Clear() {
	l.gate.Pause()
	l.mu.Lock()
	for i := range l.mixes {
		l.mixes[i] = MixData{}
	}
	l.gen++
	l.mu.Unlock()
	l.gate.Resume()
	l.notifier.Dirty()
}

// Load replaces the content with mixes, which must satisfy the invariants.
// It does not notify: loading is not a user edit.
func (l *MixList) Load(mixes []MixData) error {
	return l.load(mixes, nil)
}

// load is Load with fn run inside the same pause, after the mixes are in.
func (l *MixList) load(mixes []MixData, fn func()) error {
	if len(mixes) > len(l.mixes) {
		return fmt.Errorf("%w: %d mixes for %d slots", ErrCapacityExceeded, len(mixes), len(l.mixes))
	}
	next := make([]MixData, len(l.mixes))
	copy(next, mixes)
	if err := validate(next, l.channels); err != nil {
		return err
	}
	l.gate.Pause()
	l.mu.Lock()
	copy(l.mixes, next)
	l.gen++
	l.mu.Unlock()
	if fn != nil {
		fn()
	}
	l.gate.Resume()
	return nil
}
