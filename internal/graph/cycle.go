package graph

// State of a key within one resolution pass.
type State int

const (
	NotVisited State = iota
	InProgress
	Done
)

// Outcome of entering a key.
type Outcome int

const (
	NoCycle    Outcome = iota // key was not in progress
	Resolvable                // cycle closed through a delayed edge
	Cycle                     // cycle with no delayed edge
)

// CycleResult describes what happened when a key was entered.
type CycleResult struct {
	Outcome Outcome
	Key     Key   // the key that closed the loop
	Path    []Key // Cycle only: the loop, first and last element equal
	Depth   int   // position of the first occurrence of Key on the stack
	Crosses bool  // Resolvable only: the loop passes through a cached initializer
}

type frame struct {
	key      Key
	delayed  bool // delay marker; key is unset
	boundary bool // cached initializer marker; key is unset
}

func (f frame) marker() bool { return f.delayed || f.boundary }

// Stack is the resolution path of the current recursion. It is an immutable
// value: Push and Delay return extended copies, so each recursive call holds
// exactly its own path and nothing has to be popped.
type Stack struct {
	frames []frame
}

// Push returns the stack with key on top.
func (s Stack) Push(key Key) Stack {
	return s.with(frame{key: key})
}

// Delay returns the stack with a delay marker on top. Every key entered
// above a marker is constructed lazily, so a loop crossing it is breakable.
func (s Stack) Delay() Stack {
	return s.with(frame{delayed: true})
}

// Boundary returns the stack with a marker for entering the initializer of
// a cached value. Code inside it is shared by every reference to the value.
func (s Stack) Boundary() Stack {
	return s.with(frame{boundary: true})
}

// Depth is the number of frames, markers included.
func (s Stack) Depth() int { return len(s.frames) }

func (s Stack) with(f frame) Stack {
	frames := make([]frame, len(s.frames), len(s.frames)+1)
	copy(frames, s.frames)
	return Stack{frames: append(frames, f)}
}

// Contains reports whether key is in progress on this stack.
func (s Stack) Contains(key Key) bool {
	return s.index(key) >= 0
}

func (s Stack) index(key Key) int {
	id := key.ID()
	for i, f := range s.frames {
		if !f.marker() && f.key.ID() == id {
			return i
		}
	}
	return -1
}

// Check inspects what entering key would mean without changing the stack.
func (s Stack) Check(key Key) CycleResult {
	start := s.index(key)
	if start < 0 {
		return CycleResult{Outcome: NoCycle}
	}
	var path []Key
	delayed, crosses := false, false
	for _, f := range s.frames[start:] {
		switch {
		case f.delayed:
			delayed = true
		case f.boundary:
			crosses = true
		default:
			path = append(path, f.key)
		}
	}
	if delayed {
		return CycleResult{Outcome: Resolvable, Key: key, Depth: start, Crosses: crosses}
	}
	return CycleResult{Outcome: Cycle, Key: key, Path: append(path, key), Depth: start}
}

// Trace lists the keys in progress, outermost first.
func (s Stack) Trace() []Key {
	var keys []Key
	for _, f := range s.frames {
		if !f.marker() {
			keys = append(keys, f.key)
		}
	}
	return keys
}

// Detector tracks which keys completed during a pass. In-progress state
// lives on the Stack passed through the recursion.
type Detector struct {
	done map[string]struct{}
}

// NewDetector returns a detector for a fresh pass.
func NewDetector() *Detector {
	return &Detector{done: make(map[string]struct{})}
}

// Enter checks key against s and, when no cycle is found, returns the stack
// with key pushed.
func (d *Detector) Enter(s Stack, key Key) (Stack, CycleResult) {
	res := s.Check(key)
	if res.Outcome != NoCycle {
		return s, res
	}
	return s.Push(key), res
}

// Finish marks key as completely resolved.
func (d *Detector) Finish(key Key) {
	d.done[key.ID()] = struct{}{}
}

// State reports the state of key relative to s.
func (d *Detector) State(s Stack, key Key) State {
	if s.Contains(key) {
		return InProgress
	}
	if _, ok := d.done[key.ID()]; ok {
		return Done
	}
	return NotVisited
}
