package nfa

import (
	"fmt"
)

// Builder assembles a Thompson NFA one state at a time. Compiler drives it
// while walking a regexp/syntax.Regexp tree — each AddXxx call appends one
// state and returns its ID, and Patch/PatchSplit let the caller wire a
// state's target in after the fact, which is what makes loops (quantifiers)
// and forward references (alternation join points) possible during a
// single top-down tree walk.
type Builder struct {
	states          []State
	startAnchored   StateID
	startUnanchored StateID

	// byteClassSet accumulates alphabet boundary bits as AddByteRange and
	// AddSparse see the pattern's byte ranges go by; Build folds it into
	// the NFA's ByteClasses before returning.
	byteClassSet *ByteClassSet
}

// NewBuilder returns a Builder with reasonable default capacity for typical
// patterns.
func NewBuilder() *Builder {
	return NewBuilderWithCapacity(16)
}

// NewBuilderWithCapacity returns an empty Builder pre-sized for capacity
// states, avoiding reallocation for patterns whose size is known up front.
func NewBuilderWithCapacity(capacity int) *Builder {
	return &Builder{
		states:          make([]State, 0, capacity),
		startAnchored:   InvalidState,
		startUnanchored: InvalidState,
		byteClassSet:    NewByteClassSet(),
	}
}

func (b *Builder) append(s State) StateID {
	id := StateID(len(b.states))
	s.id = id
	b.states = append(b.states, s)
	return id
}

// AddMatch adds an accepting state.
func (b *Builder) AddMatch() StateID {
	return b.append(State{kind: StateMatch})
}

// AddByteRange adds a state that consumes one byte in [lo, hi] and
// transitions to next. Pass lo == hi for a single byte.
func (b *Builder) AddByteRange(lo, hi byte, next StateID) StateID {
	b.byteClassSet.SetRange(lo, hi)
	return b.append(State{kind: StateByteRange, lo: lo, hi: hi, next: next})
}

// AddSparse adds a state with several disjoint byte-range transitions, one
// state standing in for a whole character class. transitions is copied, so
// the caller's slice can be reused or mutated afterward.
func (b *Builder) AddSparse(transitions []Transition) StateID {
	for _, tr := range transitions {
		b.byteClassSet.SetRange(tr.Lo, tr.Hi)
	}
	trans := make([]Transition, len(transitions))
	copy(trans, transitions)
	return b.append(State{kind: StateSparse, transitions: trans})
}

// AddSplit adds an alternation state: two epsilon edges, left tried before
// right. Unlike AddQuantifierSplit, which branch "left" or "right" is
// doesn't carry special quantifier semantics — both sides are just
// ordinary alternatives.
func (b *Builder) AddSplit(left, right StateID) StateID {
	return b.append(State{kind: StateSplit, left: left, right: right})
}

// AddQuantifierSplit adds the split state a quantifier (*, +, ?, {n,m})
// compiles to: left is the "repeat the body" branch, right is the "stop
// here" branch. Keeping this distinct from AddSplit matters for leftmost-
// first priority — PikeVM needs to know which side represents "more of the
// loop body" when deciding thread order.
func (b *Builder) AddQuantifierSplit(left, right StateID) StateID {
	return b.append(State{kind: StateSplit, left: left, right: right, isQuantifierSplit: true})
}

// AddEpsilon adds a state with one outgoing epsilon edge and no byte
// consumption — used for join points and placeholders patched in later.
func (b *Builder) AddEpsilon(next StateID) StateID {
	return b.append(State{kind: StateEpsilon, next: next})
}

// AddFail adds a dead-end state with no outgoing transitions at all.
func (b *Builder) AddFail() StateID {
	return b.append(State{kind: StateFail})
}

// AddCapture adds a capture boundary: captureIndex identifies the group
// (0 is the whole match), isStart distinguishes the opening '(' from the
// closing ')'. PikeVM in this package tracks capture offsets for its own
// Go-side simulation, but the boolean WASM matcher wasmcompile emits has
// no use for them (coregex is match/no-match only) — Capture states
// still fold into every epsilon closure unconditionally, same as any other
// pass-through state.
func (b *Builder) AddCapture(captureIndex uint32, isStart bool, next StateID) StateID {
	return b.append(State{kind: StateCapture, captureIndex: captureIndex, captureStart: isStart, next: next})
}

// AddLook adds a zero-width assertion: next is only reachable once look
// holds at the current position.
func (b *Builder) AddLook(look Look, next StateID) StateID {
	return b.append(State{kind: StateLook, look: look, next: next})
}

// AddRuneAny adds a state matching any Unicode codepoint, newlines
// included — `(?s).`.
func (b *Builder) AddRuneAny(next StateID) StateID {
	return b.append(State{kind: StateRuneAny, next: next})
}

// AddRuneAnyNotNL adds a state matching any codepoint except newline — the
// default `.` behavior.
func (b *Builder) AddRuneAnyNotNL(next StateID) StateID {
	return b.append(State{kind: StateRuneAnyNotNL, next: next})
}

// Patch retargets a single-successor state (everything except Split and
// Sparse, which have more than one outgoing edge) to target. Compiler uses
// this to close loops and join alternation branches once their downstream
// state exists.
func (b *Builder) Patch(stateID, target StateID) error {
	if int(stateID) >= len(b.states) {
		return &BuildError{Message: "state ID out of bounds", StateID: stateID}
	}
	s := &b.states[stateID]
	switch s.kind {
	case StateByteRange, StateEpsilon, StateCapture, StateLook, StateRuneAny, StateRuneAnyNotNL:
		s.next = target
		return nil
	default:
		return &BuildError{Message: fmt.Sprintf("cannot patch state of kind %s", s.kind), StateID: stateID}
	}
}

// PatchSplit retargets both branches of a Split state.
func (b *Builder) PatchSplit(stateID StateID, left, right StateID) error {
	if int(stateID) >= len(b.states) {
		return &BuildError{Message: "state ID out of bounds", StateID: stateID}
	}
	s := &b.states[stateID]
	if s.kind != StateSplit {
		return &BuildError{Message: fmt.Sprintf("expected Split state, got %s", s.kind), StateID: stateID}
	}
	s.left, s.right = left, right
	return nil
}

// SetStart sets both the anchored and unanchored start state to the same
// ID.
//
// Deprecated: use SetStarts to set them independently.
func (b *Builder) SetStart(start StateID) {
	b.startAnchored = start
	b.startUnanchored = start
}

// SetStarts records distinct anchored and unanchored entry points — a
// pattern with a literal `^` prefix can skip the unanchored sweep's
// per-position retry entirely by using the same state for both.
func (b *Builder) SetStarts(anchored, unanchored StateID) {
	b.startAnchored = anchored
	b.startUnanchored = unanchored
}

// States returns how many states have been added so far.
func (b *Builder) States() int {
	return len(b.states)
}

// Validate checks that both start states were set and that every state
// reference anywhere in the graph points at a state that actually exists.
func (b *Builder) Validate() error {
	if err := b.validateStart(b.startAnchored, "anchored"); err != nil {
		return err
	}
	if err := b.validateStart(b.startUnanchored, "unanchored"); err != nil {
		return err
	}

	for i, s := range b.states {
		id := StateID(i)
		switch s.kind {
		case StateByteRange, StateEpsilon, StateCapture, StateLook, StateRuneAny, StateRuneAnyNotNL:
			if s.next != InvalidState && int(s.next) >= len(b.states) {
				return &BuildError{Message: fmt.Sprintf("invalid next state %d", s.next), StateID: id}
			}
		case StateSplit:
			if s.left != InvalidState && int(s.left) >= len(b.states) {
				return &BuildError{Message: fmt.Sprintf("invalid left state %d", s.left), StateID: id}
			}
			if s.right != InvalidState && int(s.right) >= len(b.states) {
				return &BuildError{Message: fmt.Sprintf("invalid right state %d", s.right), StateID: id}
			}
		case StateSparse:
			for j, t := range s.transitions {
				if t.Next != InvalidState && int(t.Next) >= len(b.states) {
					return &BuildError{Message: fmt.Sprintf("invalid transition %d target %d", j, t.Next), StateID: id}
				}
			}
		}
	}

	return nil
}

func (b *Builder) validateStart(start StateID, which string) error {
	if start == InvalidState {
		return &BuildError{Message: which + " start state not set"}
	}
	if int(start) >= len(b.states) {
		return &BuildError{Message: which + " start state out of bounds", StateID: start}
	}
	return nil
}

// Build finalizes the builder into an NFA, applying opts over the defaults
// (unanchored, UTF-8, a single pattern) and validating the result before
// returning it.
func (b *Builder) Build(opts ...BuildOption) (*NFA, error) {
	nfa := &NFA{
		states:          b.states,
		startAnchored:   b.startAnchored,
		startUnanchored: b.startUnanchored,
		anchored:        false,
		utf8:            true,
		patternCount:    1,
		byteClasses:     b.byteClassSet.ByteClasses(),
	}

	for _, opt := range opts {
		opt(nfa)
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}

	return nfa, nil
}

// BuildOption configures an NFA as Build finalizes it.
type BuildOption func(*NFA)

// WithAnchored sets whether the NFA requires anchored matching.
func WithAnchored(anchored bool) BuildOption {
	return func(n *NFA) { n.anchored = anchored }
}

// WithUTF8 sets whether the NFA respects UTF-8 codepoint boundaries.
func WithUTF8(utf8 bool) BuildOption {
	return func(n *NFA) { n.utf8 = utf8 }
}

// WithPatternCount sets the number of patterns folded into this NFA (more
// than one only for a multi-pattern compile).
func WithPatternCount(count int) BuildOption {
	return func(n *NFA) { n.patternCount = count }
}

// WithCaptureCount sets the number of capture groups, including group 0.
func WithCaptureCount(count int) BuildOption {
	return func(n *NFA) { n.captureCount = count }
}

// WithCaptureNames sets capture group names; index 0 is always "" (the
// whole match), unnamed groups are "".
func WithCaptureNames(names []string) BuildOption {
	return func(n *NFA) {
		if len(names) == 0 {
			return
		}
		n.captureNames = make([]string, len(names))
		copy(n.captureNames, names)
	}
}
