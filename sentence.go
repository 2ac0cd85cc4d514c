package lpc

// Sentence is one queued `input_to`/`get_char` callback, chained LIFO
// off Object.Sentences per spec.md §4.5: the most recently registered
// callback consumes the next line (or character) of input.
type Sentence struct {
	Ob         *Object   // the object that registered the callback
	Function   *FuncPtr  // closure invoked with (input, *carryover...)
	Carryover  []Value   // extra args appended after the input argument
	NoEcho     bool      // terminal echo suppressed while pending (password prompts)
	SingleChar bool      // true for get_char, false for input_to

	next *Sentence
}

// PushSentence registers fn as the next pending input callback for o,
// ahead of any already-queued sentence (spec.md: "newest request takes
// priority").
func (o *Object) PushSentence(fn *FuncPtr, singleChar, noEcho bool, carry []Value) {
	s := &Sentence{Ob: o, Function: fn, Carryover: carry, NoEcho: noEcho, SingleChar: singleChar}
	s.next = o.Sentences
	o.Sentences = s
}

// PopSentence removes and returns the front (most recent) sentence, or
// nil if none is pending.
func (o *Object) PopSentence() *Sentence {
	s := o.Sentences
	if s == nil {
		return nil
	}
	o.Sentences = s.next
	return s
}

// RemoveAllSentences clears the chain, called on object destruction
// and logout so no dangling function pointer outlives its owner.
func (o *Object) RemoveAllSentences() {
	for s := o.Sentences; s != nil; {
		next := s.next
		if s.Function != nil {
			UnrefValue(s.Function)
		}
		s = next
	}
	o.Sentences = nil
}

// Args builds the actual argument vector passed to Function: the
// freshly received input (a String for a line, or for get_char the
// single byte pre-wrapped by the caller as an Int) followed by the
// carryover arguments frozen at registration time.
func (s *Sentence) Args(input Value) []Value {
	args := make([]Value, 0, 1+len(s.Carryover))
	args = append(args, input)
	args = append(args, s.Carryover...)
	return args
}
