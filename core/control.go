package core

// Control-flow stack: a LIFO of FOR/GOSUB frames (spec.md §4.F, §3). The
// source packs these as tagged bytes at the top of program memory; here
// they are a discriminated Go variant (frame), per spec.md §9's "represent
// as a discriminated variant, not by aliasing bytes." The byte-budget
// bookkeeping (stackPtr/stackLimit) is kept alongside the typed slice so
// stack overflow is detected against a fixed byte budget and program
// inserts are checked against stackPtr, matching the teacher's pushr/popr
// bounds checking in spirit. MEM does not count frame bytes.
type frame interface {
	frameSize() uint32
	isFrame()
}

type forFrame struct {
	Var        byte
	Terminal   int16
	Step       int16
	ResumeLine uint32
	ResumeTxt  uint32
}

type gosubFrame struct {
	ResumeLine uint32
	ResumeTxt  uint32
}

func (forFrame) isFrame()   {}
func (gosubFrame) isFrame() {}

func (forFrame) frameSize() uint32   { return 14 }
func (gosubFrame) frameSize() uint32 { return 9 }

func (in *Interpreter) pushFrame(f frame) error {
	need := f.frameSize()
	if in.stackPtr < in.stackLimit+need {
		return memLimitError{op: "push frame", need: need, have: in.stackPtr - in.stackLimit}
	}
	in.stackPtr -= need
	in.stack = append(in.stack, f)
	return nil
}

// pushFor pushes a FOR frame, per spec.md §4.E's "push FOR frame {var=v,
// terminal=b, step=s∨1, resume=just after line}".
func (in *Interpreter) pushFor(v byte, terminal, step int16, resumeLine, resumeTxt uint32) error {
	return in.pushFrame(forFrame{Var: v, Terminal: terminal, Step: step, ResumeLine: resumeLine, ResumeTxt: resumeTxt})
}

// pushGosub pushes a GOSUB frame.
func (in *Interpreter) pushGosub(resumeLine, resumeTxt uint32) error {
	return in.pushFrame(gosubFrame{ResumeLine: resumeLine, ResumeTxt: resumeTxt})
}

// doReturn scans the stack top-down for the first GOSUB frame, skipping
// (not popping) any FOR frames encountered first, per spec.md §4.F.
// Returns ok=false if the stack holds no GOSUB frame at all.
func (in *Interpreter) doReturn() (resumeLine, resumeTxt uint32, ok bool) {
	for i := len(in.stack) - 1; i >= 0; i-- {
		g, isGosub := in.stack[i].(gosubFrame)
		if !isGosub {
			continue
		}
		in.stackPtr += g.frameSize()
		in.stack = append(in.stack[:i], in.stack[i+1:]...)
		return g.ResumeLine, g.ResumeTxt, true
	}
	return 0, 0, false
}

// doNext scans the stack top-down for the first FOR frame whose Var==v,
// skipping (not popping) any GOSUB frames encountered first. A FOR frame for
// another variable reached first (an inner loop still open) ends the search
// with ok=false. If the loop
// should continue, it advances the variable and returns the frame's resume
// point with cont=true, leaving the frame (and everything below it) on the
// stack. If the loop is done, it collapses the stack back to immediately
// below the matched frame -- discarding it and any frame pushed above it
// -- and returns cont=false so the dispatcher falls through to the next
// statement. ok=false means the stack holds no FOR frame at all, or the
// topmost one is for another variable.
func (in *Interpreter) doNext(v byte) (resumeLine, resumeTxt uint32, cont bool, ok bool) {
	for i := len(in.stack) - 1; i >= 0; i-- {
		f, isFor := in.stack[i].(forFrame)
		if !isFor {
			continue
		}
		if f.Var != v {
			return 0, 0, false, false
		}

		next := in.GetVar(v) + f.Step
		in.SetVar(v, next)

		looping := (f.Step > 0 && next <= f.Terminal) || (f.Step < 0 && next >= f.Terminal)
		if looping {
			return f.ResumeLine, f.ResumeTxt, true, true
		}

		// Loop exit collapses the stack back to immediately below the
		// matched frame (spec.md §4.F: "set stack_ptr to the byte
		// immediately after the matched frame"), discarding it and any
		// newer GOSUB frame pushed above it -- a GOSUB inside a loop body
		// that never RETURNed before NEXT closes the loop becomes
		// unreachable, same as the original firmware's flat byte stack.
		var freed uint32
		for j := len(in.stack) - 1; j >= i; j-- {
			freed += in.stack[j].frameSize()
		}
		in.stackPtr += freed
		in.stack = in.stack[:i]
		return 0, 0, false, true
	}
	return 0, 0, false, false
}

// stackDepth reports the number of live frames, for tests.
func (in *Interpreter) stackDepth() int { return len(in.stack) }
