package core

// Expression evaluator: a four-level recursive-descent parser over
// relational / additive / multiplicative / primary (spec.md §4.D). Every
// level bails out immediately if an error is already pending, so a deeply
// nested failure unwinds to the dispatcher without ever needing a non-local
// transfer -- the propagation policy from spec.md §7.

// evalExpr parses and evaluates a full expression (the "cmp" grammar rule).
func (in *Interpreter) evalExpr() int16 {
	lhs := in.evalAdd()
	if in.errCode != ErrNone {
		return lhs
	}
	in.skipSpaces()
	if ord, ok := in.matchKeyword(relopTable); ok {
		rhs := in.evalAdd()
		if in.errCode != ErrNone {
			return 0
		}
		return boolToI16(compareRelop(relopKind[ord], lhs, rhs))
	}
	return lhs
}

func compareRelop(op relop, lhs, rhs int16) bool {
	switch op {
	case relopGE:
		return lhs >= rhs
	case relopNE, relopNE2:
		return lhs != rhs
	case relopGT:
		return lhs > rhs
	case relopEQ:
		return lhs == rhs
	case relopLE:
		return lhs <= rhs
	case relopLT:
		return lhs < rhs
	}
	return false
}

func boolToI16(b bool) int16 {
	if b {
		return 1
	}
	return 0
}

func (in *Interpreter) evalAdd() int16 {
	neg := false
	in.skipSpaces()
	switch in.current() {
	case '+':
		in.advance()
	case '-':
		neg = true
		in.advance()
	}

	v := in.evalMul()
	if in.errCode != ErrNone {
		return v
	}
	if neg {
		v = -v
	}

	for {
		in.skipSpaces()
		switch in.current() {
		case '+':
			in.advance()
			rhs := in.evalMul()
			if in.errCode != ErrNone {
				return 0
			}
			v += rhs
		case '-':
			in.advance()
			rhs := in.evalMul()
			if in.errCode != ErrNone {
				return 0
			}
			v -= rhs
		default:
			return v
		}
	}
}

func (in *Interpreter) evalMul() int16 {
	v := in.evalPrimary()
	if in.errCode != ErrNone {
		return 0
	}
	for {
		in.skipSpaces()
		switch in.current() {
		case '*':
			in.advance()
			rhs := in.evalPrimary()
			if in.errCode != ErrNone {
				return 0
			}
			v *= rhs
		case '/':
			in.advance()
			rhs := in.evalPrimary()
			if in.errCode != ErrNone {
				return 0
			}
			if rhs == 0 {
				in.setError(ErrDivisionByZero)
				return v
			}
			v /= rhs
		default:
			return v
		}
	}
}

func (in *Interpreter) evalPrimary() int16 {
	in.skipSpaces()

	if in.current() == '-' {
		in.advance()
		return -in.evalPrimary()
	}

	if in.current() == '(' {
		in.advance()
		v := in.evalExpr()
		if in.errCode != ErrNone {
			return 0
		}
		if !in.expectByte(')', ErrRightParenMissing) {
			return 0
		}
		return v
	}

	if isDigit(in.current()) {
		return in.scanIntLiteral()
	}

	if fn, ok := in.matchKeyword(functionTable); ok {
		return in.evalFunctionCall(function(fn))
	}

	if isLetter(in.current()) {
		c := in.current()
		if in.txtpos+1 < uint32(len(in.execLine)) && isWordByte(in.execLine[in.txtpos+1]) {
			in.setError(ErrUnexpectedCharacter)
			return 0
		}
		in.advance()
		return in.GetVar(c)
	}

	in.setError(ErrUnexpectedCharacter)
	return 0
}

// scanIntLiteral consumes one numeric literal. A leading '0' terminates the
// literal immediately and yields 0 -- spec.md §4.D: "a leading '0' consumes
// one digit and yields 0."
func (in *Interpreter) scanIntLiteral() int16 {
	if in.current() == '0' {
		in.advance()
		return 0
	}
	var v int32
	for isDigit(in.current()) {
		v = v*10 + int32(in.current()-'0')
		in.advance()
	}
	return int16(v)
}

func (in *Interpreter) evalFunctionCall(fn function) int16 {
	if !in.expectByte('(', ErrLeftParenMissing) {
		return 0
	}
	arg := in.evalExpr()
	if in.errCode != ErrNone {
		return 0
	}
	if !in.expectByte(')', ErrRightParenMissing) {
		return 0
	}

	switch fn {
	case fnPEEK:
		b, err := in.peek(uint32(uint16(arg)))
		if err != nil {
			in.setError(ErrOutOfRange)
			return 0
		}
		return int16(b)

	case fnABS:
		if arg < 0 {
			return -arg // ABS(INT16_MIN) wraps back to INT16_MIN; see DESIGN.md.
		}
		return arg

	case fnRND:
		if arg <= 0 {
			in.setError(ErrOutOfRange)
			return 0
		}
		return int16(in.rng.IntN(int(arg)))

	case fnPINDREAD:
		if in.GPIO == nil {
			in.setError(ErrPinIOError)
			return 0
		}
		high, err := in.GPIO.DigitalRead(int(arg))
		if err != nil {
			in.setError(ErrInvalidPin)
			return 0
		}
		return boolToI16(high)

	case fnPINAREAD:
		if in.GPIO == nil {
			in.setError(ErrPinIOError)
			return 0
		}
		v, err := in.GPIO.AnalogRead(int(arg))
		if err != nil {
			in.setError(ErrInvalidPin)
			return 0
		}
		return int16(v >> 9)
	}

	in.setError(ErrUnknownFunction)
	return 0
}

func isDigit(b byte) bool  { return b >= '0' && b <= '9' }
func isLetter(b byte) bool { return b >= 'A' && b <= 'Z' }
