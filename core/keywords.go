package core

import "bytes"

// keywordTable is a longest-match keyword recognizer over an upper-cased
// byte buffer. spec.md §4.A describes the table as a concatenation of
// zero-terminated, high-bit-tagged entries; here each entry is simply a
// string, pre-sorted so that whenever one keyword is a prefix of another
// the longer one is listed first — the same longest-match guarantee without
// needing a packed byte encoding to get there.
type keywordTable struct {
	entries []string
}

// match attempts to recognize one of the table's entries starting at pos in
// buf (which must already be upper-cased outside quotes, per §4.G). On a
// full match it returns the entry's ordinal, the position just past the
// keyword and any trailing spaces, and true. On no match it returns pos
// unchanged and false.
func (t keywordTable) match(buf []byte, pos int) (ordinal int, next int, ok bool) {
	for i, entry := range t.entries {
		n := len(entry)
		if pos+n > len(buf) {
			continue
		}
		if !bytes.Equal(buf[pos:pos+n], []byte(entry)) {
			continue
		}
		end := pos + n
		// A keyword match must not be a prefix of a longer identifier
		// (e.g. "OR" inside "ORANGE"); reject if the next byte continues
		// an identifier-like run of letters/digits and the entry itself
		// ends in a letter or digit.
		if isWordByte(entry[n-1]) && end < len(buf) && isWordByte(buf[end]) {
			continue
		}
		for end < len(buf) && buf[end] == ' ' {
			end++
		}
		return i, end, true
	}
	return 0, pos, false
}

func isWordByte(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// Relational operators. Order matters: >= before >, <> and <= before <, so
// the matcher prefers the longer token, per spec.md §4.A.
type relop int

const (
	relopGE relop = iota
	relopNE
	relopGT
	relopEQ
	relopLE
	relopLT
	relopNE2 // "!=", a second spelling of <>
)

var relopTable = keywordTable{entries: []string{
	">=", "<>", ">", "=", "<=", "<", "!=",
}}

var relopKind = []relop{relopGE, relopNE, relopGT, relopEQ, relopLE, relopLT, relopNE2}

// forTo / forStep are the two small keyword sets used only inside a FOR
// statement's own grammar.
var forToTable = keywordTable{entries: []string{"TO"}}
var forStepTable = keywordTable{entries: []string{"STEP"}}

// command ordinals, one per row of spec.md §4.E plus SPEC_FULL.md's
// restored screen/audio/pin/EEPROM/serial statements. Order in
// commandTable.entries must keep any keyword that is a prefix of another
// listed first-longer, e.g. "PINDWRITE" before "PINDIR" is not a prefix
// relationship so order there doesn't matter, but "STOP"/"SOUNDSTOP" do not
// collide since SOUNDSTOP is spelled out in full (see SPEC_FULL.md).
type command int

const (
	cmdREM command = iota
	cmdHashComment
	cmdTickComment
	cmdLET
	cmdIF
	cmdGOTO
	cmdGOSUB
	cmdRETURN
	cmdFOR
	cmdNEXT
	cmdINPUT
	cmdPOKE
	cmdPRINT
	cmdPRINTAlias
	cmdLIST
	cmdMEM
	cmdNEW
	cmdRUN
	cmdEND
	cmdSTOP
	cmdRANDOMIZE
	cmdRNDSEED
	cmdDELAY
	cmdCLS
	cmdCOLOR
	cmdPAPER
	cmdLOCATE
	cmdPSET
	cmdPLAY
	cmdSOUNDSTOP
	cmdTEMPO
	cmdMUSIC
	cmdPINDIR
	cmdPINDWRITE
	cmdELIST
	cmdEFORMAT
	cmdELOAD
	cmdESAVE
	cmdSLOAD
	cmdSSAVE
)

var commandTable = keywordTable{entries: []string{
	"REM", "#", "'",
	"LET", "IF", "GOTO", "GOSUB", "RETURN", "FOR", "NEXT", "INPUT", "POKE",
	"PRINT", "?", "LIST", "MEM", "NEW", "RUN", "END", "STOP",
	"RANDOMIZE", "RNDSEED", "DELAY",
	"CLS", "COLOR", "PAPER", "LOCATE", "PSET",
	"PLAY", "SOUNDSTOP", "TEMPO", "MUSIC",
	"PINDIR", "PINDWRITE",
	"ELIST", "EFORMAT", "ELOAD", "ESAVE", "SLOAD", "SSAVE",
}}

// function ordinals, per spec.md §4.D's built-in function table.
type function int

const (
	fnPEEK function = iota
	fnABS
	fnRND
	fnPINDREAD
	fnPINAREAD
)

var functionTable = keywordTable{entries: []string{
	"PEEK", "ABS", "RND", "PINDREAD", "PINAREAD",
}}
