package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Ident represents an identifier token.
	Ident
	// Number is an unsigned integer literal.
	Number
	// Char is a quoted character literal.
	Char

	KwProgram
	KwConst
	KwType
	KwVar
	KwInteger
	KwChar
	KwArray
	KwOf
	KwFunction
	KwProcedure
	KwBegin
	KwEnd
	KwCall
	KwIf
	KwThen
	KwElse
	KwWhile
	KwDo
	KwFor
	KwTo
)

var kindNames = [...]string{
	Invalid:     "Invalid",
	EOF:         "EOF",
	Ident:       "Ident",
	Number:      "Number",
	Char:        "Char",
	KwProgram:   "PROGRAM",
	KwConst:     "CONST",
	KwType:      "TYPE",
	KwVar:       "VAR",
	KwInteger:   "INTEGER",
	KwChar:      "CHAR",
	KwArray:     "ARRAY",
	KwOf:        "OF",
	KwFunction:  "FUNCTION",
	KwProcedure: "PROCEDURE",
	KwBegin:     "BEGIN",
	KwEnd:       "END",
	KwCall:      "CALL",
	KwIf:        "IF",
	KwThen:      "THEN",
	KwElse:      "ELSE",
	KwWhile:     "WHILE",
	KwDo:        "DO",
	KwFor:       "FOR",
	KwTo:        "TO",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Invalid"
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool { return k >= KwProgram && k <= KwTo }
