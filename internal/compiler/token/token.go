// Package token defines the closed set of lexical categories the Arcana
// lexer produces and the lookup tables used to reclassify a raw
// identifier into a keyword, type, control label, or special word.
package token

// Kind tags a Token with its lexical category. For identifier-shaped
// tokens (KW, TYPE, CTRL, SP, SECTION) the category is coarse and the
// exact word lives in Literal; operators, punctuation, and literal
// kinds are each their own Kind so the parser can switch on Kind alone.
type Kind string

const (
	// Reclassified identifier categories (see Classify).
	KW      Kind = "KW"      // FCON, VCON, CCON, PRINCIPIUM, SI, VERUM, FALSUM, RECURSIO, REDITUS
	TYPE    Kind = "TYPE"    // inte, real, verum, filum, ordinata, catalogus
	CTRL    Kind = "CTRL"    // effigium, proximum, et, aut, non, propositio, quota, acceleratio
	SP      Kind = "SP"      // nihil
	SECTION Kind = "SECTION" // <FONS>, </FONS>, <INTRODUCTIO>, </INTRODUCTIO>, <DOCTRINA>, </DOCTRINA>, <cmt>, </cmt>
	CANTUS  Kind = "CANTUS"  // cantus
	IDENT   Kind = "IDENT"

	// Literals.
	INT    Kind = "INT"
	REAL   Kind = "REAL"
	STRING Kind = "STRING"

	// Multi-character operators (matched before their single-char prefixes).
	ARROW    Kind = "->"
	FLOW     Kind = "<-"
	NOT_EQ   Kind = "><"
	GT_EQ    Kind = ">="
	LT_EQ    Kind = "<="
	EQ       Kind = "=="
	POW      Kind = "**"
	ASSIGN   Kind = "="
	PLUS     Kind = "+"
	MINUS    Kind = "-"
	ASTERISK Kind = "*"
	SLASH    Kind = "/"
	PERCENT  Kind = "%"
	LT       Kind = "<"
	GT       Kind = ">"

	COLON     Kind = ":"
	SEMICOLON Kind = ";"
	COMMA     Kind = ","
	LPAREN    Kind = "("
	RPAREN    Kind = ")"
	LBRACE    Kind = "{"
	RBRACE    Kind = "}"
	LBRACKET  Kind = "["
	RBRACKET  Kind = "]"

	EOF      Kind = "EOF"
	MISMATCH Kind = "MISMATCH"
)

// Position is a 1-based line/column/byte-offset location in source text.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Token is the unit the lexer produces: a category, the matched lexeme
// (quotes already stripped for STRING), and the position it started at.
type Token struct {
	Kind    Kind
	Literal string
	Pos     Position
}

// keywords, case-sensitive. SI/VERUM/FALSUM introduce if-statement
// clauses; they are never boolean literals (Arcana has no boolean
// literal syntax — booleans only arise from comparisons or the verum()
// cast).
var keywords = map[string]bool{
	"FCON":       true,
	"VCON":       true,
	"CCON":       true,
	"PRINCIPIUM": true,
	"SI":         true,
	"VERUM":      true,
	"FALSUM":     true,
	"RECURSIO":   true,
	"REDITUS":    true,
}

// types, case-sensitive lowercase — distinct from the uppercase
// keyword spellings above (VERUM the keyword vs. verum the type/cast).
var types = map[string]bool{
	"inte":      true,
	"real":      true,
	"verum":     true,
	"filum":     true,
	"ordinata":  true,
	"catalogus": true,
}

var ctrlLabels = map[string]bool{
	"effigium":     true,
	"proximum":     true,
	"et":           true,
	"aut":          true,
	"non":          true,
	"propositio":   true,
	"quota":        true,
	"acceleratio":  true,
}

// SectionTags lists the canonical section-tag spellings. The lexer
// scans section tags as whole literals before generic '<'/'>' token
// matching, using its own literal list in trySectionTag rather than this
// variable; Classify is not consulted for them.
var SectionTags = []string{
	"<FONS>", "</FONS>",
	"<INTRODUCTIO>", "</INTRODUCTIO>",
	"<DOCTRINA>", "</DOCTRINA>",
	"<cmt>", "</cmt>",
}

// Classify reclassifies a scanned identifier into its final Kind,
// following the fixed precedence order from the specification: keyword,
// then the special word nihil, then type, then control label, then the
// cantus marker, else a plain identifier.
func Classify(ident string) Kind {
	switch {
	case keywords[ident]:
		return KW
	case ident == "nihil":
		return SP
	case types[ident]:
		return TYPE
	case ctrlLabels[ident]:
		return CTRL
	case ident == "cantus":
		return CANTUS
	default:
		return IDENT
	}
}
