// Package assembly implements LLHD's textual assembly form: a printer
// from an in-memory module to source text and a recursive-descent
// parser back, grounded on the original crate's assembly.rs writer and
// built on a hand-rolled lexer.
package assembly

// TokenType identifies the lexical class of a Token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIllegal

	TokenIdent  // bare identifier: block labels, opcodes, keywords
	TokenLocal  // %ident
	TokenGlobal // @ident
	TokenInt    // 42
	TokenTime   // 10ns, 0s, 500ps
	TokenDelta  // 2d
	TokenEpsilon

	// Keywords
	TokenDeclare
	TokenFunc
	TokenProc
	TokenEntity
	TokenVoid
	TokenTime_
	TokenConst

	// Delimiters
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenComma
	TokenColon
	TokenSemicolon
	TokenEquals
	TokenStar
	TokenDollar
	TokenArrow // ->
	TokenX     // the 'x' separator in "[N x T]"
)

var tokenNames = map[TokenType]string{
	TokenEOF: "EOF", TokenIllegal: "ILLEGAL",
	TokenIdent: "IDENT", TokenLocal: "LOCAL", TokenGlobal: "GLOBAL",
	TokenInt: "INT", TokenTime: "TIME", TokenDelta: "DELTA", TokenEpsilon: "EPSILON",
	TokenDeclare: "declare", TokenFunc: "func", TokenProc: "proc",
	TokenEntity: "entity", TokenVoid: "void", TokenTime_: "time", TokenConst: "const",
	TokenLParen: "(", TokenRParen: ")", TokenLBrace: "{", TokenRBrace: "}",
	TokenLBracket: "[", TokenRBracket: "]", TokenComma: ",", TokenColon: ":",
	TokenSemicolon: ";", TokenEquals: "=", TokenStar: "*", TokenDollar: "$",
	TokenArrow: "->", TokenX: "x",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return "?"
}

var keywords = map[string]TokenType{
	"declare": TokenDeclare,
	"func":    TokenFunc,
	"proc":    TokenProc,
	"entity":  TokenEntity,
	"void":    TokenVoid,
	"time":    TokenTime_,
	"const":   TokenConst,
}

// LookupIdent classifies word as a keyword token or a plain identifier
// (an opcode mnemonic or block label).
func LookupIdent(word string) TokenType {
	if tok, ok := keywords[word]; ok {
		return tok
	}
	return TokenIdent
}

// Token is one lexical unit, carrying its source position so parse
// errors can report a line and column.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}
