package parser

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// tokenLexer tokenizes Cypher source text: a lexer.MustSimple built from
// ordered regex rules, with a Whitespace rule later elided. The
// expression/clause grammar itself is hand-written recursive descent rather
// than a declarative struct-tag grammar, since Cypher's operator precedence
// and pattern syntax don't map cleanly onto that style.
var tokenLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "Param", Pattern: `\$[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Float", Pattern: `\d+\.\d+`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "String", Pattern: `'([^'\\]|\\.)*'|"([^"\\]|\\.)*"`},
	{Name: "Backtick", Pattern: "`([^`\\\\]|\\\\.)*`"},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Arrow", Pattern: `->`},
	{Name: "Op", Pattern: `=~|<>|<=|>=|\.\.|::|[-+*/%^=<>.,()\[\]{}:|;]`},
}...)

// StripComments removes `--` line comments and `/* ... */` block comments
// from Cypher source text before (or during) parsing. `#` is NOT treated as
// a comment marker in this dialect, so a literal `#` is left untouched for
// the lexer to reject or accept as part of an identifier/operator
// downstream.
func StripComments(text string) string {
	var b strings.Builder
	runes := []rune(text)
	n := len(runes)
	inString := rune(0)
	for i := 0; i < n; i++ {
		c := runes[i]
		if inString != 0 {
			b.WriteRune(c)
			if c == '\\' && i+1 < n {
				i++
				b.WriteRune(runes[i])
				continue
			}
			if c == inString {
				inString = 0
			}
			continue
		}
		switch {
		case c == '\'' || c == '"' || c == '`':
			inString = c
			b.WriteRune(c)
		case c == '-' && i+1 < n && runes[i+1] == '-':
			for i < n && runes[i] != '\n' {
				i++
			}
			if i < n {
				b.WriteRune('\n')
			}
		case c == '/' && i+1 < n && runes[i+1] == '*':
			i += 2
			for i+1 < n && !(runes[i] == '*' && runes[i+1] == '/') {
				i++
			}
			i++ // land on the closing '/'
			b.WriteRune(' ')
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// tokenize lexes already comment-stripped Cypher text into a flat token
// slice, discarding whitespace.
func tokenize(text string) ([]lexer.Token, error) {
	lx, err := tokenLexer.Lex("", strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	toks, err := lexer.ConsumeAll(lx)
	if err != nil {
		return nil, err
	}
	out := toks[:0]
	for _, t := range toks {
		if t.Type == tokenLexer.Symbols()["Whitespace"] {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}
