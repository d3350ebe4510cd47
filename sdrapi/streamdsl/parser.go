// Package streamdsl parses the compact stream descriptions the CLI takes,
// e.g. `rx(sc16q11, ch=0, buffers=16, samples=8192, transfers=8,
// timeout=500ms)` or `rx(sc8q7, mimo)`. The DSL only describes the request;
// capability checking stays with the sdrapi constructors.
package streamdsl

import (
	"time"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	ruleWhitespace = lexer.SimpleRule{Name: "Whitespace", Pattern: `[ \t]+`}
	ruleDuration   = lexer.SimpleRule{Name: "Duration", Pattern: `\d+(ns|us|µs|ms|s|m|h)`}
	ruleNumber     = lexer.SimpleRule{Name: "Number", Pattern: `\d+`}
	ruleIdent      = lexer.SimpleRule{Name: "Ident", Pattern: `[a-z][\w\d]*`}
	rulePunct      = lexer.SimpleRule{Name: "Punct", Pattern: `[(),=]`}
)

var specLexer = lexer.MustSimple([]lexer.SimpleRule{
	ruleWhitespace,
	ruleDuration,
	ruleNumber,
	ruleIdent,
	rulePunct,
})

var specParser = participle.MustBuild[Spec](
	participle.Lexer(specLexer),
	participle.UseLookahead(2),
	participle.Elide(ruleWhitespace.Name),
)

// Spec is the raw parse tree of one stream description.
type Spec struct {
	Direction string `parser:"@('rx'|'tx')"`
	Args      []Arg  `parser:"'(' @@ (',' @@)* ')'"`
}

// Arg is either a bare flag (a sample format name or `mimo`) or a
// `name=value` option.
type Arg struct {
	Option *Option `parser:"@@ |"`
	Flag   string  `parser:"@Ident"`
}

// Option is a keyword argument.
type Option struct {
	Name     string    `parser:"@Ident '='"`
	Duration *Duration `parser:"( @Duration"`
	Number   *uint32   `parser:"| @Number )"`
}

// Duration captures a duration literal.
type Duration time.Duration

func (d *Duration) Capture(values []string) error {
	v, err := time.ParseDuration(values[0])
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Parse parses one stream description.
func Parse(input string) (Spec, error) {
	spec, err := specParser.ParseString("", input)
	if err != nil {
		return Spec{}, err
	}
	return *spec, nil
}
