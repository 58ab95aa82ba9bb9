package template

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// ParseErrorKind classifies template parse failures.
type ParseErrorKind string

const (
	// ErrKindMalformedLine is a line that is neither a header, a key
	// assignment, a directive, a comment, nor blank.
	ErrKindMalformedLine ParseErrorKind = "malformed_line"

	// ErrKindUnterminatedConditional is a %if block with no %endif.
	ErrKindUnterminatedConditional ParseErrorKind = "unterminated_conditional"

	// ErrKindUnexpectedDirective is a %elif/%else/%endif outside a block,
	// a nested %if, or an arm after %else.
	ErrKindUnexpectedDirective ParseErrorKind = "unexpected_directive"

	// ErrKindKeyOutsideSection is a key or directive before any header.
	ErrKindKeyOutsideSection ParseErrorKind = "key_outside_section"

	// ErrKindDuplicateSection is a repeated section header.
	ErrKindDuplicateSection ParseErrorKind = "duplicate_section"

	// ErrKindBadPredicate is an unparsable guard predicate.
	ErrKindBadPredicate ParseErrorKind = "bad_predicate"
)

// ParseError is a positioned template syntax error. Parsing stops at the
// first error; a malformed template cannot be meaningfully continued.
type ParseError struct {
	Kind     ParseErrorKind `json:"kind"`
	Pos      Position       `json:"pos"`
	Fragment string         `json:"fragment,omitempty"`
	Message  string         `json:"message"`
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Fragment != "" {
		return fmt.Sprintf("%s:%d: %s: %q", e.Pos.Source, e.Pos.Line, e.Message, e.Fragment)
	}
	return fmt.Sprintf("%s:%d: %s", e.Pos.Source, e.Pos.Line, e.Message)
}

// ParseFile reads and parses a template file.
func ParseFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse parses template text. The source name is used in error positions.
func Parse(source string, data []byte) (*Template, error) {
	p := &parser{source: source}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		p.line++
		if err := p.consume(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan template %s: %w", source, err)
	}
	if p.cond != nil {
		return nil, &ParseError{
			Kind:    ErrKindUnterminatedConditional,
			Pos:     p.cond.Pos,
			Message: "%if block is never closed with %endif",
		}
	}
	return &Template{Source: source, Sections: p.sections}, nil
}

// parser tracks line-by-line state: the open section and, when inside a
// %if block, the block being accumulated.
type parser struct {
	source   string
	line     int
	sections []*SectionTemplate
	current  *SectionTemplate
	cond     *Conditional
	sawElse  bool
}

func (p *parser) pos() Position {
	return Position{Source: p.source, Line: p.line}
}

func (p *parser) errf(kind ParseErrorKind, fragment, format string, args ...interface{}) error {
	return &ParseError{
		Kind:     kind,
		Pos:      p.pos(),
		Fragment: fragment,
		Message:  fmt.Sprintf(format, args...),
	}
}

func (p *parser) consume(raw string) error {
	line := strings.TrimSpace(raw)
	switch {
	case line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";"):
		return nil
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return p.consumeHeader(line)
	case strings.HasPrefix(line, "%"):
		return p.consumeDirective(line)
	default:
		return p.consumeKey(line)
	}
}

func (p *parser) consumeHeader(line string) error {
	if p.cond != nil {
		return p.errf(ErrKindUnterminatedConditional, line,
			"section header inside %%if block opened at line %d", p.cond.Pos.Line)
	}
	header := strings.TrimSpace(line[1 : len(line)-1])
	if header == "" {
		return p.errf(ErrKindMalformedLine, line, "empty section header")
	}
	kind, name := header, ""
	if i := strings.IndexAny(header, " \t"); i >= 0 {
		kind, name = header[:i], strings.TrimSpace(header[i:])
	}
	for _, sec := range p.sections {
		if sec.Kind == kind && sec.Name == name {
			return p.errf(ErrKindDuplicateSection, line,
				"section [%s] already declared at line %d", header, sec.Pos.Line)
		}
	}
	p.current = &SectionTemplate{Kind: kind, Name: name, Pos: p.pos()}
	p.sections = append(p.sections, p.current)
	return nil
}

func (p *parser) consumeDirective(line string) error {
	if p.current == nil {
		return p.errf(ErrKindKeyOutsideSection, line, "directive before any section header")
	}
	word := line
	rest := ""
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		word, rest = line[:i], strings.TrimSpace(line[i:])
	}
	switch word {
	case "%if":
		if p.cond != nil {
			return p.errf(ErrKindUnexpectedDirective, line, "nested %%if is not supported")
		}
		guard, err := p.parseGuard(rest, line)
		if err != nil {
			return err
		}
		p.cond = &Conditional{Pos: p.pos(), Branches: []Branch{{Guard: guard}}}
		p.sawElse = false
		return nil
	case "%elif":
		if p.cond == nil {
			return p.errf(ErrKindUnexpectedDirective, line, "%%elif outside %%if block")
		}
		if p.sawElse {
			return p.errf(ErrKindUnexpectedDirective, line, "%%elif after %%else")
		}
		guard, err := p.parseGuard(rest, line)
		if err != nil {
			return err
		}
		p.cond.Branches = append(p.cond.Branches, Branch{Guard: guard})
		return nil
	case "%else":
		if p.cond == nil {
			return p.errf(ErrKindUnexpectedDirective, line, "%%else outside %%if block")
		}
		if p.sawElse {
			return p.errf(ErrKindUnexpectedDirective, line, "duplicate %%else")
		}
		p.sawElse = true
		p.cond.Branches = append(p.cond.Branches, Branch{})
		return nil
	case "%endif":
		if p.cond == nil {
			return p.errf(ErrKindUnexpectedDirective, line, "%%endif outside %%if block")
		}
		p.current.Entries = append(p.current.Entries, Entry{Cond: p.cond})
		p.cond = nil
		return nil
	default:
		return p.errf(ErrKindUnexpectedDirective, line, "unknown directive %s", word)
	}
}

func (p *parser) consumeKey(line string) error {
	if p.current == nil {
		return p.errf(ErrKindKeyOutsideSection, line, "key assignment before any section header")
	}
	i := strings.Index(line, "=")
	if i <= 0 {
		return p.errf(ErrKindMalformedLine, line, "expected key = value")
	}
	key := strings.TrimSpace(line[:i])
	if key == "" {
		return p.errf(ErrKindMalformedLine, line, "expected key = value")
	}
	kl := KeyLine{Name: key, Value: strings.TrimSpace(line[i+1:]), Pos: p.pos()}
	if p.cond != nil {
		last := len(p.cond.Branches) - 1
		p.cond.Branches[last].Lines = append(p.cond.Branches[last].Lines, kl)
		return nil
	}
	p.current.Entries = append(p.current.Entries, Entry{Key: &kl})
	return nil
}

// parseGuard parses a %if/%elif predicate: either `region ~ <prefix>*` or a
// bare variable name tested for presence.
func (p *parser) parseGuard(pred, line string) (*Guard, error) {
	if pred == "" {
		return nil, p.errf(ErrKindBadPredicate, line, "missing predicate")
	}
	if region, ok := strings.CutPrefix(pred, "region ~"); ok {
		pattern := strings.TrimSpace(region)
		prefix, ok := strings.CutSuffix(pattern, "*")
		if !ok || prefix == "" {
			return nil, p.errf(ErrKindBadPredicate, line,
				"region predicate must be a prefix glob like cn-*")
		}
		return &Guard{RegionPrefix: prefix}, nil
	}
	if strings.ContainsAny(pred, " \t~=") {
		return nil, p.errf(ErrKindBadPredicate, line,
			"predicate must be `region ~ <prefix>*` or a variable name")
	}
	return &Guard{Var: pred}, nil
}
