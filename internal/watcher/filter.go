package watcher

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/brianly1003/lrd/internal/domain"
	"github.com/gobwas/glob"
)

// Syntax selects how exclusion patterns are compiled.
type Syntax string

const (
	// SyntaxRegexp treats patterns as regular expressions that must match
	// the whole relative path.
	SyntaxRegexp Syntax = "regexp"

	// SyntaxGlob treats patterns as globs where '*' stops at '/' and '**'
	// crosses directories.
	SyntaxGlob Syntax = "glob"
)

// ParseSyntax validates a syntax name. An empty name selects SyntaxRegexp.
func ParseSyntax(name string) (Syntax, error) {
	switch Syntax(strings.ToLower(strings.TrimSpace(name))) {
	case "", SyntaxRegexp:
		return SyntaxRegexp, nil
	case SyntaxGlob:
		return SyntaxGlob, nil
	default:
		return "", fmt.Errorf("unknown pattern syntax %q (want regexp or glob)", name)
	}
}

// Pattern matches a complete root-relative, slash-separated path.
type Pattern interface {
	Match(relPath string) bool
	String() string
}

type regexpPattern struct {
	source string
	re     *regexp.Regexp
}

func (p *regexpPattern) Match(relPath string) bool { return p.re.MatchString(relPath) }
func (p *regexpPattern) String() string            { return p.source }

type globPattern struct {
	source string
	g      glob.Glob
}

func (p *globPattern) Match(relPath string) bool { return p.g.Match(relPath) }
func (p *globPattern) String() string            { return p.source }

// CompileRegexp compiles a regular expression anchored at both ends, so
// ".*\.tmp" matches "build.tmp" but not "build.tmp.bak".
func CompileRegexp(source string) (Pattern, error) {
	re, err := regexp.Compile(`^(?:` + source + `)$`)
	if err != nil {
		return nil, &domain.PatternError{Pattern: source, Syntax: string(SyntaxRegexp), Err: err}
	}
	return &regexpPattern{source: source, re: re}, nil
}

// CompileGlob compiles a glob using '/' as the path separator.
func CompileGlob(source string) (Pattern, error) {
	g, err := glob.Compile(source, '/')
	if err != nil {
		return nil, &domain.PatternError{Pattern: source, Syntax: string(SyntaxGlob), Err: err}
	}
	return &globPattern{source: source, g: g}, nil
}

// Filter is an ordered, immutable list of exclusion patterns. A nil *Filter
// excludes nothing. Replace a Watcher's filter with SetPatterns rather than
// mutating one in place.
type Filter struct {
	patterns []Pattern
}

// NewFilter compiles sources with the given syntax. Blank entries are ignored.
func NewFilter(syntax Syntax, sources []string) (*Filter, error) {
	compile := CompileRegexp
	if syntax == SyntaxGlob {
		compile = CompileGlob
	}

	f := &Filter{patterns: make([]Pattern, 0, len(sources))}
	for _, source := range sources {
		if strings.TrimSpace(source) == "" {
			continue
		}
		p, err := compile(source)
		if err != nil {
			return nil, err
		}
		f.patterns = append(f.patterns, p)
	}
	return f, nil
}

// NewFilterFromPatterns builds a filter from already compiled patterns.
func NewFilterFromPatterns(patterns ...Pattern) *Filter {
	return &Filter{patterns: append([]Pattern(nil), patterns...)}
}

// Excluded returns the first pattern that fully matches relPath.
func (f *Filter) Excluded(relPath string) (Pattern, bool) {
	if f == nil {
		return nil, false
	}
	for _, p := range f.patterns {
		if p.Match(relPath) {
			return p, true
		}
	}
	return nil, false
}

// ShouldNotify reports whether a change to relPath passes the filter.
func (f *Filter) ShouldNotify(relPath string) bool {
	_, excluded := f.Excluded(relPath)
	return !excluded
}

// Len returns the number of patterns.
func (f *Filter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.patterns)
}

// Patterns returns the pattern sources in evaluation order.
func (f *Filter) Patterns() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.patterns))
	for i, p := range f.patterns {
		out[i] = p.String()
	}
	return out
}
