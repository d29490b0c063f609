package css

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"
	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"

	"spritegen/config"
	"spritegen/sprite"
)

// Rule is a set of values available to rule template.
type Rule struct {
	Index    int    // position in the sheet starting with 0
	Name     string // source name
	Selector string // class name without leading dot
	Image    string // sheet file name escaped for use in CSS string
	Left     int    // horizontal offset of the image in the sheet
	X        int    // background-position-x, always -Left
	Y        int    // background-position-y, always 0
	Width    int
	Height   int
}

// DuplicateNameError is returned when two sources map to the same selector.
type DuplicateNameError struct {
	Selector string
	First    string
	Second   string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("images (%s) and (%s) map to the same selector .%s", e.First, e.Second, e.Selector)
}

// Generator turns placements into stylesheet text.
type Generator struct {
	tmpl   *template.Template
	prefix string
	log    *zap.Logger
}

func NewGenerator(cfg *config.StylesheetConfig, log *zap.Logger) (*Generator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	tmpl, err := template.New(string(config.RuleTemplateFieldName)).Funcs(sprig.FuncMap()).Parse(cfg.RuleTemplate)
	if err != nil {
		return nil, fmt.Errorf("unable to parse template field %s: %w", config.RuleTemplateFieldName, err)
	}
	return &Generator{tmpl: tmpl, prefix: cfg.SelectorPrefix, log: log.Named("css")}, nil
}

// Rules builds template values for placements, in the same order.
func (g *Generator) Rules(placements []sprite.Placement, sheetName string) ([]Rule, error) {
	rules := make([]Rule, len(placements))
	seen := make(map[string]string, len(placements))

	for i, p := range placements {
		sel, err := g.selector(p.Name)
		if err != nil {
			return nil, err
		}
		if first, exists := seen[sel]; exists {
			return nil, &DuplicateNameError{Selector: sel, First: first, Second: p.Name}
		}
		seen[sel] = p.Name

		rules[i] = Rule{
			Index:    i,
			Name:     p.Name,
			Selector: sel,
			Image:    escapeString(sheetName),
			Left:     p.Left,
			X:        -p.Left,
			Y:        0,
			Width:    p.Width,
			Height:   p.Height,
		}
	}
	return rules, nil
}

// Generate returns stylesheet with one rule per placement, each rule on its
// own line.
func (g *Generator) Generate(placements []sprite.Placement, sheetName string) ([]byte, error) {
	rules, err := g.Rules(placements, sheetName)
	if err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	for _, r := range rules {
		if err := g.tmpl.Execute(buf, r); err != nil {
			return nil, fmt.Errorf("unable to expand rule for (%s): %w", r.Name, err)
		}
		buf.WriteByte('\n')
	}

	count, err := countRulesets(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("generated stylesheet is malformed: %w", err)
	}
	if count != len(rules) {
		return nil, fmt.Errorf("rule template produced %d rulesets for %d images", count, len(rules))
	}

	g.log.Debug("Stylesheet generated", zap.Int("rules", len(rules)), zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

// selector derives class name from source name.
func (g *Generator) selector(name string) (string, error) {
	base := path.Base(filepath.ToSlash(name))
	base = strings.TrimSuffix(base, path.Ext(base))

	s := slug.Make(base)
	if len(s) == 0 {
		return "", fmt.Errorf("unable to derive selector from (%s)", name)
	}
	s = g.prefix + s
	if isIdent(s) {
		return s, nil
	}
	// identifiers cannot start with digit or hyphen followed by digit
	if s = "_" + s; isIdent(s) {
		return s, nil
	}
	return "", fmt.Errorf("unable to derive valid selector from (%s), got %q", name, s)
}

// isIdent reports whether s is a single CSS identifier.
func isIdent(s string) bool {
	l := css.NewLexer(parse.NewInput(strings.NewReader(s)))
	tt, data := l.Next()
	if tt != css.IdentToken || string(data) != s {
		return false
	}
	tt, _ = l.Next()
	return tt == css.ErrorToken
}

// countRulesets parses stylesheet and returns number of rulesets in it.
func countRulesets(data []byte) (int, error) {
	p := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)
	count := 0
	for {
		gt, _, _ := p.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := p.Err(); err != nil && !errors.Is(err, io.EOF) {
				return count, err
			}
			return count, nil
		case css.BeginRulesetGrammar:
			count++
		}
	}
}

// escapeString escapes s for use inside quoted CSS string.
func escapeString(s string) string {
	if !strings.ContainsAny(s, `"'\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '\\', '"', '\'':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
