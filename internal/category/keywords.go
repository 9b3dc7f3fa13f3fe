package category

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Rule maps description keywords to a category.
type Rule struct {
	Category string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// rulesFile is the YAML layout of a keyword table file.
type rulesFile struct {
	Categories []Rule `yaml:"categories"`
}

// Categorizer assigns a category by substring match of folded keywords against a folded
// description. Rules are checked in order; the first hit wins.
type Categorizer struct {
	rules    []Rule
	fallback string
}

// NewCategorizer builds a Categorizer. Keywords are folded once here.
func NewCategorizer(rules []Rule, fallback string) *Categorizer {
	if fallback == "" {
		fallback = Other
	}
	folded := make([]Rule, 0, len(rules))
	for _, r := range rules {
		fr := Rule{Category: r.Category}
		for _, k := range r.Keywords {
			if k = Fold(k); k != "" {
				fr.Keywords = append(fr.Keywords, k)
			}
		}
		folded = append(folded, fr)
	}
	return &Categorizer{rules: folded, fallback: fallback}
}

// DefaultCategorizer uses DefaultRules with Other as fallback.
func DefaultCategorizer() *Categorizer {
	return NewCategorizer(DefaultRules(), Other)
}

// Categorize returns the category for a description.
func (c *Categorizer) Categorize(description string) string {
	desc := Fold(description)
	for _, r := range c.rules {
		for _, k := range r.Keywords {
			if strings.Contains(desc, k) {
				return r.Category
			}
		}
	}
	return c.fallback
}

// Categories returns the categories the table can produce, fallback last.
func (c *Categorizer) Categories() []string {
	out := make([]string, 0, len(c.rules)+1)
	for _, r := range c.rules {
		out = append(out, r.Category)
	}
	return append(out, c.fallback)
}

// LoadRules reads a keyword table:
//
//	categories:
//	  - name: Transport
//	    keywords: [uber, posto]
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading category rules: %w", err)
	}
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing category rules: %w", err)
	}
	for i, r := range f.Categories {
		if strings.TrimSpace(r.Category) == "" {
			return nil, fmt.Errorf("category rule %d: name is required", i+1)
		}
	}
	return f.Categories, nil
}

// SaveRules writes a keyword table in the layout LoadRules reads.
func SaveRules(path string, rules []Rule) error {
	data, err := yaml.Marshal(rulesFile{Categories: rules})
	if err != nil {
		return fmt.Errorf("marshaling category rules: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing category rules: %w", err)
	}
	return nil
}

// Fold lower-cases s, strips accents and trims it: "Lançamento " -> "lancamento".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}
