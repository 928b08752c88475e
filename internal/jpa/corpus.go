package jpa

import (
	"path"
	"regexp"
	"sort"
	"strings"
)

// Corpus maps a unit name (usually a slash path) to its raw source text.
// It is read-only for the parser and safe to share between calls.
type Corpus map[string]string

// Names returns the unit names in sorted order.
func (c Corpus) Names() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Declaring находит единицу, в которой объявлен тип typeName.
// Сначала пробуем файл с таким же базовым именем (CreditCard.java), затем
// все единицы по порядку имён.
func (c Corpus) Declaring(typeName string) (unit, text string, ok bool) {
	if len(c) == 0 || typeName == "" {
		return "", "", false
	}
	re := declRe(typeName)
	names := c.Names()

	for _, name := range names {
		base := path.Base(strings.ReplaceAll(name, `\`, "/"))
		base = strings.TrimSuffix(base, path.Ext(base))
		if base != typeName {
			continue
		}
		if src := StripComments(c[name]); re.MatchString(src) {
			return name, c[name], true
		}
	}
	for _, name := range names {
		if re.MatchString(StripComments(c[name])) {
			return name, c[name], true
		}
	}
	return "", "", false
}

func declRe(typeName string) *regexp.Regexp {
	return regexp.MustCompile(`\b(class|record)\s+(` + regexp.QuoteMeta(typeName) + `)\b`)
}
