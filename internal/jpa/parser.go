package jpa

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	entityMarkerRe = regexp.MustCompile(`@(?:[\w$]+\.)*Entity\b`)
	classRe        = regexp.MustCompile(`\b(class|record)\s+([\w$]+)`)
	tableArgsRe    = regexp.MustCompile(`@(?:[\w$]+\.)*Table\s*\(`)
	tableNameRe    = regexp.MustCompile(`(?:^|[\s,(])name\s*=\s*"([^"]*)"`)
	tableBareRe    = regexp.MustCompile(`^\(\s*"([^"]*)"\s*\)$`)

	fieldRe = regexp.MustCompile(
		`^((?:(?:public|protected|private|static|final|transient|volatile)\s+)*)` +
			`([\w$.<>?,\[\]\s]+?)\s+([\w$]+)\s*(?:=\s*[^;]*)?;`)
	accessorRe = regexp.MustCompile(
		`^((?:(?:public|protected|private|static|final|abstract|synchronized)\s+)*)` +
			`([\w$.<>?,\[\]\s]+?)\s+([\w$]+)\s*\(\s*\)`)

	listRe = regexp.MustCompile(`^List<(\w+)>$`)
	setRe  = regexp.MustCompile(`^Set<(\w+)>$`)
	mapRe  = regexp.MustCompile(`^Map<\w+,(\w+)>$`)

	spaceRe = regexp.MustCompile(`\s+`)
)

// Parser извлекает Entity из исходника. Нулевого значения недостаточно,
// создавайте через NewParser.
type Parser struct {
	valueTypes map[string]struct{}
}

// Option настраивает Parser.
type Option func(*Parser)

// WithValueTypes добавляет типы-значения: поля таких типов не дают неявных связей.
func WithValueTypes(types ...string) Option {
	return func(p *Parser) {
		for _, t := range types {
			if t = strings.TrimSpace(t); t != "" {
				p.valueTypes[t] = struct{}{}
			}
		}
	}
}

// NewParser returns a parser seeded with DefaultValueTypes.
func NewParser(opts ...Option) *Parser {
	p := &Parser{valueTypes: make(map[string]struct{})}
	WithValueTypes(DefaultValueTypes()...)(p)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultParser = NewParser()

// Extract runs the default parser. See (*Parser).Extract.
func Extract(content string, corpus Corpus) *Entity {
	return defaultParser.Extract(content, corpus)
}

// Extract возвращает сущность из одного исходника или nil, если в нём нет
// @Entity или имени класса после маркера. corpus (может быть nil) нужен
// только для раскрытия @Embedded полей.
func (p *Parser) Extract(content string, corpus Corpus) *Entity {
	return p.extract(content, corpus, "", map[string]bool{})
}

// extract с непустым typeName ищет объявление именно этого типа и не требует @Entity.
func (p *Parser) extract(content string, corpus Corpus, typeName string, expanding map[string]bool) *Entity {
	src := StripComments(content)

	var keyword, name string
	var declStart, declEnd int
	if typeName == "" {
		m := entityMarkerRe.FindStringIndex(src)
		if m == nil {
			return nil
		}
		loc := classRe.FindStringSubmatchIndex(src[m[1]:])
		if loc == nil {
			return nil
		}
		keyword = src[m[1]+loc[2] : m[1]+loc[3]]
		name = src[m[1]+loc[4] : m[1]+loc[5]]
		declStart, declEnd = m[1]+loc[0], m[1]+loc[1]
	} else {
		loc := declRe(typeName).FindStringSubmatchIndex(src)
		if loc == nil {
			return nil
		}
		keyword, name = src[loc[2]:loc[3]], src[loc[4]:loc[5]]
		declStart, declEnd = loc[0], loc[1]
	}

	b := &builder{
		parser:    p,
		corpus:    corpus,
		expanding: expanding,
		entity:    &Entity{Name: name, Table: tableName(src[:declStart])},
		fieldRel:  map[string]int{},
	}
	expanding[name] = true
	defer delete(expanding, name)

	if keyword == "record" {
		if !b.scanRecord(src[declEnd:]) {
			return nil
		}
		return b.result()
	}

	open := strings.IndexByte(src[declEnd:], '{')
	if open < 0 {
		return nil
	}
	b.scanBody(src[declEnd+open+1:])
	return b.result()
}

// builder держит состояние одного прохода по телу класса.
type builder struct {
	parser    *Parser
	corpus    Corpus
	expanding map[string]bool
	entity    *Entity

	// fieldRel: имя поля -> индекс связи (-1, если связи нет)
	fieldRel map[string]int
	implicit map[int]bool

	depth    int // глубина тела класса, 1 = непосредственно тело
	annDepth int // открытые скобки незакрытой многострочной аннотации

	pending  RelationKind // 0 = нет
	verbatim bool         // @Enumerated в текущей серии аннотаций
	embedded bool         // @Embedded в текущей серии аннотаций
}

func (b *builder) result() *Entity {
	if b.entity.Fields == nil {
		b.entity.Fields = []Field{}
	}
	if b.entity.Relations == nil {
		b.entity.Relations = []Relation{}
	}
	return b.entity
}

func (b *builder) resetMarkers() {
	b.pending = 0
	b.verbatim = false
	b.embedded = false
}

func (b *builder) scanBody(body string) {
	b.depth = 1
	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		lineDepth := b.depth
		if lineDepth != 1 {
			b.resetMarkers()
		}

		rest := line
		if b.annDepth > 0 {
			var end int
			end, b.annDepth = scanBalanced(rest, 0, b.annDepth)
			if b.annDepth > 0 {
				continue
			}
			rest = strings.TrimSpace(rest[end:])
		}

		annots, rest, open := leadingAnnotations(rest)
		b.annDepth = open

		if lineDepth == 1 {
			for _, a := range annots {
				b.annotate(a)
			}
			if rest != "" {
				b.declare(rest)
			}
		}

		b.depth += braceDelta(rest)
		if b.depth <= 0 {
			return
		}
	}
}

// scanRecord разбирает компоненты record Name(A a, B b).
func (b *builder) scanRecord(afterName string) bool {
	start := strings.IndexByte(afterName, '(')
	if start < 0 {
		return false
	}
	end, depth := scanBalanced(afterName, start, 0)
	if depth != 0 {
		return false
	}
	for _, comp := range splitTopLevel(afterName[start+1 : end-1]) {
		b.resetMarkers()
		annots, rest, _ := leadingAnnotations(strings.TrimSpace(comp))
		for _, a := range annots {
			b.annotate(a)
		}
		parts := strings.Fields(rest)
		if len(parts) < 2 {
			continue
		}
		name := parts[len(parts)-1]
		rawType := strings.Join(parts[:len(parts)-1], "")
		b.declareTyped(rawType, name, false)
	}
	return true
}

func (b *builder) annotate(name string) {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	for _, k := range RelationKinds {
		if name == k.String() {
			b.pending = k
			return
		}
	}
	switch {
	case strings.HasPrefix(name, "Enumerated"):
		b.verbatim = true
	case strings.HasPrefix(name, "Embedded"):
		b.embedded = true
	}
}

// declare обрабатывает строку глубины 1 без ведущих аннотаций.
func (b *builder) declare(line string) {
	if m := fieldRe.FindStringSubmatch(line); m != nil {
		if strings.Contains(m[1], "static") {
			b.resetMarkers()
			return
		}
		b.declareTyped(spaceRe.ReplaceAllString(m[2], ""), m[3], false)
		return
	}
	if b.pending != 0 {
		if m := accessorRe.FindStringSubmatch(line); m != nil && m[2] != "void" && !strings.Contains(m[1], "static") {
			b.declareTyped(spaceRe.ReplaceAllString(m[2], ""), propertyName(m[3]), true)
			return
		}
	}
	b.resetMarkers()
}

func (b *builder) declareTyped(rawType, name string, accessor bool) {
	defer b.resetMarkers()

	if b.verbatim || b.embedded {
		if b.embedded && b.expandEmbedded(rawType, name) {
			return
		}
		b.addField(rawType, name)
		return
	}

	elem, kind := unwrap(rawType)
	fieldType, target := rawType, rawType
	if kind != "" {
		fieldType, target = kind+"_"+elem, elem
	}

	var rel *Relation
	implicit := false
	switch {
	case b.pending != 0:
		rel = &Relation{Kind: b.pending, Target: strings.ToUpper(target), Field: name}
	case kind == "List":
		rel = &Relation{Kind: OneToMany, Target: strings.ToUpper(elem), Field: name}
		implicit = true
	case b.parser.isCustomType(rawType):
		rel = &Relation{Kind: ManyToOne, Target: strings.ToUpper(rawType), Field: name}
		implicit = true
	}

	idx, seen := b.fieldRel[name]
	if !seen {
		b.addField(fieldType, name)
		if rel != nil {
			b.addRelation(name, *rel, implicit)
		}
		return
	}

	// поле уже объявлено: явный маркер на геттере уточняет неявную связь
	if !accessor || b.pending == 0 || rel == nil {
		return
	}
	switch {
	case idx < 0:
		b.addRelation(name, *rel, false)
	case b.implicit[idx]:
		b.entity.Relations[idx] = *rel
		b.implicit[idx] = false
	}
}

func (b *builder) addField(typ, name string) {
	if _, ok := b.fieldRel[name]; ok {
		return
	}
	b.fieldRel[name] = -1
	b.entity.Fields = append(b.entity.Fields, Field{Name: name, Type: typ})
}

func (b *builder) addRelation(field string, rel Relation, implicit bool) {
	if b.implicit == nil {
		b.implicit = map[int]bool{}
	}
	idx := len(b.entity.Relations)
	b.entity.Relations = append(b.entity.Relations, rel)
	b.fieldRel[field] = idx
	b.implicit[idx] = implicit
}

// expandEmbedded раскладывает поля встроенного типа как <field>_<inner>.
func (b *builder) expandEmbedded(rawType, name string) bool {
	if len(b.corpus) == 0 || b.expanding[rawType] {
		return false
	}
	_, text, ok := b.corpus.Declaring(rawType)
	if !ok {
		return false
	}
	inner := b.parser.extract(text, b.corpus, rawType, b.expanding)
	if inner == nil || len(inner.Fields) == 0 {
		return false
	}
	for _, f := range inner.Fields {
		b.addField(f.Type, name+"_"+f.Name)
	}
	return true
}

// unwrap возвращает элемент коллекции и её вид (List/Set/Map) или "".
func unwrap(rawType string) (elem, kind string) {
	if m := listRe.FindStringSubmatch(rawType); m != nil {
		return m[1], "List"
	}
	if m := setRe.FindStringSubmatch(rawType); m != nil {
		return m[1], "Set"
	}
	if m := mapRe.FindStringSubmatch(rawType); m != nil {
		return m[1], "Map"
	}
	return rawType, ""
}

// propertyName: getCartItems -> cartItems, isActive -> active.
func propertyName(method string) string {
	var rest string
	switch {
	case strings.HasPrefix(method, "get") && len(method) > 3:
		rest = method[3:]
	case strings.HasPrefix(method, "is") && len(method) > 2:
		rest = method[2:]
	default:
		return method
	}
	r, size := utf8.DecodeRuneInString(rest)
	return string(unicode.ToLower(r)) + rest[size:]
}

// tableName достаёт имя из @Table(name = "...") в заголовке класса.
func tableName(header string) string {
	locs := tableArgsRe.FindAllStringIndex(header, -1)
	if len(locs) == 0 {
		return ""
	}
	start := locs[len(locs)-1][1] - 1
	end, depth := scanBalanced(header, start, 0)
	if depth != 0 {
		return ""
	}
	args := header[start:end]
	if m := tableBareRe.FindStringSubmatch(args); m != nil {
		return m[1]
	}
	if m := tableNameRe.FindStringSubmatch(args); m != nil {
		return m[1]
	}
	return ""
}

// leadingAnnotations срезает ведущие @Name и @Name(...) со строки.
// Если аргументы аннотации не закрылись, rest пустой, а open > 0.
func leadingAnnotations(s string) (names []string, rest string, open int) {
	i := 0
	for {
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		if i >= len(s) || s[i] != '@' {
			break
		}
		j := i + 1
		for j < len(s) && isIdentByte(s[j]) {
			j++
		}
		name := s[i+1 : j]
		if name == "" || name == "interface" {
			break
		}
		k := j
		for k < len(s) && (s[k] == ' ' || s[k] == '\t') {
			k++
		}
		names = append(names, name)
		if k < len(s) && s[k] == '(' {
			end, depth := scanBalanced(s, k, 0)
			if depth > 0 {
				return names, "", depth
			}
			i = end
			continue
		}
		i = j
	}
	return names, strings.TrimSpace(s[i:]), 0
}

// scanBalanced идёт по s с позиции i, считая ( { [ против ) } ] вне литералов.
// Возвращает позицию сразу за скобкой, на которой глубина вернулась в 0,
// либо len(s) и оставшуюся глубину.
func scanBalanced(s string, i, depth int) (int, int) {
	for i < len(s) {
		switch c := s[i]; c {
		case '"', '\'':
			i = skipLiteral(s, i)
			continue
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
			if depth <= 0 {
				return i + 1, 0
			}
		}
		i++
	}
	return len(s), depth
}

// braceDelta считает { минус } вне литералов.
func braceDelta(s string) int {
	d := 0
	for i := 0; i < len(s); {
		switch s[i] {
		case '"', '\'':
			i = skipLiteral(s, i)
			continue
		case '{':
			d++
		case '}':
			d--
		}
		i++
	}
	return d
}

// splitTopLevel режет по запятым вне <> и скобок.
func splitTopLevel(s string) []string {
	var out []string
	depth, last := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(', '[', '{':
			depth++
		case '>', ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[last:i])
				last = i + 1
			}
		}
	}
	if strings.TrimSpace(s[last:]) != "" {
		out = append(out, s[last:])
	}
	return out
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c == '.' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
