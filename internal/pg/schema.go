package pg

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-openapi/inflect"

	"erdgen/internal/jpa"
)

// Ключи GenerateDDL; ApplyDDL выполняет их в порядке сортировки.
const (
	KeyTables      = "000_tables"
	KeyForeignKeys = "200_foreign_keys"
	KeyJoinTables  = "300_join_tables"
)

type OnDeletePolicy string

const (
	OnDeleteRestrict OnDeletePolicy = "RESTRICT"
	OnDeleteSetNull  OnDeletePolicy = "SET NULL"
)

// DDLOptions настраивает генерацию.
type DDLOptions struct {
	Schema string            // пусто = public
	Types  map[string]string // java тип -> SQL тип, сверх встроенных (каталог типов)
	// OnDelete для внешних ключей ManyToOne/OneToOne, по умолчанию RESTRICT
	OnDelete OnDeletePolicy
}

var reserved = map[string]struct{}{
	"user": {}, "select": {}, "table": {}, "insert": {}, "update": {}, "delete": {},
	"where": {}, "join": {}, "group": {}, "order": {}, "limit": {}, "offset": {},
	"primary": {}, "foreign": {}, "key": {}, "constraint": {}, "default": {},
	"from": {}, "into": {}, "values": {}, "unique": {}, "index": {}, "create": {},
	"drop": {}, "alter": {}, "schema": {}, "grant": {}, "revoke": {},
}

func isReserved(s string) bool { _, ok := reserved[strings.ToLower(s)]; return ok }

// TableName: @Table(name) или множественное число snake_case имени сущности.
// Зарезервированные слова получают префикс e_.
func TableName(e *jpa.Entity) string {
	t := e.Table
	if t == "" {
		t = inflect.Pluralize(inflect.Underscore(e.Name))
	}
	t = strings.ToLower(t)
	if isReserved(t) {
		// помечаем «опасное» имя префиксом
		t = "e_" + t
	}
	return t
}

// ColumnName: cartItemId -> cart_item_id.
func ColumnName(field string) string {
	c := strings.ToLower(inflect.Underscore(field))
	if isReserved(c) {
		c = "e_" + c
	}
	return c
}

func sqlIdent(s string) string { return `"` + strings.ToLower(s) + `"` }

// встроенное отображение java -> postgres
var javaTypes = map[string]string{
	"String": "text", "char": "char(1)", "Character": "char(1)",
	"int": "integer", "Integer": "integer", "long": "bigint", "Long": "bigint",
	"short": "smallint", "Short": "smallint", "byte": "smallint", "Byte": "smallint",
	"float": "real", "Float": "real", "double": "double precision", "Double": "double precision",
	"boolean": "boolean", "Boolean": "boolean",
	"BigDecimal": "numeric", "BigInteger": "numeric", "Number": "numeric",
	"LocalDate": "date", "Date": "timestamp", "Calendar": "timestamp",
	"LocalDateTime": "timestamp", "Timestamp": "timestamp",
	"ZonedDateTime": "timestamp with time zone", "OffsetDateTime": "timestamp with time zone",
	"Instant": "timestamp with time zone",
	"LocalTime": "time", "Time": "time", "OffsetTime": "time with time zone",
	"Duration": "interval", "Period": "interval", "Year": "integer",
	"UUID": "uuid", "byte[]": "bytea", "Byte[]": "bytea",
}

func (o DDLOptions) mapType(javaType string) string {
	t := javaType
	if i := strings.LastIndexByte(t, '.'); i >= 0 {
		t = t[i+1:]
	}
	if s, ok := o.Types[t]; ok {
		return s
	}
	if s, ok := javaTypes[t]; ok {
		return s
	}
	// enum'ы, URL и прочее храним текстом
	return "text"
}

type tableInfo struct {
	entity *jpa.Entity
	name   string
	pk     string // колонка первичного ключа
	pkType string
	pkGen  bool // синтетический id
}

// primaryKey: поле id, затем <entity>Id, затем первое *Id; иначе синтетический id.
func primaryKey(e *jpa.Entity, relField map[string]bool) (field string, ok bool) {
	candidates := []string{"id", lowerFirst(e.Name) + "Id"}
	for _, c := range candidates {
		if f, found := e.Field(c); found && !relField[f.Name] {
			return f.Name, true
		}
	}
	for _, f := range e.Fields {
		if strings.HasSuffix(f.Name, "Id") && !relField[f.Name] {
			return f.Name, true
		}
	}
	return "", false
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// GenerateDDL возвращает карту ключ -> SQL DDL (CREATE TABLE, FK, join-таблицы).
// Поля-связи колонками не становятся: ManyToOne и владеющая сторона OneToOne
// дают <field>_id + FK, ManyToMany и OneToMany без обратного ManyToOne дают
// join-таблицу.
func GenerateDDL(entities []*jpa.Entity, opts DDLOptions) (map[string]string, error) {
	schema := strings.ToLower(strings.TrimSpace(opts.Schema))
	if schema == "" {
		schema = "public"
	}
	onDelete := opts.OnDelete
	if onDelete == "" {
		onDelete = OnDeleteRestrict
	}
	qualified := func(tbl string) string { return sqlIdent(schema) + "." + sqlIdent(tbl) }

	// 1) таблицы и первичные ключи
	tables := map[string]*tableInfo{}
	var order []*tableInfo
	tableOwner := map[string]string{}
	for _, e := range entities {
		if e == nil {
			continue
		}
		if _, dup := tables[e.ID()]; dup {
			return nil, fmt.Errorf("entity %s declared more than once", e.ID())
		}
		ti := &tableInfo{entity: e, name: TableName(e)}
		if prev, ok := tableOwner[ti.name]; ok {
			return nil, fmt.Errorf("%s: table %q already used by %s", e.Name, ti.name, prev)
		}
		tableOwner[ti.name] = e.Name

		rel := relationFields(e)
		if f, ok := primaryKey(e, rel); ok {
			fld, _ := e.Field(f)
			ti.pk = ColumnName(f)
			ti.pkType = opts.mapType(fld.Type)
		} else {
			ti.pk, ti.pkType, ti.pkGen = "id", "bigint", true
		}
		tables[e.ID()] = ti
		order = append(order, ti)
	}

	var tablesSb, fkSb, joinSb strings.Builder
	if schema != "public" {
		fmt.Fprintf(&tablesSb, "create schema if not exists %s;\n", sqlIdent(schema))
	}

	// ключи связей, уже получивших FK или join-таблицу
	done := map[string]bool{}

	for _, ti := range order {
		e := ti.entity
		rel := relationFields(e)

		var cols []string
		seen := map[string]string{}
		addCol := func(col, def, from string) error {
			if prev, ok := seen[col]; ok {
				return fmt.Errorf("%s: column %q from %s duplicates %s", e.Name, col, from, prev)
			}
			seen[col] = from
			cols = append(cols, sqlIdent(col)+" "+def)
			return nil
		}

		if ti.pkGen {
			if err := addCol("id", "bigint generated by default as identity primary key", "id"); err != nil {
				return nil, err
			}
		}
		for _, f := range e.Fields {
			if rel[f.Name] {
				continue
			}
			def := opts.mapType(f.Type)
			if ColumnName(f.Name) == ti.pk && !ti.pkGen {
				def += " primary key"
			} else if isCollection(f.Type) {
				// коллекции значений без связи храним как jsonb
				def = "jsonb null"
			} else {
				def += " null"
			}
			if err := addCol(ColumnName(f.Name), def, f.Name); err != nil {
				return nil, err
			}
		}

		// 2) связи
		for _, r := range e.Relations {
			key := relationKey(e.ID(), r.Target, r.Kind)
			target, known := tables[r.Target]
			switch r.Kind {
			case jpa.ManyToOne, jpa.OneToOne:
				if r.Kind == jpa.OneToOne && done[key] {
					// владеет сторона, объявившая связь первой
					continue
				}
				col := ColumnName(relationField(r)) + "_id"
				typ := "bigint"
				if known {
					typ = target.pkType
				}
				unique := ""
				if r.Kind == jpa.OneToOne {
					unique = " unique"
				}
				if err := addCol(col, typ+" null"+unique, relationField(r)); err != nil {
					return nil, err
				}
				done[key] = true
				if known {
					fmt.Fprintf(&fkSb,
						"alter table %s add constraint %s foreign key (%s) references %s(%s) on delete %s;\n",
						qualified(ti.name), sqlIdent(ti.name+"_"+col+"_fk"), sqlIdent(col),
						qualified(target.name), sqlIdent(target.pk), onDelete)
				}
			case jpa.OneToMany:
				if !known || done[key] || hasRelation(target.entity, e.ID(), jpa.ManyToOne) {
					continue
				}
				done[key] = true
				writeJoinTable(&joinSb, qualified, ti, target, relationField(r), true)
			case jpa.ManyToMany:
				if !known || done[key] {
					continue
				}
				done[key] = true
				writeJoinTable(&joinSb, qualified, ti, target, relationField(r), false)
			}
		}

		fmt.Fprintf(&tablesSb, "create table if not exists %s (\n  %s\n);\n",
			qualified(ti.name), strings.Join(cols, ",\n  "))
	}

	out := map[string]string{KeyTables: tablesSb.String()}
	if fkSb.Len() > 0 {
		out[KeyForeignKeys] = fkSb.String()
	}
	if joinSb.Len() > 0 {
		out[KeyJoinTables] = joinSb.String()
	}
	return out, nil
}

// writeJoinTable: <owner>_<field> (owner_id, target_id). Для OneToMany target_id уникален.
func writeJoinTable(sb *strings.Builder, qualified func(string) string, owner, target *tableInfo, field string, uniqueTarget bool) {
	name := owner.name + "_" + ColumnName(field)
	ownerCol := inflect.Singularize(owner.name) + "_id"
	targetCol := inflect.Singularize(target.name) + "_id"
	if ownerCol == targetCol {
		targetCol = ColumnName(inflect.Singularize(field)) + "_id"
	}
	uniq := ""
	if uniqueTarget {
		uniq = " unique"
	}
	fmt.Fprintf(sb, "create table if not exists %s (\n  %s %s not null references %s(%s) on delete cascade,\n  %s %s not null%s references %s(%s) on delete cascade,\n  primary key (%s, %s)\n);\n",
		qualified(name),
		sqlIdent(ownerCol), owner.pkType, qualified(owner.name), sqlIdent(owner.pk),
		sqlIdent(targetCol), target.pkType, uniq, qualified(target.name), sqlIdent(target.pk),
		sqlIdent(ownerCol), sqlIdent(targetCol))
}

// relationKey совпадает с ключом дедупликации диаграммы.
func relationKey(a, b string, kind jpa.RelationKind) string {
	if b < a {
		a, b = b, a
	}
	tk := kind.String()
	if kind == jpa.OneToMany || kind == jpa.ManyToOne {
		tk = "OneToMany/ManyToOne"
	}
	return a + "<->" + tk + "<->" + b
}

// relationField: имя поля связи или имя цели, если поле неизвестно.
func relationField(r jpa.Relation) string {
	if r.Field != "" {
		return r.Field
	}
	return strings.ToLower(r.Target)
}

func relationFields(e *jpa.Entity) map[string]bool {
	m := make(map[string]bool, len(e.Relations))
	for _, r := range e.Relations {
		if r.Field != "" {
			m[r.Field] = true
		}
	}
	return m
}

func hasRelation(e *jpa.Entity, target string, kind jpa.RelationKind) bool {
	for _, r := range e.Relations {
		if r.Target == target && r.Kind == kind {
			return true
		}
	}
	return false
}

func isCollection(t string) bool {
	return strings.HasPrefix(t, "List_") || strings.HasPrefix(t, "Set_") || strings.HasPrefix(t, "Map_")
}

// SortedKeys возвращает ключи DDL в порядке применения.
func SortedKeys(ddl map[string]string) []string {
	keys := make([]string, 0, len(ddl))
	for k := range ddl {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Script склеивает DDL в один скрипт в порядке применения.
func Script(ddl map[string]string) string {
	var b strings.Builder
	for _, k := range SortedKeys(ddl) {
		fmt.Fprintf(&b, "-- %s\n%s\n", k, strings.TrimSpace(ddl[k]))
	}
	return b.String()
}
