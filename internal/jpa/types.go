package jpa

import "regexp"

// примитивы Java
var primitiveTypes = []string{
	"byte", "short", "int", "long", "float", "double", "char", "boolean",
}

// распространённые «значимые» типы: не сущности, связи по ним не строим
var commonValueTypes = []string{
	"String", "Integer", "Float", "Double", "Long", "Boolean", "Date",
	"LocalDate", "LocalDateTime", "BigDecimal", "BigInteger",
	"UUID", "Instant", "LocalTime", "Short", "Byte", "Character",
	"Timestamp", "Time", "Calendar", "ZonedDateTime", "OffsetDateTime",
	"OffsetTime", "Duration", "Period", "URL", "URI", "Enum",
	"Object", "Number", "Year", "YearMonth", "Currency", "Locale", "ZoneId",
}

// DefaultValueTypes returns the built-in primitive and common value types.
func DefaultValueTypes() []string {
	out := make([]string, 0, len(primitiveTypes)+len(commonValueTypes))
	out = append(out, primitiveTypes...)
	return append(out, commonValueTypes...)
}

var customTypeRe = regexp.MustCompile(`^[A-Z]\w+$`)

// IsCustomType reports whether typ looks like a user type (capitalized
// identifier) that is not one of the default value types.
func IsCustomType(typ string) bool {
	return defaultParser.isCustomType(typ)
}

func (p *Parser) isCustomType(typ string) bool {
	if !customTypeRe.MatchString(typ) {
		return false
	}
	_, ok := p.valueTypes[typ]
	return !ok
}
