package jpa

import "strings"

// StripComments убирает // и /* */ комментарии. Строковые и символьные
// литералы (включая текстовые блоки """) не трогаем, переводы строк внутри
// блочных комментариев сохраняем, чтобы нумерация строк не съезжала.
func StripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))

	n := len(src)
	for i := 0; i < n; {
		c := src[i]
		switch {
		case c == '/' && i+1 < n && src[i+1] == '/':
			for i < n && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && src[i+1] == '*':
			i += 2
			for i < n && !(src[i] == '*' && i+1 < n && src[i+1] == '/') {
				if src[i] == '\n' {
					b.WriteByte('\n')
				}
				i++
			}
			i += 2
		case c == '"' && strings.HasPrefix(src[i:], `"""`):
			end := strings.Index(src[i+3:], `"""`)
			if end < 0 {
				b.WriteString(src[i:])
				return b.String()
			}
			b.WriteString(src[i : i+3+end+3])
			i += 3 + end + 3
		case c == '"' || c == '\'':
			j := skipLiteral(src, i)
			b.WriteString(src[i:j])
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// skipLiteral возвращает индекс сразу за литералом, начинающимся в src[i].
// Незакрытый литерал обрывается на конце строки.
func skipLiteral(src string, i int) int {
	quote := src[i]
	j := i + 1
	for j < len(src) {
		switch src[j] {
		case '\\':
			j += 2
			continue
		case quote:
			return j + 1
		case '\n':
			return j
		}
		j++
	}
	return len(src)
}
