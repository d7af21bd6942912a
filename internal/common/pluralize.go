// Package common — pluralize.go содержит вспомогательные функции
// для склонения английских существительных в ответах бота.
package common

import "fmt"

// PluralizeAwards возвращает "award" или "awards" для числа n.
//
// Примеры:
//
//	PluralizeAwards(1)  → "award"
//	PluralizeAwards(0)  → "awards"
//	PluralizeAwards(21) → "awards"
func PluralizeAwards(n int) string {
	if n == 1 || n == -1 {
		return "award"
	}
	return "awards"
}

// FormatAwards создаёт строку вида "5 delta ∆ awards".
func FormatAwards(n int, glyph string) string {
	return fmt.Sprintf("%d delta %s %s", n, glyph, PluralizeAwards(n))
}
