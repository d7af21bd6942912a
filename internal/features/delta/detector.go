// Package delta — detector.go определяет, содержит ли комментарий триггер дельты.
package delta

import "strings"

const (
	// Trigger — текстовая команда выдачи дельты.
	Trigger = "!delta"
	// Glyph — символ дельты (U+2206), им же бот подписывает награды.
	Glyph = "∆"
	// GreekGlyph — греческая Δ (U+0394) из текста ответа «слишком коротко».
	// Триггером не считается: в обычном тексте это разность или греческая буква.
	GreekGlyph = "Δ"
)

// ContainsTrigger проверяет текст построчно. Строки-цитаты (начинаются с ">"
// после обрезки пробелов) пропускаются.
func ContainsTrigger(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), ">") {
			continue
		}
		if strings.Contains(line, Trigger) || strings.Contains(line, Glyph) {
			return true
		}
	}
	return false
}
