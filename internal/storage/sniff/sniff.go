// Пакет sniff — проверка сигнатур (magic bytes) загружаемых изображений.
// MIME-тип из заголовка клиента контролируется атакующим, поэтому
// заявленный тип сверяется с фактическими байтами файла.
package sniff

import (
	"bytes"
	"strings"
)

// Канонические сигнатуры поддерживаемых форматов.
var (
	// pngSignature — 89 50 4E 47 0D 0A 1A 0A со смещения 0.
	pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	// jpegSignature — FF D8 FF со смещения 0.
	jpegSignature = []byte{0xFF, 0xD8, 0xFF}
	// gifSignature — "GIF8" со смещения 0 (покрывает GIF87a и GIF89a).
	gifSignature = []byte{0x47, 0x49, 0x46, 0x38}
)

// svgProbeLen — сколько байт текста просматривается в поисках тега <svg.
const svgProbeLen = 100

// MatchesDeclared возвращает true, только если префикс data совпадает
// с канонической сигнатурой заявленного MIME-типа.
//
// SVG — текстовый XML, бинарной сигнатуры у него нет: проверяется, что
// первые ~100 байт после обрезки пробелов начинаются с "<svg". SVG с
// XML-прологом или комментарием перед корневым элементом не пройдёт
// проверку — известное ограничение эвристики, а не дефект.
//
// Неизвестный заявленный тип считается непроверяемым — false.
func MatchesDeclared(data []byte, declaredType string) bool {
	switch declaredType {
	case "image/png":
		return bytes.HasPrefix(data, pngSignature)
	case "image/jpeg", "image/jpg":
		return bytes.HasPrefix(data, jpegSignature)
	case "image/gif":
		return bytes.HasPrefix(data, gifSignature)
	case "image/svg+xml":
		return looksLikeSVG(data)
	}
	return false
}

// looksLikeSVG проверяет, начинается ли текстовое содержимое с тега <svg.
func looksLikeSVG(data []byte) bool {
	probe := data
	if len(probe) > svgProbeLen {
		probe = probe[:svgProbeLen]
	}
	text := strings.TrimSpace(string(probe))
	return strings.HasPrefix(text, "<svg")
}
