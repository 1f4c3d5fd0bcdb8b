package inmemory

import "unicode"

// matchLike повторяет семантику SQLite LIKE без ESCAPE:
// '%' - любая последовательность, '_' - ровно один символ,
// регистр латинских букв не учитывается.
func matchLike(pattern, s string) bool {
	p := []rune(pattern)
	str := []rune(s)

	// prev[j] - совпадает ли префикс шаблона с префиксом строки длины j
	prev := make([]bool, len(str)+1)
	prev[0] = true

	for i := 1; i <= len(p); i++ {
		cur := make([]bool, len(str)+1)
		if p[i-1] == '%' {
			cur[0] = prev[0]
		}
		for j := 1; j <= len(str); j++ {
			switch p[i-1] {
			case '%':
				cur[j] = prev[j] || cur[j-1]
			case '_':
				cur[j] = prev[j-1]
			default:
				cur[j] = prev[j-1] && foldASCII(p[i-1]) == foldASCII(str[j-1])
			}
		}
		prev = cur
	}
	return prev[len(str)]
}

func foldASCII(r rune) rune {
	if r < unicode.MaxASCII {
		return unicode.ToLower(r)
	}
	return r
}
