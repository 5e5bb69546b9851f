package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var cyrillicReplacements = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d",
	'е': "e", 'ё': "yo", 'ж': "zh", 'з': "z", 'и': "i",
	'й': "y", 'к': "k", 'л': "l", 'м': "m", 'н': "n",
	'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t",
	'у': "u", 'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch",
	'ш': "sh", 'щ': "sch", 'ъ': "", 'ы': "y", 'ь': "",
	'э': "e", 'ю': "yu", 'я': "ya",
	'ғ': "gh", 'ӣ': "i", 'қ': "q", 'ӯ': "u", 'ҳ': "h", 'ҷ': "j",
	'đ': "d",
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// FoldToASCII приводит строку к нижнему регистру латиницей:
// кириллица транслитерируется, диакритика снимается ("Máy chạy" -> "may chay").
func FoldToASCII(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var sb strings.Builder
	for _, r := range s {
		if repl, ok := cyrillicReplacements[r]; ok {
			sb.WriteString(repl)
		} else {
			sb.WriteRune(r)
		}
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, sb.String())
	if err != nil {
		return sb.String()
	}
	return folded
}

// GenerateShortCode строит короткий код длины size из названия:
// сначала первые буквы слов, затем добираются буквы первого слова.
// "Cardio" -> "CA", "Life Fitness" (3) -> "LFI", "Technogym" (3) -> "TEC".
func GenerateShortCode(name string, size int) string {
	words := strings.FieldsFunc(nonAlnum.ReplaceAllString(FoldToASCII(name), " "), unicode.IsSpace)
	if len(words) == 0 || size <= 0 {
		return ""
	}

	code := make([]byte, 0, size)
	for _, w := range words {
		if len(code) == size {
			break
		}
		code = append(code, w[0])
	}
	for _, w := range words {
		for i := 1; i < len(w) && len(code) < size; i++ {
			code = append(code, w[i])
		}
		if len(code) == size {
			break
		}
	}
	return strings.ToUpper(string(code))
}
