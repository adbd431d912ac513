package basic

import (
	"fmt"
	"sort"
	"strings"
)

type keyword struct {
	text string
	code []byte
}

// keywords is sorted by descending text length so that the first match is the longest.
var keywords = buildKeywords()

func buildKeywords() []keyword {
	var list []keyword
	for i, text := range tokens {
		code := byte(firstToken + i)
		if code == ExtendedPrefix {
			continue
		}
		list = append(list, keyword{text: text, code: []byte{code}})
	}
	for i, text := range extendedTokens {
		list = append(list, keyword{text: text, code: []byte{ExtendedPrefix, byte(firstToken + i)}})
	}

	sort.SliceStable(list, func(i, j int) bool {
		return len(list[i].text) > len(list[j].text)
	})
	return list
}

// Tokenize converts a line of BASIC source text into its tokenized form.
// Keywords are matched greedily outside of string literals. The result does
// not contain the zero terminator.
func Tokenize(line string) ([]byte, error) {
	var result []byte
	inString := false

	for i := 0; i < len(line); {
		c := line[i]
		if c == 0 || c >= firstToken {
			return nil, fmt.Errorf("unsupported character 0x%02x at column %d", c, i)
		}

		if inString {
			if c == '"' {
				inString = false
			}
			result = append(result, c)
			i++
			continue
		}

		if kw, ok := matchKeyword(line[i:]); ok {
			result = append(result, kw.code...)
			i += len(kw.text)
			continue
		}

		if c == '"' {
			inString = true
		}
		result = append(result, c)
		i++
	}

	return result, nil
}

func matchKeyword(s string) (keyword, bool) {
	for _, kw := range keywords {
		if strings.HasPrefix(s, kw.text) {
			return kw, true
		}
	}
	return keyword{}, false
}
