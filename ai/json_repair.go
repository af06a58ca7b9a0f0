package ai

// repairJSON fixes the formatting mistakes generation models make most often:
// keys missing their opening quote and trailing commas before a closing
// bracket.
func repairJSON(s string) string {
	return stripTrailingCommas(quoteKeys(s))
}

// quoteKeys restores a missing opening quote before object keys.
// Example: `, type":` -> `, "type":`
func quoteKeys(s string) string {
	src := []rune(s)
	out := make([]rune, 0, len(src)+16)

	i := 0
	for i < len(src) {
		ch := src[i]
		out = append(out, ch)
		i++
		if ch != '{' && ch != ',' {
			continue
		}

		for i < len(src) && isSpace(src[i]) {
			out = append(out, src[i])
			i++
		}
		if i >= len(src) || src[i] == '"' || !isLetter(src[i]) {
			continue
		}

		keyStart := i
		for i < len(src) && (isLetter(src[i]) || src[i] == '_' || src[i] == ' ') {
			i++
		}
		keyEnd := i

		// Only an identifier directly followed by `":` is a broken key.
		if i+1 < len(src) && src[i] == '"' && src[i+1] == ':' {
			out = append(out, '"')
			for j := keyStart; j < keyEnd; j++ {
				if src[j] != ' ' {
					out = append(out, src[j])
				}
			}
			continue
		}
		out = append(out, src[keyStart:keyEnd]...)
	}

	return string(out)
}

// stripTrailingCommas drops a comma that is followed only by whitespace and
// a closing bracket. Commas inside string literals are left alone.
func stripTrailingCommas(s string) string {
	src := []rune(s)
	out := make([]rune, 0, len(src))
	inString := false
	escaped := false

	for i, ch := range src {
		if inString {
			out = append(out, ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			out = append(out, ch)
			continue
		}
		if ch == ',' {
			j := i + 1
			for j < len(src) && isSpace(src[j]) {
				j++
			}
			if j < len(src) && (src[j] == ']' || src[j] == '}') {
				continue
			}
		}
		out = append(out, ch)
	}

	return string(out)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
