// Package normalize maps heterogeneous client field spellings onto
// canonical snake_case keys before request validation runs. Clients send
// password_confirmation, passwordConfirmation, or PasswordConfirmation
// interchangeably; handlers only ever see the snake_case form.
package normalize

import (
	"encoding/json"
	"strings"
	"unicode"
)

// Body decodes raw JSON, rewrites known-variant keys onto their canonical
// snake_case spelling, and decodes the result into dst. For each canonical
// key the variants are tried in fixed order: snake_case first, then
// camelCase, then PascalCase; the first key present wins and the others are
// ignored. Keys with no struct counterpart are canonicalized and passed
// through; the decode into dst simply drops them.
func Body(raw []byte, dst any) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}

	out := make(map[string]json.RawMessage, len(fields))
	seen := make(map[string]bool, len(fields))

	for key, value := range fields {
		canonical := Canonical(key)
		if seen[canonical] {
			continue
		}
		if canonical != key {
			// snake_case wins over any variant already copied.
			if _, snakePresent := fields[canonical]; snakePresent {
				continue
			}
			// camelCase beats PascalCase when both are sent.
			camel := toCamel(canonical)
			if key != camel {
				if _, camelPresent := fields[camel]; camelPresent {
					continue
				}
			}
		}
		out[canonical] = value
		seen[canonical] = true
	}

	normalized, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return json.Unmarshal(normalized, dst)
}

// Canonical converts a camelCase or PascalCase key to snake_case. Keys
// already in snake_case come back unchanged.
func Canonical(key string) string {
	var b strings.Builder
	b.Grow(len(key) + 4)
	for i, r := range key {
		if unicode.IsUpper(r) {
			if i > 0 && key[i-1] != '_' {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func toCamel(snake string) string {
	parts := strings.Split(snake, "_")
	var b strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			b.WriteString(p)
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}
