package nutrition

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize converts a loosely-typed provider payload into a Record. Every field of
// the result is populated: non-numeric or non-finite values become 0, negatives are
// clamped to 0, and the serving size always comes from the vocabulary.
func Normalize(raw *RawRecord, fallbackName string) Record {
	if raw == nil {
		raw = &RawRecord{}
	}

	name := Capitalize(fallbackName)
	if s, ok := raw.FoodName.(string); ok && strings.TrimSpace(s) != "" {
		name = s
	}

	return Record{
		FoodName:     name,
		ServingSize:  NormalizeServingSize(raw.ServingSize, fallbackName),
		CaloriesKcal: sanitizeAmount(raw.CaloriesKcal),
		ProteinG:     sanitizeAmount(raw.ProteinG),
		CarbsG:       sanitizeAmount(raw.CarbsG),
		FatG:         sanitizeAmount(raw.FatG),
	}
}

func sanitizeAmount(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if !isFinite(f) || f <= 0 {
		return 0
	}
	return clampAmount(RoundTenth(f))
}

// Capitalize upper-cases the first character and leaves the rest unchanged.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
