package llm

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/alchemorsel/nutrition/internal/domain/nutrition"
	apperrors "github.com/alchemorsel/nutrition/pkg/errors"
)

var errNoJSONObject = errors.New("no JSON object found in response")

// ExtractJSONObject returns the text between the first "{" and the last "}".
// Models sometimes wrap their JSON in prose or code fences.
func ExtractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// decodeObject keeps numeric literals as json.Number so that values outside the
// float64 range reach the normalizer instead of failing the decode.
func decodeObject(object string, out any) error {
	decoder := json.NewDecoder(strings.NewReader(object))
	decoder.UseNumber()
	return decoder.Decode(out)
}

// DecodeNutrition decodes a generated nutrition record. Wrongly typed fields are
// left for the normalizer; only text that is not a JSON object is an error.
func DecodeNutrition(provider, content string) (*nutrition.RawRecord, error) {
	object, ok := ExtractJSONObject(content)
	if !ok {
		return nil, apperrors.NewUpstreamMalformedError(provider, errNoJSONObject)
	}

	var raw nutrition.RawRecord
	if err := decodeObject(object, &raw); err != nil {
		return nil, apperrors.NewUpstreamMalformedError(provider, err)
	}
	return &raw, nil
}

// DecodeRecommendations decodes generated recommendations. A payload whose
// "recommendations" field is missing or not an array yields an empty list, and
// entries that are not strings are dropped.
func DecodeRecommendations(provider, content string) ([]string, error) {
	object, ok := ExtractJSONObject(content)
	if !ok {
		return nil, apperrors.NewUpstreamMalformedError(provider, errNoJSONObject)
	}

	var payload struct {
		Recommendations any `json:"recommendations"`
	}
	if err := decodeObject(object, &payload); err != nil {
		return nil, apperrors.NewUpstreamMalformedError(provider, err)
	}

	entries, ok := payload.Recommendations.([]any)
	if !ok {
		return []string{}, nil
	}

	recommendations := make([]string, 0, len(entries))
	for _, entry := range entries {
		if s, ok := entry.(string); ok && strings.TrimSpace(s) != "" {
			recommendations = append(recommendations, strings.TrimSpace(s))
		}
	}
	return recommendations, nil
}
