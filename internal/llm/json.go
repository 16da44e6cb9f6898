package llm

import (
	"errors"
	"regexp"
)

// ErrNoJSON is returned when a response holds no JSON object
var ErrNoJSON = errors.New("no JSON object in response")

var (
	fencePattern  = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
	objectPattern = regexp.MustCompile(`\{[\s\S]*\}`)
)

// ExtractJSON returns the outermost {...} span of a model response,
// looking inside a Markdown code fence first when one is present
func ExtractJSON(text string) (string, error) {
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		if obj := objectPattern.FindString(m[1]); obj != "" {
			return obj, nil
		}
	}
	if obj := objectPattern.FindString(text); obj != "" {
		return obj, nil
	}
	return "", ErrNoJSON
}
