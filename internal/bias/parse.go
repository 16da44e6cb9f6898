package bias

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ppiankov/perspecta/internal/llm"
	"github.com/ppiankov/perspecta/internal/model"
)

const (
	keyCategories   = "categories"
	keyDescriptions = "descriptions"
	keyReasoning    = "reasoning"

	noReasoning = "No reasoning provided"
)

var errNotObject = errors.New("not a JSON object")

// Parse reads a discovery reply. Both the nested form
// {categories, descriptions, reasoning} and the flat form
// {label: [outlets], reasoning} are accepted. Bucket order follows the
// key order of the reply. The neutral bucket is not repaired here.
func Parse(text string) (model.Categorization, error) {
	raw, err := llm.ExtractJSON(text)
	if err != nil {
		return model.Categorization{}, err
	}
	top, err := decodeOrdered([]byte(raw))
	if err != nil {
		return model.Categorization{}, fmt.Errorf("decode categorization: %w", err)
	}

	cat := model.Categorization{Reasoning: noReasoning, Parsed: true}
	if r, ok := top.get(keyReasoning); ok {
		var s string
		if json.Unmarshal(r, &s) == nil {
			cat.Reasoning = s
		}
	}

	categories, nested := top.get(keyCategories)
	if !nested {
		for _, f := range top {
			if f.key == keyReasoning || f.key == keyDescriptions {
				continue
			}
			if sources, ok := outletList(f.value); ok {
				cat.Buckets = setBucket(cat.Buckets, f.key, sources)
			}
		}
		return cat, nil
	}

	fields, err := decodeOrdered(categories)
	if err != nil {
		return model.Categorization{}, fmt.Errorf("decode categories: %w", err)
	}
	for _, f := range fields {
		if sources, ok := outletList(f.value); ok {
			cat.Buckets = setBucket(cat.Buckets, f.key, sources)
		}
	}

	if d, ok := top.get(keyDescriptions); ok {
		var descriptions map[string]string
		if json.Unmarshal(d, &descriptions) == nil {
			for i := range cat.Buckets {
				cat.Buckets[i].Description = descriptions[cat.Buckets[i].Label]
			}
		}
	}
	return cat, nil
}

// setBucket replaces the sources of an existing label or appends a bucket
func setBucket(buckets []model.PerspectiveBucket, label string, sources []string) []model.PerspectiveBucket {
	for i := range buckets {
		if buckets[i].Label == label {
			buckets[i].Sources = sources
			return buckets
		}
	}
	return append(buckets, model.PerspectiveBucket{Label: label, Sources: sources})
}

// outletList decodes an array of outlet names, skipping non-string entries
func outletList(raw json.RawMessage) ([]string, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil && s != "" {
			out = append(out, s)
		}
	}
	return out, true
}

type field struct {
	key   string
	value json.RawMessage
}

type object []field

func (o object) get(key string) (json.RawMessage, bool) {
	for _, f := range o {
		if f.key == key {
			return f.value, true
		}
	}
	return nil, false
}

// decodeOrdered decodes a JSON object keeping its key order
func decodeOrdered(data []byte) (object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errNotObject
	}

	var out object
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
		out = append(out, field{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}
