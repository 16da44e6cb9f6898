package model

import "strings"

// Query parameter keys understood by search backends
const (
	ParamQuery         = "query"
	ParamSourceCountry = "sourcecountry"
	ParamSourceRegion  = "sourceregion"
	ParamStartDateTime = "startdatetime"
	ParamEndDateTime   = "enddatetime"
)

// Param is one key=value pair of a structured query
type Param struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Query is a structured search expression. Parameter order is preserved.
type Query struct {
	Params []Param `json:"params"`
}

// ParseQuery parses an "&"-separated key=value expression.
// A bare part without "=" becomes the query text when none is set yet.
func ParseQuery(raw string) Query {
	var q Query
	for _, part := range strings.Split(raw, "&") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			if q.Get(ParamQuery) == "" {
				q.Set(ParamQuery, part)
			}
			continue
		}
		q.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	return q
}

// Get returns the value for key, or ""
func (q Query) Get(key string) string {
	for _, p := range q.Params {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// Set replaces the value for key or appends it
func (q *Query) Set(key, value string) {
	for i, p := range q.Params {
		if p.Key == key {
			q.Params[i].Value = value
			return
		}
	}
	q.Params = append(q.Params, Param{Key: key, Value: value})
}

// Text returns the free-text part of the query
func (q Query) Text() string {
	return q.Get(ParamQuery)
}

// IsZero reports whether the query has no parameters
func (q Query) IsZero() bool {
	return len(q.Params) == 0
}

// Encode renders the canonical key=value form, unescaped
func (q Query) Encode() string {
	parts := make([]string, 0, len(q.Params))
	for _, p := range q.Params {
		parts = append(parts, p.Key+"="+p.Value)
	}
	return strings.Join(parts, "&")
}

// String implements fmt.Stringer
func (q Query) String() string {
	return q.Encode()
}
