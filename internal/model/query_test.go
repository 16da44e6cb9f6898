package model

import "testing"

func TestParseQuery(t *testing.T) {
	q := ParseQuery(`query="tsunami" AND "Japan"&sourcecountry=JP&startdatetime=20250903000000`)

	if got := q.Text(); got != `"tsunami" AND "Japan"` {
		t.Errorf("unexpected query text: %s", got)
	}
	if got := q.Get(ParamSourceCountry); got != "JP" {
		t.Errorf("expected JP, got %s", got)
	}
	if got := q.Encode(); got != `query="tsunami" AND "Japan"&sourcecountry=JP&startdatetime=20250903000000` {
		t.Errorf("encode did not round trip: %s", got)
	}
}

func TestParseQuery_BarePart(t *testing.T) {
	q := ParseQuery(`climate change&sourceregion=EU`)
	if q.Text() != "climate change" {
		t.Errorf("expected bare part as query text, got %q", q.Text())
	}
	if q.Get(ParamSourceRegion) != "EU" {
		t.Errorf("expected EU region, got %q", q.Get(ParamSourceRegion))
	}
}

func TestQuery_SetReplaces(t *testing.T) {
	var q Query
	q.Set("query", "a")
	q.Set("query", "b")
	if len(q.Params) != 1 || q.Text() != "b" {
		t.Errorf("expected single replaced param, got %+v", q.Params)
	}
}

func TestSources(t *testing.T) {
	docs := []ScoredDocument{
		{Document: Document{Source: "a.com"}},
		{Document: Document{Source: "b.com"}},
		{Document: Document{Source: "a.com"}},
		{Document: Document{Source: ""}},
	}
	got := Sources(docs)
	if len(got) != 2 || got[0] != "a.com" || got[1] != "b.com" {
		t.Errorf("unexpected sources: %v", got)
	}
}
