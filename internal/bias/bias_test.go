package bias

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/perspecta/internal/embed/embedtest"
	"github.com/ppiankov/perspecta/internal/llm"
	"github.com/ppiankov/perspecta/internal/llm/llmtest"
	"github.com/ppiankov/perspecta/internal/metrics"
	"github.com/ppiankov/perspecta/internal/model"
	"github.com/ppiankov/perspecta/internal/rank"
)

func labels(cat model.Categorization) []string {
	out := make([]string, len(cat.Buckets))
	for i, b := range cat.Buckets {
		out[i] = b.Label
	}
	return out
}

func TestParse_Nested(t *testing.T) {
	reply := "Here you go:\n```json\n" + `{
  "categories": {
    "pro-government": ["Xinhua", "RT"],
    "western-mainstream": ["BBC", "CNN"],
    "unbiased": ["Reuters", "AP"]
  },
  "descriptions": {
    "pro-government": "State-aligned outlets",
    "unbiased": "Wire services"
  },
  "reasoning": "Grouped by ownership"
}` + "\n```"

	cat, err := Parse(reply)
	require.NoError(t, err)
	assert.True(t, cat.Parsed)
	assert.Equal(t, []string{"pro-government", "western-mainstream", "unbiased"}, labels(cat))
	assert.Equal(t, []string{"Xinhua", "RT"}, cat.Buckets[0].Sources)
	assert.Equal(t, "State-aligned outlets", cat.Buckets[0].Description)
	assert.Empty(t, cat.Buckets[1].Description)
	assert.Equal(t, "Grouped by ownership", cat.Reasoning)
}

func TestParse_LegacyFlat(t *testing.T) {
	cat, err := Parse(`{"left": ["Guardian"], "right": ["Fox News"], "neutral": ["Reuters"], "reasoning": "old format"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"left", "right", "neutral"}, labels(cat))
	assert.Equal(t, "old format", cat.Reasoning)
}

func TestParse_MissingReasoning(t *testing.T) {
	cat, err := Parse(`{"categories": {"unbiased": []}}`)
	require.NoError(t, err)
	assert.Equal(t, "No reasoning provided", cat.Reasoning)
	require.Len(t, cat.Buckets, 1)
	assert.Empty(t, cat.Buckets[0].Sources)
}

func TestParse_SkipsNonStringOutlets(t *testing.T) {
	cat, err := Parse(`{"categories": {"a": ["X", 3, null, "Y"], "b": "not a list"}}`)
	require.NoError(t, err)
	require.Len(t, cat.Buckets, 1)
	assert.Equal(t, []string{"X", "Y"}, cat.Buckets[0].Sources)
}

func TestParse_Errors(t *testing.T) {
	for _, reply := range []string{
		"",
		"I cannot categorize these outlets.",
		"{not json at all}",
		`{"categories": ["a", "b"]}`,
	} {
		_, err := Parse(reply)
		assert.Error(t, err, "reply %q", reply)
	}
}

func TestEnsureNeutral(t *testing.T) {
	tests := []struct {
		name   string
		in     []model.PerspectiveBucket
		labels []string
	}{
		{
			name:   "already present",
			in:     []model.PerspectiveBucket{{Label: "unbiased"}, {Label: "left"}},
			labels: []string{"unbiased", "left"},
		},
		{
			name:   "synonym renamed and moved last",
			in:     []model.PerspectiveBucket{{Label: "Neutral", Sources: []string{"AP"}}, {Label: "left"}},
			labels: []string{"left", "unbiased"},
		},
		{
			name:   "first synonym wins",
			in:     []model.PerspectiveBucket{{Label: "left"}, {Label: "Centre"}, {Label: "balanced"}},
			labels: []string{"left", "balanced", "unbiased"},
		},
		{
			name:   "appended when absent",
			in:     []model.PerspectiveBucket{{Label: "left"}, {Label: "right"}},
			labels: []string{"left", "right", "unbiased"},
		},
		{
			name:   "empty",
			in:     nil,
			labels: []string{"unbiased"},
		},
		{
			name:   "case variants merged",
			in:     []model.PerspectiveBucket{{Label: "UNBIASED", Sources: []string{"AP"}}, {Label: "unbiased", Sources: []string{"Reuters"}}, {Label: "left"}},
			labels: []string{"unbiased", "left"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnsureNeutral(model.Categorization{Buckets: tt.in})
			assert.Equal(t, tt.labels, labels(got))
		})
	}
}

func TestEnsureNeutral_MergeKeepsSources(t *testing.T) {
	in := model.Categorization{Buckets: []model.PerspectiveBucket{
		{Label: "Unbiased", Sources: []string{"AP", "BBC"}, Description: "variant"},
		{Label: "unbiased", Sources: []string{"Reuters", "AP"}},
	}}
	got := EnsureNeutral(in)
	require.Len(t, got.Buckets, 1)
	assert.Equal(t, []string{"Reuters", "AP", "BBC"}, got.Buckets[0].Sources)
	assert.Equal(t, "variant", got.Buckets[0].Description)
	assert.Equal(t, []string{"Reuters", "AP"}, in.Buckets[1].Sources, "input untouched")
}

func TestEnsureNeutral_ExactlyOneNeutral(t *testing.T) {
	replies := []string{
		`{"categories": {"a": [], "b": []}}`,
		`{"categories": {"Neutral": ["X"], "UNBIASED": ["Y"], "unbiased": ["Z"]}}`,
		`{"unbiased": [], "Unbiased": [], "center": []}`,
		`{"categories": {}}`,
		`{"reasoning": "nothing"}`,
		`{"categories": {"Objective": ["A"], "impartial": ["B"]}}`,
	}
	for _, reply := range replies {
		cat, err := Parse(reply)
		require.NoError(t, err, reply)
		cat = EnsureNeutral(cat)

		exact, folded := 0, 0
		for _, b := range cat.Buckets {
			if b.Label == model.NeutralLabel {
				exact++
			}
			if strings.EqualFold(b.Label, model.NeutralLabel) {
				folded++
			}
		}
		assert.Equal(t, 1, exact, reply)
		assert.Equal(t, 1, folded, reply)
	}
}

func TestAssign_FirstMatch(t *testing.T) {
	cat := model.Categorization{Buckets: []model.PerspectiveBucket{
		{Label: "left", Sources: []string{"Guardian", "Reuters"}},
		{Label: "unbiased", Sources: []string{"Reuters", "AP"}},
		{Label: "empty", Sources: []string{}},
	}}
	docs := []model.Document{
		{URL: "1", Source: "Reuters"},
		{URL: "2", Source: "AP"},
		{URL: "3", Source: "Unknown Blog"},
		{URL: "4", Source: "Guardian"},
	}

	got := Assign(cat, docs)
	assert.Len(t, got, 3)
	assert.Equal(t, []string{"1", "4"}, docURLs(got["left"]))
	assert.Equal(t, []string{"2"}, docURLs(got["unbiased"]))
	assert.Empty(t, got["empty"])
}

func docURLs(docs []model.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.URL
	}
	return out
}

const nestedReply = `{"categories": {"left": ["Guardian"], "neutral": ["Reuters", "AP"]}, "descriptions": {"neutral": "wires"}, "reasoning": "because"}`

func TestDiscover(t *testing.T) {
	p := llmtest.Text(nestedReply)
	c := NewCategorizer(p, nil, nil, metrics.New())

	cat := c.Discover(context.Background(), "claim", []string{"Reuters", "AP", "Guardian", "AP", ""})
	assert.True(t, cat.Parsed)
	assert.Equal(t, []string{"left", "unbiased"}, labels(cat))
	assert.Equal(t, "wires", cat.Buckets[1].Description)
	assert.Equal(t, "because", cat.Reasoning)

	reqs := p.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, 0.1, reqs[0].Temperature)
	assert.True(t, strings.HasSuffix(reqs[0].Prompt, "Query: claim\n\nNews Sources:\nAP\nGuardian\nReuters"))
}

func TestDiscover_Fallbacks(t *testing.T) {
	tests := []struct {
		name      string
		provider  *llmtest.Provider
		reasoning string
	}{
		{"unparseable", llmtest.Text("sorry, no JSON today"), "Failed to analyze bias"},
		{"rate limited", llmtest.Failing(llm.KindRateLimited), "Error in analysis: rate_limited"},
		{"unavailable", llmtest.Failing(llm.KindUnavailable), "Error in analysis: unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := NewCategorizer(tt.provider, nil, nil, nil).Discover(context.Background(), "claim", []string{"AP"})
			assert.False(t, cat.Parsed)
			assert.Equal(t, tt.reasoning, cat.Reasoning)
			require.Len(t, cat.Buckets, 1)
			assert.Equal(t, model.NeutralLabel, cat.Buckets[0].Label)
			assert.Empty(t, cat.Buckets[0].Sources)
		})
	}
}

func TestRankBuckets(t *testing.T) {
	e := &embedtest.Embedder{
		Vectors: map[string][]float32{
			"claim":      embedtest.Claim(),
			"left one":   embedtest.Similar(0.4),
			"left two":   embedtest.Similar(0.9),
			"left three": embedtest.Similar(0.05),
			"wire one":   embedtest.Similar(0.6),
		},
		Strict: true,
	}
	c := NewCategorizer(nil, rank.NewRanker(e, nil), nil, nil)

	cat := model.Categorization{Buckets: []model.PerspectiveBucket{
		{Label: "left"}, {Label: "broken"}, {Label: "unbiased"}, {Label: "empty"},
	}}
	assigned := map[string][]model.Document{
		"left":     {{Title: "left one", URL: "l1"}, {Title: "left two", URL: "l2"}, {Title: "left three", URL: "l3"}},
		"broken":   {{Title: "no vector for this title", URL: "b1"}},
		"unbiased": {{Title: "wire one", URL: "w1"}},
	}

	got := c.RankBuckets(context.Background(), "claim", cat, assigned, 0.1, 5)
	require.Len(t, got, 4)

	assert.Equal(t, "left", got[0].Label)
	assert.Equal(t, 3, got[0].Assigned)
	require.Len(t, got[0].Documents, 2)
	assert.Equal(t, "l2", got[0].Documents[0].URL)
	assert.Equal(t, 1, got[0].Documents[0].Rank)

	assert.Equal(t, "broken", got[1].Label)
	assert.Empty(t, got[1].Documents)
	assert.NotEmpty(t, got[1].Error)

	require.Len(t, got[2].Documents, 1)
	assert.Equal(t, "w1", got[2].Documents[0].URL)

	assert.Equal(t, "empty", got[3].Label)
	assert.NotNil(t, got[3].Documents)
	assert.Empty(t, got[3].Documents)
}

func TestRankBuckets_TopM(t *testing.T) {
	e := &embedtest.Embedder{Default: embedtest.Similar(0.5), Vectors: map[string][]float32{"claim": embedtest.Claim()}}
	c := NewCategorizer(nil, rank.NewRanker(e, nil), nil, nil)

	var docs []model.Document
	for _, u := range []string{"a", "b", "c", "d"} {
		docs = append(docs, model.Document{Title: u, URL: u})
	}
	cat := model.Categorization{Buckets: []model.PerspectiveBucket{{Label: "unbiased"}}}
	got := c.RankBuckets(context.Background(), "claim", cat, map[string][]model.Document{"unbiased": docs}, 0.1, 2)
	require.Len(t, got[0].Documents, 2)
	assert.Equal(t, "a", got[0].Documents[0].URL)
	assert.Equal(t, "b", got[0].Documents[1].URL)
}
