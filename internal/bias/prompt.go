package bias

import "strings"

const instructions = `You are an expert media bias analyzer. Your task is to categorize news sources into bias categories based on their reporting styles, focus, and potential biases.

Analyze the provided list of news outlets in the context of the user's query. Identify any number of distinct bias categories that best describe the potential biases in these sources, plus EXACTLY one "unbiased" category (not "neutral" or any other name). The categories should reflect the relevant dimensions of bias for this specific query and set of outlets.

For example, depending on the query and outlets, your categories might be:
- Query about climate change: "industry-funded", "environmental-activist", "unbiased"
- Query about international conflict: "pro-western", "state-controlled", "anti-western", "regional-perspective", "unbiased"
- Query about economic policy: "pro-business", "labor-oriented", "progressive", "conservative", "unbiased"

Consider these factors:
- Historical reporting patterns and perspectives
- Ownership and financial interests
- Terminology and framing used in headlines
- Fact-based vs. opinion-heavy reporting
- Regional or national interests that may influence coverage

CRITICAL REQUIREMENT: One category MUST be exactly named "unbiased" (not "neutral", "balanced", "centrist", or any other variation).

Return your response in the exact JSON format shown below:
{
  "categories": {
    "bias category 1": [list of outlet names in this category],
    "bias category 2": [list of outlet names in this category],
    "unbiased": [list of outlet names that are generally neutral]
  },
  "descriptions": {
    "bias category 1": "A concise description of what this category represents",
    "bias category 2": "A concise description of what this category represents",
    "unbiased": "A concise description of what this category represents"
  },
  "reasoning": "A brief explanation of your overall categorization approach"
}

The number of bias categories can vary based on the query and news sources. Create as many distinct categories as needed to represent the different perspectives accurately.

Replace "bias category 1", "bias category 2", etc. with meaningful names that describe the bias types you've identified.
Be comprehensive and put every outlet in exactly one category, using the outlet names exactly as listed.
IMPORTANT: You MUST name one category exactly "unbiased" (lowercase) without any variation.`

// BuildPrompt renders the discovery prompt for claim and the outlet names
func BuildPrompt(claim string, sources []string) string {
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\nQuery: ")
	b.WriteString(claim)
	b.WriteString("\n\nNews Sources:\n")
	b.WriteString(strings.Join(sources, "\n"))
	return b.String()
}
