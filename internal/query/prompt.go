package query

import (
	"fmt"
	"strings"
	"time"
)

// RejectionSentinel is the exact provider reply for claims that must not be searched
const RejectionSentinel = "INAPPROPRIATE_QUERY_DETECTED"

// Separator joins query variations in the provider reply
const Separator = "|||"

const instructions = `You build search queries for the GDELT 2.0 DOC API.
Turn the user's claim into %[1]d different query variations, written in plain words.

First check whether the claim asks for pornographic or sexually explicit content.
If it does, reply with exactly this string and nothing else:
%[2]s

Otherwise follow these rules:
1. Keep every variation in the same language as the claim.
2. Fix spelling mistakes in the claim first.
3. Drop words of two characters or fewer when meaning is kept.
4. Join terms with AND only. Never use OR or NOT.
5. Make the first half of the variations journalistic phrases with verbs ("announced sanctions", "threatens military action").
   Make the second half entities and nouns only, no verbs ("European Union" AND "Russia" AND "sanctions").
6. Every term inside query= must be at least 5 characters long. Expand short terms ("UK" becomes "United Kingdom", "US" becomes "United States").
   This does not apply to sourcecountry, sourceregion or date parameters.
7. Infer locations from people, events and organizations in the claim.
   Add sourcecountry=<ISO code> for countries and sourceregion=<code> for regions (Europe is sourceregion=EU).
8. For time references ("yesterday", "last week", "June 2025") add startdatetime and enddatetime as YYYYMMDDHHMMSS.
   Today is %[3]s; compute relative ranges from it.
9. Write the search terms as query=<terms>, quoting exact phrases: query="climate change" AND "global warming".
   Join parameters with &.
10. Return exactly %[1]d variations separated by %[4]s and no explanations.

Examples:
Claim: Did a tsunami really happen in Japan yesterday?
Reply: query="tsunami" AND "Japan"&sourcecountry=JP&startdatetime=%[5]s000000&enddatetime=%[5]s235959 %[4]s query="natural disaster" AND "Japan"&sourcecountry=JP&startdatetime=%[5]s000000&enddatetime=%[5]s235959

Claim: Is it true that there was an explosion near the Eiffel Tower?
Reply: query="explosion" AND "Eiffel Tower"&sourcecountry=FR&sourceregion=EU %[4]s query="security" AND "Eiffel Tower" AND "Paris"&sourcecountry=FR&sourceregion=EU

Claim: ¿Hubo una manifestación en Madrid ayer?
Reply: query="manifestación" AND "Madrid"&sourcecountry=ES %[4]s query="protesta" AND "Madrid"&sourcecountry=ES`

// BuildPrompt renders the instruction prompt followed by the claim
func BuildPrompt(claim string, count int, now time.Time) string {
	yesterday := now.AddDate(0, 0, -1).Format("20060102")
	var b strings.Builder
	fmt.Fprintf(&b, instructions, count, RejectionSentinel, now.Format("2006-01-02"), Separator, yesterday)
	b.WriteString("\n\nUser request: ")
	b.WriteString(claim)
	return b.String()
}
