package digitengine

import "strings"

// Group names a multi-step digit-collection group.
type Group string

// Supported groups.
const (
	GroupBanking Group = "banking"
	GroupCard    Group = "card"
)

// groupSteps is the fixed ordered profile-id sequence for each group.
var groupSteps = map[Group][]string{
	GroupBanking: {"routing_number", "account_number"},
	GroupCard:    {"card_number", "card_expiry", "zip", "cvv"},
}

var bankingKeywords = []string{"routing", "aba", "checking", "savings"}
var cardKeywords = []string{"card number", "cvv", "expiry", "zip"}

// ResolveGroup returns the explicit group if it names one, otherwise infers
// one from the prompt by counting each group's keyword matches; the group
// with more matches wins. There are no negative keywords, so one group's
// matches never veto the other's. A tie between groups, or no keyword
// match at all, leaves mode "normal" with no implicit plan.
func ResolveGroup(explicit string, prompt string) (Group, bool) {
	switch Group(explicit) {
	case GroupBanking, GroupCard:
		return Group(explicit), true
	}
	if prompt == "" {
		return "", false
	}
	lower := strings.ToLower(prompt)

	bankingScore := countMatches(lower, bankingKeywords)
	cardScore := countMatches(lower, cardKeywords)

	if bankingScore == 0 && cardScore == 0 {
		return "", false
	}
	if bankingScore == cardScore {
		return "", false
	}
	if bankingScore > cardScore {
		return GroupBanking, true
	}
	return GroupCard, true
}

func countMatches(lower string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}

// StepsFor returns the fixed ordered profile-id sequence for a group.
func StepsFor(g Group) []string {
	steps := groupSteps[g]
	out := make([]string, len(steps))
	copy(out, steps)
	return out
}
