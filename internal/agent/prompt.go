package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MrWong99/tripmate/internal/offers"
	"github.com/MrWong99/tripmate/internal/planner"
	"github.com/MrWong99/tripmate/internal/trip"
)

// DefaultPersona is the style instruction used when none is configured.
const DefaultPersona = `You are Tripmate, a friendly travel-deals assistant.
Keep replies short (two to four sentences), warm and concrete.
Ask at most one question per reply.
Never invent prices, schedules or availability.
Reply in the language the user writes in.`

// mergeInstructions tells the model how to merge a message into the state.
const mergeInstructions = `You maintain the trip-planning state of a travel conversation.
Merge any new information from the user's message into the current state and
return ONLY the merged state as a single JSON object. Use exactly these keys:
destination, departureCity, dates, partySize, budget, tripType, interests.
Use null for anything still unknown. Keep known values unless the user
changes them. Write dates as "YYYY-MM-DD to YYYY-MM-DD" when both ends are
known. Do not add commentary.`

// actionGuidance explains each planner action to the reply model.
var actionGuidance = map[planner.Action]string{
	planner.ActionAskQuestion:  "Ask the user for the focus field. Ask nothing else.",
	planner.ActionSuggestOffer: "Tell the user you found some options. Offer cards are shown separately.",
	planner.ActionProvideInfo:  "Share useful information about the destination.",
	planner.ActionGeneralChat:  "Chat naturally and help with anything else about the trip.",
}

// buildMergePrompt renders the system prompt for the state-merge call.
func buildMergePrompt(s trip.State) string {
	return mergeInstructions + "\n\nCurrent state:\n" + mergeView(s)
}

// mergeView is the state as the merge model sees it: data fields only,
// unknowns as null, no bookkeeping.
func mergeView(s trip.State) string {
	field := func(v string) string {
		if v == "" {
			return "null"
		}
		b, _ := json.Marshal(v)
		return string(b)
	}
	return fmt.Sprintf(`{"destination":%s,"departureCity":%s,"dates":%s,"partySize":%s,"budget":%s,"tripType":%s,"interests":%s}`,
		field(s.Destination), field(s.DepartureCity), field(s.Dates),
		field(s.PartySize), field(s.Budget), field(s.TripType), field(s.Interests))
}

// buildReplyPrompt renders the system prompt for the reply call. Empty
// sections are omitted.
func buildReplyPrompt(persona string, s trip.State, p planner.Plan, toolContext []string) string {
	var sb strings.Builder

	sb.WriteString(strings.TrimSpace(persona))

	sb.WriteString("\n\n## Trip State\n")
	sb.WriteString(s.JSON())

	sb.WriteString("\n\n## Plan\n")
	sb.WriteString(p.JSON())
	if g, ok := actionGuidance[p.NextAction]; ok {
		sb.WriteString("\n")
		sb.WriteString(g)
	}

	if len(toolContext) > 0 {
		sb.WriteString("\n\n## Tool Context\n")
		for _, line := range toolContext {
			sb.WriteString("- ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// offerNote is the tool-context line added when a batch was produced.
func offerNote(b offers.Batch) string {
	return fmt.Sprintf("System note: %d %s offer card(s) are displayed to the user below your reply. Mention them briefly in one sentence; do not list providers, links or prices.",
		len(b.Cards), b.Category)
}

// knowledgeNote is the tool-context line for a destination fact.
func knowledgeNote(destination, fact string) string {
	return fmt.Sprintf("Destination fact (%s): %s", destination, fact)
}
