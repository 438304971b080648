package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pearcec/calagent/internal/normalize"
)

// CalendarPrompt builds the analysis prompt for Ask.
func CalendarPrompt(events []normalize.Event, question, zone string, days int) (string, error) {
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode calendar data: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You are a helpful AI assistant that analyzes Google Calendar data.\n")
	fmt.Fprintf(&sb, "The user's timezone is %s.\n", zone)
	fmt.Fprintf(&sb, "Here is the user's calendar data for the next %d days (all times in %s):\n\n", days, zone)
	sb.Write(data)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "User Question: %s\n\n", question)
	sb.WriteString("Please provide a helpful analysis based on the calendar data above. Be concise and actionable.\n")
	fmt.Fprintf(&sb, "All times mentioned should be in the user's timezone (%s).\n", zone)
	return sb.String(), nil
}

// AnalyticsPrompt appends caller data to a free-form prompt.
func AnalyticsPrompt(userPrompt, data string) string {
	var sb strings.Builder
	sb.WriteString(userPrompt)
	sb.WriteString("\n\nHere is the calendar data:\n\n")
	sb.WriteString(data)
	return sb.String()
}
