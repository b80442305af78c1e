package ai

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"termcal/internal/events"
)

// ParsedEvent is the JSON shape the model is asked to return
type ParsedEvent struct {
	Title             string `json:"title"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	Location          string `json:"location"`
	Description       string `json:"description"`
	AllDay            bool   `json:"all_day"`
	ReminderMinutes   int    `json:"reminder_minutes"`
	ReminderSpecified bool   `json:"reminder_specified"`
}

// ParseEventResponse parses the AI response into a ParsedEvent
func ParseEventResponse(response string) (*ParsedEvent, error) {
	response = stripMarkdownCodeFences(response)

	var event ParsedEvent
	if err := json.Unmarshal([]byte(response), &event); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	return &event, nil
}

// stripMarkdownCodeFences removes ```json ... ``` wrappers from response
func stripMarkdownCodeFences(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
	}

	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}

// GetStartTime parses the start time string into time.Time
func (e *ParsedEvent) GetStartTime() (time.Time, error) {
	return time.Parse(time.RFC3339, e.StartTime)
}

// GetEndTime parses the end time string into time.Time
func (e *ParsedEvent) GetEndTime() (time.Time, error) {
	return time.Parse(time.RFC3339, e.EndTime)
}

// ToEvent converts the parsed response into a validated event. A missing
// end time falls back to start + defaultDuration.
func (e *ParsedEvent) ToEvent(defaultDuration time.Duration) (events.Event, error) {
	start, err := e.GetStartTime()
	if err != nil {
		return events.Event{}, fmt.Errorf("invalid start time: %w", err)
	}
	start = start.Local()

	end := start.Add(defaultDuration)
	if e.EndTime != "" {
		parsedEnd, err := e.GetEndTime()
		if err != nil {
			return events.Event{}, fmt.Errorf("invalid end time: %w", err)
		}
		end = parsedEnd.Local()
	}

	ev, err := events.New(e.Title, e.Description, start, end)
	if err != nil {
		return events.Event{}, err
	}
	ev.Location = e.Location
	ev.AllDay = e.AllDay
	if e.ReminderSpecified && e.ReminderMinutes > 0 {
		ev.ReminderMinutes = e.ReminderMinutes
	}
	return ev, nil
}

// ParseEventPrompt builds a prompt for parsing natural language into a calendar event
func ParseEventPrompt(input string, now time.Time) string {
	return fmt.Sprintf(`Parse this natural language into a calendar event.

Current date/time: %s (%s)

User input: "%s"

Respond with ONLY a JSON object (no markdown, no explanation):
{
  "title": "event title",
  "start_time": "2024-12-25T10:00:00-08:00",
  "end_time": "2024-12-25T11:00:00-08:00",
  "location": "location if mentioned, otherwise empty string",
  "description": "extra details if mentioned, otherwise empty string",
  "all_day": false,
  "reminder_minutes": 5,
  "reminder_specified": true
}

Rules:
- start_time and end_time must be in RFC3339 format with timezone
- If no duration specified, default to 1 hour
- For all-day events set all_day=true, start at 00:00 and end at 00:00 the next day
- If user says "remind me X minutes before" or similar, set reminder_minutes and reminder_specified=true
- If no reminder mentioned, set reminder_minutes=0 and reminder_specified=false
- Extract location if mentioned (e.g., "at the coffee shop")
- Use the current date/time to interpret relative dates like "tomorrow", "next Monday"

Respond with ONLY the JSON, no other text.`, now.Format(time.RFC3339), now.Format("Monday"), input)
}
