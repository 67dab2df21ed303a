package intent

import "crew-relay/domain"

// keywordGroups is ordered: the first group with a hit wins.
var keywordGroups = []struct {
	intent   string
	keywords []string
}{
	{domain.IntentSchedule, []string{
		"schedule", "calendar", "meeting", "appointment", "tomorrow",
		"monday", "tuesday", "wednesday", "thursday", "friday",
	}},
	{domain.IntentReport, []string{
		"report", "finished", "done", "complete", "progress", "status", "update",
	}},
	{domain.IntentAlert, []string{
		"alert", "emergency", "danger", "accident", "injury", "warning", "urgent", "safety",
	}},
	{domain.IntentRequest, []string{
		"need", "request", "send", "bring", "order", "require", "materials",
	}},
}
