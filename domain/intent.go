package domain

// Intent categories produced by classification.
const (
	IntentSchedule    = "schedule"
	IntentReport      = "report"
	IntentAlert       = "alert"
	IntentRequest     = "request"
	IntentInformation = "information"
)

// Intent is the structured reading of a raw command.
// The AI path and the keyword fallback both produce this exact shape so
// downstream code never needs to know which path ran.
type Intent struct {
	Intent           string   `json:"intent"`
	Action           string   `json:"action"`
	Entities         []string `json:"entities"`
	Priority         string   `json:"priority"`
	JobsiteRelevant  bool     `json:"jobsiteRelevant"`
	RequiresResponse bool     `json:"requiresResponse"`
}
