// Package intent derives structured intents from raw command text.
package intent

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	goahocorasick "github.com/anknown/ahocorasick"

	"crew-relay/domain"
)

// Completer is the AI side of classification. Nil is allowed; the
// classifier then always takes the keyword path.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

const classifySystemPrompt = `You classify short construction jobsite commands.
Respond with a single JSON object, no other text, with exactly these fields:
{"intent": one of "schedule"|"report"|"alert"|"request"|"information",
 "action": short imperative restatement,
 "entities": array of strings naming people, places, materials,
 "priority": "low"|"medium"|"high",
 "jobsiteRelevant": boolean,
 "requiresResponse": boolean}`

// Models sometimes wrap the object in prose; pull out the first JSON
// object before parsing.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

type Classifier struct {
	completer Completer
	matcher   *goahocorasick.Machine
	category  map[string]string
	log       *slog.Logger
}

func NewClassifier(log *slog.Logger, completer Completer) (*Classifier, error) {
	category := make(map[string]string)
	var patterns [][]rune
	for _, group := range keywordGroups {
		for _, keyword := range group.keywords {
			category[keyword] = group.intent
			patterns = append(patterns, []rune(keyword))
		}
	}
	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Classifier{completer: completer, matcher: machine, category: category, log: log}, nil
}

// Classify tries the AI path and falls back to keyword matching on any
// failure. Both paths return the same shape, so callers never branch on
// which one ran.
func (c *Classifier) Classify(ctx context.Context, text string, jobsiteProvided bool) domain.Intent {
	if c.completer != nil {
		if result, err := c.classifyAI(ctx, text); err == nil {
			return result
		} else {
			c.log.Warn("AI classification failed, using keyword fallback", "error", err)
		}
	}
	return c.fallback(text, jobsiteProvided)
}

func (c *Classifier) classifyAI(ctx context.Context, text string) (domain.Intent, error) {
	raw, err := c.completer.Complete(ctx, classifySystemPrompt, text)
	if err != nil {
		return domain.Intent{}, err
	}
	extracted := jsonObjectPattern.FindString(raw)
	if extracted == "" {
		extracted = raw
	}
	var result domain.Intent
	if err := json.Unmarshal([]byte(extracted), &result); err != nil {
		return domain.Intent{}, err
	}
	if !knownIntent(result.Intent) {
		result.Intent = domain.IntentInformation
	}
	if result.Action == "" {
		result.Action = text
	}
	if result.Entities == nil {
		result.Entities = []string{}
	}
	if result.Priority == "" {
		result.Priority = "medium"
	}
	return result, nil
}

// fallback assigns the first intent category, in fixed precedence order,
// whose keywords appear in the text.
func (c *Classifier) fallback(text string, jobsiteProvided bool) domain.Intent {
	matched := make(map[string]bool)
	for _, term := range c.matcher.MultiPatternSearch([]rune(strings.ToLower(text)), false) {
		matched[c.category[string(term.Word)]] = true
	}

	result := domain.IntentInformation
	for _, group := range keywordGroups {
		if matched[group.intent] {
			result = group.intent
			break
		}
	}

	return domain.Intent{
		Intent:           result,
		Action:           text,
		Entities:         []string{},
		Priority:         "medium",
		JobsiteRelevant:  jobsiteProvided,
		RequiresResponse: strings.HasSuffix(strings.TrimSpace(text), "?"),
	}
}

func knownIntent(intent string) bool {
	switch intent {
	case domain.IntentSchedule, domain.IntentReport, domain.IntentAlert,
		domain.IntentRequest, domain.IntentInformation:
		return true
	}
	return false
}
