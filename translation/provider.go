// Package translation renders messages between the boss's English and the
// crew's Spanish through an ordered chain of providers.
package translation

import "context"

type Language string

const (
	English Language = "en"
	Spanish Language = "es"
)

// Other returns the opposite supported language.
func (l Language) Other() Language {
	if l == Spanish {
		return English
	}
	return Spanish
}

// Provider is one translation strategy. Providers may fail; the Pipeline
// decides what happens next.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text string, target Language) (string, error)
}
