package translation

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/samber/lo"
)

// StaticProvider is the last element of the chain: idiom rules first,
// then word-by-word dictionary substitution. It cannot fail, which is
// what makes the pipeline total.
type StaticProvider struct {
	idioms map[Language][]idiomRule
	words  map[Language]map[string]string
}

type idiomRule struct {
	pattern *regexp.Regexp
	out     string
}

func NewStaticProvider() *StaticProvider {
	words := map[Language]map[string]string{
		Spanish: wordsEnglishSpanish,
		English: invert(wordsEnglishSpanish),
	}
	idioms := map[Language][]idiomRule{
		Spanish: {
			{regexp.MustCompile(`(?i)\bi'?m on my way\b`), "Voy en camino"},
			{regexp.MustCompile(`(?i)\bbe careful\b`), "Ten cuidado"},
			{regexp.MustCompile(`(?i)\bright away\b`), "Ahora mismo"},
			{regexp.MustCompile(`(?i)\bgood job\b`), "Buen trabajo"},
			{regexp.MustCompile(`(?i)\bcall me\b`), "Llámame"},
			{regexp.MustCompile(`(?i)\bsee you tomorrow\b`), "Hasta mañana"},
		},
		English: {
			{regexp.MustCompile(`(?i)voy en camino`), "I'm on my way"},
			{regexp.MustCompile(`(?i)ya voy`), "I'm on my way"},
			{regexp.MustCompile(`(?i)ten cuidado`), "Be careful"},
			{regexp.MustCompile(`(?i)ahora mismo`), "Right away"},
			{regexp.MustCompile(`(?i)buen trabajo`), "Good job"},
			{regexp.MustCompile(`(?i)ll[aá]mame`), "Call me"},
			{regexp.MustCompile(`(?i)hasta mañana`), "See you tomorrow"},
		},
	}
	return &StaticProvider{idioms: idioms, words: words}
}

func (p *StaticProvider) Name() string { return "dictionary" }

// Translate applies the first matching idiom rule, otherwise substitutes
// word by word. Unknown words pass through unchanged; the first letter of
// the result is capitalized.
func (p *StaticProvider) Translate(_ context.Context, text string, target Language) (string, error) {
	for _, rule := range p.idioms[target] {
		if rule.pattern.MatchString(text) {
			return rule.out, nil
		}
	}
	return capitalize(p.substitute(text, target)), nil
}

// substitute walks the text rune by rune, keeping separators intact and
// mapping whole words through the dictionary, case-insensitively.
func (p *StaticProvider) substitute(text string, target Language) string {
	dictionary := p.words[target]
	var out strings.Builder
	var word strings.Builder

	flush := func() {
		if word.Len() == 0 {
			return
		}
		w := word.String()
		if replacement, ok := dictionary[strings.ToLower(w)]; ok {
			out.WriteString(replacement)
		} else {
			out.WriteString(w)
		}
		word.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || r == '\'' {
			word.WriteRune(r)
			continue
		}
		flush()
		out.WriteRune(r)
	}
	flush()
	return out.String()
}

func capitalize(text string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return text
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// invert builds the Spanish to English table. Several English entries
// share a Spanish word ("crew" and "equipment" both map to "equipo"),
// so keys are walked in sorted order, first entry wins, and
// reverseOverrides settles the pairs where the alphabetical winner is
// not the natural reading. The result is identical on every run.
func invert(words map[string]string) map[string]string {
	keys := lo.Keys(words)
	sort.Strings(keys)
	inverted := make(map[string]string, len(words))
	for _, en := range keys {
		es := strings.ToLower(words[en])
		if _, taken := inverted[es]; !taken {
			inverted[es] = en
		}
	}
	for es, en := range reverseOverrides {
		inverted[es] = en
	}
	return inverted
}

var reverseOverrides = map[string]string{
	"mañana": "tomorrow",
}

// Core jobsite vocabulary. Last-resort heuristic, not a real translator.
var wordsEnglishSpanish = map[string]string{
	"hello":     "hola",
	"yes":       "sí",
	"thanks":    "gracias",
	"today":     "hoy",
	"tomorrow":  "mañana",
	"late":      "tarde",
	"early":     "temprano",
	"now":       "ahora",
	"work":      "trabajo",
	"jobsite":   "obra",
	"site":      "obra",
	"boss":      "jefe",
	"crew":      "equipo",
	"tools":     "herramientas",
	"equipment": "equipo",
	"cement":    "cemento",
	"concrete":  "concreto",
	"bricks":    "ladrillos",
	"wood":      "madera",
	"paint":     "pintura",
	"nails":     "clavos",
	"ladder":    "escalera",
	"helmet":    "casco",
	"truck":     "camión",
	"wall":      "pared",
	"roof":      "techo",
	"floor":     "piso",
	"water":     "agua",
	"rain":      "lluvia",
	"weather":   "clima",
	"safety":    "seguridad",
	"danger":    "peligro",
	"careful":   "cuidado",
	"need":      "necesito",
	"more":      "más",
	"ready":     "listo",
	"done":      "terminado",
	"finished":  "terminado",
	"break":     "descanso",
	"lunch":     "almuerzo",
	"hour":      "hora",
	"minutes":   "minutos",
	"where":     "dónde",
	"when":      "cuándo",
	"materials": "materiales",
	"delivery":  "entrega",
	"schedule":  "horario",
	"meeting":   "reunión",
	"inspection": "inspección",
	"morning":   "mañana",
	"monday":    "lunes",
	"friday":    "viernes",
}
