package relay

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"crew-relay/domain"
	"crew-relay/repositories"
	"crew-relay/translation"
)

// weatherWords flag a command as a weather alert when looking replies up.
var weatherWords = []string{"weather", "rain", "storm", "wind", "clima", "lluvia", "tormenta"}

// BilingualReply is one canned answer rendered in both supported
// languages at once.
type BilingualReply struct {
	EN string
	ES string
}

func (r BilingualReply) In(language translation.Language) string {
	if language == translation.Spanish {
		return r.ES
	}
	return r.EN
}

// ReplyBook selects canned chat replies. Rules run in a fixed order
// (location, weather, status, fallback) and the first match wins, even
// when keywords from several rules appear in one message.
type ReplyBook struct {
	jobsites repositories.IJobsiteRepository
	commands repositories.ICommandRepository
}

func NewReplyBook(jobsites repositories.IJobsiteRepository, commands repositories.ICommandRepository) *ReplyBook {
	return &ReplyBook{jobsites: jobsites, commands: commands}
}

// Reply matches against the translated text, which keeps rule matching
// language-agnostic from the caller's perspective, and returns the
// answer in both languages.
func (b *ReplyBook) Reply(_ context.Context, translatedText string) BilingualReply {
	text := strings.ToLower(translatedText)

	if containsAny(text, "where", "location", "address", "dónde", "donde", "ubicación", "ubicacion") {
		return b.locationReply()
	}
	if containsAny(text, weatherWords...) {
		return b.weatherReply()
	}
	if containsAny(text, "status", "progress", "estado", "progreso", "avance") {
		return b.statusReply()
	}
	return BilingualReply{
		EN: "I don't have information about that yet.",
		ES: "No tengo información sobre eso todavía.",
	}
}

func (b *ReplyBook) locationReply() BilingualReply {
	jobsites, err := b.jobsites.List()
	if err != nil || len(jobsites) == 0 {
		return BilingualReply{
			EN: "No active jobsites right now.",
			ES: "No hay obras activas ahora.",
		}
	}
	names := strings.Join(lo.Map(jobsites, func(j domain.Jobsite, _ int) string {
		return j.Name
	}), ", ")
	return BilingualReply{
		EN: fmt.Sprintf("Crews are on site at: %s.", names),
		ES: fmt.Sprintf("Los equipos están en: %s.", names),
	}
}

// weatherReply surfaces the latest weather-flavored command, if any.
func (b *ReplyBook) weatherReply() BilingualReply {
	commands, err := b.commands.Recent(20)
	if err == nil {
		for _, command := range commands {
			if containsAny(strings.ToLower(command.Text), weatherWords...) {
				return BilingualReply{
					EN: fmt.Sprintf("Latest weather alert: %s", command.Text),
					ES: fmt.Sprintf("Última alerta del clima: %s", command.Text),
				}
			}
		}
	}
	return BilingualReply{
		EN: "No weather alerts today.",
		ES: "No hay alertas del clima hoy.",
	}
}

func (b *ReplyBook) statusReply() BilingualReply {
	jobsites, err := b.jobsites.List()
	if err != nil || len(jobsites) == 0 {
		return BilingualReply{
			EN: "No active jobsites right now.",
			ES: "No hay obras activas ahora.",
		}
	}
	var en, es []string
	for _, jobsite := range jobsites {
		en = append(en, fmt.Sprintf("%s is %s", jobsite.Name, jobsite.Status))
		es = append(es, fmt.Sprintf("%s está %s", jobsite.Name, statusSpanish(jobsite.Status)))
	}
	return BilingualReply{
		EN: fmt.Sprintf("Status: %s.", strings.Join(en, ", ")),
		ES: fmt.Sprintf("Estado: %s.", strings.Join(es, ", ")),
	}
}

func statusSpanish(status domain.JobsiteStatus) string {
	switch status {
	case domain.JobsiteDelayed:
		return "retrasada"
	case domain.JobsiteCompleted:
		return "terminada"
	default:
		return "activa"
	}
}

func containsAny(text string, words ...string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
