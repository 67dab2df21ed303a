// Package schedule runs the recurring jobsite jobs.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"crew-relay/notify"
	"crew-relay/relay"
	"crew-relay/repositories"
)

// SummaryWorker broadcasts a bilingual morning summary of active
// jobsites and the day's calendar events, and pushes the same text
// through the notifier.
type SummaryWorker struct {
	spec       string
	jobsites   repositories.IJobsiteRepository
	messages   repositories.IMessageRepository
	hub        *relay.Hub
	notifier   notify.Notifier
	recipients []notify.Recipient
	log        *slog.Logger
}

func NewSummaryWorker(
	spec string,
	jobsites repositories.IJobsiteRepository,
	messages repositories.IMessageRepository,
	hub *relay.Hub,
	notifier notify.Notifier,
	recipients []notify.Recipient,
	log *slog.Logger,
) *SummaryWorker {
	return &SummaryWorker{
		spec:       spec,
		jobsites:   jobsites,
		messages:   messages,
		hub:        hub,
		notifier:   notifier,
		recipients: recipients,
		log:        log,
	}
}

// Run blocks until the context is canceled. Implements contract.Worker.
func (w *SummaryWorker) Run(ctx context.Context) error {
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(w.spec, func() { w.publish(ctx) }); err != nil {
		return fmt.Errorf("invalid summary schedule %q: %w", w.spec, err)
	}
	scheduler.Start()
	<-ctx.Done()
	stopped := scheduler.Stop()
	<-stopped.Done()
	return nil
}

func (w *SummaryWorker) publish(ctx context.Context) {
	summary := w.compose(time.Now().UTC())
	w.hub.Broadcast(relay.DaySummary{
		Type:      "day-summary",
		Text:      summary.EN,
		TextES:    summary.ES,
		Timestamp: time.Now().UTC(),
	})
	notify.NotifyAll(ctx, w.log, w.notifier, w.recipients, summary.ES)
	w.log.Info("day summary published")
}

func (w *SummaryWorker) compose(day time.Time) relay.BilingualReply {
	var en, es []string

	jobsites, err := w.jobsites.List()
	if err != nil {
		w.log.Warn("failed to list jobsites for summary", "error", err)
	}
	for _, jobsite := range jobsites {
		en = append(en, fmt.Sprintf("%s (%s)", jobsite.Name, jobsite.Status))
		es = append(es, jobsite.Name)
	}

	events, err := w.messages.CalendarEvents()
	if err != nil {
		w.log.Warn("failed to list calendar events for summary", "error", err)
	}
	today := day.Format("2006-01-02")
	for _, event := range events {
		if event.EventDate == today {
			en = append(en, fmt.Sprintf("today: %s", event.EventTitle))
			es = append(es, fmt.Sprintf("hoy: %s", event.EventTitle))
		}
	}

	if len(en) == 0 {
		return relay.BilingualReply{
			EN: "Good morning. Nothing on the schedule today.",
			ES: "Buenos días. No hay nada en el horario hoy.",
		}
	}
	return relay.BilingualReply{
		EN: fmt.Sprintf("Good morning. On deck: %s.", strings.Join(en, ", ")),
		ES: fmt.Sprintf("Buenos días. Pendiente: %s.", strings.Join(es, ", ")),
	}
}
