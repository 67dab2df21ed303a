package schedule

import (
	"log/slog"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"crew-relay/domain"
	"crew-relay/repositories"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })
	return db
}

func TestSummaryWorker_Compose_Lists_Jobsites_And_Todays_Events(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	log := slog.Default()
	jobsites := repositories.NewJobsiteRepository(db, log)
	messages := repositories.NewMessageRepository(db, log)

	req.NoError(jobsites.Save(domain.Jobsite{
		ID:        uuid.New(),
		Name:      "Downtown Renovation",
		Status:    domain.JobsiteActive,
		StartDate: time.Now().UTC(),
	}))

	day := time.Date(2026, 3, 9, 7, 0, 0, 0, time.UTC)
	event := domain.Message{
		ID:              uuid.New(),
		Text:            "Concrete pour",
		UserID:          "boss-1",
		IsUser:          true,
		IsCalendarEvent: true,
		EventTitle:      "Concrete pour",
		EventDate:       "2026-03-09",
		CreatedAt:       day,
	}
	req.NoError(messages.Store(event))
	tomorrow := domain.Message{
		ID:              uuid.New(),
		Text:            "Inspection",
		UserID:          "boss-1",
		IsUser:          true,
		IsCalendarEvent: true,
		EventTitle:      "Inspection",
		EventDate:       "2026-03-10",
		CreatedAt:       day.Add(time.Minute),
	}
	req.NoError(messages.Store(tomorrow))

	worker := NewSummaryWorker("0 7 * * *", jobsites, messages, nil, nil, nil, log)
	summary := worker.compose(day)

	req.Contains(summary.EN, "Downtown Renovation (active)")
	req.Contains(summary.EN, "today: Concrete pour")
	req.NotContains(summary.EN, "Inspection")
	req.Contains(summary.ES, "hoy: Concrete pour")
}

func TestSummaryWorker_Compose_Empty_Schedule(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	log := slog.Default()
	jobsites := repositories.NewJobsiteRepository(db, log)
	messages := repositories.NewMessageRepository(db, log)

	worker := NewSummaryWorker("0 7 * * *", jobsites, messages, nil, nil, nil, log)
	summary := worker.compose(time.Now().UTC())

	req.Equal("Good morning. Nothing on the schedule today.", summary.EN)
	req.Equal("Buenos días. No hay nada en el horario hoy.", summary.ES)
}

func TestSummaryWorker_Run_Rejects_Bad_Schedule(t *testing.T) {
	req := require.New(t)
	worker := NewSummaryWorker("not a schedule", nil, nil, nil, nil, nil, slog.Default())
	err := worker.Run(t.Context())
	req.Error(err)
	req.Contains(err.Error(), "invalid summary schedule")
}
