package repositories

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"crew-relay/domain"
	relayerrors "crew-relay/errors"
)

func Test_Jobsite_Save_Get_List(t *testing.T) {
	req := require.New(t)
	repository := NewJobsiteRepository(openTestDB(t), slog.Default())

	jobsite := domain.Jobsite{
		ID:        uuid.New(),
		Name:      "Downtown Renovation",
		Status:    domain.JobsiteActive,
		StartDate: time.Now().UTC(),
	}
	req.NoError(repository.Save(jobsite))

	fetched, err := repository.Get(jobsite.ID)
	req.NoError(err)
	req.Equal(jobsite.Name, fetched.Name)
	req.Equal(domain.JobsiteActive, fetched.Status)
	req.Nil(fetched.EndDate)

	end := jobsite.StartDate.Add(30 * 24 * time.Hour)
	jobsite.Status = domain.JobsiteDelayed
	jobsite.EndDate = &end
	req.NoError(repository.Save(jobsite))

	fetched, err = repository.Get(jobsite.ID)
	req.NoError(err)
	req.Equal(domain.JobsiteDelayed, fetched.Status)
	req.NotNil(fetched.EndDate)

	all, err := repository.List()
	req.NoError(err)
	req.Len(all, 1)
}

func Test_Jobsite_Get_Missing(t *testing.T) {
	req := require.New(t)
	repository := NewJobsiteRepository(openTestDB(t), slog.Default())

	_, err := repository.Get(uuid.New())
	req.ErrorIs(err, relayerrors.ErrJobsiteNotFound)
}

func Test_Command_Store_Get_Recent(t *testing.T) {
	req := require.New(t)
	repository := NewCommandRepository(openTestDB(t), slog.Default())

	at := time.Now().UTC()
	first := domain.Command{ID: uuid.New(), Text: "crew is late", UserID: "boss-1", CreatedAt: at}
	second := domain.Command{ID: uuid.New(), Text: "rain expected tomorrow", UserID: "boss-1", CreatedAt: at.Add(time.Minute)}
	req.NoError(repository.Store(first))
	req.NoError(repository.Store(second))

	fetched, err := repository.Get(first.ID)
	req.NoError(err)
	req.Equal(first.Text, fetched.Text)

	recent, err := repository.Recent(1)
	req.NoError(err)
	req.Len(recent, 1)
	req.Equal(second.ID, recent[0].ID)
}
