package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"crew-relay/domain"
	"crew-relay/errors"
)

type IJobsiteRepository interface {
	Save(jobsite domain.Jobsite) error
	Get(id uuid.UUID) (domain.Jobsite, error)
	List() ([]domain.Jobsite, error)
}

type JobsiteRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewJobsiteRepository(db *badger.DB, log *slog.Logger) JobsiteRepository {
	return JobsiteRepository{db: db, log: log}
}

type diskJobsite struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	StartDate int64  `json:"startDate"`
	EndDate   *int64 `json:"endDate,omitempty"`
}

// Save upserts a jobsite under "job:{uuid}". Jobsites are few and
// mutated in place, so no chronological key is needed.
func (j JobsiteRepository) Save(jobsite domain.Jobsite) error {
	dj := diskJobsite{
		ID:        jobsite.ID.String(),
		Name:      jobsite.Name,
		Status:    string(jobsite.Status),
		StartDate: jobsite.StartDate.UnixNano(),
	}
	if jobsite.EndDate != nil {
		end := jobsite.EndDate.UnixNano()
		dj.EndDate = &end
	}
	bytes, err := json.Marshal(dj)
	if err != nil {
		return err
	}
	return j.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(jobsiteKey(jobsite.ID)), bytes)
	})
}

func (j JobsiteRepository) Get(id uuid.UUID) (domain.Jobsite, error) {
	var jobsite domain.Jobsite
	err := j.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(jobsiteKey(id)))
		if err == badger.ErrKeyNotFound {
			return errors.ErrJobsiteNotFound
		}
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		jobsite, err = toJobsite(value)
		return err
	})
	return jobsite, err
}

func (j JobsiteRepository) List() ([]domain.Jobsite, error) {
	var jobsites []domain.Jobsite
	err := j.db.View(func(txn *badger.Txn) error {
		prefix := []byte("job:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var value []byte
			if err := it.Item().Value(func(v []byte) error {
				value = append([]byte{}, v...)
				return nil
			}); err != nil {
				return err
			}
			jobsite, err := toJobsite(value)
			if err != nil {
				return err
			}
			jobsites = append(jobsites, jobsite)
		}
		return nil
	})
	return jobsites, err
}

func jobsiteKey(id uuid.UUID) string {
	return fmt.Sprintf("job:%s", id)
}

func toJobsite(value []byte) (domain.Jobsite, error) {
	var dj diskJobsite
	if err := json.Unmarshal(value, &dj); err != nil {
		return domain.Jobsite{}, err
	}
	parsedID, err := uuid.Parse(dj.ID)
	if err != nil {
		return domain.Jobsite{}, err
	}
	jobsite := domain.Jobsite{
		ID:        parsedID,
		Name:      dj.Name,
		Status:    domain.JobsiteStatus(dj.Status),
		StartDate: time.Unix(0, dj.StartDate).UTC(),
	}
	if dj.EndDate != nil {
		end := time.Unix(0, *dj.EndDate).UTC()
		jobsite.EndDate = &end
	}
	return jobsite, nil
}
