package printer

import (
	"sort"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	JobPending = "pending"
	JobSent    = "sent"
	JobFailed  = "failed"

	FormatZPL = "zpl"
	FormatPDF = "pdf"
)

var bucketJobs = []byte("print_jobs")

var ErrJobNotFound = errors.New("print job not found")

// Job is one spooled print submission
type Job struct {
	ID        string    `json:"id"`
	PrinterID int64     `json:"printer_id,string"`
	Format    string    `json:"format"`
	Filename  string    `json:"filename"`
	Payload   []byte    `json:"payload,omitempty"`
	Status    string    `json:"status"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Spool persists print jobs in a local bbolt file so they survive restarts
type Spool struct {
	db *bolt.DB
}

func OpenSpool(file string) (*Spool, error) {
	db, err := bolt.Open(file, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "open print spool")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketJobs)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "init print spool")
	}
	return &Spool{db: db}, nil
}

func (s *Spool) Close() error {
	return s.db.Close()
}

// Enqueue stores a new pending job and returns it
func (s *Spool) Enqueue(printerID int64, format, filename string, payload []byte) (*Job, error) {
	now := time.Now()
	job := &Job{
		ID:        uuid.NewString(),
		PrinterID: printerID,
		Format:    format,
		Filename:  filename,
		Payload:   payload,
		Status:    JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return job, s.Save(job)
}

func (s *Spool) Save(job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(err, "encode print job")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketJobs).Put([]byte(job.ID), data)
	})
}

func (s *Spool) Get(id string) (*Job, error) {
	var job Job
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketJobs).Get([]byte(id))
		if data == nil {
			return ErrJobNotFound
		}
		return json.Unmarshal(data, &job)
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *Spool) Delete(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketJobs).Delete([]byte(id))
	})
}

// List returns jobs oldest first. An empty status matches every job.
func (s *Spool) List(status string) ([]Job, error) {
	jobs := []Job{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketJobs).ForEach(func(_, v []byte) error {
			var job Job
			if err := json.Unmarshal(v, &job); err != nil {
				return err
			}
			if status == "" || job.Status == status {
				jobs = append(jobs, job)
			}
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "list print jobs")
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) })
	return jobs, nil
}

// Prune removes sent jobs last updated before the cutoff
func (s *Spool) Prune(before time.Time) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketJobs)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var job Job
			if err := json.Unmarshal(v, &job); err != nil {
				return err
			}
			if job.Status == JobSent && job.UpdatedAt.Before(before) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}
