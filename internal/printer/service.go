// Package printer spools rendered tags and delivers them to label printers.
package printer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/labels"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

var (
	ErrPrinterNotFound  = errors.New("printer not found")
	ErrPrinterDisabled  = errors.New("printer disabled")
	ErrUnknownTransport = errors.New("unknown printer transport")
)

const (
	DefaultMaxRetry    = 3
	defaultProbeWorker = 8
)

type Service struct {
	db         *gorm.DB
	spool      *Spool
	transports map[string]Transport
	prober     Prober
	maxRetry   int
	mu         sync.Mutex
}

type Option func(*Service)

// WithTransport overrides the transport used for a transport name
func WithTransport(name string, t Transport) Option {
	return func(s *Service) { s.transports[name] = t }
}

func WithProber(p Prober) Option {
	return func(s *Service) { s.prober = p }
}

func WithMaxRetry(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRetry = n
		}
	}
}

func NewService(db *gorm.DB, spool *Spool, timeout time.Duration, opts ...Option) *Service {
	s := &Service{
		db:    db,
		spool: spool,
		transports: map[string]Transport{
			domain.TransportTCP:  TCPTransport{Timeout: timeout},
			domain.TransportSFTP: SFTPTransport{Timeout: timeout},
		},
		prober:   SNMPProber{Timeout: timeout},
		maxRetry: DefaultMaxRetry,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Spool() *Spool {
	return s.spool
}

func (s *Service) printer(ctx context.Context, id int64) (*domain.Printer, error) {
	var p domain.Printer
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPrinterNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load printer")
	}
	return &p, nil
}

// Submit spools the payload and tries to deliver it right away. A delivery
// failure leaves the job pending for the retry scheduler and is not an error.
// Delivery holds the same lock as RetryPending so a job is sent once.
func (s *Service) Submit(ctx context.Context, printerID int64, format, filename string, payload []byte) (*Job, error) {
	p, err := s.printer(ctx, printerID)
	if err != nil {
		return nil, err
	}
	if p.Status == common.DISABLED {
		return nil, ErrPrinterDisabled
	}
	if filename == "" {
		filename = fmt.Sprintf("tag-%d.%s", time.Now().UnixNano(), format)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.spool.Enqueue(p.ID, format, filename, payload)
	if err != nil {
		return nil, err
	}
	return job, s.deliver(ctx, p, job)
}

// PrintTags renders the entities with the layout as one ZPL batch and submits it
func (s *Service) PrintTags(ctx context.Context, printerID int64, l labels.Layout, entities []map[string]interface{}) (*Job, error) {
	zpl, err := labels.GenerateZPLBatch(l, entities)
	if err != nil {
		return nil, err
	}
	return s.Submit(ctx, printerID, FormatZPL, "", []byte(zpl))
}

func (s *Service) deliver(ctx context.Context, p *domain.Printer, job *Job) error {
	t, ok := s.transports[p.Transport]
	job.Attempts++
	job.UpdatedAt = time.Now()
	var err error
	if !ok {
		err = ErrUnknownTransport
	} else {
		err = t.Send(ctx, *p, job)
	}
	if err == nil {
		job.Status = JobSent
		job.LastError = ""
		zap.L().Info("print job sent",
			zap.String("job", job.ID),
			zap.String("printer", p.Name),
			zap.String("namespace", "printer"))
	} else {
		job.LastError = err.Error()
		if job.Attempts >= s.maxRetry {
			job.Status = JobFailed
		}
		zap.L().Warn("print job failed",
			zap.String("job", job.ID),
			zap.String("printer", p.Name),
			zap.Int("attempts", job.Attempts),
			zap.Error(err),
			zap.String("namespace", "printer"))
	}
	return s.spool.Save(job)
}

// RetryPending re-sends pending jobs. It returns how many were sent and how many are still pending or failed.
// Jobs for disabled printers stay pending.
func (s *Service) RetryPending(ctx context.Context) (sent int, remaining int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs, err := s.spool.List(JobPending)
	if err != nil {
		return 0, 0, err
	}
	printers := map[int64]*domain.Printer{}
	for i := range jobs {
		job := &jobs[i]
		p, ok := printers[job.PrinterID]
		if !ok {
			p, err = s.printer(ctx, job.PrinterID)
			if errors.Is(err, ErrPrinterNotFound) {
				job.Status = JobFailed
				job.LastError = err.Error()
				_ = s.spool.Save(job)
				remaining++
				continue
			}
			if err != nil {
				return sent, remaining, err
			}
			printers[job.PrinterID] = p
		}
		if p.Status == common.DISABLED {
			remaining++
			continue
		}
		if err := s.deliver(ctx, p, job); err != nil {
			return sent, remaining, err
		}
		if job.Status == JobSent {
			sent++
		} else {
			remaining++
		}
	}
	return sent, remaining, nil
}

// Retry resets a failed job and delivers it again
func (s *Service) Retry(ctx context.Context, jobID string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.spool.Get(jobID)
	if err != nil {
		return nil, err
	}
	p, err := s.printer(ctx, job.PrinterID)
	if err != nil {
		return nil, err
	}
	if p.Status == common.DISABLED {
		return nil, ErrPrinterDisabled
	}
	job.Status = JobPending
	job.Attempts = 0
	return job, s.deliver(ctx, p, job)
}

// Probe queries one printer and stores the outcome on its row
func (s *Service) Probe(ctx context.Context, id int64) (*domain.Printer, error) {
	p, err := s.printer(ctx, id)
	if err != nil {
		return nil, err
	}
	s.probe(ctx, p)
	return p, nil
}

func (s *Service) probe(ctx context.Context, p *domain.Printer) {
	now := time.Now()
	res, err := s.prober.Probe(*p)
	p.LastProbeAt = now
	if err != nil {
		p.LastResult = "failed"
		p.LastMessage = firstLine(err.Error())
	} else {
		p.LastResult = "ok"
		p.LastMessage = fmt.Sprintf("%s (%s)", res.Model, res.Status)
	}
	if err := s.db.WithContext(ctx).Model(&domain.Printer{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"last_probe_at": p.LastProbeAt,
		"last_result":   p.LastResult,
		"last_message":  p.LastMessage,
	}).Error; err != nil {
		zap.L().Error("failed to update printer probe result", zap.String("printer", p.Name), zap.Error(err))
	}
}

// ProbeAll probes every enabled printer with an SNMP community
func (s *Service) ProbeAll(ctx context.Context) (int, error) {
	var printers []domain.Printer
	if err := s.db.WithContext(ctx).Where("status = ? AND snmp_community <> ''", common.ENABLED).Find(&printers).Error; err != nil {
		return 0, errors.Wrap(err, "load printers")
	}
	sem := make(chan struct{}, defaultProbeWorker)
	var wg sync.WaitGroup
	for i := range printers {
		wg.Add(1)
		sem <- struct{}{}
		go func(p *domain.Printer) {
			defer wg.Done()
			defer func() { <-sem }()
			s.probe(ctx, p)
		}(&printers[i])
	}
	wg.Wait()
	return len(printers), nil
}
