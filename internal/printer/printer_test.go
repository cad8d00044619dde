package printer

import (
	"context"
	"io"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Ammar282828/gemstrack-pos-sub002/internal/domain"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/labels"
	"github.com/Ammar282828/gemstrack-pos-sub002/internal/testutil"
	"github.com/Ammar282828/gemstrack-pos-sub002/pkg/common"
)

type fakeTransport struct {
	mu    sync.Mutex
	fail  bool
	sends [][]byte
}

func (f *fakeTransport) Send(_ context.Context, _ domain.Printer, job *Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("connection refused")
	}
	f.sends = append(f.sends, job.Payload)
	return nil
}

type fakeProber struct {
	err error
}

func (f fakeProber) Probe(domain.Printer) (*ProbeResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ProbeResult{Model: "ZD421", Status: "idle"}, nil
}

func newSpool(t *testing.T) *Spool {
	sp, err := OpenSpool(filepath.Join(t.TempDir(), "spool.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sp.Close() })
	return sp
}

func addPrinter(t *testing.T, db *gorm.DB, transport string) domain.Printer {
	p := domain.Printer{
		ID:            common.UUIDint64(),
		Name:          "Counter",
		Transport:     transport,
		Host:          "127.0.0.1",
		SnmpCommunity: "public",
		Status:        common.ENABLED,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestSpoolLifecycle(t *testing.T) {
	sp := newSpool(t)
	a, err := sp.Enqueue(1, FormatZPL, "a.zpl", []byte("^XA^XZ"))
	require.NoError(t, err)
	b, err := sp.Enqueue(1, FormatZPL, "b.zpl", []byte("^XA^XZ"))
	require.NoError(t, err)

	jobs, err := sp.List(JobPending)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, a.ID, jobs[0].ID)

	b.Status = JobSent
	b.UpdatedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, sp.Save(b))
	n, err := sp.Prune(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = sp.Get(b.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
	got, err := sp.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("^XA^XZ"), got.Payload)
}

func TestSubmitSendsImmediately(t *testing.T) {
	db := testutil.NewDB(t)
	ft := &fakeTransport{}
	svc := NewService(db, newSpool(t), time.Second, WithTransport(domain.TransportTCP, ft))
	p := addPrinter(t, db, domain.TransportTCP)

	job, err := svc.Submit(context.Background(), p.ID, FormatZPL, "", []byte("^XA^XZ"))
	require.NoError(t, err)
	assert.Equal(t, JobSent, job.Status)
	assert.Equal(t, 1, job.Attempts)
	assert.Len(t, ft.sends, 1)
}

func TestSubmitFailureRetriesUpToLimit(t *testing.T) {
	db := testutil.NewDB(t)
	ft := &fakeTransport{fail: true}
	svc := NewService(db, newSpool(t), time.Second, WithTransport(domain.TransportTCP, ft))
	p := addPrinter(t, db, domain.TransportTCP)
	ctx := context.Background()

	job, err := svc.Submit(ctx, p.ID, FormatZPL, "tag.zpl", []byte("^XA^XZ"))
	require.NoError(t, err)
	assert.Equal(t, JobPending, job.Status)
	assert.Equal(t, "connection refused", job.LastError)

	_, remaining, err := svc.RetryPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
	_, _, err = svc.RetryPending(ctx)
	require.NoError(t, err)

	got, err := svc.Spool().Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobFailed, got.Status)
	assert.Equal(t, DefaultMaxRetry, got.Attempts)

	sent, remaining, err := svc.RetryPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent+remaining)

	ft.fail = false
	got, err = svc.Retry(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobSent, got.Status)
	assert.Equal(t, 1, got.Attempts)
}

func TestRetryPendingSkipsDisabledPrinter(t *testing.T) {
	db := testutil.NewDB(t)
	ft := &fakeTransport{fail: true}
	svc := NewService(db, newSpool(t), time.Second, WithTransport(domain.TransportTCP, ft))
	p := addPrinter(t, db, domain.TransportTCP)
	ctx := context.Background()

	job, err := svc.Submit(ctx, p.ID, FormatZPL, "tag.zpl", []byte("^XA^XZ"))
	require.NoError(t, err)
	require.NoError(t, db.Model(&domain.Printer{}).Where("id = ?", p.ID).Update("status", common.DISABLED).Error)

	ft.fail = false
	sent, remaining, err := svc.RetryPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Equal(t, 1, remaining)
	assert.Empty(t, ft.sends)

	got, err := svc.Spool().Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobPending, got.Status)
	assert.Equal(t, 1, got.Attempts)

	_, err = svc.Retry(ctx, job.ID)
	assert.ErrorIs(t, err, ErrPrinterDisabled)
}

func TestSubmitAndRetryPendingSendEachJobOnce(t *testing.T) {
	db := testutil.NewDB(t)
	ft := &fakeTransport{}
	svc := NewService(db, newSpool(t), time.Second, WithTransport(domain.TransportTCP, ft))
	p := addPrinter(t, db, domain.TransportTCP)
	ctx := context.Background()

	const jobs = 20
	var wg sync.WaitGroup
	for i := 0; i < jobs; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.Submit(ctx, p.ID, FormatZPL, "", []byte("^XA^XZ"))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, _, err := svc.RetryPending(ctx)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, ft.sends, jobs)
	pending, err := svc.Spool().List(JobPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSubmitUnknownPrinter(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, newSpool(t), time.Second)
	_, err := svc.Submit(context.Background(), 42, FormatZPL, "", nil)
	assert.ErrorIs(t, err, ErrPrinterNotFound)
}

func TestTCPTransportDeliversPayload(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	p := domain.Printer{Host: "127.0.0.1", Port: port}
	err = TCPTransport{Timeout: time.Second}.Send(context.Background(), p, &Job{Payload: []byte("^XA^FDx^FS^XZ")})
	require.NoError(t, err)
	select {
	case data := <-received:
		assert.Equal(t, "^XA^FDx^FS^XZ", string(data))
	case <-time.After(2 * time.Second):
		t.Fatal("printer did not receive payload")
	}
}

func TestPrintTags(t *testing.T) {
	db := testutil.NewDB(t)
	ft := &fakeTransport{}
	svc := NewService(db, newSpool(t), time.Second, WithTransport(domain.TransportTCP, ft))
	p := addPrinter(t, db, domain.TransportTCP)

	entities := []map[string]interface{}{
		{"name": "Ring", "sku": "RIN-000001", "karat": "22k", "metalWeightG": 5, "price": "1,000.00"},
		{"name": "Chain", "sku": "CHA-000001", "karat": "21k", "metalWeightG": 9, "price": "2,000.00"},
	}
	job, err := svc.PrintTags(context.Background(), p.ID, labels.DefaultLayout(), entities)
	require.NoError(t, err)
	assert.Equal(t, JobSent, job.Status)
	require.Len(t, ft.sends, 1)
	assert.Contains(t, string(ft.sends[0]), "RIN-000001")
	assert.Contains(t, string(ft.sends[0]), "CHA-000001")
}

func TestProbeAll(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, newSpool(t), time.Second, WithProber(fakeProber{}))
	p := addPrinter(t, db, domain.TransportTCP)

	n, err := svc.ProbeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var got domain.Printer
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, "ok", got.LastResult)
	assert.Equal(t, "ZD421 (idle)", got.LastMessage)

	svc = NewService(db, svc.Spool(), time.Second, WithProber(fakeProber{err: errors.New("timeout")}))
	_, err = svc.Probe(context.Background(), p.ID)
	require.NoError(t, err)
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, "failed", got.LastResult)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "Zebra ZT410", firstLine("Zebra ZT410\r\nV75.19"))
}
