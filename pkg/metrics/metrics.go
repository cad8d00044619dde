package metrics

import (
	"errors"
	"path"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
)

var (
	storage tstorage.Storage
	mu      sync.RWMutex
)

// Point is a single sample returned by Select
type Point struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// InitMetrics opens the time series store under <workdir>/data/metrics.
// An empty workdir keeps everything in memory.
func InitMetrics(workdir string) error {
	opts := []tstorage.Option{
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithPartitionDuration(24 * time.Hour),
		tstorage.WithRetention(400 * 24 * time.Hour),
	}
	if workdir != "" {
		opts = append(opts, tstorage.WithDataPath(path.Join(workdir, "data", "metrics")))
	}
	s, err := tstorage.NewStorage(opts...)
	if err != nil {
		return err
	}
	mu.Lock()
	storage = s
	mu.Unlock()
	return nil
}

func labels(kv ...string) []tstorage.Label {
	var ls []tstorage.Label
	for i := 0; i+1 < len(kv); i += 2 {
		ls = append(ls, tstorage.Label{Name: kv[i], Value: kv[i+1]})
	}
	return ls
}

// Record stores a sample for metric at the given time. labelPairs are name/value pairs.
func Record(metric string, value float64, at time.Time, labelPairs ...string) error {
	mu.RLock()
	defer mu.RUnlock()
	if storage == nil {
		return nil
	}
	return storage.InsertRows([]tstorage.Row{{
		Metric:    metric,
		Labels:    labels(labelPairs...),
		DataPoint: tstorage.DataPoint{Timestamp: at.Unix(), Value: value},
	}})
}

// SetGauge records an integer gauge sample at the current time
func SetGauge(metric string, value int64) {
	_ = Record(metric, float64(value), time.Now())
}

// Select returns samples for metric in [start, end)
func Select(metric string, start, end time.Time, labelPairs ...string) ([]Point, error) {
	mu.RLock()
	defer mu.RUnlock()
	if storage == nil {
		return nil, nil
	}
	pts, err := storage.Select(metric, labels(labelPairs...), start.Unix(), end.Unix())
	if errors.Is(err, tstorage.ErrNoDataPoints) {
		return []Point{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]Point, 0, len(pts))
	for _, p := range pts {
		out = append(out, Point{Timestamp: p.Timestamp, Value: p.Value})
	}
	return out, nil
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return nil
	}
	err := storage.Close()
	storage = nil
	return err
}
