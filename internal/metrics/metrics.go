// Package metrics writes mission activity points to InfluxDB. When InfluxDB is
// unreachable points go to a gzipped line protocol backup file instead.
package metrics

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aydocorp/opscomposer/internal/config"
	"github.com/aydocorp/opscomposer/internal/queue"
	"github.com/aydocorp/opscomposer/pkg/core"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
)

// Measurement is the name of every point this package writes.
const Measurement = "mission_activity"

// Activity tag values.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// maxPending bounds points held while the sink is failing.
const maxPending = 10000

// retention applied to a bucket created on connect.
const retentionSeconds = 60 * 60 * 24 * 90

// Sink accepts batches of points.
type Sink interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Writer buffers points and flushes them to a Sink on an interval.
type Writer struct {
	sink     Sink
	pending  *queue.Buffer[*write.Point]
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	closers []io.Closer

	started   atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
	stopped   chan struct{}
}

// NewWriter creates a writer around sink. Call Start to begin periodic flushing.
func NewWriter(sink Sink, interval time.Duration, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Writer{
		sink:     sink,
		pending:  queue.New[*write.Point](maxPending),
		interval: interval,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Connect builds a Writer for cfg. If the server does not answer a ping the
// writer falls back to a gzipped backup file at backupPath.
func Connect(ctx context.Context, cfg config.InfluxConfig, backupPath string, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	running, err := client.Ping(ctx)
	if err != nil || !running {
		client.Close()
		logger.Warn("InfluxDB unreachable, writing to backup file", "url", cfg.URL, "backupPath", backupPath, "error", err)

		file, err := os.OpenFile(backupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("error creating backup file: %w", err)
		}
		gz := gzip.NewWriter(file)
		w := NewWriter(LineProtocolSink{W: gz}, cfg.Interval, logger)
		w.closers = append(w.closers, gz, file)
		return w, nil
	}

	if err := ensureBucket(ctx, client, cfg.Org, cfg.Bucket, logger); err != nil {
		client.Close()
		return nil, err
	}

	w := NewWriter(client.WriteAPIBlocking(cfg.Org, cfg.Bucket), cfg.Interval, logger)
	w.closers = append(w.closers, closerFunc(func() error { client.Close(); return nil }))
	logger.Info("InfluxDB writer initialized", "url", cfg.URL, "bucket", cfg.Bucket)
	return w, nil
}

func ensureBucket(ctx context.Context, client influxdb2.Client, orgName, bucket string, logger *slog.Logger) error {
	org, err := client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		logger.Info("Organization not found, creating", "org", orgName)
		org, err = client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			return fmt.Errorf("creating organization %s: %w", orgName, err)
		}
	}

	if _, err := client.BucketsAPI().FindBucketByName(ctx, bucket); err == nil {
		return nil
	}
	logger.Info("Bucket not found, creating", "bucket", bucket)
	rule := domain.RetentionRuleTypeExpire
	_, err = client.BucketsAPI().CreateBucketWithName(ctx, org, bucket, domain.RetentionRule{
		Type:         &rule,
		EverySeconds: retentionSeconds,
	})
	if err != nil {
		return fmt.Errorf("creating bucket %s: %w", bucket, err)
	}
	return nil
}

// Start launches the flush loop. Calling it again has no effect.
func (w *Writer) Start() {
	if w.started.CompareAndSwap(false, true) {
		go w.loop()
	}
}

func (w *Writer) loop() {
	defer close(w.stopped)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := w.Flush(context.Background()); err != nil {
				w.logger.Error("Error sending mission activity", "error", err)
			}
		case <-w.done:
			return
		}
	}
}

// Pending returns the number of buffered points.
func (w *Writer) Pending() int {
	return w.pending.Len()
}

// Flush writes every buffered point. A failed batch is put back and retried
// on the next flush.
func (w *Writer) Flush(ctx context.Context) error {
	points := w.pending.Drain()
	if len(points) == 0 {
		return nil
	}
	if err := w.sink.WritePoint(ctx, points...); err != nil {
		if dropped := w.pending.Requeue(points); dropped > 0 {
			w.logger.Warn("Mission activity buffer full, dropping oldest points", "dropped", dropped)
		}
		return fmt.Errorf("writing %d points: %w", len(points), err)
	}
	w.logger.Debug("Mission activity flushed", "points", len(points))
	return nil
}

// MissionSaved records a create or update.
func (w *Writer) MissionSaved(_ context.Context, m core.Mission, created bool) {
	action := ActionUpdated
	if created {
		action = ActionCreated
	}
	w.pending.Push(MissionPoint(m, action, w.now()))
}

// MissionDeleted records a deletion.
func (w *Writer) MissionDeleted(_ context.Context, id string) {
	p := write.NewPointWithMeasurement(Measurement).
		AddTag("action", ActionDeleted).
		AddField("missionId", id).
		SetTime(w.now())
	w.pending.Push(p)
}

// Close stops the loop, flushes what is left and releases the sink.
func (w *Writer) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		if w.started.Load() {
			<-w.stopped
		}
		err = w.Flush(context.Background())
		for _, c := range w.closers {
			if cerr := c.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	})
	return err
}

// MissionPoint builds the activity point for a saved mission.
func MissionPoint(m core.Mission, action string, at time.Time) *write.Point {
	var crewed, ground int
	for _, p := range m.Participants {
		switch {
		case p.GroundSupport:
			ground++
		case p.VesselID != "":
			crewed++
		}
	}

	p := write.NewPointWithMeasurement(Measurement).
		AddTag("action", action).
		AddField("missionId", m.ID).
		AddField("participants", len(m.Participants)).
		AddField("vessels", len(m.Vessels)).
		AddField("crewed", crewed).
		AddField("groundSupport", ground).
		SetTime(at)
	if m.Status != "" {
		p.AddTag("status", m.Status)
	}
	if m.Type != "" {
		p.AddTag("type", m.Type)
	}
	return p
}

// LineProtocolSink writes points as line protocol, one per line.
type LineProtocolSink struct {
	W io.Writer
}

// WritePoint implements Sink.
func (s LineProtocolSink) WritePoint(_ context.Context, points ...*write.Point) error {
	for _, p := range points {
		line := write.PointToLineProtocol(p, time.Nanosecond)
		if _, err := io.WriteString(s.W, line+"\n"); err != nil {
			return fmt.Errorf("error writing to backup file: %w", err)
		}
	}
	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
