package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Destination(t *testing.T) {
	t.Run("file only", func(t *testing.T) {
		restore := captureStdout(t)
		var file bytes.Buffer
		m := NewSlogManager()
		m.Setup(&file, "info")
		m.Logger().Info("mission opened")

		assert.Empty(t, restore())
		assert.Contains(t, file.String(), "Logging initialized")
		assert.Contains(t, file.String(), "mission opened")
	})

	t.Run("stdout without file", func(t *testing.T) {
		restore := captureStdout(t)
		m := NewSlogManager()
		m.Setup(nil, "info")
		m.Logger().Info("mission opened")

		assert.Contains(t, restore(), "mission opened")
	})

	t.Run("second setup replaces the first", func(t *testing.T) {
		var first, second bytes.Buffer
		m := NewSlogManager()
		m.Setup(&first, "info")
		m.Setup(&second, "info")
		m.Logger().Info("after reload")

		assert.NotContains(t, first.String(), "after reload")
		assert.Contains(t, second.String(), "after reload")
	})
}

func TestSetup_Level(t *testing.T) {
	for _, level := range []string{"info", "debug"} {
		t.Run(level, func(t *testing.T) {
			var buf bytes.Buffer
			m := NewSlogManager()
			m.Setup(&buf, level)
			m.Logger().Debug("crew reassigned")
			m.Logger().Info("mission saved")

			assert.Contains(t, buf.String(), "mission saved")
			if level == "debug" {
				assert.Contains(t, buf.String(), "crew reassigned")
			} else {
				assert.NotContains(t, buf.String(), "crew reassigned")
			}
		})
	}
}

func TestLogger_DefaultBeforeSetup(t *testing.T) {
	assert.Equal(t, slog.Default(), NewSlogManager().Logger())
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"Warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		" error ": slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}

func TestFanout(t *testing.T) {
	var info, debug bytes.Buffer
	f := newFanout(
		nil,
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	require.Len(t, f, 2)
	assert.True(t, f.Enabled(context.Background(), slog.LevelDebug))

	logger := slog.New(f).With("missionId", "m-1").WithGroup("crew")
	logger.Debug("assigned", "vessel", "Hull C")
	logger.Info("saved", "count", 2)

	assert.NotContains(t, info.String(), "assigned")
	assert.Contains(t, info.String(), "missionId=m-1 crew.count=2")
	assert.Contains(t, debug.String(), `crew.vessel="Hull C"`)
	assert.False(t, newFanout().Enabled(context.Background(), slog.LevelError))
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("graylog down") }

func TestFanout_FailingSinkDoesNotBlockOthers(t *testing.T) {
	var buf bytes.Buffer
	f := newFanout(failingHandler{}, slog.NewTextHandler(&buf, nil))

	err := f.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "mission deleted", 0))
	assert.EqualError(t, err, "graylog down")
	assert.Contains(t, buf.String(), "mission deleted")
}

func TestFanout_EmptyGroupIsNoop(t *testing.T) {
	f := newFanout(slog.NewTextHandler(&bytes.Buffer{}, nil))
	assert.Equal(t, slog.Handler(f), f.WithGroup(""))
}

type closeRecorder struct {
	bytes.Buffer
	closed int
}

func (c *closeRecorder) Close() error {
	c.closed++
	return nil
}

func TestSetup_WithGELFSink(t *testing.T) {
	var file bytes.Buffer
	sink := &closeRecorder{}

	m := NewSlogManager()
	m.Setup(&file, "info", WithGELF(sink))
	m.Logger().Info("mission saved", "missionId", "m-1")

	assert.Contains(t, file.String(), "mission saved")
	assert.Contains(t, sink.String(), `"msg":"mission saved"`)
	assert.Contains(t, sink.String(), `"missionId":"m-1"`)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Equal(t, 1, sink.closed)
}

func TestSetup_WithContextProvider(t *testing.T) {
	var buf bytes.Buffer
	name := "Supply Run"

	m := NewSlogManager()
	m.Setup(&buf, "info", WithContext(func() []slog.Attr {
		return []slog.Attr{slog.String("mission", name)}
	}))
	m.Logger().Info("first")
	name = "Escort"
	m.Logger().Info("second")

	out := buf.String()
	assert.Contains(t, out, `msg=first mission="Supply Run"`)
	assert.Contains(t, out, "msg=second mission=Escort")
}

func TestClose_WithoutSink(t *testing.T) {
	assert.NoError(t, NewSlogManager().Close())
}

// captureStdout redirects os.Stdout to a pipe and returns a function
// that restores stdout and returns what was captured.
func captureStdout(t *testing.T) func() string {
	t.Helper()

	r, w, err := osPipe()
	require.NoError(t, err)

	origStdout := osStdout
	osStdout = w

	return func() string {
		w.Close()
		osStdout = origStdout
		var buf bytes.Buffer
		buf.ReadFrom(r)
		r.Close()
		return buf.String()
	}
}
