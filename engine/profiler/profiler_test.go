package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickLogsOncePerInterval(t *testing.T) {
	clock := time.Unix(0, 0)
	var buf bytes.Buffer
	p := NewProfiler(
		WithInterval(time.Second),
		WithClock(func() time.Time { return clock }),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)

	for range 9 {
		clock = clock.Add(100 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	clock = clock.Add(100 * time.Millisecond)
	require.True(t, p.Tick())

	s := p.Last()
	assert.InDelta(t, 10, s.FPS, 1e-9)
	assert.Equal(t, 100*time.Millisecond, s.FrameTime)
	assert.Contains(t, buf.String(), "fps=10")

	clock = clock.Add(500 * time.Millisecond)
	assert.False(t, p.Tick(), "the window restarts after logging")
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0))
	assert.Equal(t, time.Second, p.updateInterval)
}
