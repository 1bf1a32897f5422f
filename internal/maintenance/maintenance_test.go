package maintenance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestSchedulerAddRejectsBadSpec(t *testing.T) {
	s := New(discard)
	_, err := s.Add(context.Background(), Job{Name: "bad", Spec: "every night", Run: func(context.Context) {}})
	assert.ErrorContains(t, err, "schedule bad")
	assert.Equal(t, 0, s.Len())
}

func TestSchedulerAddReturnsNextRun(t *testing.T) {
	s := New(discard)
	next, err := s.Add(context.Background(), Job{Name: "nightly", Spec: "0 4 * * *", Run: func(context.Context) {}})
	require.NoError(t, err)
	assert.Equal(t, 4, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.True(t, next.After(time.Now()))
	assert.Equal(t, 1, s.Len())
}

func TestSchedulerRunsJobsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(discard)

	var runs int32
	_, err := s.Add(ctx, Job{Name: "tick", Spec: "@every 1s", Run: func(context.Context) {
		atomic.AddInt32(&runs, 1)
	}})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Second)
		close(done)
	}()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) > 0 }, 3*time.Second, 50*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestPruneSnapshots(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

	write := func(name string, age time.Duration) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(`{}`), 0o644))
		require.NoError(t, os.Chtimes(p, now.Add(-age), now.Add(-age)))
		return p
	}
	old := write("player-props-old.json", 20*24*time.Hour)
	fresh := write("player-props-new.json", time.Hour)
	other := write("notes.txt", 30*24*time.Hour)

	n, err := PruneSnapshots(dir, 14*24*time.Hour, now, discard)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)
	assert.FileExists(t, other)
}

func TestPruneSnapshotsMissingDir(t *testing.T) {
	n, err := PruneSnapshots(filepath.Join(t.TempDir(), "nope"), time.Hour, time.Now(), discard)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestAnalyzeTables(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("ANALYZE players").WillReturnResult(pgxmock.NewResult("ANALYZE", 0))
	mock.ExpectExec("ANALYZE games").WillReturnError(errors.New("permission denied"))

	err = AnalyzeTables(context.Background(), mock, discard)
	assert.ErrorContains(t, err, "analyze games")
	assert.NoError(t, mock.ExpectationsWereMet())
}
