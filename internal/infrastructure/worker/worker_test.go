package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/asset-tracker/internal/application/service"
	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

type mockSyncer struct {
	calls   atomic.Int32
	folders chan string
	err     error
}

func (m *mockSyncer) Sync(ctx context.Context, folderID string) (*entity.SyncReport, error) {
	m.calls.Add(1)
	select {
	case m.folders <- folderID:
	default:
	}
	if m.err != nil {
		return nil, m.err
	}
	return &entity.SyncReport{RunID: "run"}, nil
}

func TestDriveSyncWorker_RunsOnStartupAndStops(t *testing.T) {
	syncer := &mockSyncer{folders: make(chan string, 1)}
	w := NewDriveSyncWorker(DriveSyncWorkerConfig{
		FolderID:     "folder-1",
		Interval:     time.Hour,
		RunOnStartup: true,
	}, syncer, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()))

	select {
	case folder := <-syncer.folders:
		assert.Equal(t, "folder-1", folder)
	case <-time.After(2 * time.Second):
		t.Fatal("sync did not run on startup")
	}

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	status := w.Status()
	assert.False(t, status.Running)
	assert.Equal(t, 1, status.Runs)
	assert.Empty(t, status.LastError)
}

func TestDriveSyncWorker_RecordsErrors(t *testing.T) {
	syncer := &mockSyncer{folders: make(chan string, 1), err: errors.New("listing failed")}
	w := NewDriveSyncWorker(DriveSyncWorkerConfig{Interval: 10 * time.Millisecond}, syncer, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))
	assert.Eventually(t, func() bool { return syncer.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, w.Stop())

	assert.Equal(t, "listing failed", w.Status().LastError)
}

func TestDriveSyncWorker_SkipsWhileSyncInProgress(t *testing.T) {
	syncer := &mockSyncer{folders: make(chan string, 1), err: service.ErrSyncInProgress}
	w := NewDriveSyncWorker(DriveSyncWorkerConfig{Interval: 10 * time.Millisecond}, syncer, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))
	assert.Eventually(t, func() bool { return syncer.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, w.Stop())

	status := w.Status()
	assert.Zero(t, status.Runs)
	assert.Empty(t, status.LastError)
}

func TestWorkerManager(t *testing.T) {
	m := NewWorkerManager(zap.NewNop())
	syncer := &mockSyncer{folders: make(chan string, 1)}
	m.Register(NewDriveSyncWorker(DriveSyncWorkerConfig{Interval: time.Hour}, syncer, zap.NewNop()))

	require.NoError(t, m.StartAll(context.Background()))
	assert.Error(t, m.StartAll(context.Background()))

	statuses := m.Statuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, "DriveSyncWorker", statuses[0].Name)
	assert.True(t, statuses[0].Running)

	require.NoError(t, m.StopAll())
	require.NoError(t, m.StopAll())
	assert.False(t, m.Statuses()[0].Running)
	assert.Zero(t, syncer.calls.Load())
}
