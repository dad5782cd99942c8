package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/config"
)

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DatabasePath = filepath.Join(tmpDir, "tasks.db")

	client, err := NewClient(cfg)
	require.NoError(t, err)
	require.NotNil(t, client)

	// Verify tasks database was created
	_, err = os.Stat(cfg.DatabasePath)
	assert.NoError(t, err, "tasks database should be created")

	err = client.Close()
	assert.NoError(t, err)
}

func TestClientStartStop(t *testing.T) {
	client, err := NewClient(testConfig(t))
	require.NoError(t, err)
	defer client.Close()

	// Start client in background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go client.Start(ctx)

	// Give it time to start
	time.Sleep(50 * time.Millisecond)

	// Stop should complete successfully
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	success := client.Stop(stopCtx)
	assert.True(t, success, "stop should succeed gracefully")
}

// TestTask is a simple task for testing
type TestTask struct {
	Value string `json:"value"`
}

func (t TestTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "test_task",
		MaxAttempts: 1,
		Backoff:     time.Second,
		Timeout:     5 * time.Second,
	}
}

func TestTaskEnqueue(t *testing.T) {
	client, err := NewClient(testConfig(t))
	require.NoError(t, err)
	defer client.Close()

	// Create and register a test queue
	executed := make(chan string, 1)
	queue := backlite.NewQueue(func(ctx context.Context, task TestTask) error {
		executed <- task.Value
		return nil
	})
	client.Register(queue)

	// Start client
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	// Enqueue a task
	ids, err := client.Add(TestTask{Value: "hello"}).Save()
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	// Wait for task to be executed
	select {
	case val := <-executed:
		assert.Equal(t, "hello", val)
	case <-time.After(5 * time.Second):
		t.Fatal("task was not executed within timeout")
	}
}

func TestTaskStatus(t *testing.T) {
	client, err := NewClient(testConfig(t))
	require.NoError(t, err)
	defer client.Close()

	client.Register(NewBackfillAnalyticsQueue(&fakeBackfiller{}))

	ids, err := client.Add(BackfillAnalyticsTask{}).Save()
	require.NoError(t, err)
	require.Len(t, ids, 1)

	status, err := client.Status(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, "pending", StatusString(status))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, config.DefaultTasksDatabasePath, cfg.DatabasePath)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, time.Hour, cfg.OrphanMinAge)
}

func TestFromSettings(t *testing.T) {
	t.Run("keeps defaults for unset values", func(t *testing.T) {
		cfg := FromSettings(config.Tasks{})
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("applies overrides", func(t *testing.T) {
		cfg := FromSettings(config.Tasks{
			DatabasePath: "/tmp/q.db",
			Workers:      3,
			OrphanMinAge: 10 * time.Minute,
		})
		assert.Equal(t, "/tmp/q.db", cfg.DatabasePath)
		assert.Equal(t, 3, cfg.Workers)
		assert.Equal(t, 10*time.Minute, cfg.OrphanMinAge)
		assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	})
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "tasks.db")
	cfg.Workers = 1
	return cfg
}
