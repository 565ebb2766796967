package queue_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perennia/storefront/pkg/queue"
	"github.com/perennia/storefront/pkg/testkit"
)

var (
	echoCalls atomic.Int32
	failCalls atomic.Int32
)

type echoJob struct{ Val string }

func (echoJob) JobName() string { return "test.echo" }
func (j *echoJob) Handle(context.Context) error {
	echoCalls.Add(1)
	return nil
}

type failJob struct{}

func (failJob) JobName() string { return "test.fail" }
func (j *failJob) Handle(context.Context) error {
	failCalls.Add(1)
	return errors.New("always fails")
}

func TestMain(m *testing.M) {
	queue.Register("test.echo", func() queue.Job { return &echoJob{} })
	queue.Register("test.fail", func() queue.Job { return &failJob{} })
	queue.SetBackoff(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	wg := queue.StartWorkers(ctx, 2)
	code := m.Run()
	cancel()
	wg.Wait()
	os.Exit(code)
}

func TestDispatchAndProcess(t *testing.T) {
	before := echoCalls.Load()
	require.NoError(t, queue.Dispatch(context.Background(), &echoJob{Val: "hello"}))

	assert.Eventually(t, func() bool { return echoCalls.Load() == before+1 }, 2*time.Second, 10*time.Millisecond)
}

func TestFailedJobIsRecordedAfterRetries(t *testing.T) {
	queue.SetMaxRetry(2)
	defer queue.SetMaxRetry(3)

	before := len(queue.FailedJobs())
	require.NoError(t, queue.Dispatch(context.Background(), &failJob{}))

	assert.Eventually(t, func() bool { return len(queue.FailedJobs()) == before+1 }, 2*time.Second, 10*time.Millisecond)
	last := queue.FailedJobs()[before]
	assert.Equal(t, "test.fail", last.Type)
	assert.Equal(t, 2, last.Attempts)
	assert.EqualError(t, last.Err, "always fails")
}

func TestDispatchAfter(t *testing.T) {
	before := echoCalls.Load()
	require.NoError(t, queue.DispatchAfter(context.Background(), &echoJob{Val: "later"}, 30*time.Millisecond))

	assert.Eventually(t, func() bool { return echoCalls.Load() == before+1 }, 2*time.Second, 10*time.Millisecond)
}

func TestDispatchConcurrent(t *testing.T) {
	before := echoCalls.Load()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, queue.Dispatch(context.Background(), &echoJob{Val: "c"}))
		}()
	}
	wg.Wait()

	assert.Eventually(t, func() bool { return echoCalls.Load() == before+20 }, 2*time.Second, 10*time.Millisecond)
}

func TestMemoryDriverFull(t *testing.T) {
	d := queue.NewMemoryDriver()
	for i := 0; i < 1000; i++ {
		require.NoError(t, d.Push(context.Background(), []byte("x")))
	}
	assert.ErrorIs(t, d.Push(context.Background(), []byte("x")), queue.ErrQueueFull)
	assert.Equal(t, 1000, d.Len())
}

func TestFailedJobsArePersisted(t *testing.T) {
	db := testkit.DB(t)
	queue.UseDB(db)
	defer queue.UseDB(nil)
	queue.SetMaxRetry(1)
	defer queue.SetMaxRetry(3)

	require.NoError(t, queue.Dispatch(context.Background(), &failJob{}))

	var rows []queue.FailedJobRecord
	require.Eventually(t, func() bool {
		var err error
		rows, err = queue.ListFailed(db, 10)
		return err == nil && len(rows) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "test.fail", rows[0].JobType)
	assert.Equal(t, 1, rows[0].Attempts)
	assert.Equal(t, "always fails", rows[0].Error)
}
