package usecase

import (
	"fmt"
	"sync"
	"testing"

	"github.com/1IxI1/sc-indexer/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type fakeCandidates struct {
	accounts []domain.AccountState
	err      error

	sinceSeen []int64
}

func (f *fakeCandidates) FindCandidateAccounts(codeHashes []string, since int64) ([]domain.AccountState, error) {
	f.sinceSeen = append(f.sinceSeen, since)
	return f.accounts, f.err
}

type fakeCheckpoint struct {
	value    int64
	readErr  error
	writeErr error

	writes []int64
}

func (f *fakeCheckpoint) Read() (int64, error) {
	return f.value, f.readErr
}

func (f *fakeCheckpoint) Write(second int64) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.value = second
	f.writes = append(f.writes, second)
	return nil
}

type taskRecorder struct {
	mutex sync.Mutex
	tasks []domain.AccountTask
	fail  map[string]bool
}

func (r *taskRecorder) handle(task domain.AccountTask) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.tasks = append(r.tasks, task)
	if r.fail[task.Address] {
		return fmt.Errorf("handler failed")
	}
	return nil
}

func newTestInteractor(recorder *taskRecorder, archive *fakeCandidates, checkpoint *fakeCheckpoint) *IndexInteractor {
	registry := NewRegistry()
	registry.Register("pool-hash", recorder.handle)
	return NewIndexInteractor(registry, archive, checkpoint, rate.NewLimiter(rate.Inf, 0), 4)
}

func TestRunCycleAdvancesCheckpoint(t *testing.T) {
	archive := &fakeCandidates{
		accounts: []domain.AccountState{
			{Account: "0:AA", CodeHash: "pool-hash", Balance: 5, Timestamp: 100},
			{Account: "0:BB", CodeHash: "pool-hash", Balance: 7, Timestamp: 250},
		},
	}
	checkpoint := &fakeCheckpoint{value: 42}
	recorder := &taskRecorder{}
	interactor := newTestInteractor(recorder, archive, checkpoint)

	require.NoError(t, interactor.RunCycle())

	assert.Equal(t, int64(250), checkpoint.value)
	assert.Equal(t, []int64{42}, archive.sinceSeen)

	require.Len(t, recorder.tasks, 2)
	for _, task := range recorder.tasks {
		// Every task of the cycle shares the checkpoint as its horizon.
		assert.Equal(t, int64(42), task.AsOf)
	}
}

func TestRunCycleEmptyBatch(t *testing.T) {
	checkpoint := &fakeCheckpoint{value: 42}
	interactor := newTestInteractor(&taskRecorder{}, &fakeCandidates{}, checkpoint)

	require.NoError(t, interactor.RunCycle())

	// An empty cycle leaves the checkpoint where it was.
	assert.Empty(t, checkpoint.writes)
	assert.Equal(t, int64(42), checkpoint.value)
}

func TestRunCycleCheckpointReadError(t *testing.T) {
	checkpoint := &fakeCheckpoint{readErr: fmt.Errorf("disk gone")}
	interactor := newTestInteractor(&taskRecorder{}, &fakeCandidates{}, checkpoint)

	assert.Error(t, interactor.RunCycle())
}

func TestRunCycleCheckpointWriteError(t *testing.T) {
	archive := &fakeCandidates{
		accounts: []domain.AccountState{
			{Account: "0:AA", CodeHash: "pool-hash", Timestamp: 100},
		},
	}
	checkpoint := &fakeCheckpoint{writeErr: fmt.Errorf("disk gone")}
	interactor := newTestInteractor(&taskRecorder{}, archive, checkpoint)

	assert.Error(t, interactor.RunCycle())
}

func TestRunCycleArchiveError(t *testing.T) {
	archive := &fakeCandidates{err: fmt.Errorf("archive down")}
	checkpoint := &fakeCheckpoint{value: 42}
	interactor := newTestInteractor(&taskRecorder{}, archive, checkpoint)

	// A failed discovery is retried next cycle, never escalated.
	require.NoError(t, interactor.RunCycle())
	assert.Empty(t, checkpoint.writes)
}

func TestRunCycleHandlerErrorAdvancesWatermark(t *testing.T) {
	archive := &fakeCandidates{
		accounts: []domain.AccountState{
			{Account: "0:AA", CodeHash: "pool-hash", Timestamp: 100},
			{Account: "0:BB", CodeHash: "pool-hash", Timestamp: 250},
		},
	}
	checkpoint := &fakeCheckpoint{value: 42}
	recorder := &taskRecorder{fail: map[string]bool{"0:AA": true}}
	interactor := newTestInteractor(recorder, archive, checkpoint)

	require.NoError(t, interactor.RunCycle())

	// A failing account does not hold the watermark back; it will simply
	// not be revisited until its state changes again.
	assert.Equal(t, int64(250), checkpoint.value)
}

func TestRunCycleSkipsUnknownTypes(t *testing.T) {
	archive := &fakeCandidates{
		accounts: []domain.AccountState{
			{Account: "0:AA", CodeHash: "other-hash", Timestamp: 100},
		},
	}
	checkpoint := &fakeCheckpoint{value: 42}
	recorder := &taskRecorder{}
	interactor := newTestInteractor(recorder, archive, checkpoint)

	require.NoError(t, interactor.RunCycle())

	assert.Empty(t, recorder.tasks)
	// Unknown types still advance the watermark; they are not work to retry.
	assert.Equal(t, int64(100), checkpoint.value)
}
