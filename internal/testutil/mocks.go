package testutil

import (
	"context"
	"errors"
	"sync"

	"codeberg.org/snonux/clozerecall/internal/task"
)

// ErrNoMoreTasks is returned by MockTaskService once its queue is empty.
var ErrNoMoreTasks = errors.New("mock: no more tasks")

// MockTaskService hands out queued tasks and records finished batches
type MockTaskService struct {
	mu        sync.Mutex
	Tasks     []task.LearningTask
	NextErr   error // returned by NextTask when set
	FinishErr error // returned by FinishTask when set
	Finished  []task.FinishedTask
	NextCalls int
}

// NextTask pops the first queued task
func (m *MockTaskService) NextTask(ctx context.Context) (task.LearningTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.NextCalls++
	if m.NextErr != nil {
		return task.LearningTask{}, m.NextErr
	}
	if len(m.Tasks) == 0 {
		return task.LearningTask{}, ErrNoMoreTasks
	}
	t := m.Tasks[0]
	m.Tasks = m.Tasks[1:]
	return t, nil
}

// FinishTask records the batch
func (m *MockTaskService) FinishTask(ctx context.Context, finished task.FinishedTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Finished = append(m.Finished, finished)
	return m.FinishErr
}

// FinishedBatches returns a copy of the recorded batches
func (m *MockTaskService) FinishedBatches() []task.FinishedTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]task.FinishedTask(nil), m.Finished...)
}

// MockAudio records the calls a session makes to its audio coordinator
type MockAudio struct {
	mu         sync.Mutex
	Generation uint64
	Loads      []int // sentence ids in load order
	Plays      int
	Stops      int
	Closes     int
	PlayErr    error
}

// LoadForSentence starts a new generation
func (m *MockAudio) LoadForSentence(sentenceID int, sentence string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Generation++
	m.Loads = append(m.Loads, sentenceID)
	return m.Generation
}

// Play counts playback requests
func (m *MockAudio) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Plays++
	return m.PlayErr
}

// StopLoading counts stop requests
func (m *MockAudio) StopLoading() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stops++
}

// Close counts close requests
func (m *MockAudio) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closes++
	return nil
}
