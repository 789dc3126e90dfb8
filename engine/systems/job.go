package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-io/engine/core"
)

/** @brief Describes a job to be run. */
type Job struct {
	/** @brief Invoked when the job starts. Required. */
	Run func() error
	/** @brief Invoked when Run returns nil. Optional. */
	OnSuccess func()
	/** @brief Invoked with the error returned by Run. Optional. */
	OnFailure func(err error)
	/** @brief Invoked after success or failure. Optional. */
	OnDone func()
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan Job
	wg         sync.WaitGroup
	// guards closed and the queue against sends after close
	mutex  sync.RWMutex
	closed bool
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")
var ErrJobSystemClosed = fmt.Errorf("job system is shut down")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	jq := make(chan Job, channelSize)
	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   jq,
	}

	js.start()

	return js, nil
}

func (js *JobSystem) Workers() int {
	return js.numWorkers
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job Job) {
	if job.OnDone != nil {
		defer job.OnDone()
	}
	err := job.Run()
	if err != nil {
		core.LogDebug("job failed: %s", err)
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
		return
	}
	if job.OnSuccess != nil {
		job.OnSuccess()
	}
}

/**
 * @brief Shuts the job system down. Queued jobs are drained first.
 */
func (js *JobSystem) Shutdown() error {
	js.mutex.Lock()
	if !js.closed {
		js.closed = true
		close(js.jobQueue)
	}
	js.mutex.Unlock()
	js.wg.Wait()
	return nil
}

/**
 * @brief Submits the provided job to be queued for execution.
 * Blocks while the queue is full. Returns ErrJobSystemClosed after
 * Shutdown; the job's callbacks are not invoked then.
 */
func (js *JobSystem) Submit(job Job) error {
	js.mutex.RLock()
	defer js.mutex.RUnlock()
	if js.closed {
		return ErrJobSystemClosed
	}
	js.jobQueue <- job
	return nil
}
