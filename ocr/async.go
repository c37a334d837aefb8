package ocr

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// localAsync adapts a synchronous Engine into an AsyncEngine by running
// recognition on a background goroutine. It keeps recognition off the
// caller's path, which matters for large screenshots on Engines that take
// seconds per image.
type localAsync struct {
	engine Engine
}

// NewLocalAsync wraps engine into an in-process AsyncEngine.
func NewLocalAsync(engine Engine) AsyncEngine {
	return &localAsync{engine: engine}
}

func (a *localAsync) Name() string { return a.engine.Name() + "-async" }

// Start launches recognition of inputs and returns immediately. The job's
// context is detached from ctx's deadline but honors Cancel.
func (a *localAsync) Start(ctx context.Context, inputs []Input) (Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	j := &localJob{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	j.status = JobStatus{State: JobStatePending}
	go j.run(runCtx, a.engine, inputs)
	return j, nil
}

type localJob struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	status  JobStatus
	results []Result
	err     error
}

func (j *localJob) ID() string { return j.id }

func (j *localJob) run(ctx context.Context, engine Engine, inputs []Input) {
	defer close(j.done)
	defer j.cancel()

	j.setStatus(JobStatus{State: JobStateRunning})
	results := make([]Result, 0, len(inputs))
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			j.fail(err)
			return
		}
		res, err := engine.Recognize(ctx, in)
		if err != nil {
			j.fail(err)
			return
		}
		results = append(results, res)
		j.setStatus(JobStatus{
			State:    JobStateRunning,
			Progress: float64(i+1) / float64(len(inputs)),
		})
	}
	j.mu.Lock()
	j.results = results
	j.status = JobStatus{State: JobStateSucceeded, Progress: 1}
	j.mu.Unlock()
}

func (j *localJob) fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.err = err
	if err == context.Canceled {
		j.status = JobStatus{State: JobStateCanceled, Message: err.Error()}
		return
	}
	j.status = JobStatus{State: JobStateFailed, Message: err.Error()}
}

func (j *localJob) setStatus(s JobStatus) {
	j.mu.Lock()
	j.status = s
	j.mu.Unlock()
}

func (j *localJob) Status(ctx context.Context) (JobStatus, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status, nil
}

// Results blocks until the job finishes or ctx expires.
func (j *localJob) Results(ctx context.Context) ([]Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-j.done:
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return nil, j.err
	}
	return j.results, nil
}

func (j *localJob) Cancel(ctx context.Context) error {
	j.cancel()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-j.done:
		return nil
	}
}
