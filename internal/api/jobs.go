package api

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"flashgen/internal/services"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusComplete   = "complete"
	JobStatusFailed     = "failed"
)

// GenerationJob tracks a background generation request that the frontend polls.
type GenerationJob struct {
	ID        string            `json:"jobId"`
	Status    string            `json:"status"`
	Provider  services.Provider `json:"provider"`
	Model     string            `json:"model"`
	Step      string            `json:"step,omitempty"`
	Message   string            `json:"message,omitempty"`
	Current   int               `json:"current"`
	Total     int               `json:"total"`
	Percent   int               `json:"percent"`
	Result    *services.Result  `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

type JobManager struct {
	mu   sync.RWMutex
	jobs map[string]*GenerationJob
}

func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*GenerationJob),
	}
}

func (m *JobManager) CreateJob(provider services.Provider, model string) *GenerationJob {
	now := time.Now().UTC()
	job := &GenerationJob{
		ID:        uuid.NewString(),
		Status:    JobStatusPending,
		Provider:  provider,
		Model:     model,
		Total:     100,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	return job.clone()
}

func (m *JobManager) GetJob(id string) (*GenerationJob, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, false
	}
	return job.clone(), true
}

func (m *JobManager) MarkProcessing(id string) {
	m.withJob(id, func(job *GenerationJob) {
		job.Status = JobStatusProcessing
		job.Message = "Starting"
	})
}

// UpdateProgress has the services.ProgressCallback shape once bound to a job id.
func (m *JobManager) UpdateProgress(id string, step, message string, current, total int) {
	m.withJob(id, func(job *GenerationJob) {
		if job.Status == JobStatusComplete || job.Status == JobStatusFailed {
			return
		}
		job.Status = JobStatusProcessing
		job.Step = step
		job.Message = message
		job.Current = current
		job.Total = total
		job.Percent = percent(current, total)
	})
}

func (m *JobManager) MarkComplete(id string, result *services.Result) {
	m.withJob(id, func(job *GenerationJob) {
		job.Status = JobStatusComplete
		job.Step = "complete"
		job.Message = result.Message
		job.Current = 100
		job.Total = 100
		job.Percent = 100
		job.Model = result.Model
		job.Result = cloneResult(result)
		job.Error = ""
	})
}

func (m *JobManager) MarkFailed(id string, msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		msg = "generation failed"
	}
	m.withJob(id, func(job *GenerationJob) {
		job.Status = JobStatusFailed
		job.Step = "error"
		job.Message = msg
		job.Error = msg
		job.Current = 100
		job.Total = 100
		job.Percent = 100
	})
}

func (m *JobManager) progressFor(id string) services.ProgressCallback {
	return func(step, message string, current, total int) {
		m.UpdateProgress(id, step, message, current, total)
	}
}

func (m *JobManager) withJob(id string, fn func(job *GenerationJob)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return
	}
	fn(job)
	job.UpdatedAt = time.Now().UTC()
}

func (job *GenerationJob) clone() *GenerationJob {
	if job == nil {
		return nil
	}
	copyJob := *job
	copyJob.Result = cloneResult(job.Result)
	return &copyJob
}

func cloneResult(result *services.Result) *services.Result {
	if result == nil {
		return nil
	}
	res := *result
	if result.Flashcards != nil {
		res.Flashcards = append(res.Flashcards[:0:0], result.Flashcards...)
	}
	return &res
}

func percent(current, total int) int {
	if total <= 0 {
		if current <= 0 {
			return 0
		}
		if current > 100 {
			return 100
		}
		return current
	}
	if current <= 0 {
		return 0
	}
	if current >= total {
		return 100
	}
	return int((float64(current) / float64(total)) * 100)
}
