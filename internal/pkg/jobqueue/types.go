package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeFreeTrialExpiration JobType = "free_trial_expiration"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusScheduled  JobStatus = "scheduled"
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	RunAt       time.Time              `json:"run_at"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// FreeTrialExpirationPayload identifies the account whose trial ends.
type FreeTrialExpirationPayload struct {
	PlatformAccountUUID string `json:"platform_account_uuid"`
}

// ToMap converts the payload to a map for storage
func (p FreeTrialExpirationPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"platform_account_uuid": p.PlatformAccountUUID,
	}
}

// FreeTrialExpirationPayloadFromMap creates a payload from a map
func FreeTrialExpirationPayloadFromMap(data map[string]interface{}) (*FreeTrialExpirationPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload FreeTrialExpirationPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// FreeTrialExpirationJobID is the stable id of an account's expiration job,
// so scheduling twice replaces the earlier schedule.
func FreeTrialExpirationJobID(platformAccountUUID string) string {
	return "free_trial_expiration_" + platformAccountUUID
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// RetryDelay doubles RetryBaseDelay for every failed attempt.
func (j *Job) RetryDelay() time.Duration {
	if j.RetryCount <= 1 {
		return RetryBaseDelay
	}
	return RetryBaseDelay << (j.RetryCount - 1)
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
