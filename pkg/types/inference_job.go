/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package types

// Inference job lifecycle states. The submission worker drives a job through
// Creating, MetadataUploading, PayloadUploading and Starting; Completed and
// Faulted are terminal.
type JobState string

const (
	JobStateCreated           JobState = "Created"
	JobStateCreating          JobState = "Creating"
	JobStateMetadataUploading JobState = "MetadataUploading"
	JobStatePayloadUploading  JobState = "PayloadUploading"
	JobStateStarting          JobState = "Starting"
	JobStateCompleted         JobState = "Completed"
	JobStateFaulted           JobState = "Faulted"
)

// IsTerminal reports whether the state admits no further transitions.
func (s JobState) IsTerminal() bool {
	return s == JobStateCompleted || s == JobStateFaulted
}

// NextState returns the successor of a non-terminal working state on handler
// success; terminal and unknown states map to themselves.
func (s JobState) NextState() JobState {
	switch s {
	case JobStateCreated:
		return JobStateCreating
	case JobStateCreating:
		return JobStateMetadataUploading
	case JobStateMetadataUploading:
		return JobStatePayloadUploading
	case JobStatePayloadUploading:
		return JobStateStarting
	case JobStateStarting:
		return JobStateCompleted
	default:
		return s
	}
}

type JobStatus string

const (
	JobStatusUnknown JobStatus = "Unknown"
	JobStatusSuccess JobStatus = "Success"
	JobStatusFail    JobStatus = "Fail"
)

// JobPriority mirrors the downstream platform's priority classes.
type JobPriority string

const (
	JobPriorityLower  JobPriority = "lower"
	JobPriorityNormal JobPriority = "normal"
	JobPriorityHigher JobPriority = "higher"
)

// MaxJobRetries bounds the try-count of a job at any single state; exceeding
// it faults the job.
const MaxJobRetries = 3

// Origin of an inference job.
type JobSource string

const (
	JobSourceScp       JobSource = "scp"
	JobSourceInference JobSource = "inference"
)

// InferenceJob is a unit of work headed to the downstream platform. Instances
// are copied into JobPayloadsStoragePath before the job is queued; the copies
// are reclaimed on terminal states.
type InferenceJob struct {
	JobId                  string                `json:"jobId"`
	PayloadId              string                `json:"payloadId"`
	JobName                string                `json:"jobName"`
	PipelineId             string                `json:"pipelineId"`
	Priority               JobPriority           `json:"priority"`
	JobPayloadsStoragePath string                `json:"jobPayloadsStoragePath"`
	Instances              []InstanceStorageInfo `json:"instances,omitempty"`
	State                  JobState              `json:"state"`
	Status                 JobStatus             `json:"status"`
	TryCount               int                   `json:"tryCount"`
	Source                 JobSource             `json:"source"`
	PlatformJobId          string                `json:"platformJobId,omitempty"`
	PlatformPayloadId      string                `json:"platformPayloadId,omitempty"`
}

// PlatformJobDetails is the downstream platform's view of a created job.
type PlatformJobDetails struct {
	JobId     string      `json:"jobId"`
	PayloadId string      `json:"payloadId"`
	Name      string      `json:"name,omitempty"`
	State     string      `json:"state,omitempty"`
	Status    string      `json:"status,omitempty"`
	Priority  JobPriority `json:"priority,omitempty"`
	Created   string      `json:"created,omitempty"`
	Started   string      `json:"started,omitempty"`
	Stopped   string      `json:"stopped,omitempty"`
}

// OutputJob is one export unit derived from a pending task: the files of a
// completed platform job routed to one logical destination.
type OutputJob struct {
	TaskId       string   `json:"taskId"`
	PayloadId    string   `json:"payloadId"`
	JobId        string   `json:"jobId"`
	Agent        string   `json:"agent"`
	Destination  string   `json:"destination,omitempty"`
	Uris         []string `json:"uris,omitempty"`
	Files        []File   `json:"-"`
	SuccessCount int      `json:"successCount"`
	FailureCount int      `json:"failureCount"`
}

// TotalFiles is the number of files the task asked to export.
func (j *OutputJob) TotalFiles() int {
	return len(j.Uris)
}

// File is an in-memory payload file fetched from the platform.
type File struct {
	Name string
	Data []byte
}

// TaskResponse is a pending export task returned by the results service.
// Parameters carries sink-specific settings, e.g. the destination AE name for
// SCU export.
type TaskResponse struct {
	TaskId     string            `json:"taskId"`
	JobId      string            `json:"jobId"`
	PayloadId  string            `json:"payloadId"`
	Agent      string            `json:"agent"`
	Uris       []string          `json:"uris"`
	Retries    int               `json:"retries,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
}
