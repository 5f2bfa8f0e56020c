/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package database

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/lib/pq"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/jsonutil"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

const (
	DESC = "desc"
	ASC  = "asc"

	CreateTime = "create_time"
	UpdateTime = "update_time"
)

// Table names. The archive table shares the inference_request schema.
const (
	TApplicationEntity            = "application_entity"
	TSourceApplicationEntity      = "source_application_entity"
	TDestinationApplicationEntity = "destination_application_entity"
	TInferenceRequest             = "inference_request"
	TInferenceRequestArchive      = "inference_request_archive"
	TInferenceJob                 = "inference_job"
)

type ApplicationEntityRow struct {
	Id                    int64          `db:"id"`
	Name                  string         `db:"name"`
	AeTitle               string         `db:"ae_title"`
	IgnoredSopClasses     sql.NullString `db:"ignored_sop_classes"`
	OverwriteSameInstance bool           `db:"overwrite_same_instance"`
	Processor             string         `db:"processor"`
	ProcessorSettings     sql.NullString `db:"processor_settings"`
	Version               int64          `db:"version"`
	CreateTime            pq.NullTime    `db:"create_time"`
	UpdateTime            pq.NullTime    `db:"update_time"`
}

// GetApplicationEntityFieldTags returns the ApplicationEntityFieldTags value.
func GetApplicationEntityFieldTags() map[string]string {
	e := ApplicationEntityRow{}
	return getFieldTags(e)
}

type SourceApplicationEntityRow struct {
	Id         int64       `db:"id"`
	AeTitle    string      `db:"ae_title"`
	HostIp     string      `db:"host_ip"`
	Version    int64       `db:"version"`
	CreateTime pq.NullTime `db:"create_time"`
	UpdateTime pq.NullTime `db:"update_time"`
}

type DestinationApplicationEntityRow struct {
	Id         int64       `db:"id"`
	Name       string      `db:"name"`
	AeTitle    string      `db:"ae_title"`
	HostIp     string      `db:"host_ip"`
	Port       int         `db:"port"`
	Version    int64       `db:"version"`
	CreateTime pq.NullTime `db:"create_time"`
	UpdateTime pq.NullTime `db:"update_time"`
}

type InferenceRequestRow struct {
	Id              int64          `db:"id"`
	TransactionId   string         `db:"transaction_id"`
	JobId           string         `db:"job_id"`
	PayloadId       string         `db:"payload_id"`
	Algorithm       sql.NullString `db:"algorithm"`
	Priority        sql.NullString `db:"priority"`
	InputResources  sql.NullString `db:"input_resources"`
	OutputResources sql.NullString `db:"output_resources"`
	InputMetadata   sql.NullString `db:"input_metadata"`
	StoragePath     sql.NullString `db:"storage_path"`
	State           string         `db:"state"`
	Status          string         `db:"status"`
	TryCount        int            `db:"try_count"`
	Version         int64          `db:"version"`
	CreateTime      pq.NullTime    `db:"create_time"`
	UpdateTime      pq.NullTime    `db:"update_time"`
}

// GetInferenceRequestFieldTags returns the InferenceRequestFieldTags value.
func GetInferenceRequestFieldTags() map[string]string {
	r := InferenceRequestRow{}
	return getFieldTags(r)
}

type InferenceJobRow struct {
	Id                int64          `db:"id"`
	JobId             string         `db:"job_id"`
	PayloadId         string         `db:"payload_id"`
	JobName           string         `db:"job_name"`
	PipelineId        string         `db:"pipeline_id"`
	Priority          sql.NullString `db:"priority"`
	StoragePath       sql.NullString `db:"storage_path"`
	Instances         sql.NullString `db:"instances"`
	State             string         `db:"state"`
	Status            string         `db:"status"`
	TryCount          int            `db:"try_count"`
	Source            sql.NullString `db:"source"`
	PlatformJobId     sql.NullString `db:"platform_job_id"`
	PlatformPayloadId sql.NullString `db:"platform_payload_id"`
	LastTaken         pq.NullTime    `db:"last_taken"`
	Version           int64          `db:"version"`
	CreateTime        pq.NullTime    `db:"create_time"`
	UpdateTime        pq.NullTime    `db:"update_time"`
}

// GetInferenceJobFieldTags returns the InferenceJobFieldTags value.
func GetInferenceJobFieldTags() map[string]string {
	j := InferenceJobRow{}
	return getFieldTags(j)
}

// getFieldTags retrieves FieldTags for internal use.
func getFieldTags(obj interface{}) map[string]string {
	result := make(map[string]string)
	t := reflect.TypeOf(obj)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		result[strings.ToLower(field.Name)] = field.Tag.Get("db")
	}
	return result
}

// generateCommand generates SQL command string using reflection
// Iterates through struct fields and builds column and value lists
// Skips fields with specified ignoreTag
// Returns formatted SQL command with columns and values
func generateCommand(obj interface{}, format, ignoreTag string) string {
	t := reflect.TypeOf(obj)
	columns := make([]string, 0, t.NumField())
	values := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("db")
		if tag == ignoreTag {
			continue
		}
		columns = append(columns, tag)
		values = append(values, fmt.Sprintf(":%s", tag))
	}
	cmd := fmt.Sprintf(format, strings.Join(columns, ", "), strings.Join(values, ", "))
	return cmd
}

// GetFieldTag returns the FieldTag value.
func GetFieldTag(tags map[string]string, name string) string {
	name = strings.ToLower(name)
	return tags[name]
}

func ToApplicationEntityRow(e *types.ApplicationEntity) *ApplicationEntityRow {
	return &ApplicationEntityRow{
		Name:                  e.Name,
		AeTitle:               e.AeTitle,
		IgnoredSopClasses:     NullString(string(jsonutil.MarshalSilently(e.IgnoredSopClasses))),
		OverwriteSameInstance: e.OverwriteSameInstance,
		Processor:             e.Processor,
		ProcessorSettings:     NullString(string(jsonutil.MarshalSilently(e.ProcessorSettings))),
	}
}

func (r *ApplicationEntityRow) ToEntity() *types.ApplicationEntity {
	return &types.ApplicationEntity{
		Name:                  r.Name,
		AeTitle:               r.AeTitle,
		IgnoredSopClasses:     jsonutil.UnmarshalSilently[[]string]([]byte(ParseNullString(r.IgnoredSopClasses))),
		OverwriteSameInstance: r.OverwriteSameInstance,
		Processor:             r.Processor,
		ProcessorSettings:     jsonutil.UnmarshalSilently[map[string]string]([]byte(ParseNullString(r.ProcessorSettings))),
	}
}

func ToSourceApplicationEntityRow(e *types.SourceApplicationEntity) *SourceApplicationEntityRow {
	return &SourceApplicationEntityRow{
		AeTitle: e.AeTitle,
		HostIp:  e.HostIp,
	}
}

func (r *SourceApplicationEntityRow) ToEntity() *types.SourceApplicationEntity {
	return &types.SourceApplicationEntity{
		AeTitle: r.AeTitle,
		HostIp:  r.HostIp,
	}
}

func ToDestinationApplicationEntityRow(e *types.DestinationApplicationEntity) *DestinationApplicationEntityRow {
	return &DestinationApplicationEntityRow{
		Name:    e.Name,
		AeTitle: e.AeTitle,
		HostIp:  e.HostIp,
		Port:    e.Port,
	}
}

func (r *DestinationApplicationEntityRow) ToEntity() *types.DestinationApplicationEntity {
	return &types.DestinationApplicationEntity{
		Name:    r.Name,
		AeTitle: r.AeTitle,
		HostIp:  r.HostIp,
		Port:    r.Port,
	}
}

func ToInferenceRequestRow(req *types.InferenceRequest) *InferenceRequestRow {
	return &InferenceRequestRow{
		TransactionId:   req.TransactionId,
		JobId:           req.JobId,
		PayloadId:       req.PayloadId,
		Algorithm:       NullString(req.Algorithm),
		Priority:        NullString(string(req.Priority)),
		InputResources:  NullString(string(jsonutil.MarshalSilently(req.InputResources))),
		OutputResources: NullString(string(jsonutil.MarshalSilently(req.OutputResources))),
		InputMetadata:   NullString(string(jsonutil.MarshalSilently(req.InputMetadata))),
		StoragePath:     NullString(req.StoragePath),
		State:           string(req.State),
		Status:          string(req.Status),
		TryCount:        req.TryCount,
	}
}

func (r *InferenceRequestRow) ToRequest() *types.InferenceRequest {
	return &types.InferenceRequest{
		TransactionId:   r.TransactionId,
		JobId:           r.JobId,
		PayloadId:       r.PayloadId,
		Algorithm:       ParseNullString(r.Algorithm),
		Priority:        types.JobPriority(ParseNullString(r.Priority)),
		InputResources:  jsonutil.UnmarshalSilently[[]types.RequestInputResource]([]byte(ParseNullString(r.InputResources))),
		OutputResources: jsonutil.UnmarshalSilently[[]types.RequestOutputResource]([]byte(ParseNullString(r.OutputResources))),
		InputMetadata:   jsonutil.UnmarshalSilently[*types.InputMetadata]([]byte(ParseNullString(r.InputMetadata))),
		StoragePath:     ParseNullString(r.StoragePath),
		State:           types.InferenceRequestState(r.State),
		Status:          types.InferenceRequestStatus(r.Status),
		TryCount:        r.TryCount,
	}
}

func ToInferenceJobRow(job *types.InferenceJob) *InferenceJobRow {
	return &InferenceJobRow{
		JobId:             job.JobId,
		PayloadId:         job.PayloadId,
		JobName:           job.JobName,
		PipelineId:        job.PipelineId,
		Priority:          NullString(string(job.Priority)),
		StoragePath:       NullString(job.JobPayloadsStoragePath),
		Instances:         NullString(string(jsonutil.MarshalSilently(job.Instances))),
		State:             string(job.State),
		Status:            string(job.Status),
		TryCount:          job.TryCount,
		Source:            NullString(string(job.Source)),
		PlatformJobId:     NullString(job.PlatformJobId),
		PlatformPayloadId: NullString(job.PlatformPayloadId),
	}
}

func (r *InferenceJobRow) ToJob() *types.InferenceJob {
	return &types.InferenceJob{
		JobId:                  r.JobId,
		PayloadId:              r.PayloadId,
		JobName:                r.JobName,
		PipelineId:             r.PipelineId,
		Priority:               types.JobPriority(ParseNullString(r.Priority)),
		JobPayloadsStoragePath: ParseNullString(r.StoragePath),
		Instances:              jsonutil.UnmarshalSilently[[]types.InstanceStorageInfo]([]byte(ParseNullString(r.Instances))),
		State:                  types.JobState(r.State),
		Status:                 types.JobStatus(r.Status),
		TryCount:               r.TryCount,
		Source:                 types.JobSource(ParseNullString(r.Source)),
		PlatformJobId:          ParseNullString(r.PlatformJobId),
		PlatformPayloadId:      ParseNullString(r.PlatformPayloadId),
	}
}
