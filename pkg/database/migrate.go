/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package database

import (
	"time"

	"gorm.io/gorm"
)

// Gorm models used only at connect time to migrate the gateway tables. All
// reads and writes go through sqlx; gorm never touches live rows.

type applicationEntityModel struct {
	Id                    int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Name                  string     `gorm:"column:name;uniqueIndex;size:256"`
	AeTitle               string     `gorm:"column:ae_title;size:16"`
	IgnoredSopClasses     string     `gorm:"column:ignored_sop_classes;type:text"`
	OverwriteSameInstance bool       `gorm:"column:overwrite_same_instance"`
	Processor             string     `gorm:"column:processor;size:256"`
	ProcessorSettings     string     `gorm:"column:processor_settings;type:text"`
	Version               int64      `gorm:"column:version;default:1"`
	CreateTime            *time.Time `gorm:"column:create_time"`
	UpdateTime            *time.Time `gorm:"column:update_time"`
}

func (applicationEntityModel) TableName() string { return TApplicationEntity }

type sourceApplicationEntityModel struct {
	Id         int64      `gorm:"column:id;primaryKey;autoIncrement"`
	AeTitle    string     `gorm:"column:ae_title;uniqueIndex;size:16"`
	HostIp     string     `gorm:"column:host_ip;size:256"`
	Version    int64      `gorm:"column:version;default:1"`
	CreateTime *time.Time `gorm:"column:create_time"`
	UpdateTime *time.Time `gorm:"column:update_time"`
}

func (sourceApplicationEntityModel) TableName() string { return TSourceApplicationEntity }

type destinationApplicationEntityModel struct {
	Id         int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Name       string     `gorm:"column:name;uniqueIndex;size:256"`
	AeTitle    string     `gorm:"column:ae_title;size:16"`
	HostIp     string     `gorm:"column:host_ip;size:256"`
	Port       int        `gorm:"column:port"`
	Version    int64      `gorm:"column:version;default:1"`
	CreateTime *time.Time `gorm:"column:create_time"`
	UpdateTime *time.Time `gorm:"column:update_time"`
}

func (destinationApplicationEntityModel) TableName() string { return TDestinationApplicationEntity }

type inferenceRequestModel struct {
	Id              int64      `gorm:"column:id;primaryKey;autoIncrement"`
	TransactionId   string     `gorm:"column:transaction_id;index;size:256"`
	JobId           string     `gorm:"column:job_id;index;size:64"`
	PayloadId       string     `gorm:"column:payload_id;index;size:64"`
	Algorithm       string     `gorm:"column:algorithm;size:256"`
	Priority        string     `gorm:"column:priority;size:16"`
	InputResources  string     `gorm:"column:input_resources;type:text"`
	OutputResources string     `gorm:"column:output_resources;type:text"`
	InputMetadata   string     `gorm:"column:input_metadata;type:text"`
	StoragePath     string     `gorm:"column:storage_path;size:1024"`
	State           string     `gorm:"column:state;index;size:32"`
	Status          string     `gorm:"column:status;size:16"`
	TryCount        int        `gorm:"column:try_count"`
	Version         int64      `gorm:"column:version;default:1"`
	CreateTime      *time.Time `gorm:"column:create_time"`
	UpdateTime      *time.Time `gorm:"column:update_time"`
}

func (inferenceRequestModel) TableName() string { return TInferenceRequest }

type inferenceRequestArchiveModel struct {
	inferenceRequestModel
}

func (inferenceRequestArchiveModel) TableName() string { return TInferenceRequestArchive }

type inferenceJobModel struct {
	Id                int64      `gorm:"column:id;primaryKey;autoIncrement"`
	JobId             string     `gorm:"column:job_id;uniqueIndex;size:64"`
	PayloadId         string     `gorm:"column:payload_id;index;size:64"`
	JobName           string     `gorm:"column:job_name;size:256"`
	PipelineId        string     `gorm:"column:pipeline_id;size:64"`
	Priority          string     `gorm:"column:priority;size:16"`
	StoragePath       string     `gorm:"column:storage_path;size:1024"`
	Instances         string     `gorm:"column:instances;type:text"`
	State             string     `gorm:"column:state;index;size:32"`
	Status            string     `gorm:"column:status;size:16"`
	TryCount          int        `gorm:"column:try_count"`
	Source            string     `gorm:"column:source;size:16"`
	PlatformJobId     string     `gorm:"column:platform_job_id;size:64"`
	PlatformPayloadId string     `gorm:"column:platform_payload_id;size:64"`
	LastTaken         *time.Time `gorm:"column:last_taken"`
	Version           int64      `gorm:"column:version;default:1"`
	CreateTime        *time.Time `gorm:"column:create_time"`
	UpdateTime        *time.Time `gorm:"column:update_time"`
}

func (inferenceJobModel) TableName() string { return TInferenceJob }

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&applicationEntityModel{},
		&sourceApplicationEntityModel{},
		&destinationApplicationEntityModel{},
		&inferenceRequestModel{},
		&inferenceRequestArchiveModel{},
		&inferenceJobModel{},
	)
}
