/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package config

// Configuration key constants. Keys mirror the YAML layout of the gateway
// config file loaded by LoadConfig.
const (
	serverPort        = "server.port"
	healthCheckEnable = "healthcheck.enable"
	healthCheckPort   = "healthcheck.port"

	storageTemporary        = "storage.temporary"
	storageWatermarkPercent = "storage.watermarkPercent"
	storageReserveRetrieve  = "storage.reserveRetrieveBytes"
	storageReserveExport    = "storage.reserveExportBytes"

	dbEnable               = "database.enable"
	dbSecretPath           = "database.secretPath"
	dbSslMode              = "database.sslMode"
	dbMaxOpenConns         = "database.maxOpenConns"
	dbMaxIdleConns         = "database.maxIdleConns"
	dbMaxLifetime          = "database.maxLifetimeSecond"
	dbMaxIdleTimeSecond    = "database.maxIdleTimeSecond"
	dbConnectTimeoutSecond = "database.connectTimeoutSecond"
	dbRequestTimeoutSecond = "database.requestTimeoutSecond"

	readIntervalSecond = "readIntervalSecond"

	platformEndpoint       = "platform.endpoint"
	platformToken          = "platform.secretPath"
	platformParallelUpload = "platform.parallelUploads"
	platformUploadMetadata = "platform.uploadMetadata"
	platformMetadataSource = "platform.metadataDicomSource"
	platformPipelinePrefix = "platform.pipeline."

	resultsEndpoint = "results.endpoint"

	scpPort            = "scp.port"
	scpAeTitles        = "scp.aeTitles"
	scpDynamicAeTitles = "scp.dynamicAeTitles"

	exportAgent            = "export.agent"
	exportScuAgent         = "export.scuAgent"
	exportPollFrequencyMs  = "export.pollFrequencyMs"
	exportConcurrency      = "export.concurrency"
	exportFailureThreshold = "export.failureThreshold"
	exportMaxAssociations  = "export.maxAssociationRetries"
)
