/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// AeTitleEntry is a statically configured called application entity, read from
// scp.aeTitles in the config file.
type AeTitleEntry struct {
	Name                  string            `json:"name" yaml:"name"`
	AeTitle               string            `json:"aeTitle" yaml:"aeTitle"`
	IgnoredSopClasses     []string          `json:"ignoredSopClasses" yaml:"ignoredSopClasses"`
	OverwriteSameInstance bool              `json:"overwriteSameInstance" yaml:"overwriteSameInstance"`
	Processor             string            `json:"processor" yaml:"processor"`
	ProcessorSettings     map[string]string `json:"processorSettings" yaml:"processorSettings"`
}

// SetValue sets a configuration value for the specified key.
func SetValue(key string, value interface{}) {
	viper.Set(key, value)
}

// LoadConfig loads configuration from the specified file path.
func LoadConfig(path string) error {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	return viper.ReadInConfig()
}

func getString(key, defaultValue string) string {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetString(key)
}

func getBool(key string, defaultValue bool) bool {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetBool(key)
}

func getInt(key string, defaultValue int) int {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetInt(key)
}

func getFloat(key string, defaultValue float64) float64 {
	if !viper.IsSet(key) {
		return defaultValue
	}
	return viper.GetFloat64(key)
}

func getFromFile(configPath, item string) string {
	path := getString(configPath, "")
	data, err := os.ReadFile(filepath.Join(path, item))
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(data), "\r\n")
}

// GetServerPort returns the REST API server port.
func GetServerPort() int {
	return getInt(serverPort, 0)
}

// IsHealthCheckEnabled returns whether health checks are enabled.
func IsHealthCheckEnabled() bool {
	return getBool(healthCheckEnable, true)
}

// GetHealthCheckPort returns the port for the health check endpoint.
func GetHealthCheckPort() int {
	return getInt(healthCheckPort, 0)
}

// GetStorageTemporary returns the staging root directory.
func GetStorageTemporary() string {
	return getString(storageTemporary, "/payloads")
}

// GetStorageWatermarkPercent returns the maximum used-space percentage above
// which new C-STORE instances are rejected.
func GetStorageWatermarkPercent() float64 {
	return getFloat(storageWatermarkPercent, 85)
}

// GetStorageReserveRetrieveBytes returns the free-space floor below which
// DICOMweb retrieval is paused.
func GetStorageReserveRetrieveBytes() uint64 {
	return uint64(getInt(storageReserveRetrieve, 512*1024*1024))
}

// GetStorageReserveExportBytes returns the free-space floor below which export
// downloads are paused.
func GetStorageReserveExportBytes() uint64 {
	return uint64(getInt(storageReserveExport, 256*1024*1024))
}

// IsDBEnable returns whether the database is enabled.
func IsDBEnable() bool {
	return getBool(dbEnable, true)
}

// GetDBHost returns the database host address.
func GetDBHost() string {
	return getFromFile(dbSecretPath, "host")
}

// GetDBPort returns the database port number.
func GetDBPort() int {
	data := getFromFile(dbSecretPath, "port")
	n, err := strconv.Atoi(data)
	if err != nil {
		return 0
	}
	return n
}

// GetDBName returns the database name.
func GetDBName() string {
	return getFromFile(dbSecretPath, "dbname")
}

// GetDBUser returns the database username.
func GetDBUser() string {
	return getFromFile(dbSecretPath, "user")
}

// GetDBPassword returns the database password.
func GetDBPassword() string {
	return getFromFile(dbSecretPath, "password")
}

// GetDBSslMode returns the database SSL mode.
func GetDBSslMode() string {
	return getString(dbSslMode, "require")
}

// GetDBMaxOpenConns returns the maximum number of open database connections.
func GetDBMaxOpenConns() int {
	return getInt(dbMaxOpenConns, 100)
}

// GetDBMaxIdleConns returns the maximum number of idle database connections.
func GetDBMaxIdleConns() int {
	return getInt(dbMaxIdleConns, 10)
}

// GetDBMaxLifetimeSecond returns the maximum lifetime of database connections in seconds.
func GetDBMaxLifetimeSecond() int {
	return getInt(dbMaxLifetime, 600)
}

// GetDBMaxIdleTimeSecond returns the maximum idle time of database connections in seconds.
func GetDBMaxIdleTimeSecond() int {
	return getInt(dbMaxIdleTimeSecond, 60)
}

// GetDBConnectTimeoutSecond returns the database connection timeout in seconds.
func GetDBConnectTimeoutSecond() int {
	return getInt(dbConnectTimeoutSecond, 10)
}

// GetDBRequestTimeoutSecond returns the database request timeout in seconds.
func GetDBRequestTimeoutSecond() int {
	return getInt(dbRequestTimeoutSecond, 20)
}

// GetReadIntervalSecond returns the polling interval for watch-style stores.
func GetReadIntervalSecond() int {
	return getInt(readIntervalSecond, 5)
}

// GetPlatformEndpoint returns the downstream platform API endpoint.
func GetPlatformEndpoint() string {
	return getString(platformEndpoint, "")
}

// GetPlatformToken returns the downstream platform API token.
func GetPlatformToken() string {
	return getFromFile(platformToken, "token")
}

// GetParallelUploads returns the payload-upload fan-out per job.
func GetParallelUploads() int {
	return getInt(platformParallelUpload, 4)
}

// IsUploadMetadataEnabled returns whether job metadata upload is enabled.
func IsUploadMetadataEnabled() bool {
	return getBool(platformUploadMetadata, false)
}

// GetMetadataDicomSource returns the DICOM tags to include in job metadata.
func GetMetadataDicomSource() []string {
	return viper.GetStringSlice(platformMetadataSource)
}

// GetPipelineId returns the platform pipeline bound to the named processor.
func GetPipelineId(processor string) string {
	return getString(platformPipelinePrefix+processor, "")
}

// GetResultsEndpoint returns the results service endpoint.
func GetResultsEndpoint() string {
	return getString(resultsEndpoint, "")
}

// GetScpPort returns the DICOM SCP listen port.
func GetScpPort() int {
	return getInt(scpPort, 104)
}

// GetScpAeTitles returns the statically configured called AE titles.
func GetScpAeTitles() []AeTitleEntry {
	var entries []AeTitleEntry
	if err := viper.UnmarshalKey(scpAeTitles, &entries); err != nil {
		return []AeTitleEntry{}
	}
	return entries
}

// IsDynamicAeTitlesEnabled returns whether AE titles may be managed at runtime
// through the config API in addition to the static bootstrap list.
func IsDynamicAeTitlesEnabled() bool {
	return getBool(scpDynamicAeTitles, true)
}

// GetExportAgent returns the logical export agent name.
func GetExportAgent() string {
	return getString(exportAgent, "")
}

// GetExportScuAgent returns the agent name of the DICOM SCU export service.
// An empty name disables it.
func GetExportScuAgent() string {
	return getString(exportScuAgent, "")
}

// GetExportPollFrequency returns the export poll frequency in milliseconds.
func GetExportPollFrequency() int {
	return getInt(exportPollFrequencyMs, 1000)
}

// GetExportConcurrency returns the export pipeline concurrency.
func GetExportConcurrency() int {
	return getInt(exportConcurrency, 2)
}

// GetExportFailureThreshold returns the download failure ratio above which an
// export task is reported as a non-retriable failure.
func GetExportFailureThreshold() float64 {
	return getFloat(exportFailureThreshold, 0.5)
}

// GetExportMaxAssociationRetries returns the retry budget for failed SCU associations.
func GetExportMaxAssociationRetries() int {
	return getInt(exportMaxAssociations, 2)
}
