/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"gorm.io/gorm"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/klog/v2"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/backoff"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/config"
	gatewayerrors "github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
)

var (
	once     sync.Once
	instance *Client
)

// Client represents a database client that manages both sqlx and gorm database connections.
// It encapsulates the database configuration and provides methods to interact with the database.
type Client struct {
	db        *sqlx.DB // sqlx database instance
	gorm      *gorm.DB // gorm ORM database instance
	*DBConfig          // Embedded database configuration
}

// NewClient creates a singleton instance of the database Client.
// It initializes the database configuration from gateway configuration,
// validates the parameters, establishes connections using both sqlx and gorm,
// and migrates the gateway tables.
// The initialization happens only once even if called multiple times.
//
// Returns:
//   - *Client: Singleton database client instance
func NewClient() *Client {
	once.Do(func() {
		cfg := &DBConfig{
			DBName:         config.GetDBName(),
			Username:       config.GetDBUser(),
			Password:       config.GetDBPassword(),
			Host:           config.GetDBHost(),
			Port:           config.GetDBPort(),
			SSLMode:        config.GetDBSslMode(),
			MaxOpenConns:   config.GetDBMaxOpenConns(),
			MaxIdleConns:   config.GetDBMaxIdleConns(),
			MaxLifetime:    time.Duration(config.GetDBMaxLifetimeSecond()) * time.Second,
			MaxIdleTime:    time.Duration(config.GetDBMaxIdleTimeSecond()) * time.Second,
			ConnectTimeout: config.GetDBConnectTimeoutSecond(),
			RequestTimeout: time.Duration(config.GetDBRequestTimeoutSecond()) * time.Second,
		}
		if err := checkParams(cfg); err != nil {
			klog.ErrorS(err, "failed to check db params")
			return
		}
		db, err := Connect(cfg, PgDriver)
		if err != nil {
			klog.Errorf("%s", err.Error())
			return
		}
		err = db.Ping()
		if err != nil {
			klog.ErrorS(err, "failed to ping db")
			return
		}
		gormDb, err := ConnectGorm(cfg)
		if err != nil {
			klog.ErrorS(err, "failed to init gorm")
			return
		}
		if err = migrate(gormDb); err != nil {
			klog.ErrorS(err, "failed to migrate db tables")
			return
		}
		instance = &Client{db: db, DBConfig: cfg, gorm: gormDb}
		klog.Infof("init db-client successfully! conn-timeout: %d(s), request-timeout: %d(s)",
			cfg.ConnectTimeout, config.GetDBRequestTimeoutSecond())
	})
	return instance
}

// NewClientWithDB builds a client over an existing sqlx handle; used by tests
// with a mock driver.
func NewClientWithDB(db *sqlx.DB) *Client {
	return &Client{db: db, DBConfig: &DBConfig{RequestTimeout: 20 * time.Second}}
}

// Close performs the Close operation.
func (c *Client) Close() {
	err := c.db.Close()
	if err != nil {
		klog.ErrorS(err, "failed to close db connection")
	}
}

// getDB retrieves DB for internal use.
func (c *Client) getDB() (*sqlx.DB, error) {
	if c == nil || c.db == nil {
		return nil, gatewayerrors.NewInternalError("The client of db has not been initialized")
	}
	return c.db.Unsafe(), nil
}

// checkParams checks Params and returns the result.
func checkParams(cfg *DBConfig) error {
	var errs []error
	if cfg.DBName == "" {
		errs = append(errs, fmt.Errorf("dbname not found"))
	}
	if cfg.Username == "" {
		errs = append(errs, fmt.Errorf("username not found"))
	}
	if cfg.Password == "" {
		errs = append(errs, fmt.Errorf("password not found"))
	}
	if cfg.Host == "" {
		errs = append(errs, fmt.Errorf("host not found"))
	}
	if cfg.SSLMode == "" {
		errs = append(errs, fmt.Errorf("ssl_mode not found"))
	}
	if cfg.Port == 0 {
		errs = append(errs, fmt.Errorf("port not found"))
	}
	return utilerrors.NewAggregate(errs)
}

// mutate runs a write operation, retrying transient transport failures on the
// persistence schedule. The fourth failure is returned to the caller.
func (c *Client) mutate(ctx context.Context, op func() error) error {
	waits := backoff.PersistenceWaits()
	var err error
	for attempt := 0; ; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if !isTransient(err) || ctx.Err() != nil || attempt >= len(waits) {
			return err
		}
		klog.ErrorS(err, "transient db failure, will retry", "attempt", attempt+1)
		time.Sleep(waits[attempt])
	}
}

// isTransient reports whether a database error is worth retrying. Integrity
// and syntax violations never are; connection-level failures are.
func isTransient(err error) bool {
	if err == nil || gatewayerrors.IsCancelled(err) {
		return false
	}
	if pqErr, ok := err.(*pq.Error); ok {
		class := pqErr.Code.Class()
		switch class {
		case "08", "53", "57", "58": // connection, resources, operator intervention, system
			return true
		default:
			return false
		}
	}
	if gatewayerrors.IsGateway(err) {
		return gatewayerrors.IsTransientTransport(err)
	}
	return true
}
