/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package database

import (
	"context"
	"fmt"

	sqrl "github.com/Masterminds/squirrel"
	"k8s.io/klog/v2"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

var (
	insertRequestFormat = `INSERT INTO ` + TInferenceRequest + ` (%s) VALUES (%s)`
	updateRequestCmd    = fmt.Sprintf(`UPDATE %s
		SET state = :state,
		    status = :status,
		    try_count = :try_count,
		    version = version + 1,
		    update_time = now()
		WHERE job_id = :job_id`, TInferenceRequest)
	archiveRequestCmd = fmt.Sprintf(`INSERT INTO %s
		(transaction_id, job_id, payload_id, algorithm, priority, input_resources,
		 output_resources, input_metadata, storage_path, state, status, try_count,
		 version, create_time, update_time)
		SELECT transaction_id, job_id, payload_id, algorithm, priority, input_resources,
		       output_resources, input_metadata, storage_path, 'Completed', $2, try_count,
		       version, create_time, now()
		FROM %s WHERE job_id = $1`, TInferenceRequestArchive, TInferenceRequest)
	deleteRequestCmd = fmt.Sprintf(`DELETE FROM %s WHERE job_id = $1`, TInferenceRequest)
	resetRequestCmd  = fmt.Sprintf(`UPDATE %s
		SET state = '%s',
		    version = version + 1,
		    update_time = now()
		WHERE state = '%s'`, TInferenceRequest,
		types.InferenceRequestStateQueued, types.InferenceRequestStateInProcess)
)

func (c *Client) InsertInferenceRequest(ctx context.Context, req *types.InferenceRequest) error {
	if req == nil {
		return nil
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}
	row := ToInferenceRequestRow(req)
	return c.mutate(ctx, func() error {
		if _, err := db.NamedExecContext(ctx, generateCommand(*row, insertRequestFormat, "id"), row); err != nil {
			klog.ErrorS(err, "failed to insert inference request", "jobId", req.JobId)
			return err
		}
		return nil
	})
}

// UpdateInferenceRequestState rewrites the state, status and try-count of a
// live request and bumps its version.
func (c *Client) UpdateInferenceRequestState(ctx context.Context, req *types.InferenceRequest) error {
	if req == nil {
		return nil
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}
	row := ToInferenceRequestRow(req)
	return c.mutate(ctx, func() error {
		if _, err := db.NamedExecContext(ctx, updateRequestCmd, row); err != nil {
			klog.ErrorS(err, "failed to update inference request", "jobId", req.JobId)
			return err
		}
		return nil
	})
}

// ArchiveInferenceRequest copies a live request into the archive table with
// the terminal status and deletes the live row, in one transaction. Archiving
// an already-archived request is a no-op.
func (c *Client) ArchiveInferenceRequest(ctx context.Context, jobId string, status types.InferenceRequestStatus) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	return c.mutate(ctx, func() error {
		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, archiveRequestCmd, jobId, string(status)); err != nil {
			_ = tx.Rollback()
			klog.ErrorS(err, "failed to archive inference request", "jobId", jobId)
			return err
		}
		if _, err = tx.ExecContext(ctx, deleteRequestCmd, jobId); err != nil {
			_ = tx.Rollback()
			klog.ErrorS(err, "failed to delete archived inference request", "jobId", jobId)
			return err
		}
		return tx.Commit()
	})
}

// SelectInferenceRequests lists requests matching the query. Lookups consult
// the archive before the live table, so archived is typically tried first.
func (c *Client) SelectInferenceRequests(ctx context.Context, query sqrl.Sqlizer, archived bool) ([]*types.InferenceRequest, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	table := TInferenceRequest
	if archived {
		table = TInferenceRequestArchive
	}
	sql, args, err := sqrl.Select("*").PlaceholderFormat(sqrl.Dollar).
		From(table).
		Where(query).
		OrderBy("create_time asc").ToSql()
	if err != nil {
		return nil, err
	}
	var rows []*InferenceRequestRow
	ctx2, cancel := context.WithTimeout(ctx, c.RequestTimeout)
	defer cancel()
	if err = db.SelectContext(ctx2, &rows, sql, args...); err != nil {
		return nil, err
	}
	requests := make([]*types.InferenceRequest, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, row.ToRequest())
	}
	return requests, nil
}

// GetInferenceRequest finds a request by job id, consulting the archive first.
// It returns nil without error when the request is unknown.
func (c *Client) GetInferenceRequest(ctx context.Context, jobId string) (*types.InferenceRequest, error) {
	return c.getRequestBy(ctx, sqrl.Eq{"job_id": jobId})
}

// GetInferenceRequestByPayloadId finds a request by payload id, archive first.
func (c *Client) GetInferenceRequestByPayloadId(ctx context.Context, payloadId string) (*types.InferenceRequest, error) {
	return c.getRequestBy(ctx, sqrl.Eq{"payload_id": payloadId})
}

// GetInferenceRequestByTransactionId finds a request by transaction id,
// archive first.
func (c *Client) GetInferenceRequestByTransactionId(ctx context.Context, transactionId string) (*types.InferenceRequest, error) {
	return c.getRequestBy(ctx, sqrl.Eq{"transaction_id": transactionId})
}

func (c *Client) getRequestBy(ctx context.Context, query sqrl.Sqlizer) (*types.InferenceRequest, error) {
	archived, err := c.SelectInferenceRequests(ctx, query, true)
	if err != nil {
		return nil, err
	}
	if len(archived) > 0 {
		return archived[len(archived)-1], nil
	}
	live, err := c.SelectInferenceRequests(ctx, query, false)
	if err != nil {
		return nil, err
	}
	if len(live) > 0 {
		return live[0], nil
	}
	return nil, nil
}

// ResetInProcessRequests requeues every request left InProcess by a previous
// run. The version bump makes the watcher re-emit the rows. Idempotent.
func (c *Client) ResetInProcessRequests(ctx context.Context) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	return c.mutate(ctx, func() error {
		res, err := db.ExecContext(ctx, resetRequestCmd)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			klog.Infof("requeued %d in-process inference request(s)", n)
		}
		return nil
	})
}

// ListQueuedInferenceRequests returns the live requests awaiting processing.
func (c *Client) ListQueuedInferenceRequests(ctx context.Context) ([]*types.InferenceRequest, error) {
	return c.SelectInferenceRequests(ctx, sqrl.Eq{"state": string(types.InferenceRequestStateQueued)}, false)
}
