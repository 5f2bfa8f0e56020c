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
	getJobCmd       = fmt.Sprintf(`SELECT * FROM %s WHERE job_id = $1 LIMIT 1`, TInferenceJob)
	insertJobFormat = `INSERT INTO ` + TInferenceJob + ` (%s) VALUES (%s)`
	updateJobCmd    = fmt.Sprintf(`UPDATE %s
		SET state = :state,
		    status = :status,
		    try_count = :try_count,
		    platform_job_id = :platform_job_id,
		    platform_payload_id = :platform_payload_id,
		    version = version + 1,
		    update_time = now()
		WHERE job_id = :job_id`, TInferenceJob)
	stampJobCmd = fmt.Sprintf(`UPDATE %s
		SET last_taken = now(),
		    version = version + 1
		WHERE job_id = $1`, TInferenceJob)
	resetJobCmd = fmt.Sprintf(`UPDATE %s
		SET last_taken = NULL,
		    state = CASE WHEN state = '%s' THEN '%s' ELSE state END
		WHERE state NOT IN ('%s', '%s')`, TInferenceJob,
		types.JobStateCreated, types.JobStateCreating,
		types.JobStateCompleted, types.JobStateFaulted)
)

// WorkingJobStates are the states the submission worker consumes.
var WorkingJobStates = []string{
	string(types.JobStateCreating),
	string(types.JobStateMetadataUploading),
	string(types.JobStatePayloadUploading),
	string(types.JobStateStarting),
}

func (c *Client) InsertInferenceJob(ctx context.Context, job *types.InferenceJob) error {
	if job == nil {
		return nil
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}
	row := ToInferenceJobRow(job)
	return c.mutate(ctx, func() error {
		if _, err := db.NamedExecContext(ctx, generateCommand(*row, insertJobFormat, "id"), row); err != nil {
			klog.ErrorS(err, "failed to insert inference job", "jobId", job.JobId)
			return err
		}
		return nil
	})
}

func (c *Client) GetInferenceJob(ctx context.Context, jobId string) (*types.InferenceJob, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	rows := []*InferenceJobRow{}
	if err = db.SelectContext(ctx, &rows, getJobCmd, jobId); err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0] == nil {
		return nil, nil
	}
	return rows[0].ToJob(), nil
}

func (c *Client) SelectInferenceJobs(ctx context.Context, query sqrl.Sqlizer) ([]*types.InferenceJob, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	sql, args, err := sqrl.Select("*").PlaceholderFormat(sqrl.Dollar).
		From(TInferenceJob).
		Where(query).
		OrderBy("create_time asc").ToSql()
	if err != nil {
		return nil, err
	}
	var rows []*InferenceJobRow
	ctx2, cancel := context.WithTimeout(ctx, c.RequestTimeout)
	defer cancel()
	if err = db.SelectContext(ctx2, &rows, sql, args...); err != nil {
		return nil, err
	}
	jobs := make([]*types.InferenceJob, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, row.ToJob())
	}
	return jobs, nil
}

// ListWorkingInferenceJobs returns the jobs in a non-terminal working state,
// oldest first.
func (c *Client) ListWorkingInferenceJobs(ctx context.Context) ([]*types.InferenceJob, error) {
	return c.SelectInferenceJobs(ctx, sqrl.Eq{"state": WorkingJobStates})
}

// UpdateInferenceJobState rewrites the mutable fields of a job and bumps its
// version. The state transition itself is committed here, after the handler
// for the previous state completed.
func (c *Client) UpdateInferenceJobState(ctx context.Context, job *types.InferenceJob) error {
	if job == nil {
		return nil
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}
	row := ToInferenceJobRow(job)
	return c.mutate(ctx, func() error {
		if _, err := db.NamedExecContext(ctx, updateJobCmd, row); err != nil {
			klog.ErrorS(err, "failed to update inference job", "jobId", job.JobId)
			return err
		}
		return nil
	})
}

// StampInferenceJobTaken records that the submission worker popped the job.
// Only last_taken changes; the state is untouched until the handler commits.
func (c *Client) StampInferenceJobTaken(ctx context.Context, jobId string) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	return c.mutate(ctx, func() error {
		_, err := db.ExecContext(ctx, stampJobCmd, jobId)
		return err
	})
}

// ResetJobStates rewinds every non-terminal job to a resumable point: the
// last_taken stamp is cleared and freshly added jobs are normalized to
// Creating. Completed and Faulted rows are left unchanged. The operation is
// idempotent.
func (c *Client) ResetJobStates(ctx context.Context) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	return c.mutate(ctx, func() error {
		res, err := db.ExecContext(ctx, resetJobCmd)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			klog.Infof("reset %d inference job(s) to a resumable state", n)
		}
		return nil
	})
}
