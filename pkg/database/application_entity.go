/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package database

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

var (
	getAeCmd       = fmt.Sprintf(`SELECT * FROM %s WHERE name = $1 LIMIT 1`, TApplicationEntity)
	listAeCmd      = fmt.Sprintf(`SELECT * FROM %s ORDER BY name`, TApplicationEntity)
	insertAeFormat = `INSERT INTO ` + TApplicationEntity + ` (%s) VALUES (%s)`
	updateAeCmd    = fmt.Sprintf(`UPDATE %s
		SET ae_title = :ae_title,
		    ignored_sop_classes = :ignored_sop_classes,
		    overwrite_same_instance = :overwrite_same_instance,
		    processor = :processor,
		    processor_settings = :processor_settings,
		    version = version + 1,
		    update_time = now()
		WHERE name = :name`, TApplicationEntity)
	deleteAeCmd = fmt.Sprintf(`DELETE FROM %s WHERE name = $1`, TApplicationEntity)

	getSourceAeCmd       = fmt.Sprintf(`SELECT * FROM %s WHERE ae_title = $1 LIMIT 1`, TSourceApplicationEntity)
	listSourceAeCmd      = fmt.Sprintf(`SELECT * FROM %s ORDER BY ae_title`, TSourceApplicationEntity)
	insertSourceAeFormat = `INSERT INTO ` + TSourceApplicationEntity + ` (%s) VALUES (%s)`
	updateSourceAeCmd    = fmt.Sprintf(`UPDATE %s
		SET host_ip = :host_ip,
		    version = version + 1,
		    update_time = now()
		WHERE ae_title = :ae_title`, TSourceApplicationEntity)
	deleteSourceAeCmd = fmt.Sprintf(`DELETE FROM %s WHERE ae_title = $1`, TSourceApplicationEntity)

	getDestAeCmd       = fmt.Sprintf(`SELECT * FROM %s WHERE name = $1 LIMIT 1`, TDestinationApplicationEntity)
	listDestAeCmd      = fmt.Sprintf(`SELECT * FROM %s ORDER BY name`, TDestinationApplicationEntity)
	insertDestAeFormat = `INSERT INTO ` + TDestinationApplicationEntity + ` (%s) VALUES (%s)`
	updateDestAeCmd    = fmt.Sprintf(`UPDATE %s
		SET ae_title = :ae_title,
		    host_ip = :host_ip,
		    port = :port,
		    version = version + 1,
		    update_time = now()
		WHERE name = :name`, TDestinationApplicationEntity)
	deleteDestAeCmd = fmt.Sprintf(`DELETE FROM %s WHERE name = $1`, TDestinationApplicationEntity)
)

func (c *Client) UpsertApplicationEntity(ctx context.Context, entity *types.ApplicationEntity) error {
	if entity == nil {
		return nil
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}
	row := ToApplicationEntityRow(entity)
	return c.mutate(ctx, func() error {
		rows := []*ApplicationEntityRow{}
		if err := db.SelectContext(ctx, &rows, getAeCmd, entity.Name); err != nil {
			return err
		}
		if len(rows) > 0 && rows[0] != nil {
			if _, err := db.NamedExecContext(ctx, updateAeCmd, row); err != nil {
				klog.ErrorS(err, "failed to update application entity", "name", entity.Name)
				return err
			}
			return nil
		}
		if _, err := db.NamedExecContext(ctx, generateCommand(*row, insertAeFormat, "id"), row); err != nil {
			klog.ErrorS(err, "failed to insert application entity", "name", entity.Name)
			return err
		}
		return nil
	})
}

func (c *Client) GetApplicationEntity(ctx context.Context, name string) (*types.ApplicationEntity, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	rows := []*ApplicationEntityRow{}
	if err = db.SelectContext(ctx, &rows, getAeCmd, name); err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0] == nil {
		return nil, nil
	}
	return rows[0].ToEntity(), nil
}

func (c *Client) ListApplicationEntities(ctx context.Context) ([]*types.ApplicationEntity, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	rows := []*ApplicationEntityRow{}
	if err = db.SelectContext(ctx, &rows, listAeCmd); err != nil {
		return nil, err
	}
	entities := make([]*types.ApplicationEntity, 0, len(rows))
	for _, row := range rows {
		entities = append(entities, row.ToEntity())
	}
	return entities, nil
}

func (c *Client) DeleteApplicationEntity(ctx context.Context, name string) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	return c.mutate(ctx, func() error {
		_, err := db.ExecContext(ctx, deleteAeCmd, name)
		return err
	})
}

func (c *Client) UpsertSourceApplicationEntity(ctx context.Context, entity *types.SourceApplicationEntity) error {
	if entity == nil {
		return nil
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}
	row := ToSourceApplicationEntityRow(entity)
	return c.mutate(ctx, func() error {
		rows := []*SourceApplicationEntityRow{}
		if err := db.SelectContext(ctx, &rows, getSourceAeCmd, entity.AeTitle); err != nil {
			return err
		}
		if len(rows) > 0 && rows[0] != nil {
			if _, err := db.NamedExecContext(ctx, updateSourceAeCmd, row); err != nil {
				klog.ErrorS(err, "failed to update source application entity", "aeTitle", entity.AeTitle)
				return err
			}
			return nil
		}
		if _, err := db.NamedExecContext(ctx, generateCommand(*row, insertSourceAeFormat, "id"), row); err != nil {
			klog.ErrorS(err, "failed to insert source application entity", "aeTitle", entity.AeTitle)
			return err
		}
		return nil
	})
}

func (c *Client) GetSourceApplicationEntity(ctx context.Context, aeTitle string) (*types.SourceApplicationEntity, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	rows := []*SourceApplicationEntityRow{}
	if err = db.SelectContext(ctx, &rows, getSourceAeCmd, aeTitle); err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0] == nil {
		return nil, nil
	}
	return rows[0].ToEntity(), nil
}

func (c *Client) ListSourceApplicationEntities(ctx context.Context) ([]*types.SourceApplicationEntity, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	rows := []*SourceApplicationEntityRow{}
	if err = db.SelectContext(ctx, &rows, listSourceAeCmd); err != nil {
		return nil, err
	}
	entities := make([]*types.SourceApplicationEntity, 0, len(rows))
	for _, row := range rows {
		entities = append(entities, row.ToEntity())
	}
	return entities, nil
}

func (c *Client) DeleteSourceApplicationEntity(ctx context.Context, aeTitle string) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	return c.mutate(ctx, func() error {
		_, err := db.ExecContext(ctx, deleteSourceAeCmd, aeTitle)
		return err
	})
}

func (c *Client) UpsertDestinationApplicationEntity(ctx context.Context, entity *types.DestinationApplicationEntity) error {
	if entity == nil {
		return nil
	}
	db, err := c.getDB()
	if err != nil {
		return err
	}
	row := ToDestinationApplicationEntityRow(entity)
	return c.mutate(ctx, func() error {
		rows := []*DestinationApplicationEntityRow{}
		if err := db.SelectContext(ctx, &rows, getDestAeCmd, entity.Name); err != nil {
			return err
		}
		if len(rows) > 0 && rows[0] != nil {
			if _, err := db.NamedExecContext(ctx, updateDestAeCmd, row); err != nil {
				klog.ErrorS(err, "failed to update destination application entity", "name", entity.Name)
				return err
			}
			return nil
		}
		if _, err := db.NamedExecContext(ctx, generateCommand(*row, insertDestAeFormat, "id"), row); err != nil {
			klog.ErrorS(err, "failed to insert destination application entity", "name", entity.Name)
			return err
		}
		return nil
	})
}

func (c *Client) GetDestinationApplicationEntity(ctx context.Context, name string) (*types.DestinationApplicationEntity, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	rows := []*DestinationApplicationEntityRow{}
	if err = db.SelectContext(ctx, &rows, getDestAeCmd, name); err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0] == nil {
		return nil, nil
	}
	return rows[0].ToEntity(), nil
}

func (c *Client) ListDestinationApplicationEntities(ctx context.Context) ([]*types.DestinationApplicationEntity, error) {
	db, err := c.getDB()
	if err != nil {
		return nil, err
	}
	rows := []*DestinationApplicationEntityRow{}
	if err = db.SelectContext(ctx, &rows, listDestAeCmd); err != nil {
		return nil, err
	}
	entities := make([]*types.DestinationApplicationEntity, 0, len(rows))
	for _, row := range rows {
		entities = append(entities, row.ToEntity())
	}
	return entities, nil
}

func (c *Client) DeleteDestinationApplicationEntity(ctx context.Context, name string) error {
	db, err := c.getDB()
	if err != nil {
		return err
	}
	return c.mutate(ctx, func() error {
		_, err := db.ExecContext(ctx, deleteDestAeCmd, name)
		return err
	})
}
