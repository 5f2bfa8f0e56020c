/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package retrieval

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/dicomutil"
	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

// collector accumulates staged instances for one request, deduplicated by SOP
// Instance UID. The first staged path for a UID wins; later copies of the
// same instance are removed.
type collector struct {
	root      string
	parse     func(path string) (*dicomutil.Attributes, error)
	instances map[string]types.InstanceStorageInfo
}

func newCollector(root string, parse func(path string) (*dicomutil.Attributes, error)) *collector {
	return &collector{
		root:      root,
		parse:     parse,
		instances: map[string]types.InstanceStorageInfo{},
	}
}

// restore indexes every .dcm file already present under the staging path.
// Files with an unreadable header are skipped, not fatal: a previous partial
// run must not poison the retry.
func (c *collector) restore() error {
	if _, err := os.Stat(c.root); os.IsNotExist(err) {
		return nil
	}
	return filepath.WalkDir(c.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".dcm") {
			return nil
		}
		attrs, err := c.parse(path)
		if err != nil {
			klog.ErrorS(err, "skipping corrupt staged file", "path", path)
			return nil
		}
		c.keep(attrs, path)
		return nil
	})
}

// add stages one retrieved file, parses its identity and records it. A
// duplicate SOP Instance UID keeps the first path and deletes this copy.
func (c *collector) add(data []byte) error {
	if err := os.MkdirAll(c.root, 0o755); err != nil {
		return err
	}
	path := filepath.Join(c.root, uuid.NewString()+".dcm")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	attrs, err := c.parse(path)
	if err != nil {
		_ = os.Remove(path)
		return err
	}
	if !c.keep(attrs, path) {
		_ = os.Remove(path)
	}
	return nil
}

func (c *collector) keep(attrs *dicomutil.Attributes, path string) bool {
	if _, dup := c.instances[attrs.SopInstanceUid]; dup {
		return false
	}
	c.instances[attrs.SopInstanceUid] = types.InstanceStorageInfo{
		SopInstanceUid:          attrs.SopInstanceUid,
		StudyInstanceUid:        attrs.StudyInstanceUid,
		SeriesInstanceUid:       attrs.SeriesInstanceUid,
		PatientId:               attrs.PatientId,
		InstanceStorageFullPath: path,
	}
	return true
}

func (c *collector) list() []types.InstanceStorageInfo {
	uids := make([]string, 0, len(c.instances))
	for uid := range c.instances {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	instances := make([]types.InstanceStorageInfo, 0, len(uids))
	for _, uid := range uids {
		instances = append(instances, c.instances[uid])
	}
	return instances
}
