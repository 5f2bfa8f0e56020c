/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package jobs

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"k8s.io/klog/v2"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/backoff"
)

// copyFile copies one staged instance into the job payload directory.
// Disk-full errors retry on the short schedule; any other IO error aborts
// immediately. The source file stays owned by whoever staged it.
func copyFile(src, dst string) error {
	waits := backoff.DiskFullWaits()
	var err error
	for attempt := 0; ; attempt++ {
		if err = copyOnce(src, dst); err == nil {
			return nil
		}
		if !backoff.IsDiskFull(err) || attempt >= len(waits) {
			return err
		}
		klog.ErrorS(err, "disk full while copying instance, will retry", "dst", dst)
		time.Sleep(waits[attempt])
	}
}

func copyOnce(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}

// listFiles returns every regular file under root as a path relative to root.
func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
