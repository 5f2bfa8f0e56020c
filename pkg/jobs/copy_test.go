/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package jobs

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"gotest.tools/assert"
)

func TestCopyFileCreatesNestedDirectories(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "src.dcm")
	assert.NilError(t, os.WriteFile(src, []byte("payload"), 0o644))

	dst := filepath.Join(t.TempDir(), "jobs", "job-1", "src.dcm")
	assert.NilError(t, copyFile(src, dst))

	data, err := os.ReadFile(dst)
	assert.NilError(t, err)
	assert.Equal(t, string(data), "payload")
}

func TestCopyFileMissingSource(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.dcm")
	err := copyFile(filepath.Join(t.TempDir(), "absent.dcm"), dst)
	assert.Assert(t, err != nil)
	_, statErr := os.Stat(dst)
	assert.Assert(t, os.IsNotExist(statErr))
}

func TestListFilesReturnsRelativePaths(t *testing.T) {
	root := t.TempDir()
	assert.NilError(t, os.MkdirAll(filepath.Join(root, "nested"), 0o755))
	assert.NilError(t, os.WriteFile(filepath.Join(root, "a.dcm"), nil, 0o644))
	assert.NilError(t, os.WriteFile(filepath.Join(root, "nested", "b.dcm"), nil, 0o644))

	files, err := listFiles(root)
	assert.NilError(t, err)
	sort.Strings(files)
	assert.DeepEqual(t, files, []string{"a.dcm", filepath.Join("nested", "b.dcm")})
}
