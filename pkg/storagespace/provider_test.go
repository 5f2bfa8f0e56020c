/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package storagespace

import (
	"fmt"
	"testing"

	"gotest.tools/assert"
)

func fixedStat(available, total uint64) statFunc {
	return func(string) (uint64, uint64, error) {
		return available, total, nil
	}
}

func failingStat(string) (uint64, uint64, error) {
	return 0, 0, fmt.Errorf("no such file or directory")
}

func TestHasSpaceToStore(t *testing.T) {
	p := &diskProvider{root: "/s", watermarkPercent: 85, stat: fixedStat(50, 100)}
	assert.Assert(t, p.HasSpaceToStore())

	p.stat = fixedStat(10, 100) // 90% used
	assert.Assert(t, !p.HasSpaceToStore())

	p.stat = failingStat
	assert.Assert(t, !p.HasSpaceToStore())
}

func TestHasSpaceToRetrieve(t *testing.T) {
	p := &diskProvider{root: "/s", reserveRetrieve: 1024, stat: fixedStat(2048, 4096)}
	assert.Assert(t, p.HasSpaceToRetrieve())

	p.stat = fixedStat(512, 4096)
	assert.Assert(t, !p.HasSpaceToRetrieve())
}

func TestHasSpaceForExport(t *testing.T) {
	p := &diskProvider{root: "/s", reserveExport: 100, stat: fixedStat(101, 1000)}
	assert.Assert(t, p.HasSpaceForExport())

	p.stat = fixedStat(100, 1000)
	assert.Assert(t, !p.HasSpaceForExport())
}

func TestAvailableBytes(t *testing.T) {
	p := &diskProvider{root: "/s", stat: fixedStat(777, 1000)}
	assert.Equal(t, p.AvailableBytes(), uint64(777))

	p.stat = failingStat
	assert.Equal(t, p.AvailableBytes(), uint64(0))
}
