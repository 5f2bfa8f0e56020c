/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package storagespace

import (
	"golang.org/x/sys/unix"
	"k8s.io/klog/v2"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/config"
)

// Provider gates the three intake paths on local disk pressure. A false
// answer pauses the respective consumer; it never rejects work already
// accepted.
type Provider interface {
	HasSpaceToStore() bool
	HasSpaceToRetrieve() bool
	HasSpaceForExport() bool
	AvailableBytes() uint64
}

type statFunc func(path string) (available, total uint64, err error)

type diskProvider struct {
	root             string
	watermarkPercent float64
	reserveRetrieve  uint64
	reserveExport    uint64
	stat             statFunc
}

// NewProvider builds a provider over the staging root using the configured
// watermark and reserve floors.
func NewProvider() Provider {
	return &diskProvider{
		root:             config.GetStorageTemporary(),
		watermarkPercent: config.GetStorageWatermarkPercent(),
		reserveRetrieve:  config.GetStorageReserveRetrieveBytes(),
		reserveExport:    config.GetStorageReserveExportBytes(),
		stat:             statfs,
	}
}

func statfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	// Field types vary across unix platforms (some are signed, some unsigned).
	bavail := stat.Bavail
	bsize := stat.Bsize
	available := uint64(bavail) * uint64(bsize)
	total := stat.Blocks * uint64(bsize)
	return available, total, nil
}

// HasSpaceToStore reports whether used space is below the watermark. A failed
// stat counts as no space; refusing new instances is the safe answer.
func (p *diskProvider) HasSpaceToStore() bool {
	available, total, err := p.stat(p.root)
	if err != nil {
		klog.ErrorS(err, "failed to stat staging root", "path", p.root)
		return false
	}
	if total == 0 {
		return false
	}
	usedPercent := 100 * float64(total-available) / float64(total)
	return usedPercent < p.watermarkPercent
}

func (p *diskProvider) HasSpaceToRetrieve() bool {
	return p.hasReserve(p.reserveRetrieve)
}

func (p *diskProvider) HasSpaceForExport() bool {
	return p.hasReserve(p.reserveExport)
}

func (p *diskProvider) AvailableBytes() uint64 {
	available, _, err := p.stat(p.root)
	if err != nil {
		return 0
	}
	return available
}

func (p *diskProvider) hasReserve(reserve uint64) bool {
	available, _, err := p.stat(p.root)
	if err != nil {
		klog.ErrorS(err, "failed to stat staging root", "path", p.root)
		return false
	}
	return available > reserve
}
