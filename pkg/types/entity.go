/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package types

import (
	"fmt"
	"regexp"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/errors"
)

// MaxAeTitleLength is the DICOM limit for an AE title.
const MaxAeTitleLength = 16

// aeTitlePattern covers the DICOM default character repertoire for AE titles,
// minus backslash and control characters.
var aeTitlePattern = regexp.MustCompile(`^[\x20-\x5B\x5D-\x7E]+$`)

// ApplicationEntity is a called AE the SCP accepts C-STORE requests for. The
// processor descriptor names the registered job processor that consumes
// instances stored under this AE.
type ApplicationEntity struct {
	Name                  string            `json:"name"`
	AeTitle               string            `json:"aeTitle"`
	IgnoredSopClasses     []string          `json:"ignoredSopClasses,omitempty"`
	OverwriteSameInstance bool              `json:"overwriteSameInstance"`
	Processor             string            `json:"processor"`
	ProcessorSettings     map[string]string `json:"processorSettings,omitempty"`
}

// Validate checks the entity against the admission rules. Processor
// resolvability is checked separately by the processor registry.
func (e *ApplicationEntity) Validate() error {
	if e.Name == "" {
		return errors.NewBadRequest("name is required")
	}
	return validateAeTitle(e.AeTitle)
}

// DestinationApplicationEntity is an export destination reachable over a DICOM
// association.
type DestinationApplicationEntity struct {
	Name    string `json:"name"`
	AeTitle string `json:"aeTitle"`
	HostIp  string `json:"hostIp"`
	Port    int    `json:"port"`
}

func (e *DestinationApplicationEntity) Validate() error {
	if e.Name == "" {
		return errors.NewBadRequest("name is required")
	}
	if err := validateAeTitle(e.AeTitle); err != nil {
		return err
	}
	if e.HostIp == "" {
		return errors.NewBadRequest("hostIp is required")
	}
	if e.Port <= 0 || e.Port > 65535 {
		return errors.NewBadRequest(fmt.Sprintf("port %d is out of range (1..65535)", e.Port))
	}
	return nil
}

// SourceApplicationEntity is a known calling AE, keyed by its AE title.
type SourceApplicationEntity struct {
	AeTitle string `json:"aeTitle"`
	HostIp  string `json:"hostIp"`
}

func (e *SourceApplicationEntity) Validate() error {
	if err := validateAeTitle(e.AeTitle); err != nil {
		return err
	}
	if e.HostIp == "" {
		return errors.NewBadRequest("hostIp is required")
	}
	return nil
}

func validateAeTitle(aeTitle string) error {
	if aeTitle == "" {
		return errors.NewBadRequest("aeTitle is required")
	}
	if len(aeTitle) > MaxAeTitleLength {
		return errors.NewBadRequest(fmt.Sprintf("aeTitle %q exceeds %d characters", aeTitle, MaxAeTitleLength))
	}
	if !aeTitlePattern.MatchString(aeTitle) {
		return errors.NewBadRequest(fmt.Sprintf("aeTitle %q contains characters outside the DICOM repertoire", aeTitle))
	}
	return nil
}
