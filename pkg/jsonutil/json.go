/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package jsonutil

import (
	"encoding/json"
)

// MarshalSilently marshals the object to JSON and swallows the error; it
// returns nil on failure. Intended for logging and persistence of best-effort
// blobs.
func MarshalSilently(obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		return nil
	}
	return data
}

// UnmarshalSilently unmarshals JSON into a fresh value of T; it returns the
// zero value on failure.
func UnmarshalSilently[T any](data []byte) T {
	var obj T
	if len(data) == 0 {
		return obj
	}
	_ = json.Unmarshal(data, &obj)
	return obj
}
