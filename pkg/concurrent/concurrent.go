/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package concurrent

import (
	"sync"
)

// Exec executes the given function concurrently for the specified count.
// It returns the number of successful executions and the first error encountered, if any.
// The function uses goroutines and waits for all of them to complete before returning.
func Exec(count int, fn func() error) (int, error) {
	if count == 0 || fn == nil {
		return 0, nil
	}
	var wg sync.WaitGroup
	wg.Add(count)
	errCh := make(chan error, count)
	defer close(errCh)

	for i := 0; i < count; i++ {
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	successes := count - len(errCh)
	if len(errCh) > 0 {
		err := <-errCh
		return successes, err
	}
	return successes, nil
}

// ForEach runs fn over the items with at most limit goroutines in flight.
// It returns the number of items processed without error and the first error
// encountered. All items are attempted even after a failure; callers that need
// fail-fast semantics should check the error between batches.
func ForEach[T any](items []T, limit int, fn func(item T) error) (int, error) {
	if len(items) == 0 || fn == nil {
		return 0, nil
	}
	if limit <= 0 {
		limit = 1
	}
	var wg sync.WaitGroup
	sem := make(chan struct{}, limit)
	errCh := make(chan error, len(items))

	for i := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(item T) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := fn(item); err != nil {
				errCh <- err
			}
		}(items[i])
	}
	wg.Wait()
	close(errCh)
	successes := len(items) - len(errCh)
	if err, ok := <-errCh; ok {
		return successes, err
	}
	return successes, nil
}
