/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package database

import (
	"context"
	"fmt"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/klog/v2"
)

type EventType string

const (
	Added    EventType = "Added"
	Modified EventType = "Modified"
	Deleted  EventType = "Deleted"
)

// WatchHandler receives one change event. For Deleted events the row is the
// zero value and only the key is meaningful. Delivery is at-least-once: after
// an error or restart the same version may be observed again.
type WatchHandler[T any] func(eventType EventType, key string, row T)

// Watcher polls a versioned table and diffs consecutive snapshots into
// ordered Added/Modified/Deleted events. Every row carries a monotonic
// version column bumped by each mutation; a key re-appearing with a higher
// version yields Modified, a vanished key yields Deleted.
type Watcher[T any] struct {
	client   *Client
	table    string
	keyOf    func(T) string
	verOf    func(T) int64
	interval time.Duration
	handler  WatchHandler[T]
	known    map[string]int64
}

func NewWatcher[T any](client *Client, table string, interval time.Duration,
	keyOf func(T) string, verOf func(T) int64, handler WatchHandler[T]) *Watcher[T] {
	return &Watcher[T]{
		client:   client,
		table:    table,
		keyOf:    keyOf,
		verOf:    verOf,
		interval: interval,
		handler:  handler,
		known:    make(map[string]int64),
	}
}

// Run polls until the context is cancelled. The first snapshot emits Added
// for every existing row, so late subscribers see the full table state.
func (w *Watcher[T]) Run(ctx context.Context) {
	klog.Infof("start watching table %s every %v", w.table, w.interval)
	wait.UntilWithContext(ctx, func(ctx context.Context) {
		if err := w.poll(ctx); err != nil {
			klog.ErrorS(err, "failed to poll table", "table", w.table)
		}
	}, w.interval)
	klog.Infof("stop watching table %s", w.table)
}

func (w *Watcher[T]) poll(ctx context.Context) error {
	db, err := w.client.getDB()
	if err != nil {
		return err
	}
	var rows []T
	ctx2, cancel := context.WithTimeout(ctx, w.client.RequestTimeout)
	defer cancel()
	if err = db.SelectContext(ctx2, &rows, fmt.Sprintf("SELECT * FROM %s ORDER BY create_time asc", w.table)); err != nil {
		return err
	}

	seen := make(map[string]int64, len(rows))
	for _, row := range rows {
		key := w.keyOf(row)
		version := w.verOf(row)
		seen[key] = version
		last, ok := w.known[key]
		switch {
		case !ok:
			w.handler(Added, key, row)
		case version > last:
			w.handler(Modified, key, row)
		}
	}
	var zero T
	for key := range w.known {
		if _, ok := seen[key]; !ok {
			klog.V(4).Infof("row %s deleted from table %s", key, w.table)
			w.handler(Deleted, key, zero)
		}
	}
	w.known = seen
	return nil
}
