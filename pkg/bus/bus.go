/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package bus

import (
	"sync"

	"k8s.io/klog/v2"

	"github.com/AMD-AIG-AIMA/SAFE/dicom-gateway/pkg/types"
)

const defaultBuffer = 256

// subscription pairs the delivery channel with a done signal. The channel is
// never closed: a publisher may be blocked on it when the subscription is
// cancelled, and closing it under the sender would panic. Cancellation closes
// done instead, which unblocks any pending send.
type subscription struct {
	ch   chan types.InstanceStorageInfo
	done chan struct{}
}

// Bus fans newly stored instances out to per-AE job processors. Each
// subscriber owns one channel; a publisher blocks when the channel is full,
// so a subscriber sees events in the order its publisher produced them.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]*subscription
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[string][]*subscription),
	}
}

// Subscribe registers a consumer for instances stored under the named called
// AE title. The returned cancel function removes the subscription and unblocks
// publishers waiting on its channel; the channel itself stays open and is
// reclaimed with the subscriber.
func (b *Bus) Subscribe(aeTitle string) (<-chan types.InstanceStorageInfo, func()) {
	sub := &subscription{
		ch:   make(chan types.InstanceStorageInfo, defaultBuffer),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.subscribers[aeTitle] = append(b.subscribers[aeTitle], sub)
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			subs := b.subscribers[aeTitle]
			for i, s := range subs {
				if s == sub {
					b.subscribers[aeTitle] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
			b.mu.Unlock()
			close(sub.done)
		})
	}
	return sub.ch, cancel
}

// Publish delivers the instance to every subscriber of its called AE title.
// With no subscriber the event is dropped; the instance stays staged and the
// reclaimer never sees it, so a later subscriber can restore it from disk. A
// subscriber cancelled while the publisher waits on its full channel also
// drops the event.
func (b *Bus) Publish(info types.InstanceStorageInfo) {
	b.mu.RLock()
	subs := b.subscribers[info.CalledAeTitle]
	b.mu.RUnlock()
	if len(subs) == 0 {
		klog.V(4).Infof("no subscriber for ae title %s, dropping instance %s",
			info.CalledAeTitle, info.SopInstanceUid)
		return
	}
	for _, sub := range subs {
		select {
		case sub.ch <- info:
		case <-sub.done:
			klog.V(4).Infof("subscriber for ae title %s cancelled, dropping instance %s",
				info.CalledAeTitle, info.SopInstanceUid)
		}
	}
}

// SubscriberCount reports the live subscriptions for an AE title.
func (b *Bus) SubscriberCount(aeTitle string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[aeTitle])
}
