/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package worker

import (
	"context"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/client-go/util/workqueue"
	"k8s.io/klog/v2"
)

// Controller drains a rate-limited work queue with a fixed number of
// consumers. Items are durable only in the backing store; the queue holds
// keys and dedups identical keys that are already pending.
type Controller[T comparable] struct {
	name          string
	queue         workqueue.TypedRateLimitingInterface[T]
	handler       Handler[T]
	MaxConcurrent int
}

type Result struct {
	Requeue      bool
	RequeueAfter time.Duration
}

type Handler[T comparable] interface {
	Do(ctx context.Context, item T) (Result, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc[T comparable] func(ctx context.Context, item T) (Result, error)

func (f HandlerFunc[T]) Do(ctx context.Context, item T) (Result, error) {
	return f(ctx, item)
}

func NewController[T comparable](name string, h Handler[T], concurrent int) *Controller[T] {
	queue := workqueue.NewTypedRateLimitingQueueWithConfig(
		workqueue.DefaultTypedControllerRateLimiter[T](),
		workqueue.TypedRateLimitingQueueConfig[T]{Name: name},
	)
	return &Controller[T]{
		name:          name,
		handler:       h,
		queue:         queue,
		MaxConcurrent: concurrent,
	}
}

// Run starts MaxConcurrent consumers and blocks until the context is
// cancelled, then shuts the queue down so blocked Gets return.
func (c *Controller[T]) Run(ctx context.Context) {
	klog.Infof("start %s controller with %d worker(s)", c.name, c.MaxConcurrent)
	for i := 0; i < c.MaxConcurrent; i++ {
		go wait.UntilWithContext(ctx, func(ctx context.Context) {
			for {
				if !c.processNext(ctx) {
					break
				}
			}
		}, time.Minute)
	}
	<-ctx.Done()
	c.queue.ShutDown()
	klog.Infof("stop %s controller", c.name)
}

func (c *Controller[T]) processNext(ctx context.Context) bool {
	item, shutdown := c.queue.Get()
	if shutdown {
		return false
	}
	defer c.queue.Done(item)
	if result, err := c.handler.Do(ctx, item); err != nil {
		klog.ErrorS(err, "handler failed, requeueing item", "controller", c.name, "item", item)
		c.queue.AddRateLimited(item)
		return true
	} else if result.RequeueAfter > 0 {
		c.queue.Forget(item)
		c.queue.AddAfter(item, result.RequeueAfter)
		return true
	} else if result.Requeue {
		c.queue.AddRateLimited(item)
		return true
	}
	c.queue.Forget(item)
	return true
}

// Add adds an item into the queue.
func (c *Controller[T]) Add(item T) {
	c.queue.Add(item)
}

func (c *Controller[T]) AddAfter(item T, duration time.Duration) {
	c.queue.AddAfter(item, duration)
}

func (c *Controller[T]) GetQueueSize() int {
	return c.queue.Len()
}
