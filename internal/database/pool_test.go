// Taxidash - NYC Taxi Trip Analytics and Fare Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/taxidash

package database

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPool_RunsTasks(t *testing.T) {
	pool := NewWorkerPool(3)
	defer pool.Close()

	var ran atomic.Int32
	done := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		err := pool.Submit(context.Background(), func() {
			ran.Add(1)
			done <- struct{}{}
		})
		checkNoError(t, err)
	}
	for i := 0; i < 10; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for tasks")
		}
	}
	if ran.Load() != 10 {
		t.Errorf("ran %d tasks, want 10", ran.Load())
	}
}

func TestWorkerPool_Close(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Close()
	pool.Close() // idempotent

	err := pool.Submit(context.Background(), func() {})
	checkErrorIs(t, err, ErrPoolClosed)
}

func TestWorkerPool_SubmitHonoursContext(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()

	block := make(chan struct{})
	checkNoError(t, pool.Submit(context.Background(), func() { <-block }))
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := pool.Submit(ctx, func() {})
	checkErrorIs(t, err, context.DeadlineExceeded)
}

func TestWorkerPool_DefaultSize(t *testing.T) {
	if NewWorkerPool(0).Size() < 1 {
		t.Error("default pool size should be at least 1")
	}
}

func TestRunPartitions(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	plans := make([]*Plan, 6)
	for i := range plans {
		plans[i] = &Plan{scan: ScanStage{Files: []DataFile{{Partition: Partition{2020, i + 1}}}}}
	}

	got, err := runPartitions(context.Background(), pool, plans, func(_ context.Context, p *Plan) (int, error) {
		return p.scan.Files[0].Partition.Month * 10, nil
	})
	checkNoError(t, err)
	for i, v := range got {
		if v != (i+1)*10 {
			t.Errorf("result[%d] = %d, want %d (results must keep plan order)", i, v, (i+1)*10)
		}
	}
}

func TestRunPartitions_FirstErrorWins(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	boom := errors.New("boom")
	plans := []*Plan{{}, {}, {}}
	_, err := runPartitions(context.Background(), pool, plans, func(context.Context, *Plan) (int, error) {
		return 0, boom
	})
	checkErrorIs(t, err, boom)
}

func TestRunPartitions_RecoversPanic(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()

	_, err := runPartitions(context.Background(), pool, []*Plan{{}}, func(context.Context, *Plan) (int, error) {
		panic("bad partition")
	})
	if err == nil || !strings.Contains(err.Error(), "panicked") {
		t.Errorf("error = %v, want a panic error", err)
	}
}

func TestRunPartitions_ClosedPool(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Close()

	_, err := runPartitions(context.Background(), pool, []*Plan{{}}, func(context.Context, *Plan) (int, error) {
		return 1, nil
	})
	checkErrorIs(t, err, ErrPoolClosed)
}
