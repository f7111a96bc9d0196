// Copyright 2015 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package benchmark measures the store and the query engine over synthetic
// graphs.
package benchmark

import (
	"math"
	"time"

	exoerr "github.com/google/exograph/errors"
	"golang.org/x/sync/errgroup"
)

// Use to allow injection of mock time Now during testing.
var timeNow = time.Now

// TrackDuration measures the wall clock duration of f. The duration is
// meaningless if f fails, since the error likely shortcut its execution.
func TrackDuration(f func() error) (time.Duration, error) {
	ts := timeNow()
	err := f()
	return timeNow().Sub(ts), err
}

// RepetitionDurationStats runs setup, f, and teardown reps times and returns
// the mean and the standard deviation of the durations of f. The first error
// stops the repetitions and is returned.
func RepetitionDurationStats(reps int, setup, f, teardown func() error) (time.Duration, time.Duration, error) {
	if reps < 1 {
		return 0, 0, exoerr.Errorf(exoerr.CodeConfigInvalidValue, "repetitions need to be %d >= 1", reps)
	}
	var durations []time.Duration
	for i := 0; i < reps; i++ {
		if setup != nil {
			if err := setup(); err != nil {
				return 0, 0, err
			}
		}
		d, err := TrackDuration(f)
		if err != nil {
			return 0, 0, err
		}
		durations = append(durations, d)
		if teardown != nil {
			if err := teardown(); err != nil {
				return 0, 0, err
			}
		}
	}
	mean := 0.0
	for _, d := range durations {
		mean += float64(d)
	}
	mean /= float64(len(durations))
	variance := 0.0
	for _, d := range durations {
		variance += (float64(d) - mean) * (float64(d) - mean)
	}
	variance /= float64(len(durations))
	return time.Duration(mean), time.Duration(math.Sqrt(variance)), nil
}

// BenchEntry contains a benchmark to run.
type BenchEntry struct {
	BatteryID string
	ID        string
	Triples   int
	Reps      int
	Setup     func() error
	F         func() error
	TearDown  func() error
}

// BenchResult contains the outcome of a benchmark.
type BenchResult struct {
	BatteryID string
	ID        string
	Triples   int
	Err       error
	Mean      time.Duration
	StdDev    time.Duration
}

func run(be *BenchEntry) *BenchResult {
	m, d, err := RepetitionDurationStats(be.Reps, be.Setup, be.F, be.TearDown)
	return &BenchResult{
		BatteryID: be.BatteryID,
		ID:        be.ID,
		Triples:   be.Triples,
		Err:       err,
		Mean:      m,
		StdDev:    d,
	}
}

// RunBenchmarkBatterySequentially runs the benchmarks one after another.
func RunBenchmarkBatterySequentially(entries []*BenchEntry) []*BenchResult {
	res := make([]*BenchResult, len(entries))
	for i, be := range entries {
		res[i] = run(be)
	}
	return res
}

// RunBenchmarkBatteryConcurrently runs at most limit benchmarks at a time. A
// limit below one runs them all at once. Results keep the order of the
// entries.
func RunBenchmarkBatteryConcurrently(entries []*BenchEntry, limit int) []*BenchResult {
	res := make([]*BenchResult, len(entries))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, be := range entries {
		i, be := i, be
		g.Go(func() error {
			res[i] = run(be)
			return nil
		})
	}
	_ = g.Wait()
	return res
}
