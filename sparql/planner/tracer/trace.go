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

// Package tracer writes execution traces of the query operators.
package tracer

import (
	"fmt"
	"io"
	"time"
)

// timeLayout is the layout of the timestamp prefixing every trace line.
const timeLayout = "2006-01-02T15:04:05.999999-07:00"

// Event records the evaluation of one operator.
type Event struct {
	// Op is the operator name, e.g. bgp or left-join.
	Op string
	// In is the number of rows the operator children produced.
	In int
	// Out is the number of rows the operator produced.
	Out int
	// Elapsed is the time spent in the operator and its children.
	Elapsed time.Duration
}

// String returns the trace line of the event.
func (ev Event) String() string {
	s := fmt.Sprintf("%s returned %d rows in %v", ev.Op, ev.Out, ev.Elapsed)
	if ev.In > 0 {
		s += fmt.Sprintf(" from %d input rows", ev.In)
	}
	return s
}

// Trace writes the event if a writer is provided. The event is built lazily
// so that tracing costs nothing when it is off.
func Trace(w io.Writer, ev func() Event) {
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[%s] %s\n", time.Now().Format(timeLayout), ev())
}
