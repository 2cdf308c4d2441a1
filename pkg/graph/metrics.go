// Copyright (c) 2025, Platform9 Systems.  All rights reserved.
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

package graph

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Traversal metrics
	traversalDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pcddebug_traversal_duration_seconds",
			Help:    "Time taken by one seeded dependency traversal",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	resourcesVisited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcddebug_resources_visited_total",
			Help: "Total number of resources fetched during traversals",
		},
		[]string{"kind"},
	)

	artifactWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcddebug_artifact_writes_total",
			Help: "Total number of artifact write attempts",
		},
		[]string{"status"}, // success or error
	)

	fetchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pcddebug_fetch_failures_total",
			Help: "Total number of per-resource fetch failures",
		},
	)
)
