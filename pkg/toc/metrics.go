// Copyright 2026 PageForge
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

package toc

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commitCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pageforge_toc_commits_total",
		Help: "TOC mutation attempts by operation, strategy and outcome",
	}, []string{"operation", "strategy", "outcome"})

	commitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pageforge_toc_commit_duration_seconds",
		Help:    "Duration of TOC strategy commits",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "strategy"})
)

func observeCommit(operation string, strategy string, elapsed time.Duration, err error) {
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, ErrVersionConflict):
		outcome = "version_conflict"
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case IsValidationError(err):
		outcome = "validation_error"
	default:
		outcome = "commit_failure"
	}
	commitCounter.WithLabelValues(operation, strategy, outcome).Inc()
	commitDuration.WithLabelValues(operation, strategy).Observe(elapsed.Seconds())
}
