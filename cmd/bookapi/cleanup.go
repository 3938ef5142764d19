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

package main

import (
	"context"
	"errors"
	"time"

	"github.com/beeker1121/goque"
	"github.com/pageforge/pageforge/cmd/bookapi/postgresql"
	"github.com/pageforge/pageforge/internal"
	"go.uber.org/zap"
)

// Parked purges that keep failing are retried with exponential backoff,
// capped so a poisoned entry cannot stall the queue for more than a
// minute per pass.
const maxCleanupBackoff = time.Minute

// reprocessCleanupQueue drains the on-disk cleanup queue. Every entry is a
// purge that could not be completed inside its originating commit, so the
// worker retries until the content store converges with the TOC.
func reprocessCleanupQueue(db *postgresql.Connection) {
	for !shutdownEnabled {
		cleanup, err := internal.DequeueChapterCleanup()
		if err != nil {
			if !errors.Is(err, goque.ErrEmpty) {
				zap.S().Errorf("Failed to dequeue cleanup entry: %s", err)
			}
			time.Sleep(1 * time.Second)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = db.PurgeChapters(ctx, cleanup.BookID, cleanup.ChapterIDs)
		cancel()
		if err == nil {
			zap.S().Infof(
				"Purged %d orphaned chapters of book %s (attempt %d)",
				len(cleanup.ChapterIDs), cleanup.BookID, cleanup.Attempts+1)
			continue
		}

		zap.S().Warnf(
			"Cleanup of book %s failed again (attempt %d): %s",
			cleanup.BookID, cleanup.Attempts+1, err)

		cleanup.Attempts++
		qErr := internal.EnqueueChapterCleanup(cleanup)
		if qErr != nil {
			zap.S().Errorf(
				"Failed to re-enqueue cleanup for book %s, %d chapter records may be orphaned: %s",
				cleanup.BookID, len(cleanup.ChapterIDs), qErr)
		}
		internal.SleepBackedOff(cleanup.Attempts, 10*time.Millisecond, maxCleanupBackoff)
	}
}
