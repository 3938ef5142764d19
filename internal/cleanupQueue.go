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

package internal

import (
	"github.com/beeker1121/goque"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Persistent on-disk queue of chapter cleanup work. In fallback commit
// mode a dependent purge can fail after the TOC write already went
// through; the failed purge is parked here and retried by a background
// worker until the content store converges. The queue survives restarts,
// so a crash mid-cleanup does not leak orphaned records permanently.

var cleanupQueue *goque.Queue

// ChapterCleanup is one parked purge.
type ChapterCleanup struct {
	BookID     string   `json:"bookId"`
	ChapterIDs []string `json:"chapterIds"`
	Attempts   int64    `json:"attempts"`
}

// SetupCleanupQueue opens (or creates) the on-disk queue at path.
func SetupCleanupQueue(path string) (err error) {
	cleanupQueue, err = goque.OpenQueue(path)
	if err != nil {
		zap.S().Errorf("Error opening cleanup queue at %s: %v", path, err)
		return
	}
	return
}

// CloseCleanupQueue flushes and closes the queue.
func CloseCleanupQueue() (err error) {
	if cleanupQueue == nil {
		return
	}
	err = cleanupQueue.Close()
	if err != nil {
		zap.S().Errorf("Error closing cleanup queue: %v", err)
		return
	}
	return
}

// EnqueueChapterCleanup parks a purge for asynchronous retry.
func EnqueueChapterCleanup(c ChapterCleanup) (err error) {
	bytes, err := json.Marshal(c)
	if err != nil {
		return
	}
	_, err = cleanupQueue.Enqueue(bytes)
	return
}

// DequeueChapterCleanup pops the oldest parked purge. Returns
// goque.ErrEmpty when there is nothing to do.
func DequeueChapterCleanup() (c ChapterCleanup, err error) {
	// Dequeue is internally atomic.
	item, err := cleanupQueue.Dequeue()
	if err != nil {
		return
	}
	if item != nil {
		err = json.Unmarshal(item.Value, &c)
	}
	return
}

// CleanupQueueLength returns the number of parked purges.
func CleanupQueueLength() uint64 {
	if cleanupQueue == nil {
		return 0
	}
	return cleanupQueue.Length()
}
