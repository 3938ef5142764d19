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

import "fmt"

// CheckVersion is the sole concurrency-control gate. It runs before any
// tree mutation is attempted, so a stale caller is rejected without ever
// touching the tree, and it runs again against the freshly read TOC inside
// every commit.
func CheckVersion(current uint32, expected uint32) error {
	if current != expected {
		return fmt.Errorf("%w: stored version is %d, caller expected %d", ErrVersionConflict, current, expected)
	}
	return nil
}
