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
	"math/rand"
	"time"
)

// GetBackoffTime returns a randomized exponential backoff: a uniform draw
// from [0, 2^retries) slot times, capped at maximum.
func GetBackoffTime(retries int64, slotTime time.Duration, maximum time.Duration) time.Duration {
	if retries <= 0 || slotTime <= 0 {
		return 0
	}
	// Past 62 doublings the slot count would overflow int64.
	if retries >= 62 {
		return maximum
	}
	slots := rand.Int63n(int64(1) << retries)
	maxSlots := int64(maximum / slotTime)
	if slots >= maxSlots {
		return maximum
	}
	return time.Duration(slots) * slotTime
}

// SleepBackedOff sleeps for one randomized backoff interval.
func SleepBackedOff(retries int64, slotTime time.Duration, maximum time.Duration) {
	time.Sleep(GetBackoffTime(retries, slotTime, maximum))
}
