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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGracefulShutdownRunsTasks(t *testing.T) {
	taskRan := false

	// The task returns an error so the handler skips os.Exit and the
	// test process stays alive.
	gs := NewGracefulShutdown(func() error {
		taskRan = true
		return errors.New("stopping before exit")
	})

	assert.False(t, gs.ShuttingDown())

	gs.Shutdown()
	gs.Wait()

	assert.True(t, taskRan)
	assert.True(t, gs.ShuttingDown())

	// A second trigger is a no-op on a handler that is already down.
	gs.Shutdown()
}
