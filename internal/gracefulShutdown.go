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
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// How long the shutdown tasks may take before the process is killed
// anyway. Kubernetes sends SIGTERM 30 seconds before killing the pod.
const shutdownGrace = 25 * time.Second

type GracefulShutdownHandler interface {
	Shutdown()          // Triggers the shutdown tasks programmatically.
	ShuttingDown() bool // Reports whether a shutdown is in progress.
	Wait()              // Blocks until the shutdown tasks have finished.
}

type signalShutdown struct {
	signals chan os.Signal
	down    chan struct{}
	once    sync.Once
	done    sync.WaitGroup
}

// NewGracefulShutdown traps SIGINT and SIGTERM and runs onShutdown (if not
// nil) once a signal arrives or Shutdown is called. When the tasks finish
// cleanly the process exits 0; when they overrun the grace period it
// exits 1.
func NewGracefulShutdown(onShutdown func() error) GracefulShutdownHandler {
	gs := &signalShutdown{
		signals: make(chan os.Signal, 1),
		down:    make(chan struct{}),
	}
	gs.done.Add(1)
	signal.Notify(gs.signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer gs.done.Done()

		sig := <-gs.signals
		close(gs.down)
		zap.S().Infow("Received signal, shutting down", "signal", sig.String())

		if onShutdown != nil {
			killTimer := time.AfterFunc(shutdownGrace, func() {
				zap.S().Errorw("Shutdown tasks did not complete in time", "timeout", shutdownGrace)
				_ = zap.S().Sync()
				os.Exit(1)
			})
			if err := onShutdown(); err != nil {
				zap.S().Errorw("Error during shutdown", "error", err)
				killTimer.Stop()
				return
			}
			killTimer.Stop()
		}

		zap.S().Info("Shutdown tasks completed. Ready to exit.")
		os.Exit(0)
	}()

	return gs
}

func (gs *signalShutdown) ShuttingDown() bool {
	select {
	case <-gs.down:
		return true
	default:
		return false
	}
}

func (gs *signalShutdown) Shutdown() {
	gs.once.Do(func() {
		gs.signals <- syscall.SIGTERM
	})
}

func (gs *signalShutdown) Wait() {
	gs.done.Wait()
}
