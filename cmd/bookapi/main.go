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
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/heptiolabs/healthcheck"
	"github.com/pageforge/pageforge/cmd/bookapi/postgresql"
	"github.com/pageforge/pageforge/cmd/bookapi/v1/services"
	"github.com/pageforge/pageforge/internal"
	"github.com/pageforge/pageforge/pkg/toc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/united-manufacturing-hub/umh-utils/env"
	"go.elastic.co/ecszap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var buildtime string
var shutdownEnabled bool
var shutdownHandler internal.GracefulShutdownHandler

func main() {
	logLevel, _ := env.GetAsString("LOGGING_LEVEL", false, "PRODUCTION")
	encoderConfig := ecszap.NewDefaultEncoderConfig()
	var core zapcore.Core
	switch logLevel {
	case "DEVELOPMENT":
		core = ecszap.NewCore(encoderConfig, os.Stdout, zap.DebugLevel)
	default:
		core = ecszap.NewCore(encoderConfig, os.Stdout, zap.InfoLevel)
	}
	logger := zap.New(core, zap.AddCaller())
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	zap.S().Infof("This is bookapi build date: %s", buildtime)

	internal.Initfgtrace()

	// Loading up user accounts
	accounts := gin.Accounts{}

	zap.S().Debugf("Loading accounts from environment..")

	for i := 1; i <= 100; i++ {
		tempUser := os.Getenv("AUTHOR_NAME_" + strconv.Itoa(i))
		tempPassword := os.Getenv("AUTHOR_PASSWORD_" + strconv.Itoa(i))
		if tempUser != "" && tempPassword != "" {
			zap.S().Infof("Added account for %s", tempUser)
			accounts[tempUser] = tempPassword
		}
	}

	// also add admin access
	restUser, err := env.GetAsString("BOOKAPI_USER", false, "")
	if err != nil {
		zap.S().Error(err)
	}
	restPassword, err := env.GetAsString("BOOKAPI_PASSWORD", false, "")
	if err != nil {
		zap.S().Error(err)
	}
	if restUser != "" && restPassword != "" {
		accounts[restUser] = restPassword
	}
	if len(accounts) == 0 {
		zap.S().Fatal("No accounts configured, set AUTHOR_NAME_1 / AUTHOR_PASSWORD_1")
	}

	version, err := env.GetAsString("VERSION", false, "1")
	if err != nil {
		zap.S().Error(err)
	}

	redisURI, _ := env.GetAsString("REDIS_URI", false, "")
	redisURI2, _ := env.GetAsString("REDIS_URI2", false, "")
	redisURI3, _ := env.GetAsString("REDIS_URI3", false, "")
	redisPassword, _ := env.GetAsString("REDIS_PASSWORD", false, "")
	dryRun, _ := env.GetAsString("DRY_RUN", false, "")
	internal.InitCache(redisURI, redisURI2, redisURI3, redisPassword, 0, dryRun)

	zap.S().Debugf("Cache initialized..")

	health := healthcheck.NewHandler()
	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(100))
	health.AddReadinessCheck("shutdownEnabled", isShutdownEnabled())
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/live", health.LiveEndpoint)
	healthMux.HandleFunc("/ready", health.ReadyEndpoint)
	healthMux.Handle("/metrics", promhttp.Handler())
	go func() {
		sErr := http.ListenAndServe("0.0.0.0:8086", healthMux)
		if sErr != nil {
			zap.S().Errorf("Failed to serve healthcheck: %s", sErr)
		}
	}()

	db := postgresql.GetOrInit()

	zap.S().Debugf("DB initialized..")

	queuePath, _ := env.GetAsString("CLEANUP_QUEUE_PATH", false, "/data/cleanupqueue")
	err = internal.SetupCleanupQueue(queuePath)
	if err != nil {
		zap.S().Fatalf("Failed to open cleanup queue at %s: %s", queuePath, err)
	}

	kafkaBrokers, _ := env.GetAsString("KAFKA_BOOTSTRAP_SERVERS", false, "")
	if kafkaBrokers != "" {
		err = internal.InitKafkaProducer(kafkaBrokers)
		if err != nil {
			zap.S().Fatalf("Failed to connect kafka producer to %s: %s", kafkaBrokers, err)
		}
	}

	scheduler := toc.CleanupSchedulerFunc(
		func(bookID string, chapterIDs []string) error {
			return internal.EnqueueChapterCleanup(
				internal.ChapterCleanup{BookID: bookID, ChapterIDs: chapterIDs})
		})

	selectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	strategy := toc.SelectStrategy(selectCtx, db, scheduler)
	cancel()

	coordinator := toc.NewCoordinator(
		db,
		strategy,
		toc.WithCacheInvalidator(cacheInvalidator{}),
		toc.WithNotifier(changeNotifier{}))

	services.Init(db, coordinator)

	shutdownHandler = internal.NewGracefulShutdown(
		func() error {
			return onShutdown(db)
		})

	go reprocessCleanupQueue(db)

	SetupRestAPI(accounts, version)

	shutdownHandler.Wait()
}

func isShutdownEnabled() healthcheck.Check {
	return func() error {
		if shutdownEnabled {
			return fmt.Errorf("shutdown")
		}
		return nil
	}
}

// cacheInvalidator feeds committed mutations into the tiered cache.
type cacheInvalidator struct{}

func (cacheInvalidator) InvalidateBook(bookID string) {
	internal.InvalidateBook(bookID)
}

// changeNotifier publishes committed mutations for downstream consumers.
type changeNotifier struct{}

func (changeNotifier) TocChanged(bookID string, operation string, newVersion uint32, removedChapterIDs []string) {
	internal.PublishTocChanged(
		internal.TocChangedEvent{
			BookID:            bookID,
			Operation:         operation,
			NewVersion:        newVersion,
			RemovedChapterIDs: removedChapterIDs,
		})
}

// ShutdownApplicationGraceful triggers the shutdown tasks programmatically
func ShutdownApplicationGraceful() {
	shutdownHandler.Shutdown()
	shutdownHandler.Wait()
}

func onShutdown(db *postgresql.Connection) error {
	zap.S().Infof("Shutting down application")
	shutdownEnabled = true

	// Let in-flight requests and the cleanup worker finish their pass
	time.Sleep(5 * time.Second)

	internal.CloseKafkaProducer()
	if err := internal.CloseCleanupQueue(); err != nil {
		zap.S().Errorf("Failed to close cleanup queue: %s", err)
	}
	db.Shutdown()

	zap.S().Infof("Successful shutdown. Exiting.")
	return nil
}
