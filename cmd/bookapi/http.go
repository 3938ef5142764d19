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
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/pageforge/pageforge/cmd/bookapi/v1/controllers"
	"go.uber.org/zap"
)

// SetupRestAPI initializes the REST API and starts listening
func SetupRestAPI(accounts gin.Accounts, version string) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Add a ginzap middleware, which:
	//   - Logs all requests, like a combined access and error log.
	//   - Logs to stdout.
	//   - RFC3339 with UTC time format.
	router.Use(ginzap.Ginzap(zap.L(), time.RFC3339, true))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	router.Use(ginzap.RecoveryWithZap(zap.L(), true))

	// Chapter bodies compress well
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Healthcheck
	router.GET(
		"/", func(c *gin.Context) {
			if shutdownEnabled {
				c.String(http.StatusOK, "shutdown")
			} else {
				c.String(http.StatusOK, "online")
			}
		})

	apiString := fmt.Sprintf("/api/v%s", version)

	// Version of the API
	v1 := router.Group(apiString, gin.BasicAuth(accounts))
	{
		// WARNING: Need to check in each specific handler whether the user is actually allowed to access it, so that valid user "ia" cannot access books of owner "abc"
		v1.POST("/:owner/books", controllers.CreateBookHandler)
		v1.GET("/:owner/books", controllers.ListBooksHandler)
		v1.GET("/:owner/books/:bookID", controllers.GetBookHandler)
		v1.DELETE("/:owner/books/:bookID", controllers.DeleteBookHandler)

		v1.GET("/:owner/books/:bookID/toc", controllers.GetTocHandler)
		v1.PUT("/:owner/books/:bookID/toc", controllers.ReplaceTocHandler)
		v1.POST("/:owner/books/:bookID/toc/chapters", controllers.AddChapterHandler)
		v1.PATCH("/:owner/books/:bookID/toc/chapters/:chapterID", controllers.UpdateChapterHandler)
		v1.DELETE("/:owner/books/:bookID/toc/chapters/:chapterID", controllers.DeleteChapterHandler)
		v1.POST("/:owner/books/:bookID/toc/reorder", controllers.ReorderChaptersHandler)

		v1.GET("/:owner/books/:bookID/chapters/:chapterID/content", controllers.GetChapterContentHandler)
		v1.PUT("/:owner/books/:bookID/chapters/:chapterID/content", controllers.PutChapterContentHandler)
	}

	err := router.Run(":80")
	if err != nil {
		zap.S().Errorf("Failed to bind to port 80: %s", err)
		ShutdownApplicationGraceful()
		return
	}
}
