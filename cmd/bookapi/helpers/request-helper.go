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

package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pageforge/pageforge/internal"
	"github.com/pageforge/pageforge/pkg/toc"
	"go.uber.org/zap"
)

func HandleInternalServerError(c *gin.Context, err error) {
	if c == nil {
		panic("HandleInternalServerError: c is nil")
	}
	if err == nil {
		err = errors.New("unknown error")
	}

	erx := internal.SanitizeString(err.Error())
	zap.S().Errorw(
		"Internal server error",
		"error", erx,
	)

	c.JSON(
		http.StatusInternalServerError,
		gin.H{
			"error":   erx,
			"status":  http.StatusInternalServerError,
			"message": "The server had an internal error.",
		})
}

func HandleInvalidInputError(c *gin.Context, err error) {
	if c == nil {
		panic("HandleInvalidInputError: c is nil")
	}
	if err == nil {
		err = errors.New("unknown error")
	}
	erx := internal.SanitizeString(err.Error())
	zap.S().Errorw(
		"Invalid input error",
		"error", erx,
	)

	c.JSON(
		http.StatusBadRequest,
		gin.H{
			"error":   erx,
			"status":  http.StatusBadRequest,
			"message": "You have provided a wrong input. Please check your parameters.",
		})
}

// HandleTocError maps the mutation error taxonomy onto HTTP statuses.
// Version conflicts become 409 so the client knows to re-read and retry,
// rejected input becomes 400, a missing book or chapter becomes 404 and a
// failed commit becomes 503.
func HandleTocError(c *gin.Context, err error) {
	if c == nil {
		panic("HandleTocError: c is nil")
	}
	if err == nil {
		err = errors.New("unknown error")
	}

	erx := internal.SanitizeString(err.Error())
	switch {
	case errors.Is(err, toc.ErrVersionConflict):
		c.JSON(
			http.StatusConflict,
			gin.H{
				"error":   erx,
				"status":  http.StatusConflict,
				"message": "The table of contents changed since you last read it. Reload the book and retry.",
			})
	case errors.Is(err, toc.ErrNotFound):
		c.JSON(
			http.StatusNotFound,
			gin.H{
				"error":   erx,
				"status":  http.StatusNotFound,
				"message": "The requested book or chapter was not found.",
			})
	case toc.IsValidationError(err):
		c.JSON(
			http.StatusBadRequest,
			gin.H{
				"error":   erx,
				"status":  http.StatusBadRequest,
				"message": "The requested change would produce an invalid table of contents.",
			})
	case toc.IsCommitError(err):
		zap.S().Errorw(
			"Commit failure",
			"error", erx,
		)
		c.JSON(
			http.StatusServiceUnavailable,
			gin.H{
				"error":   erx,
				"status":  http.StatusServiceUnavailable,
				"message": "The change could not be persisted. Please try again shortly.",
			})
	default:
		HandleInternalServerError(c, err)
	}
}

// CheckIfUserIsAllowed checks if the user is allowed to access the data for the given owner
func CheckIfUserIsAllowed(c *gin.Context, owner string) error {

	user := c.MustGet(gin.AuthUserKey)
	if user != owner {
		c.AbortWithStatus(http.StatusUnauthorized)
		zap.S().Infof("User %s unauthorized to access %s", user, internal.SanitizeString(owner))
		return fmt.Errorf("user %s unauthorized to access %s", user, internal.SanitizeString(owner))
	}
	return nil
}
