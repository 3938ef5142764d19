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

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pageforge/pageforge/cmd/bookapi/helpers"
	"github.com/pageforge/pageforge/cmd/bookapi/v1/models"
	"github.com/pageforge/pageforge/cmd/bookapi/v1/services"
)

func GetChapterContentHandler(c *gin.Context) {
	var request models.ChapterRequest

	err := c.BindUri(&request)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}

	// Check if the user has access to that resource
	err = helpers.CheckIfUserIsAllowed(c, request.Owner)
	if err != nil {
		return
	}

	response, err := services.GetChapterContent(
		c.Request.Context(),
		request.Owner,
		request.BookID,
		request.ChapterID)
	if err != nil {
		helpers.HandleTocError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func PutChapterContentHandler(c *gin.Context) {
	var uriRequest models.ChapterRequest
	var request models.PutChapterContentRequest

	err := c.BindUri(&uriRequest)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}
	err = c.BindJSON(&request)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}

	// Check if the user has access to that resource
	err = helpers.CheckIfUserIsAllowed(c, uriRequest.Owner)
	if err != nil {
		return
	}

	response, err := services.PutChapterContent(
		c.Request.Context(),
		uriRequest.Owner,
		uriRequest.BookID,
		uriRequest.ChapterID,
		request.Body)
	if err != nil {
		helpers.HandleTocError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
