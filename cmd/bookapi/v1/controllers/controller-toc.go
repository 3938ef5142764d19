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

func GetTocHandler(c *gin.Context) {
	var request models.BookRequest

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

	response, err := services.GetToc(c.Request.Context(), request.Owner, request.BookID)
	if err != nil {
		helpers.HandleTocError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func ReplaceTocHandler(c *gin.Context) {
	var uriRequest models.BookRequest
	var request models.ReplaceTocRequest

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

	response, err := services.ReplaceToc(
		c.Request.Context(),
		uriRequest.Owner,
		uriRequest.BookID,
		request.Chapters,
		request.ExpectedVersion)
	if err != nil {
		helpers.HandleTocError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func AddChapterHandler(c *gin.Context) {
	var uriRequest models.BookRequest
	var request models.AddChapterRequest

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

	response, err := services.AddChapter(
		c.Request.Context(),
		uriRequest.Owner,
		uriRequest.BookID,
		request.Chapter,
		request.ExpectedVersion)
	if err != nil {
		helpers.HandleTocError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

func UpdateChapterHandler(c *gin.Context) {
	var uriRequest models.ChapterRequest
	var request models.UpdateChapterRequest

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

	response, err := services.UpdateChapter(
		c.Request.Context(),
		uriRequest.Owner,
		uriRequest.BookID,
		uriRequest.ChapterID,
		request)
	if err != nil {
		helpers.HandleTocError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func DeleteChapterHandler(c *gin.Context) {
	var uriRequest models.ChapterRequest
	var request models.DeleteChapterRequest

	err := c.BindUri(&uriRequest)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}
	err = c.BindQuery(&request)
	if err != nil {
		helpers.HandleInvalidInputError(c, err)
		return
	}

	// Check if the user has access to that resource
	err = helpers.CheckIfUserIsAllowed(c, uriRequest.Owner)
	if err != nil {
		return
	}

	response, err := services.DeleteChapter(
		c.Request.Context(),
		uriRequest.Owner,
		uriRequest.BookID,
		uriRequest.ChapterID,
		request.ExpectedVersion)
	if err != nil {
		helpers.HandleTocError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func ReorderChaptersHandler(c *gin.Context) {
	var uriRequest models.BookRequest
	var request models.ReorderChaptersRequest

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

	response, err := services.ReorderChapters(
		c.Request.Context(),
		uriRequest.Owner,
		uriRequest.BookID,
		request.Moves,
		request.ExpectedVersion)
	if err != nil {
		helpers.HandleTocError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
