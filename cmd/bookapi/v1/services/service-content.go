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

package services

import (
	"context"

	"github.com/pageforge/pageforge/cmd/bookapi/v1/models"
	"github.com/pageforge/pageforge/pkg/datamodel"
)

func contentResponse(content datamodel.ChapterContent) models.ChapterContentResponse {
	return models.ChapterContentResponse{
		ChapterID:          content.ChapterID,
		BookID:             content.BookID,
		Body:               content.Body,
		WordCount:          content.WordCount,
		ReadingTimeMinutes: content.ReadingTimeMinutes,
		UpdatedAt:          content.UpdatedAt,
	}
}

// GetChapterContent returns the stored body of one chapter.
func GetChapterContent(ctx context.Context, owner string, bookID string, chapterID string) (models.ChapterContentResponse, error) {
	if err := assertOwner(ctx, owner, bookID); err != nil {
		return models.ChapterContentResponse{}, err
	}
	content, err := db.GetChapterContent(ctx, bookID, chapterID)
	if err != nil {
		return models.ChapterContentResponse{}, err
	}
	return contentResponse(content), nil
}

// PutChapterContent writes a chapter body. The chapter must already exist
// in the book's table of contents.
func PutChapterContent(ctx context.Context, owner string, bookID string, chapterID string, body string) (models.ChapterContentResponse, error) {
	if err := assertOwner(ctx, owner, bookID); err != nil {
		return models.ChapterContentResponse{}, err
	}
	content, err := db.UpsertChapterContent(ctx, bookID, chapterID, body)
	if err != nil {
		return models.ChapterContentResponse{}, err
	}
	return contentResponse(content), nil
}
