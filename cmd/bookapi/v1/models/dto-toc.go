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

package models

import "github.com/pageforge/pageforge/pkg/datamodel"

type ChapterRequest struct {
	Owner     string `uri:"owner" binding:"required"`
	BookID    string `uri:"bookID" binding:"required"`
	ChapterID string `uri:"chapterID" binding:"required"`
}

type TocResponse struct {
	BookID   string                  `json:"bookId"`
	Version  uint32                  `json:"version"`
	Chapters []datamodel.ChapterNode `json:"chapters"`
}

type ReplaceTocRequest struct {
	ExpectedVersion uint32                  `json:"expectedVersion" binding:"required"`
	Chapters        []datamodel.ChapterNode `json:"chapters"`
}

type AddChapterRequest struct {
	ExpectedVersion uint32                `json:"expectedVersion" binding:"required"`
	Chapter         datamodel.ChapterNode `json:"chapter" binding:"required"`
}

// UpdateChapterRequest is a partial update. Absent fields stay untouched,
// so everything except the version token is a pointer.
type UpdateChapterRequest struct {
	ExpectedVersion uint32  `json:"expectedVersion" binding:"required"`
	Title           *string `json:"title"`
	Order           *int    `json:"order"`
	Level           *int    `json:"level"`
	ContentRef      *string `json:"contentRef"`
}

// DeleteChapterRequest rides on the query string because DELETE bodies
// are dropped by some proxies.
type DeleteChapterRequest struct {
	ExpectedVersion uint32 `form:"expectedVersion" binding:"required"`
}

type ChapterMove struct {
	ChapterID string `json:"chapterId" binding:"required"`
	NewOrder  int    `json:"newOrder" binding:"required"`
}

type ReorderChaptersRequest struct {
	ExpectedVersion uint32        `json:"expectedVersion" binding:"required"`
	Moves           []ChapterMove `json:"moves" binding:"required"`
}

type DeleteChapterResponse struct {
	Toc             TocResponse `json:"toc"`
	RemovedChapters []string    `json:"removedChapters"`
}
