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

import "time"

type PutChapterContentRequest struct {
	Body string `json:"body" binding:"required"`
}

type ChapterContentResponse struct {
	ChapterID          string    `json:"chapterId"`
	BookID             string    `json:"bookId"`
	Body               string    `json:"body"`
	WordCount          int32     `json:"wordCount"`
	ReadingTimeMinutes int32     `json:"readingTimeMinutes"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
