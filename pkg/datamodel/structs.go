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

package datamodel

import "time"

// Book is the TOC-relevant slice of a book record. Chapter bodies live in
// the content store, not here.
type Book struct {
	ID      string          `json:"id"`
	OwnerID string          `json:"ownerId"`
	Title   string          `json:"title"`
	TOC     TableOfContents `json:"toc"`
}

// TableOfContents is the hierarchical chapter structure of one book.
// Version is the optimistic-concurrency token: it starts at 1 on book
// creation and is incremented by exactly 1 on every committed mutation.
type TableOfContents struct {
	Version  uint32        `json:"version"`
	Chapters []ChapterNode `json:"chapters"`
}

// ChapterNode is one node of the chapter tree. IDs are unique across the
// whole tree of a book, Order is unique among siblings, and Level equals
// the parent's level plus one (top-level nodes are level 1).
type ChapterNode struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Level       int           `json:"level"`
	Order       int           `json:"order"`
	ParentID    string        `json:"parentId,omitempty"`
	ContentRef  string        `json:"contentRef,omitempty"`
	Subchapters []ChapterNode `json:"subchapters,omitempty"`
}

// ChapterContent is one stored chapter body. WordCount and the derived
// reading time are recomputed on every write.
type ChapterContent struct {
	ChapterID          string    `json:"chapterId"`
	BookID             string    `json:"bookId"`
	Body               string    `json:"body"`
	WordCount          int32     `json:"wordCount"`
	ReadingTimeMinutes int32     `json:"readingTimeMinutes"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
