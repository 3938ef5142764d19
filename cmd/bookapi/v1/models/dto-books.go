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

type OwnerRequest struct {
	Owner string `uri:"owner" binding:"required"`
}

type BookRequest struct {
	Owner  string `uri:"owner" binding:"required"`
	BookID string `uri:"bookID" binding:"required"`
}

type CreateBookRequest struct {
	Title string `json:"title" binding:"required"`
}

type CreateBookResponse struct {
	BookID     string `json:"bookId"`
	Title      string `json:"title"`
	TocVersion uint32 `json:"tocVersion"`
}

type GetBookResponse struct {
	BookID  string                    `json:"bookId"`
	OwnerID string                    `json:"ownerId"`
	Title   string                    `json:"title"`
	Toc     datamodel.TableOfContents `json:"toc"`
}

type ListBooksResponse struct {
	Books []BookSummary `json:"books"`
}

type BookSummary struct {
	BookID     string `json:"bookId"`
	Title      string `json:"title"`
	TocVersion uint32 `json:"tocVersion"`
}

type DeleteBookResponse struct {
	BookID          string   `json:"bookId"`
	RemovedChapters []string `json:"removedChapters"`
	CleanupPending  bool     `json:"cleanupPending,omitempty"`
}
