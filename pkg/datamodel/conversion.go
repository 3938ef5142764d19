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

// NewTableOfContents returns the TOC a freshly created book starts with.
func NewTableOfContents() TableOfContents {
	return TableOfContents{Version: 1, Chapters: []ChapterNode{}}
}

// Clone returns a deep copy. Mutation code works on clones only, so a
// returned TOC never aliases the stored one.
func (t TableOfContents) Clone() TableOfContents {
	return TableOfContents{Version: t.Version, Chapters: CloneChapters(t.Chapters)}
}

// Clone returns a deep copy of the node and its whole subtree.
func (n ChapterNode) Clone() ChapterNode {
	out := n
	out.Subchapters = CloneChapters(n.Subchapters)
	return out
}

// CloneChapters deep-copies a sibling list. A nil input stays nil so the
// JSON representation is stable.
func CloneChapters(chapters []ChapterNode) []ChapterNode {
	if chapters == nil {
		return nil
	}
	out := make([]ChapterNode, len(chapters))
	for i := range chapters {
		out[i] = chapters[i].Clone()
	}
	return out
}

// FlattenIDs returns the ids of all given nodes and their descendants in
// depth-first order.
func FlattenIDs(chapters []ChapterNode) []string {
	var ids []string
	for i := range chapters {
		ids = append(ids, chapters[i].ID)
		ids = append(ids, FlattenIDs(chapters[i].Subchapters)...)
	}
	return ids
}
