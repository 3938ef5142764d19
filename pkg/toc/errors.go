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

package toc

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a book, chapter or parent chapter does not
// exist. The HTTP layer maps it to 404.
var ErrNotFound = errors.New("not found")

// ErrVersionConflict is returned when the caller-supplied expected version
// does not match the stored one. This is normal under concurrent editing;
// callers re-read the TOC and retry with the fresh version. Mapped to 409.
var ErrVersionConflict = errors.New("toc version conflict")

// ValidationError reports a structural invariant violation (duplicate id,
// duplicate sibling order, inconsistent level, unresolved parent). Calls
// failing with it must not be retried with the same input. Mapped to 400.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "toc validation failed: " + e.Reason
}

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// CommitError reports that the storage commit itself failed for
// infrastructure reasons. In atomic mode nothing was changed and the call
// may be retried from scratch. In fallback mode CleanupPending marks that
// the TOC write went through but dependent cleanup is still queued.
type CommitError struct {
	Strategy       string
	CleanupPending bool
	Err            error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("toc commit failed (%s strategy): %v", e.Strategy, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// IsCommitError reports whether err is (or wraps) a CommitError.
func IsCommitError(err error) bool {
	var c *CommitError
	return errors.As(err, &c)
}
