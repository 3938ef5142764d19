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
	"github.com/EagleChen/mapmutex"
	"github.com/pageforge/pageforge/cmd/bookapi/postgresql"
	"github.com/pageforge/pageforge/pkg/toc"
)

var (
	db          *postgresql.Connection
	coordinator *toc.Coordinator

	// Serializes cache rebuilds per book so a cold key does not send a
	// stampede of identical reads to postgres.
	rebuildMutex = mapmutex.NewCustomizedMapMutex(
		800,
		100000000,
		10,
		1.1,
		0.2)
)

// Init wires the service layer to its collaborators. Called once from main
// before the REST API starts serving.
func Init(conn *postgresql.Connection, coord *toc.Coordinator) {
	db = conn
	coordinator = coord
}
