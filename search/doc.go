// Copyright 2025 Poiesic Systems
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

// Package search ranks the stored chunks of one document against a query.
//
// The query is embedded, every chunk stored under the document's content hash
// is scored by cosine similarity, and results are ordered by descending score
// with ties broken by ascending chunk ordinal. A SearchMonitor can observe
// each step, including which query terms a hit contains verbatim.
package search
