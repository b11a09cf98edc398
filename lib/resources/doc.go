// Copyright 2026 The Parley Authors
// SPDX-License-Identifier: Apache-2.0

// Package resources lists and reads provider resources and selects
// the ones relevant to a query so their text can be prepended to it
// as context.
//
// Relevance is decided in two steps. A resource is a candidate when
// any whitespace-separated word of the query occurs, case-insensitive,
// as a substring of its name or description. Candidates are then
// ordered by an Okapi BM25 score over name, description and URI, with
// listing order breaking ties.
package resources
