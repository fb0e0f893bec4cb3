// Copyright 2026 Arne Roomann-Kurrik
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

package memstore

import (
	"github.com/kurrik/covers/covers"
)

// A list of posts.
type Posts []covers.Post

// Returns the length of the list.
func (p Posts) Len() int {
	return len(p)
}

// Swaps two posts in the given positions.
func (p Posts) Swap(i int, j int) {
	p[i], p[j] = p[j], p[i]
}

// Compares two posts by date descending, then title ascending. Identifier
// breaks any remaining tie so results are stable.
func dateDescLess(a covers.Post, b covers.Post) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	if a.Title != b.Title {
		return a.Title < b.Title
	}
	return a.ID < b.ID
}

// Wrapper for sorting posts chronologically, descending.
type ByDateDesc struct{ Posts }

// Compares two posts.
func (p ByDateDesc) Less(i int, j int) bool {
	return dateDescLess(p.Posts[i], p.Posts[j])
}

// Wrapper for sorting posts by menu order, then chronologically.
type ByMenuOrder struct{ Posts }

// Compares two posts.
func (p ByMenuOrder) Less(i int, j int) bool {
	a, b := p.Posts[i], p.Posts[j]
	if a.MenuOrder != b.MenuOrder {
		return a.MenuOrder < b.MenuOrder
	}
	return dateDescLess(a, b)
}
