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

package covers

import (
	"fmt"
	"sort"
	"strings"
)

// Widest image that goes into a srcset.
const MaxSrcsetWidth = 2048

// A list of image sources.
type ImageSources []ImageSource

// Returns the length of the list.
func (s ImageSources) Len() int {
	return len(s)
}

// Swaps two sources in the given positions.
func (s ImageSources) Swap(i int, j int) {
	s[i], s[j] = s[j], s[i]
}

// Orders sources by width, narrowest first.
func (s ImageSources) Less(i int, j int) bool {
	return s[i].Width < s[j].Width
}

// Reports whether candidate has the same aspect ratio as base, allowing for
// the pixel rounding done when an image is resized.
func sameRatio(base ImageSource, candidate ImageSource) bool {
	if base.Width == 0 || base.Height == 0 || candidate.Width == 0 {
		return false
	}
	expected := float64(candidate.Width) * float64(base.Height) / float64(base.Width)
	diff := expected - float64(candidate.Height)
	return diff >= -1 && diff <= 1
}

// Srcset builds a responsive image set for base out of the sizes available
// for the same attachment. Returns an empty string when fewer than two
// sizes qualify.
func Srcset(base ImageSource, candidates []ImageSource) string {
	var (
		picked = ImageSources{}
		seen   = map[int]bool{}
		parts  []string
	)
	for _, c := range candidates {
		if c.URL == "" || c.Width > MaxSrcsetWidth || seen[c.Width] {
			continue
		}
		if !sameRatio(base, c) {
			continue
		}
		seen[c.Width] = true
		picked = append(picked, c)
	}
	if len(picked) < 2 {
		return ""
	}
	sort.Sort(picked)
	for _, c := range picked {
		parts = append(parts, fmt.Sprintf("%v %vw", c.URL, c.Width))
	}
	return strings.Join(parts, ", ")
}
