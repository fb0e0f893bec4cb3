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
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Current attribute schema version.
const Version = 2

// Default number of rows shown before "load more".
const DefaultInitialRowsLimit = 1

// Attribute keys as stored with the block.
const (
	KeyCoverType        = "cover_type"
	KeyCoversView       = "covers_view"
	KeyInitialRowsLimit = "initialRowsLimit"
	KeyVersion          = "version"
	KeyTags             = "tags"
	KeyPostTypes        = "post_types"
	KeyPosts            = "posts"
	KeyTitle            = "title"
	KeyDescription      = "description"
)

// Cover types stored by version 1 blocks.
var legacyCoverTypes = map[int64]Kind{
	1: KindTakeAction,
	2: KindCampaign,
	3: KindContent,
}

// Raw attributes, as decoded from the JSON stored with a block.
type Raw map[string]interface{}

// Returns a shallow copy of the attributes.
func (r Raw) Clone() Raw {
	out := make(Raw, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Normalize migrates attributes saved by older schema versions to the
// current one. The input is not modified. Keys holding null count as
// absent. A legacy numeric cover type with no known translation returns
// ErrUnknownCoverType.
func Normalize(in Raw) (out Raw, err error) {
	out = in.Clone()
	if view, ok := out[KeyCoversView]; ok && view != nil {
		if s, isString := view.(string); isString && s == "3" {
			out[KeyInitialRowsLimit] = 0
		} else {
			out[KeyInitialRowsLimit] = int(intval(view))
		}
		delete(out, KeyCoversView)
	}
	if v, ok := out[KeyVersion]; !ok || v == nil {
		out[KeyVersion] = Version
	}
	if v, ok := out[KeyCoverType]; ok && v != nil {
		if n, numeric := numericValue(v); numeric {
			kind, known := Kind(""), false
			if n == math.Trunc(n) {
				kind, known = legacyCoverTypes[int64(n)]
			}
			if !known {
				err = fmt.Errorf("%w: legacy value %v", ErrUnknownCoverType, v)
				return
			}
			out[KeyCoverType] = string(kind)
		}
	}
	return
}

// Decoded, typed view of the block attributes.
type Attributes struct {
	CoverType        Kind
	Tags             []int
	PostTypes        []int
	Posts            []int
	Version          int
	InitialRowsLimit int
	Title            string
	Description      string
}

// Decode reads typed attributes from normalized raw attributes. Missing,
// null or malformed optional fields fall back to their defaults.
func Decode(r Raw) (a Attributes) {
	a = Attributes{
		CoverType:        KindContent,
		Tags:             idList(r[KeyTags]),
		PostTypes:        idList(r[KeyPostTypes]),
		Posts:            idList(r[KeyPosts]),
		Version:          Version,
		InitialRowsLimit: DefaultInitialRowsLimit,
		Title:            stringValue(r[KeyTitle]),
		Description:      stringValue(r[KeyDescription]),
	}
	if v, ok := r[KeyCoverType]; ok && v != nil {
		a.CoverType = Kind(stringValue(v))
	}
	if v, ok := r[KeyVersion]; ok && v != nil {
		a.Version = int(intval(v))
	}
	if v, ok := r[KeyInitialRowsLimit]; ok && v != nil {
		a.InitialRowsLimit = int(intval(v))
	}
	return
}

// Converts a JSON list of identifiers into ints, skipping anything that is
// not a positive integer.
func idList(v interface{}) (ids []int) {
	ids = []int{}
	var items []interface{}
	switch t := v.(type) {
	case []interface{}:
		items = t
	case []int:
		for _, id := range t {
			if id > 0 {
				ids = append(ids, id)
			}
		}
		return
	default:
		return
	}
	for _, item := range items {
		n, ok := numericValue(item)
		if !ok || n != math.Trunc(n) || n <= 0 {
			continue
		}
		ids = append(ids, int(n))
	}
	return
}

// Returns the float value of numbers and numeric strings.
func numericValue(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// Integer conversion that accepts leading digits of strings, the way block
// attributes saved by the editor have always been read.
func intval(v interface{}) int64 {
	switch t := v.(type) {
	case bool:
		if t {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(t)
		end := 0
		for end < len(s) {
			c := s[end]
			if (c >= '0' && c <= '9') || (end == 0 && (c == '-' || c == '+')) {
				end++
				continue
			}
			break
		}
		n, _ := strconv.ParseInt(s[:end], 10, 64)
		return n
	}
	if f, ok := numericValue(v); ok {
		return int64(f)
	}
	return 0
}

func stringValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	return fmt.Sprint(v)
}
