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
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Raw
		want Raw
	}{
		{
			name: "show all rows",
			in:   Raw{"covers_view": "3", "version": 2},
			want: Raw{"initialRowsLimit": 0, "version": 2},
		},
		{
			name: "two rows",
			in:   Raw{"covers_view": "2", "version": 2},
			want: Raw{"initialRowsLimit": 2, "version": 2},
		},
		{
			name: "numeric three is a row count",
			in:   Raw{"covers_view": float64(3), "version": 2},
			want: Raw{"initialRowsLimit": 3, "version": 2},
		},
		{
			name: "leading digits",
			in:   Raw{"covers_view": "4 rows", "version": 2},
			want: Raw{"initialRowsLimit": 4, "version": 2},
		},
		{
			name: "missing version",
			in:   Raw{"cover_type": "content"},
			want: Raw{"cover_type": "content", "version": Version},
		},
		{
			name: "legacy campaign",
			in:   Raw{"cover_type": "2", "version": 1},
			want: Raw{"cover_type": "campaign", "version": 1},
		},
		{
			name: "legacy take action as number",
			in:   Raw{"cover_type": float64(1), "version": 1},
			want: Raw{"cover_type": "take-action", "version": 1},
		},
		{
			name: "legacy content",
			in:   Raw{"cover_type": "3"},
			want: Raw{"cover_type": "content", "version": Version},
		},
		{
			name: "null rows setting is absent",
			in:   Raw{"covers_view": nil, "version": 2},
			want: Raw{"covers_view": nil, "version": 2},
		},
		{
			name: "null version",
			in:   Raw{"cover_type": "campaign", "version": nil},
			want: Raw{"cover_type": "campaign", "version": Version},
		},
		{
			name: "null cover type",
			in:   Raw{"cover_type": nil, "version": 1},
			want: Raw{"cover_type": nil, "version": 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if err != nil {
				t.Fatalf("Normalize returned error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeCurrentVersionIsUnchanged(t *testing.T) {
	in := Raw{
		"cover_type":       "take-action",
		"version":          float64(2),
		"tags":             []interface{}{float64(4), float64(5)},
		"initialRowsLimit": float64(2),
		"title":            "Act now",
	}
	got, err := Normalize(in)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("Normalize changed current attributes (-want +got):\n%s", diff)
	}
}

func TestNormalizeDoesNotModifyInput(t *testing.T) {
	in := Raw{"covers_view": "3", "cover_type": "1"}
	if _, err := Normalize(in); err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if _, ok := in["covers_view"]; !ok {
		t.Errorf("covers_view removed from input")
	}
	if in["cover_type"] != "1" {
		t.Errorf("cover_type changed in input: %v", in["cover_type"])
	}
}

func TestNormalizeUnknownLegacyCoverType(t *testing.T) {
	for _, v := range []interface{}{"7", float64(0), "2.5"} {
		if _, err := Normalize(Raw{"cover_type": v}); !errors.Is(err, ErrUnknownCoverType) {
			t.Errorf("cover_type %v: got error %v, want ErrUnknownCoverType", v, err)
		}
	}
}

func TestDecode(t *testing.T) {
	var raw Raw
	data := `{
		"cover_type": "content",
		"tags": [3, "4", "x", -1, 2.5],
		"post_types": [9],
		"posts": null,
		"version": 2,
		"initialRowsLimit": "0",
		"title": "Latest"
	}`
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	want := Attributes{
		CoverType:        KindContent,
		Tags:             []int{3, 4},
		PostTypes:        []int{9},
		Posts:            []int{},
		Version:          2,
		InitialRowsLimit: 0,
		Title:            "Latest",
	}
	if diff := cmp.Diff(want, Decode(raw)); diff != "" {
		t.Errorf("Decode mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeDefaults(t *testing.T) {
	got := Decode(Raw{})
	if got.CoverType != KindContent {
		t.Errorf("Bad default cover type, got %v", got.CoverType)
	}
	if got.Version != Version {
		t.Errorf("Bad default version, got %v", got.Version)
	}
	if got.InitialRowsLimit != DefaultInitialRowsLimit {
		t.Errorf("Bad default rows, got %v", got.InitialRowsLimit)
	}
	if got.Tags == nil || got.Posts == nil || got.PostTypes == nil {
		t.Errorf("Lists should default to empty, got %+v", got)
	}
}

func TestNullsKeepDefaults(t *testing.T) {
	var raw Raw
	data := `{"covers_view": null, "version": null, "cover_type": null, "initialRowsLimit": null}`
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	normalized, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	got := Decode(normalized)
	if got.CoverType != KindContent || got.Version != Version || got.InitialRowsLimit != DefaultInitialRowsLimit {
		t.Errorf("Expected defaults, got %+v", got)
	}
}

func TestConfig(t *testing.T) {
	a := Attributes{Tags: []int{1}, PostTypes: []int{2}, Posts: []int{3}}

	a.CoverType = KindTakeAction
	if cfg, err := a.Config(); err != nil || cfg.Kind() != KindTakeAction {
		t.Errorf("take-action: got %v, %v", cfg, err)
	}
	a.CoverType = KindCampaign
	cfg, err := a.Config()
	if err != nil {
		t.Fatalf("campaign: %v", err)
	}
	if diff := cmp.Diff(CampaignConfig{Tags: []int{1}}, cfg); diff != "" {
		t.Errorf("campaign config mismatch (-want +got):\n%s", diff)
	}
	a.CoverType = KindContent
	if cfg, err = a.Config(); err != nil {
		t.Fatalf("content: %v", err)
	}
	if diff := cmp.Diff(ContentConfig{Tags: []int{1}, PostTypes: []int{2}, Posts: []int{3}}, cfg); diff != "" {
		t.Errorf("content config mismatch (-want +got):\n%s", diff)
	}
	a.CoverType = "carousel"
	if _, err = a.Config(); !errors.Is(err, ErrUnknownCoverType) {
		t.Errorf("carousel: got error %v, want ErrUnknownCoverType", err)
	}
}
