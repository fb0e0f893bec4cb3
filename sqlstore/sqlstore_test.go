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

package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/kurrik/covers/covers"
	"github.com/kurrik/covers/memstore"
	"go.uber.org/zap"
)

var (
	day     = time.Date(2021, 3, 4, 9, 30, 0, 0, time.UTC)
	evening = time.Date(2020, 1, 1, 23, 30, 0, 250, time.FixedZone("EST", -5*60*60))
)

func testDataset() memstore.Dataset {
	return memstore.Dataset{
		Posts: []covers.Post{
			{ID: 1, Type: covers.TypePost, Status: covers.StatusPublish, Slug: "bees", Title: "Bees", Date: day, Permalink: "/bees/"},
			{ID: 2, Type: covers.TypePost, Status: covers.StatusPublish, Slug: "ants", Title: "Ants", Date: day, Permalink: "/ants/"},
			{ID: 3, Type: covers.TypePost, Status: "draft", Title: "Draft", Date: day.Add(time.Hour)},
			{ID: 4, Type: covers.TypePost, Status: covers.StatusPublish, Title: "Newest", Excerpt: "Big news", Date: day.Add(48 * time.Hour), ThumbnailID: 100},
			{ID: 5, Type: covers.TypePost, Status: covers.StatusPublish, Title: "Late", Date: evening},
			{ID: 10, Type: covers.TypePage, Status: covers.StatusPublish, Title: "Second", Parent: 9, MenuOrder: 2, Date: day},
			{ID: 11, Type: covers.TypePage, Status: covers.StatusPublish, Title: "First", Parent: 9, MenuOrder: 1, Date: day},
			{ID: 12, Type: covers.TypePage, Status: "draft", Title: "Hidden", Parent: 9, Date: day},
		},
		Terms: []covers.Term{
			{ID: 20, Taxonomy: covers.TaxonomyTag, Name: "Oceans", Slug: "oceans", Link: "/tag/oceans/"},
			{ID: 21, Taxonomy: covers.TaxonomyTag, Name: "Climate &amp; Energy", Slug: "climate", Link: "/tag/climate/"},
			{ID: 30, Taxonomy: covers.TaxonomyPageType, Name: "Story", Slug: "story"},
		},
		PostTerms: map[int][]int{
			1:  {20, 30},
			2:  {21},
			3:  {20},
			4:  {20, 21, 30},
			5:  {21},
			10: {21},
		},
		TermMeta: map[int]map[string]string{
			20: {covers.MetaTagAttachment: "100"},
		},
		PostMeta: map[int]map[string]string{
			100: {covers.MetaImageAlt: "Whale"},
		},
		Attachments: []memstore.Attachment{
			{ID: 100, Sizes: map[string]covers.ImageSource{
				covers.SizeFull:   {URL: "/whale.jpg", Width: 1200, Height: 800},
				covers.SizeMedium: {URL: "/whale-300.jpg", Width: 300, Height: 200, Resized: true},
				covers.SizeLarge:  {URL: "/whale-1024.jpg", Width: 1024, Height: 683, Resized: true},
			}},
		},
	}
}

func setup(t *testing.T) (*Store, *memstore.Store) {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "covers.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	d := testDataset()
	if err := s.Import(context.Background(), d); err != nil {
		t.Fatalf("Import: %v", err)
	}
	return s, memstore.FromDataset(d)
}

func TestPostQueriesMatchMemstore(t *testing.T) {
	var (
		ctx      = context.Background()
		db, mem  = setup(t)
		idQuery  = covers.IDQuery{IDs: []int{4, 3, 1, 4, 99, 10}, Status: covers.StatusPublish}
		parentQ  = covers.ParentQuery{Parent: 9, Type: covers.TypePage, Status: covers.StatusPublish}
		taggedQ  = covers.ParentQuery{Parent: 9, Type: covers.TypePage, Status: covers.StatusPublish, TagIDs: []int{21}}
		taxonomy = covers.TaxonomyQuery{
			Type:   covers.TypePost,
			Status: covers.StatusPublish,
			Filters: []covers.TermFilter{
				{Taxonomy: covers.TaxonomyTag, TermIDs: []int{20, 21}},
			},
		}
		both = covers.TaxonomyQuery{
			Type:   covers.TypePost,
			Status: covers.StatusPublish,
			Filters: []covers.TermFilter{
				{Taxonomy: covers.TaxonomyTag, TermIDs: []int{21}},
				{Taxonomy: covers.TaxonomyPageType, TermIDs: []int{30}},
			},
			Limit: 5,
		}
	)
	type query func(covers.ContentStore) ([]covers.Post, error)
	tests := []struct {
		name string
		run  query
	}{
		{"by id", func(s covers.ContentStore) ([]covers.Post, error) { return s.PostsByID(ctx, idQuery) }},
		{"by parent", func(s covers.ContentStore) ([]covers.Post, error) { return s.PostsByParent(ctx, parentQ) }},
		{"by parent and tag", func(s covers.ContentStore) ([]covers.Post, error) { return s.PostsByParent(ctx, taggedQ) }},
		{"by tag", func(s covers.ContentStore) ([]covers.Post, error) { return s.PostsByTaxonomy(ctx, taxonomy) }},
		{"by tag and type", func(s covers.ContentStore) ([]covers.Post, error) { return s.PostsByTaxonomy(ctx, both) }},
	}
	for _, tt := range tests {
		want, err := tt.run(mem)
		if err != nil {
			t.Fatalf("%v: memstore: %v", tt.name, err)
		}
		got, err := tt.run(db)
		if err != nil {
			t.Fatalf("%v: sqlstore: %v", tt.name, err)
		}
		if len(want) == 0 {
			t.Errorf("%v: expected results", tt.name)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%v: mismatch (-memstore +sqlstore):\n%s", tt.name, diff)
		}
	}
}

func TestPostsByIDLimit(t *testing.T) {
	db, _ := setup(t)
	posts, err := db.PostsByID(context.Background(), covers.IDQuery{IDs: []int{11, 10, 4}, Limit: 2})
	if err != nil {
		t.Fatalf("PostsByID: %v", err)
	}
	if len(posts) != 2 || posts[0].ID != 11 || posts[1].ID != 10 {
		t.Errorf("Bad posts: %+v", posts)
	}
	if posts, _ = db.PostsByID(context.Background(), covers.IDQuery{}); posts == nil || len(posts) != 0 {
		t.Errorf("Expected empty posts, got %#v", posts)
	}
}

func TestTermsMatchMemstore(t *testing.T) {
	var (
		ctx     = context.Background()
		db, mem = setup(t)
	)
	want, _ := mem.Terms(ctx, covers.TaxonomyTag, []int{20, 30, 21, 20})
	got, err := db.Terms(ctx, covers.TaxonomyTag, []int{20, 30, 21, 20})
	if err != nil {
		t.Fatalf("Terms: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Terms mismatch (-memstore +sqlstore):\n%s", diff)
	}
	want, _ = mem.PostTerms(ctx, 4, covers.TaxonomyTag)
	if got, err = db.PostTerms(ctx, 4, covers.TaxonomyTag); err != nil {
		t.Fatalf("PostTerms: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("PostTerms mismatch (-memstore +sqlstore):\n%s", diff)
	}
}

func TestMetaAndImages(t *testing.T) {
	var (
		ctx     = context.Background()
		db, mem = setup(t)
	)
	if v, err := db.TermMeta(ctx, 20, covers.MetaTagAttachment); err != nil || v != "100" {
		t.Errorf("Bad term meta: %q %v", v, err)
	}
	if v, err := db.PostMeta(ctx, 1, covers.MetaImageAlt); err != nil || v != "" {
		t.Errorf("Expected missing post meta, got %q %v", v, err)
	}
	for _, size := range []string{covers.SizeMedium, covers.SizeMediumLarge, covers.SizeFull} {
		want, wantOK, _ := mem.ImageSrc(ctx, 100, size)
		got, ok, err := db.ImageSrc(ctx, 100, size)
		if err != nil || ok != wantOK || got != want {
			t.Errorf("%v: Read: %+v %v %v, Expected: %+v %v", size, got, ok, err, want, wantOK)
		}
		wantSet, _ := mem.ImageSrcset(ctx, 100, size)
		gotSet, err := db.ImageSrcset(ctx, 100, size)
		if err != nil || gotSet != wantSet {
			t.Errorf("%v: Read srcset: %q %v, Expected: %q", size, gotSet, err, wantSet)
		}
	}
	if _, ok, err := db.ImageSrc(ctx, 101, covers.SizeLarge); ok || err != nil {
		t.Errorf("Expected missing attachment, got %v %v", ok, err)
	}
}

func TestImportReplaces(t *testing.T) {
	var (
		ctx   = context.Background()
		db, _ = setup(t)
		d     = testDataset()
	)
	d.Posts[0].Title = "Bumblebees"
	d.PostTerms[1] = []int{21}
	if err := db.Import(ctx, d); err != nil {
		t.Fatalf("Import: %v", err)
	}
	posts, _ := db.PostsByID(ctx, covers.IDQuery{IDs: []int{1}})
	if len(posts) != 1 || posts[0].Title != "Bumblebees" {
		t.Errorf("Expected replaced post, got %+v", posts)
	}
	terms, _ := db.PostTerms(ctx, 1, covers.TaxonomyTag)
	if len(terms) != 1 || terms[0].ID != 21 {
		t.Errorf("Expected replaced terms, got %+v", terms)
	}
}

func TestResolverMatchesMemstore(t *testing.T) {
	var (
		ctx     = context.Background()
		db, mem = setup(t)
		opts    = covers.Options{ActPageID: 9}
	)
	attrs := []covers.Attributes{
		{CoverType: covers.KindContent, Tags: []int{20, 21}},
		{CoverType: covers.KindContent, Posts: []int{4, 1}},
		{CoverType: covers.KindContent, Posts: []int{5}},
		{CoverType: covers.KindTakeAction, Tags: []int{21}},
		{CoverType: covers.KindTakeAction},
		{CoverType: covers.KindCampaign, Tags: []int{21, 20}},
	}
	for _, a := range attrs {
		want, err := covers.NewResolver(mem, opts, zap.NewNop()).Resolve(ctx, a)
		if err != nil {
			t.Fatalf("%v: memstore: %v", a.CoverType, err)
		}
		got, err := covers.NewResolver(db, opts, zap.NewNop()).Resolve(ctx, a)
		if err != nil {
			t.Fatalf("%v: sqlstore: %v", a.CoverType, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%v: mismatch (-memstore +sqlstore):\n%s", a.CoverType, diff)
		}
	}
}

func TestDatesKeepOffset(t *testing.T) {
	var (
		ctx   = context.Background()
		db, _ = setup(t)
	)
	posts, err := db.PostsByID(ctx, covers.IDQuery{IDs: []int{5}})
	if err != nil {
		t.Fatalf("PostsByID: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("Expected one post, got %+v", posts)
	}
	if !posts[0].Date.Equal(evening) {
		t.Errorf("Read: %v, Expected: %v", posts[0].Date, evening)
	}
	if got := posts[0].Date.Format("2006-01-02 15:04:05 -07:00"); got != "2020-01-01 23:30:00 -05:00" {
		t.Errorf("Bad local date: %v", got)
	}
	covered, err := covers.NewResolver(db, covers.Options{}, zap.NewNop()).Resolve(ctx, covers.Attributes{
		CoverType: covers.KindContent,
		Posts:     []int{5},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	cover := covered[0].(covers.ContentCover)
	if cover.PostDate != "2020-01-01 23:30:00" || cover.DateFormatted != "January 1, 2020" {
		t.Errorf("Bad dates: %q %q", cover.PostDate, cover.DateFormatted)
	}
}
