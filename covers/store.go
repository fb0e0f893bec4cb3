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
	"context"
	"encoding/json"
	"time"
)

// Content store vocabulary.
const (
	TypePost = "post"
	TypePage = "page"

	StatusPublish = "publish"

	TaxonomyTag      = "post_tag"
	TaxonomyPageType = "p4-page-type"

	SizeMedium      = "medium"
	SizeMediumLarge = "medium_large"
	SizeLarge       = "large"
	SizeFull        = "full"

	MetaTagAttachment = "tag_attachment_id"
	MetaImageAlt      = "_wp_attachment_image_alt"
)

// A content item (post or page).
type Post struct {
	ID          int
	Type        string
	Status      string
	Slug        string
	Parent      int
	MenuOrder   int
	Title       string
	Excerpt     string
	Date        time.Time
	ThumbnailID int
	Permalink   string
}

// Returns whether an image is attached to the post as its thumbnail.
func (p Post) HasThumbnail() bool {
	return p.ThumbnailID > 0
}

// A taxonomy term.
type Term struct {
	ID       int
	Taxonomy string
	Name     string
	Slug     string
	Link     string
}

// One rendered size of an image attachment.
type ImageSource struct {
	URL     string
	Width   int
	Height  int
	Resized bool
}

// Serializes as the [url, width, height, resized] tuple templates expect.
func (i ImageSource) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{i.URL, i.Width, i.Height, i.Resized})
}

// Fetch posts by explicit identifier. Results follow the order of IDs.
// An empty Type matches any type.
type IDQuery struct {
	IDs    []int
	Type   string
	Status string
	Limit  int
}

// Fetch children of Parent ordered by menu order ascending, date
// descending, then title ascending. When TagIDs is not empty only posts
// carrying any of those tags match.
type ParentQuery struct {
	Type   string
	Status string
	Parent int
	TagIDs []int
	Limit  int
}

// A set of terms a post must carry at least one of.
type TermFilter struct {
	Taxonomy string
	TermIDs  []int
}

// Fetch posts matching every filter, ordered by date descending then title
// ascending. Status is not restricted beyond what the store considers
// publicly readable when Status is empty.
type TaxonomyQuery struct {
	Type    string
	Status  string
	Filters []TermFilter
	Limit   int
}

// Read access to content items.
type ContentStore interface {
	PostsByID(ctx context.Context, q IDQuery) ([]Post, error)
	PostsByParent(ctx context.Context, q ParentQuery) ([]Post, error)
	PostsByTaxonomy(ctx context.Context, q TaxonomyQuery) ([]Post, error)
}

// Read access to terms and metadata. Metadata reads return an empty string
// for missing keys.
type TaxonomyStore interface {
	Terms(ctx context.Context, taxonomy string, ids []int) ([]Term, error)
	PostTerms(ctx context.Context, postID int, taxonomy string) ([]Term, error)
	TermMeta(ctx context.Context, termID int, key string) (string, error)
	PostMeta(ctx context.Context, postID int, key string) (string, error)
}

// Read access to image attachments. ImageSrc reports false when the
// attachment or size does not exist. ImageSrcset returns an empty string
// when no responsive set can be built.
type MediaStore interface {
	ImageSrc(ctx context.Context, attachmentID int, size string) (ImageSource, bool, error)
	ImageSrcset(ctx context.Context, attachmentID int, size string) (string, error)
}

// Everything the Resolver reads.
type Store interface {
	ContentStore
	TaxonomyStore
	MediaStore
}
