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
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Most covers a single block will show.
const Limit = 50

// Button label used when the site does not configure one.
const DefaultButtonText = "Take action"

// Date layout used when the site does not configure one.
const DefaultDateFormat = "January 2, 2006"

// Site wide settings read by the Resolver.
type Options struct {
	// Parent of all take action pages. Zero disables the implicit query.
	ActPageID            int
	TakeActionButtonText string
	DateFormat           string
}

// Returns the configured take action label or the default.
func (o Options) ButtonText() string {
	if o.TakeActionButtonText == "" {
		return DefaultButtonText
	}
	return o.TakeActionButtonText
}

// Returns the configured date layout or the default.
func (o Options) DateLayout() string {
	if o.DateFormat == "" {
		return DefaultDateFormat
	}
	return o.DateFormat
}

// Resolver turns block attributes into covers. It holds no per-request
// state and is safe for concurrent use if the store is.
type Resolver struct {
	store Store
	opts  Options
	log   *zap.Logger
}

// Creates a new Resolver. A nil logger discards output.
func NewResolver(store Store, opts Options, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{store: store, opts: opts, log: log}
}

// Returns the options the resolver was created with.
func (r *Resolver) Options() Options {
	return r.opts
}

// Resolve returns the covers for the given attributes. An unknown cover
// type returns an empty list along with an error wrapping
// ErrUnknownCoverType. Store errors are returned as is.
func (r *Resolver) Resolve(ctx context.Context, a Attributes) (covers []Cover, err error) {
	var cfg Config
	covers = []Cover{}
	if cfg, err = a.Config(); err != nil {
		return
	}
	r.log.Debug("Resolving covers",
		zap.String("cover_type", string(cfg.Kind())),
		zap.Ints("tags", a.Tags),
		zap.Ints("posts", a.Posts))
	switch c := cfg.(type) {
	case TakeActionConfig:
		covers, err = r.takeAction(ctx, c)
	case CampaignConfig:
		covers, err = r.campaign(ctx, c)
	case ContentConfig:
		covers, err = r.content(ctx, c)
	default:
		err = fmt.Errorf("%w: %T", ErrUnknownCoverType, cfg)
	}
	if err != nil {
		covers = []Cover{}
		return
	}
	if len(covers) > Limit {
		covers = covers[:Limit]
	}
	return
}

// Cuts a store result down to the cover limit.
func capPosts(posts []Post) []Post {
	if len(posts) > Limit {
		return posts[:Limit]
	}
	return posts
}

func (r *Resolver) takeActionPosts(ctx context.Context, c TakeActionConfig) ([]Post, error) {
	if len(c.Posts) > 0 {
		return r.store.PostsByID(ctx, IDQuery{
			IDs:    c.Posts,
			Type:   TypePage,
			Status: StatusPublish,
			Limit:  Limit,
		})
	}
	if r.opts.ActPageID <= 0 {
		r.log.Debug("No act page configured")
		return nil, nil
	}
	return r.store.PostsByParent(ctx, ParentQuery{
		Type:   TypePage,
		Status: StatusPublish,
		Parent: r.opts.ActPageID,
		TagIDs: c.Tags,
		Limit:  Limit,
	})
}

func (r *Resolver) takeAction(ctx context.Context, c TakeActionConfig) (covers []Cover, err error) {
	var (
		posts []Post
		tags  []Term
		image string
	)
	covers = []Cover{}
	if posts, err = r.takeActionPosts(ctx, c); err != nil {
		return
	}
	for _, post := range capPosts(posts) {
		if tags, err = r.store.PostTerms(ctx, post.ID, TaxonomyTag); err != nil {
			return
		}
		links := make([]TagLink, 0, len(tags))
		for _, tag := range tags {
			links = append(links, TagLink{Name: tag.Name, Href: tag.Link})
		}
		if image, err = r.thumbnailURL(ctx, post, SizeLarge); err != nil {
			return
		}
		covers = append(covers, TakeActionCover{
			Tags:       links,
			Title:      post.Title,
			Excerpt:    post.Excerpt,
			Image:      image,
			ButtonText: r.opts.ButtonText(),
			ButtonLink: post.Permalink,
		})
	}
	return
}

// Term lookups that fail degrade to no covers rather than an error.
func (r *Resolver) campaign(ctx context.Context, c CampaignConfig) (covers []Cover, err error) {
	var terms []Term
	covers = []Cover{}
	if len(c.Tags) == 0 {
		return
	}
	if terms, err = r.store.Terms(ctx, TaxonomyTag, c.Tags); err != nil {
		r.log.Warn("Could not resolve campaign tags", zap.Ints("tags", c.Tags), zap.Error(err))
		err = nil
		return
	}
	for _, term := range terms {
		var cover CampaignCover
		if cover, err = r.campaignCover(ctx, term); err != nil {
			return
		}
		covers = append(covers, cover)
	}
	return
}

func (r *Resolver) campaignCover(ctx context.Context, term Term) (cover CampaignCover, err error) {
	var (
		meta    string
		id      int
		src     ImageSource
		found   bool
		srcset  string
		altText string
	)
	cover = CampaignCover{
		Name: html.UnescapeString(term.Name),
		Slug: term.Slug,
		Href: term.Link,
	}
	if meta, err = r.store.TermMeta(ctx, term.ID, MetaTagAttachment); err != nil {
		return
	}
	if id = attachmentID(meta); id == 0 {
		return
	}
	if src, found, err = r.store.ImageSrc(ctx, id, SizeMediumLarge); err != nil {
		return
	}
	if srcset, err = r.store.ImageSrcset(ctx, id, SizeMediumLarge); err != nil {
		return
	}
	if altText, err = r.store.PostMeta(ctx, id, MetaImageAlt); err != nil {
		return
	}
	if found {
		cover.Image = &src
	}
	cover.SrcSet = &srcset
	cover.AltText = &altText
	return
}

// Parses an attachment reference stored in metadata. Returns 0 for empty
// or unusable values.
func attachmentID(meta string) int {
	id, err := strconv.Atoi(strings.TrimSpace(meta))
	if err != nil || id < 0 {
		return 0
	}
	return id
}

func (r *Resolver) contentPosts(ctx context.Context, c ContentConfig) ([]Post, error) {
	if len(c.Posts) > 0 {
		return r.store.PostsByID(ctx, IDQuery{
			IDs:    c.Posts,
			Status: StatusPublish,
			Limit:  Limit,
		})
	}
	filters := []TermFilter{}
	if len(c.Tags) > 0 {
		filters = append(filters, TermFilter{Taxonomy: TaxonomyTag, TermIDs: c.Tags})
	}
	if len(c.PostTypes) > 0 {
		filters = append(filters, TermFilter{Taxonomy: TaxonomyPageType, TermIDs: c.PostTypes})
	}
	if len(filters) == 0 {
		return nil, nil
	}
	return r.store.PostsByTaxonomy(ctx, TaxonomyQuery{
		Type:    TypePost,
		Status:  StatusPublish,
		Filters: filters,
		Limit:   Limit,
	})
}

func (r *Resolver) content(ctx context.Context, c ContentConfig) (covers []Cover, err error) {
	var posts []Post
	covers = []Cover{}
	if posts, err = r.contentPosts(ctx, c); err != nil {
		return
	}
	for _, post := range capPosts(posts) {
		var cover ContentCover
		if cover, err = r.contentCover(ctx, post); err != nil {
			return
		}
		covers = append(covers, cover)
	}
	return
}

func (r *Resolver) contentCover(ctx context.Context, post Post) (cover ContentCover, err error) {
	cover = ContentCover{
		ID:            post.ID,
		PostType:      post.Type,
		PostStatus:    post.Status,
		PostName:      post.Slug,
		PostParent:    post.Parent,
		MenuOrder:     post.MenuOrder,
		PostTitle:     post.Title,
		PostExcerpt:   post.Excerpt,
		PostDate:      post.Date.Format("2006-01-02 15:04:05"),
		Link:          post.Permalink,
		DateFormatted: post.Date.Format(r.opts.DateLayout()),
	}
	if !post.HasThumbnail() {
		return
	}
	if cover.Thumbnail, err = r.thumbnailURL(ctx, post, SizeMedium); err != nil {
		return
	}
	if cover.Srcset, err = r.store.ImageSrcset(ctx, post.ThumbnailID, SizeFull); err != nil {
		return
	}
	cover.AltText, err = r.store.PostMeta(ctx, post.ThumbnailID, MetaImageAlt)
	return
}

// Returns the URL of the post thumbnail at the given size, or an empty
// string if the post has none.
func (r *Resolver) thumbnailURL(ctx context.Context, post Post, size string) (url string, err error) {
	var (
		src   ImageSource
		found bool
	)
	if !post.HasThumbnail() {
		return
	}
	if src, found, err = r.store.ImageSrc(ctx, post.ThumbnailID, size); err != nil || !found {
		return
	}
	url = src.URL
	return
}
