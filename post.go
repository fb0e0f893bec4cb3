// Copyright 2012 Arne Roomann-Kurrik
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

package main

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kurrik/covers/covers"
	"gopkg.in/russross/blackfriday.v2"
)

// Marks the end of the snippet in a post body.
const BREAK = "<!--BREAK-->"

// Number of words in an excerpt generated from a body with no break.
const ExcerptWords = 55

// Layouts accepted for post dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var tagPattern = regexp.MustCompile("<[^>]*>")

// Parses a post date in any accepted layout.
func parseDate(s string) (t time.Time, err error) {
	for _, layout := range dateLayouts {
		if t, err = time.Parse(layout, s); err == nil {
			return
		}
	}
	err = fmt.Errorf("Could not parse date %q", s)
	return
}

// Strips HTML tags and collapses whitespace.
func textContent(s string) string {
	return strings.Join(strings.Fields(tagPattern.ReplaceAllLiteralString(s, " ")), " ")
}

// Builds an excerpt from a markdown body. Text before the break is used if
// there is one, otherwise the first ExcerptWords words.
func Excerpt(body string) string {
	var (
		html  string
		index int
		words []string
	)
	if strings.TrimSpace(body) == "" {
		return ""
	}
	html = string(blackfriday.Run([]byte(body)))
	if index = strings.Index(html, BREAK); index != -1 {
		return textContent(html[0:index])
	}
	words = strings.Fields(textContent(html))
	if len(words) > ExcerptWords {
		return strings.Join(words[0:ExcerptWords], " ") + "…"
	}
	return strings.Join(words, " ")
}

// Converts post metadata into a content item. If any fields are invalid,
// err will be non-nil.
func (s *Site) NewPost(meta PostMeta) (p covers.Post, err error) {
	if meta.Id <= 0 {
		err = fmt.Errorf("Post meta must include id")
		return
	}
	if meta.Date == "" {
		err = fmt.Errorf("Post %v meta must include date", meta.Id)
		return
	}
	if meta.Title == "" {
		err = fmt.Errorf("Post %v meta must include title", meta.Id)
		return
	}
	p = covers.Post{
		ID:          meta.Id,
		Type:        meta.Type,
		Status:      meta.Status,
		Slug:        strings.ToLower(meta.Slug),
		Parent:      meta.Parent,
		MenuOrder:   meta.MenuOrder,
		Title:       meta.Title,
		Excerpt:     meta.Excerpt,
		ThumbnailID: meta.Thumbnail,
	}
	if p.Type == "" {
		p.Type = covers.TypePost
	}
	if p.Status == "" {
		p.Status = covers.StatusPublish
	}
	if p.Slug == "" {
		p.Slug = fmt.Sprint(meta.Id)
	}
	if p.Excerpt == "" {
		p.Excerpt = Excerpt(meta.Body)
	}
	if p.Date, err = parseDate(meta.Date); err != nil {
		err = fmt.Errorf("Post %v: %v", meta.Id, err)
		return
	}
	if p.Permalink, err = s.Permalink(p); err != nil {
		err = fmt.Errorf("Could not get path for post %v: %v", meta.Id, err)
		return
	}
	return
}

// Converts term metadata into a term.
func (s *Site) NewTerm(meta TermMeta) (t covers.Term, err error) {
	if meta.Id <= 0 {
		err = fmt.Errorf("Term meta must include id")
		return
	}
	if meta.Name == "" {
		err = fmt.Errorf("Term %v meta must include name", meta.Id)
		return
	}
	t = covers.Term{
		ID:       meta.Id,
		Taxonomy: meta.Taxonomy,
		Name:     meta.Name,
		Slug:     meta.Slug,
	}
	if t.Taxonomy == "" {
		t.Taxonomy = covers.TaxonomyTag
	}
	if t.Slug == "" {
		t.Slug = strings.ToLower(strings.Join(strings.Fields(textContent(meta.Name)), "-"))
	}
	if t.Link, err = s.TermLink(t); err != nil {
		err = fmt.Errorf("Could not get path for term %v: %v", meta.Id, err)
		return
	}
	return
}
