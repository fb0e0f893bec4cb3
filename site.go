// Copyright 2017 Arne Roomann-Kurrik
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
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/kurrik/covers/covers"
)

const (
	DefaultPathFormat = "/{{.Slug}}/"
	DefaultTagsFormat = "/tag/{{.Slug}}/"
)

// Represents the site configuration for linking and resolving.
type Site struct {
	meta         *SiteMeta
	pathTemplate *template.Template
	tagsTemplate *template.Template
}

// Data available to path and tag format templates.
type linkData struct {
	ID       int
	Type     string
	Slug     string
	Name     string
	Taxonomy string
	Date     time.Time
}

// Formats the date as used in paths.
func (d linkData) DatePath() string {
	return d.Date.Format("2006/01/02")
}

func NewSite(meta *SiteMeta) *Site {
	return &Site{meta: meta}
}

// Returns the title of the site.
func (s *Site) Title() string {
	return s.meta.Title
}

// Returns the root of the site's URL, without a trailing slash.
func (s *Site) Root() string {
	return strings.TrimRight(s.meta.Root, "/")
}

// Returns the resolver options configured for the site.
func (s *Site) Options() covers.Options {
	return covers.Options{
		ActPageID:            s.meta.ActPage,
		TakeActionButtonText: s.meta.ButtonText,
		DateFormat:           s.meta.DateFormat,
	}
}

func parseFormat(name string, format string, fallback string) (*template.Template, error) {
	if format == "" {
		format = fallback
	}
	t, err := template.New(name).Parse(format)
	if err != nil {
		return nil, fmt.Errorf("Could not parse %v format: %v", name, err)
	}
	return t, nil
}

// Returns a template suitable for rendering post URLs.
func (s *Site) PathTemplate() (t *template.Template, err error) {
	if s.pathTemplate == nil {
		if s.pathTemplate, err = parseFormat("path", s.meta.PathFormat, DefaultPathFormat); err != nil {
			return
		}
	}
	t = s.pathTemplate
	return
}

// Returns a template suitable for rendering term URLs.
func (s *Site) TagsTemplate() (t *template.Template, err error) {
	if s.tagsTemplate == nil {
		if s.tagsTemplate, err = parseFormat("tags", s.meta.TagsFormat, DefaultTagsFormat); err != nil {
			return
		}
	}
	t = s.tagsTemplate
	return
}

func (s *Site) link(t *template.Template, d linkData) (out string, err error) {
	b := bytes.NewBufferString("")
	if err = t.Execute(b, d); err != nil {
		return
	}
	out = s.Root() + b.String()
	return
}

// Returns the fully-qualified link for a post.
func (s *Site) Permalink(p covers.Post) (out string, err error) {
	var t *template.Template
	if t, err = s.PathTemplate(); err != nil {
		return
	}
	return s.link(t, linkData{ID: p.ID, Type: p.Type, Slug: p.Slug, Date: p.Date})
}

// Returns the fully-qualified link for a term.
func (s *Site) TermLink(term covers.Term) (out string, err error) {
	var t *template.Template
	if t, err = s.TagsTemplate(); err != nil {
		return
	}
	return s.link(t, linkData{ID: term.ID, Slug: term.Slug, Name: term.Name, Taxonomy: term.Taxonomy})
}

// Returns the URL for a file under the site directory.
func (s *Site) FileURL(src string) string {
	return s.Root() + "/" + strings.TrimLeft(src, "/")
}
