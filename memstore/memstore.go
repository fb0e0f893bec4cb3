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

// Package memstore keeps site content in memory and answers the queries
// the covers resolver makes.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/kurrik/covers/covers"
)

// An image attachment and its rendered sizes.
type Attachment struct {
	ID    int
	Sizes map[string]covers.ImageSource
}

// Everything a store holds, in a form that can be copied between stores.
type Dataset struct {
	Posts       []covers.Post
	Terms       []covers.Term
	PostTerms   map[int][]int
	TermMeta    map[int]map[string]string
	PostMeta    map[int]map[string]string
	Attachments []Attachment
}

// In-memory store. Safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	posts       map[int]covers.Post
	terms       map[int]covers.Term
	postTerms   map[int][]int
	termMeta    map[int]map[string]string
	postMeta    map[int]map[string]string
	attachments map[int]Attachment
}

// Creates an empty store.
func New() *Store {
	return &Store{
		posts:       map[int]covers.Post{},
		terms:       map[int]covers.Term{},
		postTerms:   map[int][]int{},
		termMeta:    map[int]map[string]string{},
		postMeta:    map[int]map[string]string{},
		attachments: map[int]Attachment{},
	}
}

// Creates a store holding the given dataset.
func FromDataset(d Dataset) *Store {
	s := New()
	for _, t := range d.Terms {
		s.AddTerm(t)
	}
	for _, p := range d.Posts {
		s.AddPost(p, d.PostTerms[p.ID]...)
	}
	for id, meta := range d.TermMeta {
		for k, v := range meta {
			s.SetTermMeta(id, k, v)
		}
	}
	for id, meta := range d.PostMeta {
		for k, v := range meta {
			s.SetPostMeta(id, k, v)
		}
	}
	for _, a := range d.Attachments {
		s.AddAttachment(a)
	}
	return s
}

// Adds or replaces a post and the terms it carries.
func (s *Store) AddPost(p covers.Post, termIDs ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[p.ID] = p
	s.postTerms[p.ID] = append([]int{}, termIDs...)
}

// Adds or replaces a term.
func (s *Store) AddTerm(t covers.Term) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terms[t.ID] = t
}

// Sets a metadata value on a term.
func (s *Store) SetTermMeta(termID int, key string, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.termMeta[termID] == nil {
		s.termMeta[termID] = map[string]string{}
	}
	s.termMeta[termID][key] = value
}

// Sets a metadata value on a post or attachment.
func (s *Store) SetPostMeta(postID int, key string, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.postMeta[postID] == nil {
		s.postMeta[postID] = map[string]string{}
	}
	s.postMeta[postID][key] = value
}

// Adds or replaces an attachment.
func (s *Store) AddAttachment(a Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments[a.ID] = Attachment{ID: a.ID, Sizes: copySizes(a.Sizes)}
}

// Returns a copy of everything in the store, ordered by identifier.
func (s *Store) Dataset() (d Dataset) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d = Dataset{
		PostTerms: map[int][]int{},
		TermMeta:  map[int]map[string]string{},
		PostMeta:  map[int]map[string]string{},
	}
	for _, p := range s.posts {
		d.Posts = append(d.Posts, p)
		if ids := s.postTerms[p.ID]; len(ids) > 0 {
			d.PostTerms[p.ID] = append([]int{}, ids...)
		}
	}
	sort.Slice(d.Posts, func(i, j int) bool { return d.Posts[i].ID < d.Posts[j].ID })
	for _, t := range s.terms {
		d.Terms = append(d.Terms, t)
	}
	sort.Slice(d.Terms, func(i, j int) bool { return d.Terms[i].ID < d.Terms[j].ID })
	for id, meta := range s.termMeta {
		d.TermMeta[id] = copyMeta(meta)
	}
	for id, meta := range s.postMeta {
		d.PostMeta[id] = copyMeta(meta)
	}
	for _, a := range s.attachments {
		d.Attachments = append(d.Attachments, Attachment{ID: a.ID, Sizes: copySizes(a.Sizes)})
	}
	sort.Slice(d.Attachments, func(i, j int) bool { return d.Attachments[i].ID < d.Attachments[j].ID })
	return
}

func copyMeta(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copySizes(in map[string]covers.ImageSource) map[string]covers.ImageSource {
	out := make(map[string]covers.ImageSource, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Reports whether a post passes the type and status restrictions. Empty
// restrictions match anything.
func matches(p covers.Post, typ string, status string) bool {
	if typ != "" && p.Type != typ {
		return false
	}
	if status != "" && p.Status != status {
		return false
	}
	return true
}

// Reports whether the post carries any of the given terms in taxonomy.
// Caller holds the lock.
func (s *Store) hasAnyTerm(postID int, taxonomy string, termIDs []int) bool {
	for _, id := range s.postTerms[postID] {
		t, ok := s.terms[id]
		if !ok || t.Taxonomy != taxonomy {
			continue
		}
		for _, want := range termIDs {
			if id == want {
				return true
			}
		}
	}
	return false
}

func limit(p Posts, n int) []covers.Post {
	if n > 0 && len(p) > n {
		p = p[:n]
	}
	return []covers.Post(p)
}

// PostsByID returns the matching posts in the order their identifiers
// were given.
func (s *Store) PostsByID(ctx context.Context, q covers.IDQuery) ([]covers.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		out  = Posts{}
		seen = map[int]bool{}
	)
	for _, id := range q.IDs {
		p, ok := s.posts[id]
		if !ok || seen[id] || !matches(p, q.Type, q.Status) {
			continue
		}
		seen[id] = true
		out = append(out, p)
	}
	return limit(out, q.Limit), nil
}

func (s *Store) PostsByParent(ctx context.Context, q covers.ParentQuery) ([]covers.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Posts{}
	for _, p := range s.posts {
		if p.Parent != q.Parent || !matches(p, q.Type, q.Status) {
			continue
		}
		if len(q.TagIDs) > 0 && !s.hasAnyTerm(p.ID, covers.TaxonomyTag, q.TagIDs) {
			continue
		}
		out = append(out, p)
	}
	sort.Sort(ByMenuOrder{out})
	return limit(out, q.Limit), nil
}

func (s *Store) PostsByTaxonomy(ctx context.Context, q covers.TaxonomyQuery) ([]covers.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := Posts{}
	for _, p := range s.posts {
		if !matches(p, q.Type, q.Status) {
			continue
		}
		ok := true
		for _, f := range q.Filters {
			if !s.hasAnyTerm(p.ID, f.Taxonomy, f.TermIDs) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, p)
		}
	}
	sort.Sort(ByDateDesc{out})
	return limit(out, q.Limit), nil
}

// Terms returns the requested terms of a taxonomy ordered by name.
// Unknown identifiers are skipped.
func (s *Store) Terms(ctx context.Context, taxonomy string, ids []int) ([]covers.Term, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []covers.Term{}
	seen := map[int]bool{}
	for _, id := range ids {
		t, ok := s.terms[id]
		if !ok || seen[id] || t.Taxonomy != taxonomy {
			continue
		}
		seen[id] = true
		out = append(out, t)
	}
	sortTerms(out)
	return out, nil
}

// PostTerms returns the terms of a taxonomy carried by a post, ordered by
// name.
func (s *Store) PostTerms(ctx context.Context, postID int, taxonomy string) ([]covers.Term, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []covers.Term{}
	for _, id := range s.postTerms[postID] {
		if t, ok := s.terms[id]; ok && t.Taxonomy == taxonomy {
			out = append(out, t)
		}
	}
	sortTerms(out)
	return out, nil
}

func sortTerms(t []covers.Term) {
	sort.SliceStable(t, func(i, j int) bool {
		if t[i].Name == t[j].Name {
			return t[i].ID < t[j].ID
		}
		return t[i].Name < t[j].Name
	})
}

func (s *Store) TermMeta(ctx context.Context, termID int, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.termMeta[termID][key], nil
}

func (s *Store) PostMeta(ctx context.Context, postID int, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.postMeta[postID][key], nil
}

// ImageSrc returns the requested size of an attachment, falling back to
// the full size image when the size was never generated.
func (s *Store) ImageSrc(ctx context.Context, attachmentID int, size string) (covers.ImageSource, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.imageSrc(attachmentID, size)
	return src, ok, nil
}

func (s *Store) imageSrc(attachmentID int, size string) (src covers.ImageSource, ok bool) {
	var a Attachment
	if a, ok = s.attachments[attachmentID]; !ok {
		return
	}
	if src, ok = a.Sizes[size]; ok {
		return
	}
	src, ok = a.Sizes[covers.SizeFull]
	src.Resized = false
	return
}

func (s *Store) ImageSrcset(ctx context.Context, attachmentID int, size string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	base, ok := s.imageSrc(attachmentID, size)
	if !ok {
		return "", nil
	}
	candidates := make([]covers.ImageSource, 0, len(s.attachments[attachmentID].Sizes))
	for _, src := range s.attachments[attachmentID].Sizes {
		candidates = append(candidates, src)
	}
	return covers.Srcset(base, candidates), nil
}
