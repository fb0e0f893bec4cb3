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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kurrik/covers/covers"
	"github.com/kurrik/covers/memstore"
	"github.com/kurrik/covers/sqlstore"
	"github.com/kurrik/fauxfile"
	"github.com/kurrik/tmpl"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Loads the site, owns the store and renders blocks.
type App struct {
	args      *Args
	fs        fauxfile.Filesystem
	log       *zap.Logger
	mu        sync.RWMutex
	site      *Site
	store     covers.Store
	db        *sqlstore.Store
	resolver  *covers.Resolver
	templates *tmpl.Templates
	blockTmpl string
}

// Creates a new App. A nil logger discards output.
func NewApp(fs fauxfile.Filesystem, args *Args, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	return &App{
		args: args,
		fs:   fs,
		log:  log,
	}
}

// Parses the site directory and swaps in the resulting store. On error the
// previously loaded state is kept.
func (a *App) Load() (err error) {
	var (
		site      *Site
		store     covers.Store
		templates *tmpl.Templates
		blockTmpl string
	)
	if site, err = a.parseSiteMeta(); err != nil {
		return
	}
	if a.args.db != "" {
		if store, err = a.openDatabase(); err != nil {
			return
		}
	} else {
		var mem *memstore.Store
		if mem, err = a.parseContent(site); err != nil {
			return
		}
		store = mem
	}
	if templates, blockTmpl, err = a.parseTemplates(); err != nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.site = site
	a.store = store
	a.templates = templates
	a.blockTmpl = blockTmpl
	a.resolver = covers.NewResolver(store, site.Options(), a.log.Named("resolver"))
	a.log.Info("Loaded site", zap.String("title", site.Title()), zap.String("src", a.args.src))
	return
}

// Closes the database, if one was opened.
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *App) openDatabase() (covers.Store, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := sqlstore.Open(a.args.db)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.log.Info("Using database", zap.String("path", a.args.db))
	return db, nil
}

// Returns the resolver for the currently loaded site.
func (a *App) Resolver() *covers.Resolver {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.resolver
}

// Returns true if the specified path is a directory.
func (a *App) isDir(path string) bool {
	var (
		info os.FileInfo
		err  error
	)
	if info, err = a.fs.Stat(path); err != nil {
		return false
	}
	return info.IsDir()
}

// Parses general site configuration from the source directory.
func (a *App) parseSiteMeta() (site *Site, err error) {
	src := filepath.Join(a.args.src, a.args.config)
	a.log.Debug("Parsing site meta", zap.String("path", src))
	meta := &SiteMeta{}
	if err = a.unyaml(src, meta); err != nil {
		err = fmt.Errorf("Could not parse site meta %v: %w", src, err)
		return
	}
	site = NewSite(meta)
	if _, err = site.PathTemplate(); err != nil {
		return
	}
	_, err = site.TagsTemplate()
	return
}

// Parses the content file into an in-memory store. A missing content file
// is an empty site.
func (a *App) parseContent(site *Site) (store *memstore.Store, err error) {
	var (
		src     = filepath.Join(a.args.src, a.args.content)
		meta    = &ContentMeta{}
		dataset memstore.Dataset
	)
	store = memstore.New()
	if _, statErr := a.fs.Stat(src); statErr != nil {
		a.log.Warn("Content file not found", zap.String("path", src))
		// Fail silently
		return
	}
	a.log.Debug("Parsing content", zap.String("path", src))
	if err = a.unyaml(src, meta); err != nil {
		err = fmt.Errorf("Could not parse content %v: %w", src, err)
		return
	}
	if dataset, err = a.newDataset(site, meta); err != nil {
		return
	}
	store = memstore.FromDataset(dataset)
	a.log.Debug("Parsed content",
		zap.Int("posts", len(dataset.Posts)),
		zap.Int("terms", len(dataset.Terms)),
		zap.Int("attachments", len(dataset.Attachments)))
	return
}

// Converts parsed content metadata into a dataset.
func (a *App) newDataset(site *Site, meta *ContentMeta) (d memstore.Dataset, err error) {
	d = memstore.Dataset{
		PostTerms: map[int][]int{},
		TermMeta:  map[int]map[string]string{},
		PostMeta:  map[int]map[string]string{},
	}
	for _, tm := range meta.Terms {
		var t covers.Term
		if t, err = site.NewTerm(tm); err != nil {
			return
		}
		d.Terms = append(d.Terms, t)
		d.TermMeta[t.ID] = copyMetadata(tm.Metadata)
		if tm.Attachment > 0 {
			d.TermMeta[t.ID][covers.MetaTagAttachment] = fmt.Sprint(tm.Attachment)
		}
	}
	for _, pm := range meta.Posts {
		var p covers.Post
		if p, err = site.NewPost(pm); err != nil {
			return
		}
		d.Posts = append(d.Posts, p)
		d.PostTerms[p.ID] = pm.Terms
		d.PostMeta[p.ID] = copyMetadata(pm.Metadata)
	}
	for _, am := range meta.Attachments {
		var att memstore.Attachment
		if att, err = a.NewAttachment(site, am, a.args.src); err != nil {
			return
		}
		d.Attachments = append(d.Attachments, att)
		if d.PostMeta[att.ID] == nil {
			d.PostMeta[att.ID] = map[string]string{}
		}
		if am.Alt != "" {
			d.PostMeta[att.ID][covers.MetaImageAlt] = am.Alt
		}
	}
	return
}

func copyMetadata(in map[string]string) map[string]string {
	out := map[string]string{}
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Parses block templates. The block template may be overridden by a file
// in the templates directory; other .tmpl files there become root
// templates the block template renders into.
func (a *App) parseTemplates() (templates *tmpl.Templates, blockTmpl string, err error) {
	var (
		src       string = filepath.Join(a.args.src, a.args.templates)
		path      string
		names     []string
		text      string
		foundRoot bool = false
	)
	templates = tmpl.NewTemplates()
	templates.SetFilesystem(a.fs)
	blockTmpl = DefaultBlockTemplate
	if names, err = a.readDir(src); err != nil {
		a.log.Debug("Templates directory not found", zap.String("path", src))
		// Fail silently
		names, err = nil, nil
	}
	for _, n := range names {
		path = filepath.Join(src, n)
		if n == a.args.blockTemplate {
			if text, err = a.readFile(path); err != nil {
				return
			}
			blockTmpl = text
			a.log.Debug("Found block template", zap.String("path", path))
			continue
		}
		if !strings.HasSuffix(n, ".tmpl") {
			continue
		}
		if err = templates.AddTemplateFromFile(path); err != nil {
			return
		}
		foundRoot = true
		a.log.Debug("Found root template", zap.String("path", path))
	}
	if !foundRoot {
		// The block template is all the markup there is.
		templates.AddTemplate(blockTmpl)
	}
	return
}

// Reads directory contents from the given path and returns file names.
func (a *App) readDir(path string) (names []string, err error) {
	var f fauxfile.File
	if f, err = a.fs.Open(path); err != nil {
		return
	}
	defer f.Close()
	names, err = f.Readdirnames(-1)
	return
}

// Reads a file from the given path and returns a string of the contents.
func (a *App) readFile(path string) (out string, err error) {
	var (
		f   fauxfile.File
		fi  os.FileInfo
		buf []byte
	)
	if f, err = a.fs.Open(path); err != nil {
		return
	}
	defer f.Close()
	if fi, err = f.Stat(); err != nil {
		return
	}
	buf = make([]byte, fi.Size())
	if _, err = f.Read(buf); err != nil {
		if err != io.EOF {
			return
		}
		err = nil
	}
	out = string(buf)
	return
}

// Deserializes the yaml file at the given path to the supplied object.
func (a *App) unyaml(path string, out interface{}) (err error) {
	var data string
	if data, err = a.readFile(path); err != nil {
		return
	}
	err = yaml.Unmarshal([]byte(data), out)
	return
}

// Normalizes raw attributes and resolves their covers. An unknown cover
// type is logged and renders no covers; store errors are returned.
func (a *App) Render(ctx context.Context, raw covers.Raw) (block *Block, err error) {
	var (
		attrs    covers.Raw
		resolved []covers.Cover
	)
	resolver := a.Resolver()
	if resolver == nil {
		err = fmt.Errorf("No site loaded")
		return
	}
	attrs, err = covers.Normalize(raw)
	if err == nil {
		resolved, err = resolver.Resolve(ctx, covers.Decode(attrs))
	}
	if errors.Is(err, covers.ErrUnknownCoverType) {
		a.log.Warn("Rendering block without covers", zap.Error(err))
		resolved, err = []covers.Cover{}, nil
	}
	if err != nil {
		return
	}
	block = &Block{Attributes: attrs, Covers: resolved}
	return
}

// Renders the block markup for the given attributes.
func (a *App) RenderMarkup(ctx context.Context, raw covers.Raw) (out string, err error) {
	var block *Block
	if block, err = a.Render(ctx, raw); err != nil {
		return
	}
	a.mu.RLock()
	templates, text := a.templates, a.blockTmpl
	a.mu.RUnlock()
	return block.Markup(templates, text)
}
