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

// Package sqlstore answers covers queries from a SQLite database.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kurrik/covers/covers"
	"github.com/kurrik/covers/memstore"

	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS posts (
		id           INTEGER PRIMARY KEY,
		type         TEXT NOT NULL,
		status       TEXT NOT NULL,
		slug         TEXT NOT NULL DEFAULT '',
		parent       INTEGER NOT NULL DEFAULT 0,
		menu_order   INTEGER NOT NULL DEFAULT 0,
		title        TEXT NOT NULL DEFAULT '',
		excerpt      TEXT NOT NULL DEFAULT '',
		-- date orders posts; date_text keeps the offset the post was written in.
		date         INTEGER NOT NULL,
		date_text    TEXT NOT NULL,
		thumbnail_id INTEGER NOT NULL DEFAULT 0,
		permalink    TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_posts_parent ON posts(parent, menu_order, date DESC);
	CREATE INDEX IF NOT EXISTS idx_posts_type_date ON posts(type, date DESC);

	CREATE TABLE IF NOT EXISTS terms (
		id       INTEGER PRIMARY KEY,
		taxonomy TEXT NOT NULL,
		name     TEXT NOT NULL,
		slug     TEXT NOT NULL DEFAULT '',
		link     TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS term_relationships (
		post_id INTEGER NOT NULL,
		term_id INTEGER NOT NULL,
		PRIMARY KEY (post_id, term_id)
	);
	CREATE INDEX IF NOT EXISTS idx_term_relationships_term ON term_relationships(term_id);

	CREATE TABLE IF NOT EXISTS termmeta (
		term_id    INTEGER NOT NULL,
		meta_key   TEXT NOT NULL,
		meta_value TEXT NOT NULL,
		PRIMARY KEY (term_id, meta_key)
	);

	CREATE TABLE IF NOT EXISTS postmeta (
		post_id    INTEGER NOT NULL,
		meta_key   TEXT NOT NULL,
		meta_value TEXT NOT NULL,
		PRIMARY KEY (post_id, meta_key)
	);

	CREATE TABLE IF NOT EXISTS attachment_sizes (
		attachment_id INTEGER NOT NULL,
		size          TEXT NOT NULL,
		url           TEXT NOT NULL,
		width         INTEGER NOT NULL DEFAULT 0,
		height        INTEGER NOT NULL DEFAULT 0,
		resized       INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (attachment_id, size)
	);
`

const postColumns = "p.id, p.type, p.status, p.slug, p.parent, p.menu_order, p.title, p.excerpt, p.date_text, p.thumbnail_id, p.permalink"

type Store struct {
	db *sql.DB
}

// Open opens or creates the database at dbPath and makes sure the schema
// exists.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Import writes a dataset into the database, replacing rows with the same
// keys.
func (s *Store) Import(ctx context.Context, d memstore.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range d.Posts {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO posts
				(id, type, status, slug, parent, menu_order, title, excerpt, date, date_text, thumbnail_id, permalink)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Type, p.Status, p.Slug, p.Parent, p.MenuOrder, p.Title, p.Excerpt,
			p.Date.UnixNano(), p.Date.Format(time.RFC3339Nano), p.ThumbnailID, p.Permalink)
		if err != nil {
			return fmt.Errorf("importing post %d: %w", p.ID, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM term_relationships WHERE post_id = ?", p.ID); err != nil {
			return fmt.Errorf("clearing terms of post %d: %w", p.ID, err)
		}
		for _, termID := range d.PostTerms[p.ID] {
			_, err := tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO term_relationships (post_id, term_id) VALUES (?, ?)", p.ID, termID)
			if err != nil {
				return fmt.Errorf("relating post %d to term %d: %w", p.ID, termID, err)
			}
		}
	}
	for _, t := range d.Terms {
		_, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO terms (id, taxonomy, name, slug, link) VALUES (?, ?, ?, ?, ?)",
			t.ID, t.Taxonomy, t.Name, t.Slug, t.Link)
		if err != nil {
			return fmt.Errorf("importing term %d: %w", t.ID, err)
		}
	}
	for id, meta := range d.TermMeta {
		for k, v := range meta {
			_, err := tx.ExecContext(ctx,
				"INSERT OR REPLACE INTO termmeta (term_id, meta_key, meta_value) VALUES (?, ?, ?)", id, k, v)
			if err != nil {
				return fmt.Errorf("importing meta %s of term %d: %w", k, id, err)
			}
		}
	}
	for id, meta := range d.PostMeta {
		for k, v := range meta {
			_, err := tx.ExecContext(ctx,
				"INSERT OR REPLACE INTO postmeta (post_id, meta_key, meta_value) VALUES (?, ?, ?)", id, k, v)
			if err != nil {
				return fmt.Errorf("importing meta %s of post %d: %w", k, id, err)
			}
		}
	}
	for _, a := range d.Attachments {
		for size, src := range a.Sizes {
			_, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO attachment_sizes (attachment_id, size, url, width, height, resized)
				VALUES (?, ?, ?, ?, ?, ?)`,
				a.ID, size, src.URL, src.Width, src.Height, src.Resized)
			if err != nil {
				return fmt.Errorf("importing size %s of attachment %d: %w", size, a.ID, err)
			}
		}
	}
	return tx.Commit()
}

// Returns "?, ?, ?" for n values and appends ids to args.
func placeholders(ids []int, args []interface{}) (string, []interface{}) {
	marks := make([]string, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args = append(args, id)
	}
	return strings.Join(marks, ", "), args
}

// Drops repeated identifiers, keeping the first occurrence.
func uniq(ids []int) []int {
	out := make([]int, 0, len(ids))
	seen := map[int]bool{}
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Adds the type and status restrictions shared by every post query.
func restrict(where []string, args []interface{}, typ string, status string) ([]string, []interface{}) {
	if typ != "" {
		where = append(where, "p.type = ?")
		args = append(args, typ)
	}
	if status != "" {
		where = append(where, "p.status = ?")
		args = append(args, status)
	}
	return where, args
}

// Adds a clause requiring any of termIDs in taxonomy.
func withTerms(where []string, args []interface{}, taxonomy string, termIDs []int) ([]string, []interface{}) {
	var in string
	args = append(args, taxonomy)
	in, args = placeholders(termIDs, args)
	where = append(where, `p.id IN (
		SELECT tr.post_id FROM term_relationships tr
		JOIN terms t ON t.id = tr.term_id
		WHERE t.taxonomy = ? AND t.id IN (`+in+`))`) //nolint:gosec
	return where, args
}

func (s *Store) queryPosts(ctx context.Context, where []string, args []interface{}, order string, limit int) ([]covers.Post, error) {
	query := "SELECT " + postColumns + " FROM posts p"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + order
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	posts := []covers.Post{}
	for rows.Next() {
		var (
			p    covers.Post
			date string
		)
		err := rows.Scan(&p.ID, &p.Type, &p.Status, &p.Slug, &p.Parent, &p.MenuOrder,
			&p.Title, &p.Excerpt, &date, &p.ThumbnailID, &p.Permalink)
		if err != nil {
			return nil, fmt.Errorf("scanning post: %w", err)
		}
		if p.Date, err = time.Parse(time.RFC3339Nano, date); err != nil {
			return nil, fmt.Errorf("parsing date of post %d: %w", p.ID, err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// PostsByID returns the matching posts in the order their identifiers
// were given.
func (s *Store) PostsByID(ctx context.Context, q covers.IDQuery) ([]covers.Post, error) {
	var (
		ids   = uniq(q.IDs)
		where []string
		args  []interface{}
		in    string
		order strings.Builder
	)
	if len(ids) == 0 {
		return []covers.Post{}, nil
	}
	in, args = placeholders(ids, args)
	where = append(where, "p.id IN ("+in+")")
	where, args = restrict(where, args, q.Type, q.Status)
	order.WriteString("CASE p.id")
	for i, id := range ids {
		fmt.Fprintf(&order, " WHEN %d THEN %d", id, i)
	}
	order.WriteString(" END")
	return s.queryPosts(ctx, where, args, order.String(), q.Limit)
}

func (s *Store) PostsByParent(ctx context.Context, q covers.ParentQuery) ([]covers.Post, error) {
	var (
		where = []string{"p.parent = ?"}
		args  = []interface{}{q.Parent}
	)
	where, args = restrict(where, args, q.Type, q.Status)
	if len(q.TagIDs) > 0 {
		where, args = withTerms(where, args, covers.TaxonomyTag, q.TagIDs)
	}
	return s.queryPosts(ctx, where, args,
		"p.menu_order ASC, p.date DESC, p.title ASC, p.id ASC", q.Limit)
}

func (s *Store) PostsByTaxonomy(ctx context.Context, q covers.TaxonomyQuery) ([]covers.Post, error) {
	var (
		where []string
		args  []interface{}
	)
	where, args = restrict(where, args, q.Type, q.Status)
	for _, f := range q.Filters {
		where, args = withTerms(where, args, f.Taxonomy, f.TermIDs)
	}
	return s.queryPosts(ctx, where, args, "p.date DESC, p.title ASC, p.id ASC", q.Limit)
}

func (s *Store) queryTerms(ctx context.Context, query string, args ...interface{}) ([]covers.Term, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying terms: %w", err)
	}
	defer rows.Close()

	terms := []covers.Term{}
	for rows.Next() {
		var t covers.Term
		if err := rows.Scan(&t.ID, &t.Taxonomy, &t.Name, &t.Slug, &t.Link); err != nil {
			return nil, fmt.Errorf("scanning term: %w", err)
		}
		terms = append(terms, t)
	}
	return terms, rows.Err()
}

// Terms returns the requested terms of a taxonomy ordered by name.
func (s *Store) Terms(ctx context.Context, taxonomy string, ids []int) ([]covers.Term, error) {
	if len(ids) == 0 {
		return []covers.Term{}, nil
	}
	in, args := placeholders(uniq(ids), []interface{}{taxonomy})
	return s.queryTerms(ctx,
		"SELECT id, taxonomy, name, slug, link FROM terms WHERE taxonomy = ? AND id IN ("+in+") ORDER BY name, id", //nolint:gosec
		args...)
}

// PostTerms returns the terms of a taxonomy carried by a post, ordered by
// name.
func (s *Store) PostTerms(ctx context.Context, postID int, taxonomy string) ([]covers.Term, error) {
	return s.queryTerms(ctx, `
		SELECT t.id, t.taxonomy, t.name, t.slug, t.link FROM terms t
		JOIN term_relationships tr ON tr.term_id = t.id
		WHERE tr.post_id = ? AND t.taxonomy = ?
		ORDER BY t.name, t.id`, postID, taxonomy)
}

func (s *Store) meta(ctx context.Context, query string, id int, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, query, id, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading meta %s of %d: %w", key, id, err)
	}
	return value, nil
}

func (s *Store) TermMeta(ctx context.Context, termID int, key string) (string, error) {
	return s.meta(ctx, "SELECT meta_value FROM termmeta WHERE term_id = ? AND meta_key = ?", termID, key)
}

func (s *Store) PostMeta(ctx context.Context, postID int, key string) (string, error) {
	return s.meta(ctx, "SELECT meta_value FROM postmeta WHERE post_id = ? AND meta_key = ?", postID, key)
}

// ImageSrc returns the requested size of an attachment, falling back to
// the full size image when the size was never generated.
func (s *Store) ImageSrc(ctx context.Context, attachmentID int, size string) (covers.ImageSource, bool, error) {
	src, found, err := s.imageSize(ctx, attachmentID, size)
	if err != nil || found || size == covers.SizeFull {
		return src, found, err
	}
	src, found, err = s.imageSize(ctx, attachmentID, covers.SizeFull)
	src.Resized = false
	return src, found, err
}

func (s *Store) imageSize(ctx context.Context, attachmentID int, size string) (src covers.ImageSource, found bool, err error) {
	err = s.db.QueryRowContext(ctx,
		"SELECT url, width, height, resized FROM attachment_sizes WHERE attachment_id = ? AND size = ?",
		attachmentID, size).Scan(&src.URL, &src.Width, &src.Height, &src.Resized)
	if errors.Is(err, sql.ErrNoRows) {
		return src, false, nil
	}
	if err != nil {
		return src, false, fmt.Errorf("reading size %s of attachment %d: %w", size, attachmentID, err)
	}
	return src, true, nil
}

func (s *Store) ImageSrcset(ctx context.Context, attachmentID int, size string) (string, error) {
	base, found, err := s.ImageSrc(ctx, attachmentID, size)
	if err != nil || !found {
		return "", err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT url, width, height, resized FROM attachment_sizes WHERE attachment_id = ?", attachmentID)
	if err != nil {
		return "", fmt.Errorf("querying sizes of attachment %d: %w", attachmentID, err)
	}
	defer rows.Close()

	var candidates []covers.ImageSource
	for rows.Next() {
		var src covers.ImageSource
		if err := rows.Scan(&src.URL, &src.Width, &src.Height, &src.Resized); err != nil {
			return "", fmt.Errorf("scanning image size: %w", err)
		}
		candidates = append(candidates, src)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return covers.Srcset(base, candidates), nil
}
