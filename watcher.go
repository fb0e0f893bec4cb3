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
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/howeyc/fsnotify"
	"go.uber.org/zap"
)

// How long to wait for changes to settle before reloading.
const ReloadDelay = 200 * time.Millisecond

// State for fs notify wrapper.
type Watcher struct {
	watcher *fsnotify.Watcher
	root    string
	app     *App
}

// Listen for FS events and signal work when something changes.
// Will send errors over e.
func (w *Watcher) Handle(ctx context.Context, work chan bool, e chan error) {
	var (
		evt *fsnotify.FileEvent
		err error
	)
	for {
		select {
		case <-ctx.Done():
			return
		case evt = <-w.watcher.Event:
			w.app.log.Debug("Filesystem changed", zap.String("event", evt.String()))
			isNewDir := evt.IsCreate() && w.app.isDir(evt.Name)
			if isNewDir || evt.IsDelete() || evt.IsRename() {
				if err = w.WatchDirs(); err != nil {
					e <- err
					return
				}
			}
			select {
			case work <- true:
				// Queued work.
			default:
				// Work queue full, no worries.
			}
		case err = <-w.watcher.Error:
			e <- err
			return
		}
	}
}

// Sets up filesystem notices for all directories under root, inclusive.
// Can be called multiple times, initializes watcher object each time.
func (w *Watcher) WatchDirs() (err error) {
	var (
		path      string
		i         int
		queue     []string
		src       string
		info      os.FileInfo
		filenames []string
		filename  string
		errors    int
	)
	if w.watcher != nil {
		w.watcher.Close()
	}
	if w.watcher, err = fsnotify.NewWatcher(); err != nil {
		return
	}
	if queue, err = w.app.readDir(w.root); err != nil {
		return
	}
	w.app.log.Debug("Watching", zap.String("path", w.root))
	if err = w.watcher.Watch(w.root); err != nil {
		return
	}
	retry := func(src string, cause error) error {
		queue = append(queue, src)
		w.app.log.Warn("Could not watch, retrying later", zap.String("path", src), zap.Error(cause))
		errors += 1
		if errors > 10 {
			return fmt.Errorf("Too many errors experienced, quitting")
		}
		time.Sleep(100 * time.Millisecond)
		return nil
	}
	for len(queue) > 0 {
		path = queue[0]
		src = filepath.Join(w.root, path)
		queue = queue[1:]
		if info, err = w.app.fs.Stat(src); err != nil {
			return
		}
		if !info.IsDir() {
			continue
		}
		if filenames, err = w.app.readDir(src); err != nil {
			if err = retry(path, err); err != nil {
				return
			}
			continue
		}
		for i, filename = range filenames {
			filenames[i] = filepath.Join(path, filename)
		}
		queue = append(queue, filenames...)
		w.app.log.Debug("Watching", zap.String("path", src))
		if err = w.watcher.Watch(src); err != nil {
			if err = retry(path, err); err != nil {
				return
			}
		}
	}
	return
}

// Watches the site directory for changes and reloads the App in response,
// until ctx is done or watching fails. A failed reload is logged and the
// previous site keeps being served.
func Watch(ctx context.Context, app *App, root string) (err error) {
	var (
		timer   *time.Timer
		watcher *Watcher
	)
	var (
		errors = make(chan error, 1)
		work   = make(chan bool, 1)
	)
	watcher = &Watcher{
		root: root,
		app:  app,
	}
	if err = watcher.WatchDirs(); err != nil {
		return
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		watcher.watcher.Close()
	}()
	go watcher.Handle(ctx, work, errors)
	for {
		select {
		case <-work:
			// Many notifications are sent for a single change, so
			// reload once things settle.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(ReloadDelay, func() {
				app.log.Info("Reloading site")
				if err := app.Load(); err != nil {
					app.log.Error("Could not reload site", zap.Error(err))
				}
			})
		case err = <-errors:
			return
		case <-ctx.Done():
			return
		}
	}
}
