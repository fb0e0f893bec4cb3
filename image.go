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
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"

	"github.com/kurrik/covers/covers"
	"github.com/kurrik/covers/memstore"
	"github.com/kurrik/fauxfile"
)

type ImageData struct {
	Width  int
	Height int
}

// Reads the dimensions of the image at srcPath.
func NewImageData(fs fauxfile.Filesystem, srcPath string) (data ImageData, err error) {
	var (
		cfg  image.Config
		file fauxfile.File
	)
	if file, err = fs.Open(srcPath); err != nil {
		return
	}
	defer file.Close()
	if cfg, _, err = image.DecodeConfig(file); err != nil {
		return
	}
	data = ImageData{
		Width:  cfg.Width,
		Height: cfg.Height,
	}
	return
}

// Builds an attachment from its metadata. The original file is the full
// size; variants are the generated sizes. Missing dimensions are read from
// the image files under srcDir.
func (a *App) NewAttachment(site *Site, meta AttachmentMeta, srcDir string) (out memstore.Attachment, err error) {
	if meta.Id <= 0 {
		err = fmt.Errorf("Attachment meta must include id")
		return
	}
	out = memstore.Attachment{
		ID:    meta.Id,
		Sizes: map[string]covers.ImageSource{},
	}
	if meta.Src != "" {
		if out.Sizes[covers.SizeFull], err = a.imageSource(site, ImageVariantMeta{Src: meta.Src}, srcDir, false); err != nil {
			return
		}
	}
	for key, variantMeta := range meta.Variants {
		if variantMeta.Src == "" {
			continue
		}
		if out.Sizes[key], err = a.imageSource(site, variantMeta, srcDir, key != covers.SizeFull); err != nil {
			return
		}
	}
	return
}

func (a *App) imageSource(site *Site, meta ImageVariantMeta, srcDir string, resized bool) (src covers.ImageSource, err error) {
	var data ImageData
	src = covers.ImageSource{
		URL:     site.FileURL(meta.Src),
		Width:   meta.Width,
		Height:  meta.Height,
		Resized: resized,
	}
	if src.Width > 0 && src.Height > 0 {
		return
	}
	if data, err = NewImageData(a.fs, filepath.Join(srcDir, meta.Src)); err != nil {
		err = fmt.Errorf("Could not load image metadata: %v", err)
		return
	}
	src.Width, src.Height = data.Width, data.Height
	return
}
