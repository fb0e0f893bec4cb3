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

// Serializable models used to configure the site and its content.

type SiteMeta struct {
	Title      string
	Root       string
	PathFormat string
	TagsFormat string
	DateFormat string
	ActPage    int
	ButtonText string
}

type ContentMeta struct {
	Posts       []PostMeta
	Terms       []TermMeta
	Attachments []AttachmentMeta
}

type PostMeta struct {
	Id        int
	Type      string
	Status    string
	Slug      string
	Title     string
	Date      string
	Parent    int
	MenuOrder int
	Excerpt   string
	Body      string
	Thumbnail int
	Terms     []int
	Metadata  map[string]string
}

type TermMeta struct {
	Id         int
	Taxonomy   string
	Name       string
	Slug       string
	Attachment int
	Metadata   map[string]string
}

type ImageVariantMeta struct {
	Src    string
	Width  int
	Height int
}

type AttachmentMeta struct {
	Id       int
	Src      string
	Alt      string
	Variants map[string]ImageVariantMeta
}
