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

package main

import (
	"encoding/json"

	"github.com/kurrik/covers/covers"
	"github.com/kurrik/tmpl"
	"golang.org/x/net/html"
)

// Full name of the block, as the front end knows it.
const BlockName = "planet4-blocks/covers"

// Markup hydrated by the front end. Attributes is already escaped.
const DefaultBlockTemplate = `<div data-render="{{.Name}}" data-attributes="{{.Attributes}}"></div>`

// Normalized attributes together with the covers resolved for them.
type Block struct {
	Attributes covers.Raw
	Covers     []covers.Cover
}

// Serializes as {"attributes": ..., "covers": [...]}.
func (b *Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"attributes": b.attributeMap(),
		"covers":     b.coverList(),
	})
}

func (b *Block) attributeMap() covers.Raw {
	if b.Attributes == nil {
		return covers.Raw{}
	}
	return b.Attributes
}

func (b *Block) coverList() []covers.Cover {
	if b.Covers == nil {
		return []covers.Cover{}
	}
	return b.Covers
}

// Returns the payload the front end reads from data-attributes: the
// attributes with the covers folded in.
func (b *Block) FrontendJSON() ([]byte, error) {
	attrs := b.attributeMap().Clone()
	attrs["covers"] = b.coverList()
	return json.Marshal(map[string]interface{}{"attributes": attrs})
}

// Renders the block markup with the given template text.
func (b *Block) Markup(templates *tmpl.Templates, text string) (out string, err error) {
	var payload []byte
	if payload, err = b.FrontendJSON(); err != nil {
		return
	}
	data := map[string]interface{}{
		"Name":       BlockName,
		"Attributes": html.EscapeString(string(payload)),
		"Block":      b,
	}
	return templates.RenderText(text, data)
}
