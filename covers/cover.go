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

// A single tile ready for templating. The concrete type depends on the
// kind of covers requested.
type Cover interface {
	Kind() Kind
}

// A tag attached to a take action page.
type TagLink struct {
	Name string `json:"name"`
	Href string `json:"href"`
}

// Cover for a take action page.
type TakeActionCover struct {
	Tags       []TagLink `json:"tags"`
	Title      string    `json:"title"`
	Excerpt    string    `json:"excerpt"`
	Image      string    `json:"image"`
	ButtonText string    `json:"button_text"`
	ButtonLink string    `json:"button_link"`
}

// Cover for a campaign tag. The image fields are only set when the tag
// has an attachment.
type CampaignCover struct {
	Name    string       `json:"name"`
	Slug    string       `json:"slug"`
	Href    string       `json:"href"`
	Image   *ImageSource `json:"image,omitempty"`
	SrcSet  *string      `json:"src_set,omitempty"`
	AltText *string      `json:"alt_text,omitempty"`
}

// Returns whether the tag had an attachment.
func (c CampaignCover) HasImage() bool {
	return c.SrcSet != nil
}

// Cover for a post, carrying the post fields plus display helpers.
type ContentCover struct {
	ID            int    `json:"ID"`
	PostType      string `json:"post_type"`
	PostStatus    string `json:"post_status"`
	PostName      string `json:"post_name"`
	PostParent    int    `json:"post_parent"`
	MenuOrder     int    `json:"menu_order"`
	PostTitle     string `json:"post_title"`
	PostExcerpt   string `json:"post_excerpt"`
	PostDate      string `json:"post_date"`
	Thumbnail     string `json:"thumbnail"`
	Srcset        string `json:"srcset"`
	AltText       string `json:"alt_text"`
	Link          string `json:"link"`
	DateFormatted string `json:"date_formatted"`
}

func (TakeActionCover) Kind() Kind { return KindTakeAction }
func (CampaignCover) Kind() Kind   { return KindCampaign }
func (ContentCover) Kind() Kind    { return KindContent }
