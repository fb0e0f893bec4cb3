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

import (
	"errors"
	"fmt"
)

// Kind names the type of covers a block shows.
type Kind string

const (
	KindTakeAction Kind = "take-action"
	KindCampaign   Kind = "campaign"
	KindContent    Kind = "content"
)

// Returned when a block asks for a cover type this package cannot resolve.
var ErrUnknownCoverType = errors.New("unknown cover type")

// Config is the per-kind configuration of a covers block. It is one of
// TakeActionConfig, CampaignConfig or ContentConfig.
type Config interface {
	Kind() Kind
	isConfig()
}

// Take action pages, either picked by hand or the children of the act page.
type TakeActionConfig struct {
	Tags  []int
	Posts []int
}

// Campaign tags, shown as tiles linking to the tag page.
type CampaignConfig struct {
	Tags []int
}

// Posts, either picked by hand or filtered by tag and page type.
type ContentConfig struct {
	Tags      []int
	PostTypes []int
	Posts     []int
}

func (TakeActionConfig) Kind() Kind { return KindTakeAction }
func (CampaignConfig) Kind() Kind   { return KindCampaign }
func (ContentConfig) Kind() Kind    { return KindContent }

func (TakeActionConfig) isConfig() {}
func (CampaignConfig) isConfig()   {}
func (ContentConfig) isConfig()    {}

// Config returns the configuration variant selected by the cover type.
func (a Attributes) Config() (Config, error) {
	switch a.CoverType {
	case KindTakeAction:
		return TakeActionConfig{Tags: a.Tags, Posts: a.Posts}, nil
	case KindCampaign:
		return CampaignConfig{Tags: a.Tags}, nil
	case KindContent:
		return ContentConfig{Tags: a.Tags, PostTypes: a.PostTypes, Posts: a.Posts}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCoverType, string(a.CoverType))
}
