package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// 图片生成类型
const (
	GenerationTextToImage      = "text_to_image"       // 纯文生图（无角色引用）
	GenerationImageTextToImage = "image_text_to_image" // 图文生图（有角色引用）
)

// GeneratedImage 追加到 Shot.Images 数组，只增不改
type GeneratedImage struct {
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

// GeneratedVideo 追加到 Shot.Videos 数组，SourceImageIndex 记录生成来源图片
type GeneratedVideo struct {
	URL              string `json:"url"`
	SourceImageIndex int    `json:"sourceImageIndex"`
}

// Shot 分镜数据，生成提示词时初始化
type Shot struct {
	Index         int              `json:"index"`
	PromptToImage string           `json:"promptToImage"`
	PromptToVideo string           `json:"promptToVideo"`
	CharacterRefs []string         `json:"characterRefs,omitempty"`
	Edited        bool             `json:"edited"`
	Images        []GeneratedImage `json:"images"`
	SelectedImage *int             `json:"selectedImage"`
	Videos        []GeneratedVideo `json:"videos"`
	SelectedVideo *int             `json:"selectedVideo"`
}

// AppendImage appends a generated image, auto-selecting the first one.
func (s *Shot) AppendImage(img GeneratedImage) {
	s.Images = append(s.Images, img)
	if len(s.Images) == 1 {
		zero := 0
		s.SelectedImage = &zero
	}
}

// AppendVideo appends a generated video, auto-selecting the first one.
func (s *Shot) AppendVideo(v GeneratedVideo) {
	s.Videos = append(s.Videos, v)
	if len(s.Videos) == 1 {
		zero := 0
		s.SelectedVideo = &zero
	}
}

// SelectedImageURL returns the url of the currently selected image, or an
// error when no image has been selected yet.
func (s *Shot) SelectedImageURL() (string, error) {
	if s.SelectedImage == nil || len(s.Images) == 0 {
		return "", errors.New("no selected image")
	}
	idx := *s.SelectedImage
	if idx < 0 || idx >= len(s.Images) {
		return "", fmt.Errorf("selected image index %d out of range", idx)
	}
	return s.Images[idx].URL, nil
}

func (s Shot) clone() Shot {
	cp := s
	if s.CharacterRefs != nil {
		cp.CharacterRefs = append([]string(nil), s.CharacterRefs...)
	}
	if s.Images != nil {
		cp.Images = append([]GeneratedImage(nil), s.Images...)
	}
	if s.Videos != nil {
		cp.Videos = append([]GeneratedVideo(nil), s.Videos...)
	}
	if s.SelectedImage != nil {
		v := *s.SelectedImage
		cp.SelectedImage = &v
	}
	if s.SelectedVideo != nil {
		v := *s.SelectedVideo
		cp.SelectedVideo = &v
	}
	return cp
}

// ShotList 以 JSON 列的形式整体存储在 project 表
type ShotList []Shot

// 实现 driver.Valuer 接口: Go Struct -> JSON String (存入数据库)
func (l ShotList) Value() (driver.Value, error) {
	if l == nil {
		l = ShotList{}
	}
	return json.Marshal(l)
}

// 实现 sql.Scanner 接口: JSON String -> Go Struct (从数据库读取)
func (l *ShotList) Scan(value interface{}) error {
	if value == nil {
		*l = ShotList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal shot list value: %v", value)
	}
	return json.Unmarshal(bytes, l)
}

// ShotPatch is a typed partial update for one shot, addressed by index.
// Nil fields are left untouched.
type ShotPatch struct {
	Index         int       `json:"index"`
	PromptToImage *string   `json:"promptToImage"`
	PromptToVideo *string   `json:"promptToVideo"`
	CharacterRefs *[]string `json:"characterRefs"`
	SelectedImage *int      `json:"selectedImage"`
	SelectedVideo *int      `json:"selectedVideo"`
}

// ApplyShotPatches applies per-shot partial updates. Patches addressing an
// unknown shot index are skipped, as are selection indices pointing outside
// the corresponding array. Overwriting either prompt marks the shot edited.
func ApplyShotPatches(p *Project, patches []ShotPatch) {
	for _, patch := range patches {
		if patch.Index < 0 || patch.Index >= len(p.Shots) {
			continue
		}
		shot := &p.Shots[patch.Index]

		if patch.PromptToImage != nil {
			shot.PromptToImage = *patch.PromptToImage
			shot.Edited = true
		}
		if patch.PromptToVideo != nil {
			shot.PromptToVideo = *patch.PromptToVideo
			shot.Edited = true
		}
		if patch.CharacterRefs != nil {
			shot.CharacterRefs = append([]string(nil), (*patch.CharacterRefs)...)
		}
		if patch.SelectedImage != nil {
			if idx := *patch.SelectedImage; idx >= 0 && idx < len(shot.Images) {
				shot.SelectedImage = &idx
			}
		}
		if patch.SelectedVideo != nil {
			if idx := *patch.SelectedVideo; idx >= 0 && idx < len(shot.Videos) {
				shot.SelectedVideo = &idx
			}
		}
	}
}
