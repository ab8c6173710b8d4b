package models

import "time"

// 项目状态常量（由分镜数据推导，业务层不得直接写入）
const (
	ProjectStatusCreated       = "created"        // 项目已创建，分镜为空
	ProjectStatusPromptsReady  = "prompts_ready"  // 提示词已生成，分镜已初始化
	ProjectStatusImagesPartial = "images_partial" // 部分分镜有图片
	ProjectStatusImagesReady   = "images_ready"   // 所有分镜都有图片
	ProjectStatusVideosPartial = "videos_partial" // 部分分镜有视频
	ProjectStatusCompleted     = "completed"      // 所有分镜都有视频
	ProjectStatusFailed        = "failed"         // 仅用于任务失败上报，不由状态推导产生
)

// ValidStatus reports whether s names a known project status.
func ValidStatus(s string) bool {
	switch s {
	case ProjectStatusCreated, ProjectStatusPromptsReady, ProjectStatusImagesPartial,
		ProjectStatusImagesReady, ProjectStatusVideosPartial, ProjectStatusCompleted,
		ProjectStatusFailed:
		return true
	}
	return false
}

type Project struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name          string    `json:"name"`
	SourceURL     string    `json:"sourceUrl"`
	Status        string    `json:"status"`
	PromptVersion string    `json:"promptVersion,omitempty"`
	Shots         ShotList  `gorm:"type:json" json:"shots"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (Project) TableName() string {
	return "project"
}

// DeriveStatus computes the project status from shot completeness alone.
// First matching rule wins; the failed status is never derived here.
func DeriveStatus(shots []Shot) string {
	if len(shots) == 0 {
		return ProjectStatusCreated
	}

	allImages, allVideos := true, true
	anyImages, anyVideos := false, false
	for _, s := range shots {
		if len(s.Images) > 0 {
			anyImages = true
		} else {
			allImages = false
		}
		if len(s.Videos) > 0 {
			anyVideos = true
		} else {
			allVideos = false
		}
	}

	switch {
	case allVideos:
		return ProjectStatusCompleted
	case anyVideos:
		return ProjectStatusVideosPartial
	case allImages:
		return ProjectStatusImagesReady
	case anyImages:
		return ProjectStatusImagesPartial
	default:
		return ProjectStatusPromptsReady
	}
}

// RefreshStatus recomputes and stores the derived status. Every mutation of
// Shots must go through this before persisting.
func (p *Project) RefreshStatus() {
	p.Status = DeriveStatus(p.Shots)
}

// Clone returns a deep copy so callers can never alias stored shot slices.
func (p *Project) Clone() *Project {
	cp := *p
	cp.Shots = make(ShotList, len(p.Shots))
	for i := range p.Shots {
		cp.Shots[i] = p.Shots[i].clone()
	}
	return &cp
}
