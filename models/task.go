package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 任务状态（批量生成任务）
const (
	TaskStatusPending    = "pending"
	TaskStatusProcessing = "processing"
	TaskStatusSuccess    = "finished"
	TaskStatusFailed     = "failed"

	TaskTypeBatchImages = "batch_images" // 为所有分镜生成图片
	TaskTypeBatchVideos = "batch_videos" // 为所有已选图的分镜生成视频
)

// Task 记录一次批量生成的进度，单个分镜的追加仍由协调器原子完成
type Task struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProjectId string    `json:"projectId"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	Total     int       `json:"total"`
	Message   string    `json:"message"`
	Error     string    `json:"error"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Task) TableName() string {
	return "task"
}

func NewTask(projectID, taskType string) *Task {
	now := time.Now()
	return &Task{
		ID:        uuid.NewString(),
		ProjectId: projectID,
		Type:      taskType,
		Status:    TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func CreateTask(db *gorm.DB, t *Task) error {
	return db.Create(t).Error
}

func GetTaskByID(db *gorm.DB, id string) (*Task, error) {
	var t Task
	if err := db.First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (t *Task) UpdateProgress(db *gorm.DB, progress int, message string) error {
	t.Progress = progress
	t.Message = message
	return db.Model(t).Updates(map[string]interface{}{
		"progress":   progress,
		"message":    message,
		"updated_at": time.Now(),
	}).Error
}

func (t *Task) UpdateStatus(db *gorm.DB, status, message, errMsg string) error {
	t.Status = status
	t.Message = message
	t.Error = errMsg
	return db.Model(t).Updates(map[string]interface{}{
		"status":     status,
		"message":    message,
		"error":      errMsg,
		"updated_at": time.Now(),
	}).Error
}
