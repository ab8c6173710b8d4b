package api

import (
	"fmt"
	"log"
	"net/http"

	"storyboard-server/models"
	"storyboard-server/service"

	"github.com/gin-gonic/gin"
)

// 生成提示词：调用分析后端，初始化分镜数组（重复调用会整体重置）
func GeneratePrompts(c *gin.Context) {
	var req struct {
		Version      string `json:"version" binding:"omitempty,oneof=v1 v2"`
		Instruction  string `json:"instruction"`
		SystemPrompt string `json:"systemPrompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}
	if req.Version == "" {
		req.Version = "v1"
	}

	count, err := Coord.GeneratePrompts(c.Request.Context(), c.Param("project_id"),
		req.Version, req.Instruction, req.SystemPrompt)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"shotCount": count,
		"message":   fmt.Sprintf("generated %d shot prompts", count),
	})
}

// 生成单个分镜图片：调用图片后端，追加到 images 数组
func GenerateImage(c *gin.Context) {
	var req struct {
		ShotIndex     *int                   `json:"shotIndex" binding:"required"`
		CharacterRefs []service.CharacterRef `json:"characterRefs"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	img, err := Coord.GenerateImage(c.Request.Context(), c.Param("project_id"), *req.ShotIndex, req.CharacterRefs)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"shotIndex": *req.ShotIndex,
		"image":     img,
		"message":   fmt.Sprintf("shot %d image generated", *req.ShotIndex),
	})
}

// 生成单个分镜视频：以选中图片为条件，追加到 videos 数组
func GenerateVideo(c *gin.Context) {
	var req struct {
		ShotIndex *int `json:"shotIndex" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	video, err := Coord.GenerateVideo(c.Request.Context(), c.Param("project_id"), *req.ShotIndex)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"shotIndex": *req.ShotIndex,
		"video":     video,
		"message":   fmt.Sprintf("shot %d video generated", *req.ShotIndex),
	})
}

// 批量生成：创建任务并入队，返回任务ID
func batchGenerate(c *gin.Context, taskType string) {
	projectID := c.Param("project_id")

	project, err := Store.Get(c.Request.Context(), projectID)
	if err != nil {
		writeError(c, err)
		return
	}

	total := 0
	for _, shot := range project.Shots {
		if taskType == models.TaskTypeBatchVideos && shot.SelectedImage == nil {
			continue
		}
		total++
	}

	task := models.NewTask(projectID, taskType)
	task.Total = total
	task.Message = "batch generation queued"
	if err := models.CreateTask(TaskDB, task); err != nil {
		writeError(c, err)
		return
	}

	if err := service.EnqueueBatchTask(task.ID); err != nil {
		log.Printf("enqueue batch task failed: %v", err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"task_id":    task.ID,
		"project_id": projectID,
		"total":      total,
		"message":    "batch generation task created",
	})
}

func BatchGenerateImages(c *gin.Context) {
	batchGenerate(c, models.TaskTypeBatchImages)
}

func BatchGenerateVideos(c *gin.Context) {
	batchGenerate(c, models.TaskTypeBatchVideos)
}
