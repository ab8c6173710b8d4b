package routers

import (
	"storyboard-server/models"
	"storyboard-server/routers/api"
	"storyboard-server/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func InitRouter(store models.ProjectStore, coord *service.Coordinator, taskDB *gorm.DB) *gin.Engine {
	api.Init(store, coord, taskDB)

	r := gin.Default()
	v1 := r.Group("/v1/api")
	{
		v1.POST("/projects", api.CreateProject)
		v1.GET("/projects", api.ListProjects)
		v1.GET("/projects/:project_id", api.GetProject)
		v1.PUT("/projects/:project_id", api.UpdateProject)
		v1.DELETE("/projects/:project_id", api.DeleteProject)

		v1.POST("/projects/:project_id/generate/prompts", api.GeneratePrompts)
		v1.POST("/projects/:project_id/generate/image", api.GenerateImage)
		v1.POST("/projects/:project_id/generate/video", api.GenerateVideo)
		v1.POST("/projects/:project_id/generate/images", api.BatchGenerateImages)
		v1.POST("/projects/:project_id/generate/videos", api.BatchGenerateVideos)

		v1.GET("/tasks/:task_id", api.GetTaskStatus)
	}
	r.GET("/tasks/:task_id/wss", api.TaskProgressWebSocket)
	return r
}
