package api

import (
	"net/http"

	"storyboard-server/models"
	"storyboard-server/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// 包级依赖，由 routers.InitRouter 注入
var (
	Store  models.ProjectStore
	Coord  *service.Coordinator
	TaskDB *gorm.DB
)

func Init(store models.ProjectStore, coord *service.Coordinator, taskDB *gorm.DB) {
	Store = store
	Coord = coord
	TaskDB = taskDB
}

// 创建项目
func CreateProject(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required,min=1,max=100"`
		SourceURL string `json:"sourceUrl" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	project := models.Project{
		Name:      req.Name,
		SourceURL: req.SourceURL,
		Status:    models.ProjectStatusCreated,
		Shots:     models.ShotList{},
	}
	if _, err := Store.Create(c.Request.Context(), &project); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

// 项目列表（分页，按创建时间倒序）
func ListProjects(c *gin.Context) {
	var req struct {
		Page     int    `form:"page,default=1" binding:"gte=1"`
		PageSize int    `form:"page_size,default=10" binding:"gte=1,lte=100"`
		Status   string `form:"status"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		bindingError(c, err)
		return
	}
	if req.Status != "" && !models.ValidStatus(req.Status) {
		writeError(c, &models.ValidationError{Msg: "unknown status: " + req.Status})
		return
	}

	items, total, err := Store.List(c.Request.Context(), models.ListFilter{
		Status:   req.Status,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      items,
		"total":     total,
		"page":      req.Page,
		"page_size": req.PageSize,
	})
}

// 获取项目详情
func GetProject(c *gin.Context) {
	project, err := Store.Get(c.Request.Context(), c.Param("project_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// 更新项目信息（名称 + 分镜局部补丁：提示词编辑、角色引用、选中图片/视频）
func UpdateProject(c *gin.Context) {
	var req struct {
		Name  *string            `json:"name" binding:"omitempty,min=1,max=100"`
		Shots []models.ShotPatch `json:"shots"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	project, err := Store.Update(c.Request.Context(), c.Param("project_id"), func(p *models.Project) error {
		if req.Name != nil {
			p.Name = *req.Name
		}
		models.ApplyShotPatches(p, req.Shots)
		p.RefreshStatus()
		return nil
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// 删除项目（硬删除）
func DeleteProject(c *gin.Context) {
	if err := Store.Delete(c.Request.Context(), c.Param("project_id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "project deleted",
	})
}
