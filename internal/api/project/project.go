package project

import (
	"strconv"

	"crowdfund-backend/internal/common"
	"crowdfund-backend/internal/errors"
	"crowdfund-backend/internal/model"
	"crowdfund-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// ProjectHandler 处理项目相关的HTTP请求
type ProjectHandler struct {
	projectService service.ProjectServiceInterface
}

func NewProjectHandler(projectService service.ProjectServiceInterface) *ProjectHandler {
	return &ProjectHandler{projectService}
}

// Create 募捐人创建项目，初始状态为 PENDING
func (h *ProjectHandler) Create(c *gin.Context) {
	var projectData struct {
		Title        string  `json:"title" binding:"required"`
		Description  string  `json:"description"`
		TargetAmount float64 `json:"target_amount" binding:"required,gt=0"`
	}

	if err := c.ShouldBindJSON(&projectData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	project, err := h.projectService.Create(c.GetInt("user_id"),
		projectData.Title, projectData.Description, projectData.TargetAmount)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleCreated(c, project, "项目创建成功，等待审核")
}

// ListPublic 公开的项目列表，只含 ACTIVE 项目
func (h *ProjectHandler) ListPublic(c *gin.Context) {
	limit, offset := common.Pagination(c)
	projects, err := h.projectService.ListPublic(limit, offset)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, projects, "")
}

// ListMine 募捐人查看自己的全部项目
func (h *ProjectHandler) ListMine(c *gin.Context) {
	limit, offset := common.Pagination(c)
	projects, err := h.projectService.ListMine(c.GetInt("user_id"), limit, offset)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, projects, "")
}

// GetByID 查看单个项目
func (h *ProjectHandler) GetByID(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的项目ID"))
		return
	}

	project, err := h.projectService.GetByID(projectID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, project, "")
}

// Update 募捐人更新自己的项目
func (h *ProjectHandler) Update(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的项目ID"))
		return
	}

	var projectData struct {
		Title        string  `json:"title" binding:"required"`
		Description  string  `json:"description"`
		TargetAmount float64 `json:"target_amount" binding:"required,gt=0"`
	}
	if err := c.ShouldBindJSON(&projectData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	project, err := h.projectService.Update(c.GetInt("user_id"), &model.Project{
		ID:           projectID,
		Title:        projectData.Title,
		Description:  projectData.Description,
		TargetAmount: projectData.TargetAmount,
	})
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, project, "项目更新成功")
}

// Close 募捐人关闭自己的项目
func (h *ProjectHandler) Close(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的项目ID"))
		return
	}

	project, err := h.projectService.Close(c.GetString("role"), c.GetInt("user_id"), projectID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, project, "项目已关闭")
}
