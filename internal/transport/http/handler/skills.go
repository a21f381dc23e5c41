package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/app"
	"portfolio-backend/internal/transport/http/response"
)

type SkillHandler struct {
	catalogService *app.CatalogService
}

type SkillRequest struct {
	Name   string `json:"name" binding:"required,max=64"`
	Rating int    `json:"rating" binding:"min=0,max=100"`
}

func NewSkillHandler(catalogService *app.CatalogService) *SkillHandler {
	return &SkillHandler{catalogService: catalogService}
}

func (h *SkillHandler) List(c *gin.Context) {
	skills, err := h.catalogService.ListSkills()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list skills failed")
		return
	}
	response.OK(c, skills)
}

func (h *SkillHandler) Get(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid skill id")
		return
	}
	skill, err := h.catalogService.GetSkill(id)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSkillNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSkillNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get skill failed")
		}
		return
	}
	response.OK(c, skill)
}

func (h *SkillHandler) Create(c *gin.Context) {
	var req SkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	skill, err := h.catalogService.CreateSkill(req.Name, req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create skill failed")
		}
		return
	}
	response.OK(c, skill)
}

func (h *SkillHandler) Update(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid skill id")
		return
	}
	var req SkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	skill, err := h.catalogService.UpdateSkill(id, req.Name, req.Rating)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSkillNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSkillNotFound, err.Error())
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "update skill failed")
		}
		return
	}
	response.OK(c, skill)
}

// Delete refuses to remove a skill that is still attached to a project; the
// caller has to detach it first.
func (h *SkillHandler) Delete(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid skill id")
		return
	}
	if err := h.catalogService.DeleteSkill(id); err != nil {
		switch {
		case errors.Is(err, app.ErrSkillNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSkillNotFound, err.Error())
		case errors.Is(err, app.ErrSkillAttached):
			response.Error(c, http.StatusConflict, response.CodeSkillAttached, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete skill failed")
		}
		return
	}
	response.OK(c, gin.H{"deleted_skill_id": id})
}

// Detach removes the skill from every project without deleting the skill.
func (h *SkillHandler) Detach(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid skill id")
		return
	}
	if err := h.catalogService.DetachSkill(id); err != nil {
		switch {
		case errors.Is(err, app.ErrSkillNotFound):
			response.Error(c, http.StatusNotFound, response.CodeSkillNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "detach skill failed")
		}
		return
	}
	response.OK(c, gin.H{"detached_skill_id": id})
}
