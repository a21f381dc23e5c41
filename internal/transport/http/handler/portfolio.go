package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/app"
	"portfolio-backend/internal/transport/http/response"
)

const maxImageSize = 5 << 20 // 5 MB

type PortfolioHandler struct {
	catalogService *app.CatalogService
}

func NewPortfolioHandler(catalogService *app.CatalogService) *PortfolioHandler {
	return &PortfolioHandler{catalogService: catalogService}
}

// Details serves the landing-page payload: all projects with their skills
// plus the highest-rated skills.
func (h *PortfolioHandler) Details(c *gin.Context) {
	details, err := h.catalogService.Details()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "load portfolio details failed")
		return
	}
	response.OK(c, details)
}

func (h *PortfolioHandler) ListProjects(c *gin.Context) {
	projects, err := h.catalogService.ListProjects()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list projects failed")
		return
	}
	response.OK(c, projects)
}

func (h *PortfolioHandler) GetProject(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid project id")
		return
	}
	project, err := h.catalogService.GetProject(id)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrProjectNotFound):
			response.Error(c, http.StatusNotFound, response.CodeProjectNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get project failed")
		}
		return
	}
	response.OK(c, project)
}

// CreateProject accepts a multipart form so the project image can ride along
// with the metadata in a single request.
func (h *PortfolioHandler) CreateProject(c *gin.Context) {
	input, err := bindProjectForm(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		return
	}

	project, err := h.catalogService.CreateProject(*input)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create project failed")
		}
		return
	}
	response.OK(c, project)
}

func (h *PortfolioHandler) UpdateProject(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid project id")
		return
	}
	input, err := bindProjectForm(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		return
	}

	project, err := h.catalogService.UpdateProject(id, *input)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrProjectNotFound):
			response.Error(c, http.StatusNotFound, response.CodeProjectNotFound, err.Error())
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "update project failed")
		}
		return
	}
	response.OK(c, project)
}

func (h *PortfolioHandler) DeleteProject(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid project id")
		return
	}
	if err := h.catalogService.DeleteProject(id); err != nil {
		switch {
		case errors.Is(err, app.ErrProjectNotFound):
			response.Error(c, http.StatusNotFound, response.CodeProjectNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete project failed")
		}
		return
	}
	response.OK(c, gin.H{"deleted_project_id": id})
}

func bindProjectForm(c *gin.Context) (*app.ProjectInput, error) {
	input := &app.ProjectInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		DemoLink:    c.PostForm("demo_link"),
		GithubLink:  c.PostForm("github_link"),
	}

	if raw := strings.TrimSpace(c.PostForm("skill_ids")); raw != "" {
		ids := make([]uint, 0)
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 64)
			if err != nil || id == 0 {
				return nil, errors.New("invalid skill_ids value")
			}
			ids = append(ids, uint(id))
		}
		input.SkillIDs = ids
	}

	fileHeader, err := c.FormFile("image")
	if err == nil {
		if fileHeader.Size > maxImageSize {
			return nil, errors.New("image exceeds the 5 MB limit")
		}
		f, err := fileHeader.Open()
		if err != nil {
			return nil, errors.New("read uploaded image failed")
		}
		// The service streams the reader into its own file; gin closes
		// multipart temp files when the request ends.
		input.ImageName = fileHeader.Filename
		input.Image = f
	}

	return input, nil
}

// parseUintParam parses a numeric route parameter. Bit size 32 matches the
// model ID width and rejects values that would truncate on 32-bit platforms.
func parseUintParam(c *gin.Context, key string) (uint, error) {
	u, err := strconv.ParseUint(c.Param(key), 10, 32)
	return uint(u), err
}
