package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"portfolio-backend/internal/app"
	"portfolio-backend/internal/ingest"
	"portfolio-backend/internal/transport/http/middleware"
	"portfolio-backend/internal/transport/http/response"
)

const maxResumeSize = 10 << 20 // 10 MB

type ResumeHandler struct {
	resumeService *app.ResumeService
}

type AskRequest struct {
	Question string `json:"question" binding:"required,max=2000"`
}

func NewResumeHandler(resumeService *app.ResumeService) *ResumeHandler {
	return &ResumeHandler{resumeService: resumeService}
}

// Upload ingests a new resume and rebuilds its vector index before the
// request returns, so the next chat turn already answers from the new
// content.
func (h *ResumeHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "resume file is required")
		return
	}
	if fileHeader.Size > maxResumeSize {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "resume exceeds the 10 MB limit")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read uploaded file failed")
		return
	}
	defer f.Close()

	result, err := h.resumeService.Upload(c.Request.Context(), fileHeader.Filename, f)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrUnsupportedFormat):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, ingest.ErrEmptyDocument):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "resume ingestion failed")
		}
		return
	}
	response.OK(c, result)
}

// Download streams back the stored resume artifact.
func (h *ResumeHandler) Download(c *gin.Context) {
	doc, data, err := h.resumeService.Download()
	if err != nil {
		switch {
		case errors.Is(err, app.ErrNoResumeLoaded):
			response.Error(c, http.StatusNotFound, response.CodeNoResume, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "resume download failed")
		}
		return
	}

	filename := filepath.Base(doc.Path)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentTypeFor(filename), data)
}

// Ask runs one chat turn against the resume for the visitor's session.
func (h *ResumeHandler) Ask(c *gin.Context) {
	sessionID := c.GetString(middleware.ContextSessionIDKey)
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	answer, err := h.resumeService.Answer(c.Request.Context(), sessionID, req.Question)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrSessionMissing):
			response.Error(c, http.StatusBadRequest, response.CodeSessionMissing, err.Error())
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrNoResumeLoaded):
			response.Error(c, http.StatusNotFound, response.CodeNoResume, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "chat failed")
		}
		return
	}
	response.OK(c, gin.H{"answer": answer})
}

// ClearHistory drops the visitor's conversation log so the next question
// starts from a clean context.
func (h *ResumeHandler) ClearHistory(c *gin.Context) {
	sessionID := c.GetString(middleware.ContextSessionIDKey)
	if err := h.resumeService.ClearHistory(c.Request.Context(), sessionID); err != nil {
		switch {
		case errors.Is(err, app.ErrSessionMissing):
			response.Error(c, http.StatusBadRequest, response.CodeSessionMissing, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "clear history failed")
		}
		return
	}
	response.OK(c, gin.H{"cleared": true})
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".md":
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
