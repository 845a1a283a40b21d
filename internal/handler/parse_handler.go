package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"takeoff/internal/service"
)

// ParseHandler handles parse job endpoints.
type ParseHandler struct {
	parseService service.ParseService
}

// NewParseHandler creates a new ParseHandler.
func NewParseHandler(parseService service.ParseService) *ParseHandler {
	return &ParseHandler{parseService: parseService}
}

// ParseRequest is the body for parse submissions.
type ParseRequest struct {
	FileID   uuid.UUID `json:"file_id" binding:"required"`
	MaxPages int       `json:"max_pages"`
}

// Enqueue handles POST /api/v1/parse
// @Summary Queue a parse job
// @Description Queue an asynchronous parse of an uploaded document
// @Tags parse
// @Accept json
// @Produce json
// @Param request body ParseRequest true "Parse request"
// @Success 202 {object} APIResponse{data=domain.ParseJob} "Job queued"
// @Failure 400 {object} APIResponse "Invalid request"
// @Failure 404 {object} APIResponse "File not found"
// @Router /parse [post]
func (h *ParseHandler) Enqueue(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "file_id is required")
		return
	}

	job, err := h.parseService.Enqueue(c.Request.Context(), req.FileID, req.MaxPages)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, job)
}

// ParseSync handles POST /api/v1/parse/sync
// @Summary Parse a document synchronously
// @Description Run the full parsing pipeline inline and return the result
// @Tags parse
// @Accept json
// @Produce json
// @Param request body ParseRequest true "Parse request"
// @Success 200 {object} APIResponse{data=domain.ParseResult} "Parse result"
// @Failure 400 {object} APIResponse "Invalid request"
// @Failure 404 {object} APIResponse "File not found"
// @Failure 422 {object} APIResponse "Unreadable document"
// @Router /parse/sync [post]
func (h *ParseHandler) ParseSync(c *gin.Context) {
	var req ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "file_id is required")
		return
	}

	result, err := h.parseService.ParseSync(c.Request.Context(), req.FileID, req.MaxPages)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// GetJob handles GET /api/v1/parse/:id
// @Summary Get a parse job
// @Description Get a parse job's status and result by ID
// @Tags parse
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} APIResponse{data=domain.ParseJob} "Parse job"
// @Failure 404 {object} APIResponse "Job not found"
// @Router /parse/{id} [get]
func (h *ParseHandler) GetJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid job ID")
		return
	}

	job, err := h.parseService.GetJob(c.Request.Context(), jobID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, job)
}

// ListJobs handles GET /api/v1/files/:id/jobs
// @Summary List parse jobs for a file
// @Description List a file's parse jobs with pagination
// @Tags parse
// @Produce json
// @Param id path string true "File ID"
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} APIResponse{data=[]domain.ParseJob,meta=PagMeta} "List of jobs"
// @Router /files/{id}/jobs [get]
func (h *ParseHandler) ListJobs(c *gin.Context) {
	fileID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid file ID")
		return
	}
	offset, limit := parsePagination(c)

	jobs, total, err := h.parseService.ListJobs(c.Request.Context(), fileID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, jobs, PagMeta{Total: total, Offset: offset, Limit: limit})
}
