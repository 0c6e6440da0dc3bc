package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/gma-backend/internal/domain"
	"github.com/yungbote/gma-backend/internal/http/response"
	"github.com/yungbote/gma-backend/internal/platform/logger"
	"github.com/yungbote/gma-backend/internal/services"
)

const uploadField = "files"

type UploadHandler struct {
	log     *logger.Logger
	uploads services.UploadService
}

func NewUploadHandler(log *logger.Logger, uploads services.UploadService) *UploadHandler {
	return &UploadHandler{log: log.With("handler", "UploadHandler"), uploads: uploads}
}

// GET /api/uploads/ and GET /api/uploads/history
func (h *UploadHandler) List(c *gin.Context) {
	doctorID, ok := requireDoctorID(c)
	if !ok {
		return
	}
	rows, err := h.uploads.List(dbcFrom(c), doctorID)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	if rows == nil {
		rows = []*types.VideoUpload{}
	}
	response.RespondOK(c, rows)
}

// POST /api/uploads/
//
// Parts are consumed straight off the request body, one file at a time, so
// a large video never sits in memory or in a multipart temp file.
func (h *UploadHandler) Upload(c *gin.Context) {
	doctorID, ok := requireDoctorID(c)
	if !ok {
		return
	}
	mr, err := c.Request.MultipartReader()
	if err != nil {
		badRequest(c, fmt.Errorf("expected multipart form: %w", err))
		return
	}

	dbc := dbcFrom(c)
	created := make([]*types.VideoUpload, 0, 1)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			badRequest(c, fmt.Errorf("read multipart: %w", err))
			return
		}
		if part.FormName() != uploadField || part.FileName() == "" {
			_ = part.Close()
			continue
		}
		rows, err := h.uploads.Store(dbc, doctorID, []services.UploadFile{{
			OriginalName: part.FileName(),
			Content:      part,
		}})
		_ = part.Close()
		if err != nil {
			if len(created) > 0 {
				h.log.Warn("Upload batch stopped early", "doctor_id", doctorID, "stored", len(created))
			}
			respondServiceError(c, h.log, err)
			return
		}
		created = append(created, rows...)
	}
	if len(created) == 0 {
		badRequest(c, errors.New("no files provided"))
		return
	}
	response.RespondOK(c, created)
}

// DELETE /api/uploads/:id
func (h *UploadHandler) Delete(c *gin.Context) {
	doctorID, ok := requireDoctorID(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.uploads.Delete(dbcFrom(c), doctorID, id); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Video deleted successfully"})
}

type renameRequest struct {
	Filename *string `json:"filename"`
}

// PUT /api/uploads/:id
func (h *UploadHandler) Rename(c *gin.Context) {
	doctorID, ok := requireDoctorID(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Filename == nil {
		badRequest(c, errors.New("filename is required"))
		return
	}
	row, err := h.uploads.Rename(dbcFrom(c), doctorID, id, *req.Filename)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	response.RespondOK(c, row)
}

// GET /api/uploads/:id/download
func (h *UploadHandler) Download(c *gin.Context) {
	doctorID, ok := requireDoctorID(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	dl, err := h.uploads.FetchForDownload(dbcFrom(c), doctorID, id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	defer dl.Body.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": dl.Name})
	if disposition == "" {
		disposition = "attachment"
	}
	c.DataFromReader(http.StatusOK, dl.Size, videoContentType(dl.Name), dl.Body, map[string]string{
		"Content-Disposition": disposition,
	})
}

func videoContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	}
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
