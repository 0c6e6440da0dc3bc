package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/gma-backend/internal/platform/logger"
	"github.com/yungbote/gma-backend/internal/services"
)

// StaticHandler serves stored videos by key under /uploads. When public is
// false the caller must own the row behind the key.
type StaticHandler struct {
	log     *logger.Logger
	uploads services.UploadService
	public  bool
}

func NewStaticHandler(log *logger.Logger, uploads services.UploadService, public bool) *StaticHandler {
	return &StaticHandler{log: log.With("handler", "StaticHandler"), uploads: uploads, public: public}
}

func (h *StaticHandler) Public() bool { return h.public }

// GET /uploads/:filename
func (h *StaticHandler) Serve(c *gin.Context) {
	name := c.Param("filename")
	var (
		dl  *services.Download
		err error
	)
	if h.public {
		dl, err = h.uploads.OpenPublic(dbcFrom(c), name)
	} else {
		doctorID, ok := requireDoctorID(c)
		if !ok {
			return
		}
		dl, err = h.uploads.FetchStatic(dbcFrom(c), doctorID, name)
	}
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	defer dl.Body.Close()

	c.Header("Content-Type", videoContentType(dl.Name))
	// Local files seek, which lets players issue range requests.
	if rs, ok := dl.Body.(io.ReadSeeker); ok {
		http.ServeContent(c.Writer, c.Request, dl.Name, time.Time{}, rs)
		return
	}
	c.DataFromReader(http.StatusOK, dl.Size, videoContentType(dl.Name), dl.Body, nil)
}
