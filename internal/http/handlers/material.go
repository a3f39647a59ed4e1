package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/openlearn-backend/internal/http/response"
	"github.com/yungbote/openlearn-backend/internal/platform/logger"
	"github.com/yungbote/openlearn-backend/internal/services"
)

type MaterialHandler struct {
	log       *logger.Logger
	materials services.MaterialService
}

func NewMaterialHandler(log *logger.Logger, materials services.MaterialService) *MaterialHandler {
	return &MaterialHandler{log: log.With("handler", "MaterialHandler"), materials: materials}
}

// POST /materials/upload (multipart field "file")
func (h *MaterialHandler) Upload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, errors.New("file required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.log.Error("cannot open uploaded file", "error", err.Error())
		response.RespondAPIError(c, err)
		return
	}
	defer f.Close()

	material, err := h.materials.Upload(c.Request.Context(), userID, services.UploadedFileInfo{
		OriginalName: fh.Filename,
		MimeType:     fh.Header.Get("Content-Type"),
		SizeBytes:    fh.Size,
		Reader:       f,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"material_id": material.ID, "status": material.Status})
}

// GET /materials
func (h *MaterialHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	out, err := h.materials.List(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, out)
}
