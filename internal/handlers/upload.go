package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/whisperecho/backend/internal/logger"
	"github.com/whisperecho/backend/internal/models"
	"github.com/whisperecho/backend/internal/util"
)

const (
	maxUploadSize  = 25 << 20 // 25MB per file
	maxUploadFiles = 4
)

// UploadSingle uploads one media file and returns its reference
func (h *Handlers) UploadSingle(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	if h.uploader == nil {
		util.RespondInternalError(c, "media uploads not configured")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		util.RespondBadRequest(c, "file field required")
		return
	}
	if fileHeader.Size > maxUploadSize {
		util.RespondValidationError(c, "file", "file too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.RespondInternalError(c, "failed to read upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		util.RespondInternalError(c, "failed to read upload")
		return
	}

	result, err := h.uploader.UploadMedia(c.Request.Context(), data, userID, fileHeader.Filename)
	if err != nil {
		logger.ErrorWithFields("Media upload failed", err)
		util.RespondInternalError(c, "upload failed")
		return
	}

	c.JSON(http.StatusCreated, models.MediaRef{
		URL:      result.URL,
		MimeType: result.MimeType,
		Size:     result.Size,
	})
}

// UploadMultiple uploads up to four media files and returns their references
func (h *Handlers) UploadMultiple(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	if h.uploader == nil {
		util.RespondInternalError(c, "media uploads not configured")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		util.RespondBadRequest(c, "multipart form required")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		util.RespondBadRequest(c, "files field required")
		return
	}
	if len(files) > maxUploadFiles {
		util.RespondValidationError(c, "files", "too many files")
		return
	}

	refs := make([]models.MediaRef, 0, len(files))
	for _, fileHeader := range files {
		if fileHeader.Size > maxUploadSize {
			util.RespondValidationError(c, "files", "file too large: "+fileHeader.Filename)
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			util.RespondInternalError(c, "failed to read upload")
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
		file.Close()
		if err != nil {
			util.RespondInternalError(c, "failed to read upload")
			return
		}

		result, err := h.uploader.UploadMedia(c.Request.Context(), data, userID, fileHeader.Filename)
		if err != nil {
			logger.ErrorWithFields("Media upload failed", err)
			util.RespondInternalError(c, "upload failed")
			return
		}

		refs = append(refs, models.MediaRef{
			URL:      result.URL,
			MimeType: result.MimeType,
			Size:     result.Size,
		})
	}

	c.JSON(http.StatusCreated, gin.H{"media": refs})
}
