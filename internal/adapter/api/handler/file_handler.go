package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"messageapp/pkg/response"
)

// FileHandler uploads standalone images (avatars) and returns the URL the
// client then writes into its profile.
type FileHandler struct {
	uploader       ImageUploader
	maxUploadBytes int64
}

var fileHandler *FileHandler

func NewFileHandler(uploader ImageUploader, maxUploadBytes int64) *FileHandler {
	return &FileHandler{
		uploader:       uploader,
		maxUploadBytes: maxUploadBytes,
	}
}

func SetupFileHandler(uploader ImageUploader, maxUploadBytes int64) {
	fileHandler = NewFileHandler(uploader, maxUploadBytes)
}

func GetFileHandler() *FileHandler {
	return fileHandler
}

func (h *FileHandler) UploadFile(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "File is required")
	}
	if fileHeader.Size > h.maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File exceeds the upload size limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read file")
	}
	defer file.Close()

	folder := c.FormValue("folder")
	if folder == "" {
		folder = "uploads"
	}

	url, err := h.uploader.UploadImage(c.Request().Context(), file, fileHeader.Header.Get("Content-Type"), folder)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, map[string]string{"url": url})
}
