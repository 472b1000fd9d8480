package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"messageapp/internal/usecase"
	"messageapp/pkg/response"
)

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, file io.Reader, contentType, folder string) (string, error)
}

type FeedHandler struct {
	feed           *usecase.FeedAggregator
	uploader       ImageUploader
	maxUploadBytes int64
}

func NewFeedHandler(feed *usecase.FeedAggregator, uploader ImageUploader, maxUploadBytes int64) *FeedHandler {
	return &FeedHandler{
		feed:           feed,
		uploader:       uploader,
		maxUploadBytes: maxUploadBytes,
	}
}

type submitCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

func (h *FeedHandler) ListPosts(c echo.Context) error {
	posts, err := h.feed.ListPosts(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, posts)
}

// CreatePost accepts a multipart form with an image part and a caption
// field, uploads the image, then publishes the post.
func (h *FeedHandler) CreatePost(c echo.Context) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Image file is required")
	}
	if fileHeader.Size > h.maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "Image exceeds the upload size limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read image file")
	}
	defer file.Close()

	userID := c.Get("uid").(string)
	ctx := c.Request().Context()

	imageURL, err := h.uploader.UploadImage(ctx, file, fileHeader.Header.Get("Content-Type"), "posts")
	if err != nil {
		return response.Error(c, err)
	}

	post, err := h.feed.CreatePost(ctx, userID, c.FormValue("caption"), imageURL)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, post)
}

func (h *FeedHandler) ToggleLike(c echo.Context) error {
	userID := c.Get("uid").(string)

	post, err := h.feed.ToggleLike(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, post)
}

func (h *FeedHandler) ListComments(c echo.Context) error {
	comments, err := h.feed.ListComments(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, comments)
}

func (h *FeedHandler) SubmitComment(c echo.Context) error {
	var req submitCommentRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	comment, err := h.feed.SubmitComment(c.Request().Context(), c.Param("id"), userID, req.Text)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, comment)
}

func (h *FeedHandler) DeleteComment(c echo.Context) error {
	userID := c.Get("uid").(string)

	if err := h.feed.DeleteComment(c.Request().Context(), c.Param("id"), userID, c.Param("commentId")); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "deleted"})
}
