package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/giveaway-market/internal/model"
	"github.com/iliyamo/giveaway-market/internal/repository"
	"github.com/iliyamo/giveaway-market/internal/utils"
)

// defaultUserPhoto is the placeholder avatar shown on forum posts until
// profile photos exist.
const defaultUserPhoto = "https://picsum.photos/100/100"

// PostHandler serves the community forum endpoints.
type PostHandler struct {
	Posts *repository.PostRepo
	Users *repository.UserRepo
}

func NewPostHandler(posts *repository.PostRepo, users *repository.UserRepo) *PostHandler {
	if posts == nil || users == nil {
		panic("nil repository passed to NewPostHandler")
	}
	return &PostHandler{Posts: posts, Users: users}
}

type createPostReq struct {
	Content  string `json:"content"`
	Category string `json:"category"`
	Image    string `json:"image"`
}

// List handles GET /api/posts.  Public, newest first.
func (h *PostHandler) List(c echo.Context) error {
	posts, err := h.Posts.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "error fetching posts"})
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return c.JSON(http.StatusOK, posts)
}

// Get handles GET /api/posts/:id.
func (h *PostHandler) Get(c echo.Context) error {
	p, err := h.Posts.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "post not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "error fetching post"})
	}
	return c.JSON(http.StatusOK, p)
}

// Create handles POST /api/posts.
func (h *PostHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createPostReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Content) == "" || strings.TrimSpace(req.Category) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content and category are required"})
	}

	ctx := c.Request().Context()
	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	p := &model.Post{
		ID:        utils.NewID(),
		Content:   strings.TrimSpace(req.Content),
		Category:  req.Category,
		Image:     req.Image,
		UserID:    u.ID,
		UserName:  u.DisplayName(),
		UserPhoto: defaultUserPhoto,
	}
	if err := h.Posts.Create(ctx, p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "error creating post"})
	}
	return c.JSON(http.StatusCreated, p)
}
