package http

import (
	"net/http"

	"forumclient/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// PublicHandler serves the views that need no session.
type PublicHandler struct {
	posts ports.PostService
	admin ports.AdminService
}

func NewPublicHandler(posts ports.PostService, admin ports.AdminService) *PublicHandler {
	return &PublicHandler{posts: posts, admin: admin}
}

func (h *PublicHandler) SetupRoutes(router gin.IRoutes) {
	router.GET("/posts", h.SearchPosts)
	router.GET("/posts/:id", h.GetPost)
	router.GET("/announcements", h.ListAnnouncements)
	router.GET("/tags", h.ListTags)
}

func (h *PublicHandler) SearchPosts(c *gin.Context) {
	posts, err := h.posts.SearchPosts(c.Request.Context(), c.Query("search"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// GetPost returns the post together with its comments.
func (h *PublicHandler) GetPost(c *gin.Context) {
	ctx := c.Request.Context()
	post, err := h.posts.GetPost(ctx, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	comments, err := h.posts.ListComments(ctx, post.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"post":     post,
		"score":    post.Score(),
		"comments": comments,
	})
}

func (h *PublicHandler) ListAnnouncements(c *gin.Context) {
	items, err := h.admin.ListAnnouncements(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"announcements": items, "count": len(items)})
}

func (h *PublicHandler) ListTags(c *gin.Context) {
	tags, err := h.admin.ListTags(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}
