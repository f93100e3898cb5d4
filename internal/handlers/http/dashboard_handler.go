package http

import (
	"net/http"
	"strconv"

	"forumclient/internal/core/domain"
	"forumclient/internal/core/ports"
	"forumclient/internal/infrastructure/middleware"
	apperrors "forumclient/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DashboardHandler serves the guarded dashboard views. Every route is mounted
// behind the route guard, so handlers only run for allowed callers.
type DashboardHandler struct {
	store      ports.SessionStore
	resolver   ports.ProfileResolver
	posts      ports.PostService
	moderation ports.ModerationService
	membership ports.MembershipService
	admin      ports.AdminService
	price      int64
	logger     *zap.SugaredLogger
}

func NewDashboardHandler(
	store ports.SessionStore,
	resolver ports.ProfileResolver,
	posts ports.PostService,
	moderation ports.ModerationService,
	membership ports.MembershipService,
	admin ports.AdminService,
	price int64,
	logger *zap.SugaredLogger,
) *DashboardHandler {
	return &DashboardHandler{
		store:      store,
		resolver:   resolver,
		posts:      posts,
		moderation: moderation,
		membership: membership,
		admin:      admin,
		price:      price,
		logger:     logger,
	}
}

func (h *DashboardHandler) SetupRoutes(group *gin.RouterGroup) {
	group.GET("", h.Profile)

	group.GET("/my-posts", h.MyPosts)
	group.DELETE("/my-posts/:id", h.DeletePost)

	group.GET("/add-post", h.AddPostForm)
	group.POST("/add-post", h.CreatePost)

	group.GET("/membership", h.Membership)
	group.POST("/membership/checkout", h.Checkout)
	group.POST("/membership/complete", h.CompleteUpgrade)

	group.POST("/comments", h.AddComment)
	group.POST("/comments/report", h.ReportComment)

	group.GET("/manage-users", h.ListUsers)
	group.PATCH("/manage-users/:id/make-admin", h.MakeAdmin)

	group.GET("/reports", h.ListReports)
	group.POST("/reports/:id/resolve", h.ResolveReport)
	group.POST("/reports/:id/dismiss", h.DismissReport)

	group.GET("/post-announcement", h.ListAnnouncements)
	group.POST("/post-announcement", h.PostAnnouncement)

	group.GET("/tags", h.ListTags)
	group.POST("/tags", h.AddTag)

	group.GET("/stats", h.Stats)
}

// currentUser prefers the profile the guard already resolved.
func (h *DashboardHandler) currentUser(c *gin.Context) (*domain.UserRecord, bool) {
	if user, ok := middleware.UserFromContext(c); ok {
		return user, true
	}
	identityID := h.store.Snapshot().IdentityID()
	if identityID == "" {
		fail(c, domain.ErrNotAuthenticated)
		return nil, false
	}
	user, err := h.resolver.Resolve(c.Request.Context(), identityID)
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return user, true
}

func pageFromQuery(c *gin.Context) domain.PageRequest {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return domain.PageRequest{Page: page, Limit: limit}
}

func (h *DashboardHandler) Profile(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	view := gin.H{
		"user":    user,
		"premium": user.IsPremium(),
	}
	if snap := h.store.Snapshot(); snap.Authenticated() {
		view["displayName"] = snap.Session.DisplayName
	}
	if user.IsAdmin() {
		stats, err := h.admin.SiteStats(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		view["stats"] = stats
	}
	c.JSON(http.StatusOK, view)
}

func (h *DashboardHandler) MyPosts(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	page, err := h.posts.ListByAuthor(c.Request.Context(), user.ID, pageFromQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *DashboardHandler) DeletePost(c *gin.Context) {
	if _, ok := h.currentUser(c); !ok {
		return
	}
	if err := h.posts.DeletePost(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DashboardHandler) AddPostForm(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	quota, err := h.posts.QuotaFor(c.Request.Context(), user)
	if err != nil {
		fail(c, err)
		return
	}
	tags, err := h.admin.ListTags(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quota": quota, "tags": tags})
}

type createPostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Tag     string `json:"tag"`
}

func (h *DashboardHandler) CreatePost(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request format")
		return
	}

	post, err := h.posts.CreatePost(c.Request.Context(), user, domain.PostDraft{
		Title:   req.Title,
		Content: req.Content,
		Tag:     req.Tag,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

func (h *DashboardHandler) Membership(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"premium": user.IsPremium(),
		"badges":  user.Badges,
		"price":   h.price,
	})
}

func (h *DashboardHandler) Checkout(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	intent, err := h.membership.BeginCheckout(c.Request.Context(), user)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, intent)
}

func (h *DashboardHandler) CompleteUpgrade(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	var result domain.PaymentResult
	if err := c.ShouldBindJSON(&result); err != nil {
		badRequest(c, "invalid request format")
		return
	}
	updated, err := h.membership.CompleteUpgrade(c.Request.Context(), user, result)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": updated})
}

type addCommentRequest struct {
	PostID  string `json:"postId"`
	Content string `json:"content"`
}

func (h *DashboardHandler) AddComment(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request format")
		return
	}
	comment, err := h.posts.AddComment(c.Request.Context(), user, req.PostID, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

type reportRequest struct {
	CommentID      string              `json:"commentId"`
	PostID         string              `json:"postId"`
	Reason         domain.ReportReason `json:"reason"`
	CommentContent string              `json:"commentContent"`
}

func (h *DashboardHandler) ReportComment(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request format")
		return
	}
	report, err := h.moderation.FileReport(c.Request.Context(), domain.ReportDraft{
		CommentID:        req.CommentID,
		PostID:           req.PostID,
		ReportedByUserID: user.IdentityID,
		Reason:           req.Reason,
		CommentContent:   req.CommentContent,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"report": report})
}

func (h *DashboardHandler) ListUsers(c *gin.Context) {
	page := pageFromQuery(c)
	users, err := h.admin.ListUsers(c.Request.Context(), domain.UserFilter{
		Page:   page.Page,
		Limit:  page.Limit,
		Search: c.Query("search"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *DashboardHandler) MakeAdmin(c *gin.Context) {
	user, err := h.admin.MakeAdmin(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *DashboardHandler) ListReports(c *gin.Context) {
	page := pageFromQuery(c)
	status := domain.ReportStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		badRequest(c, "unknown report status")
		return
	}
	reports, err := h.moderation.ListReports(c.Request.Context(), domain.ReportFilter{
		Status: status,
		Page:   page.Page,
		Limit:  page.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

type resolveRequest struct {
	CommentID string `json:"commentId"`
}

// ResolveReport surfaces a partial failure with both the resolved report and
// the inconsistency so the moderator can follow up on the comment.
func (h *DashboardHandler) ResolveReport(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request format")
		return
	}

	report, err := h.moderation.Resolve(c.Request.Context(), c.Param("id"), req.CommentID)
	if err != nil {
		if appErr := apperrors.GetAppError(err); report != nil && appErr != nil &&
			appErr.Code == apperrors.ErrCodeModerationInconsistent {
			c.JSON(appErr.HTTPStatus, gin.H{
				"error":   string(appErr.Code),
				"message": appErr.Message,
				"details": appErr.Context,
				"report":  report,
			})
			_ = c.Error(err)
			return
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (h *DashboardHandler) DismissReport(c *gin.Context) {
	report, err := h.moderation.Dismiss(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (h *DashboardHandler) ListAnnouncements(c *gin.Context) {
	items, err := h.admin.ListAnnouncements(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"announcements": items})
}

type announcementRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (h *DashboardHandler) PostAnnouncement(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req announcementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request format")
		return
	}
	a, err := h.admin.PostAnnouncement(c.Request.Context(), user, req.Title, req.Message)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"announcement": a})
}

func (h *DashboardHandler) ListTags(c *gin.Context) {
	tags, err := h.admin.ListTags(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

func (h *DashboardHandler) AddTag(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request format")
		return
	}
	tag, err := h.admin.AddTag(c.Request.Context(), req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tag": tag})
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.admin.SiteStats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
