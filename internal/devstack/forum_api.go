package devstack

import (
	"net/http"
	"strconv"
	"strings"

	"forumclient/internal/core/domain"

	"github.com/gin-gonic/gin"
)

const callerKey = "devstack_caller"

func (d *DevStack) setupForumRoutes(router *gin.Engine) {
	router.POST("/users", d.registerUser)
	router.GET("/posts", d.searchPosts)
	router.GET("/post/:id", d.getPost)
	router.GET("/comments/:id", d.listComments)
	router.GET("/announcements", d.listAnnouncements)
	router.GET("/tags", d.listTags)

	secure := router.Group("/", d.bearer())
	{
		secure.GET("/users/:id", d.getUser)
		secure.PATCH("/users/:id/badges", d.grantBadge)
		secure.GET("/posts/user/:id", d.postsByAuthor)
		secure.POST("/posts", d.createPost)
		secure.DELETE("/posts/:id", d.deletePost)
		secure.POST("/comments", d.createComment)
		secure.DELETE("/comments/:id", d.deleteComment)
		secure.POST("/reports/comment", d.createReport)
		secure.POST("/create-payment-intent", d.createPaymentIntent)
	}

	admin := router.Group("/", d.bearer(), d.requireAdmin())
	{
		admin.GET("/users", d.listUsers)
		admin.PATCH("/users/:id/make-admin", d.makeAdmin)
		admin.GET("/reports", d.listReports)
		admin.GET("/reports/:id", d.getReport)
		admin.PATCH("/reports/:id/status", d.updateReportStatus)
		admin.POST("/announcements", d.createAnnouncement)
		admin.POST("/tags", d.createTag)
		admin.GET("/admin/stats", d.siteStats)
	}
}

// bearer accepts only access tokens issued by this stack.
func (d *DevStack) bearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authorization header required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid authorization header format"})
			return
		}

		claims, err := d.tokens.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": err.Error()})
			return
		}

		c.Set(callerKey, claims.Subject)
		c.Next()
	}
}

func (d *DevStack) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		d.state.mu.RLock()
		u := d.state.users[c.GetString(callerKey)]
		admin := u.IsAdmin()
		d.state.mu.RUnlock()

		if !admin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "admin access required"})
			return
		}
		c.Next()
	}
}

// caller returns the profile of the bearer, or nil before registration.
// The state lock must be held.
func (d *DevStack) caller(c *gin.Context) *domain.UserRecord {
	return d.state.users[c.GetString(callerKey)]
}

func queryInt(c *gin.Context, name string) int {
	n, _ := strconv.Atoi(c.Query(name))
	return n
}

func notFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, gin.H{"message": what + " not found"})
}

func (d *DevStack) registerUser(c *gin.Context) {
	var profile domain.NewUserProfile
	if err := c.ShouldBindJSON(&profile); err != nil || profile.IdentityID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "uid is required"})
		return
	}

	d.state.mu.Lock()
	defer d.state.mu.Unlock()

	if existing, ok := d.state.users[profile.IdentityID]; ok {
		c.JSON(http.StatusOK, cloneUser(existing))
		return
	}

	role := domain.RoleUser
	if d.cfg.AdminEmail != "" && strings.EqualFold(profile.Email, d.cfg.AdminEmail) {
		role = domain.RoleAdmin
	}
	rec := &domain.UserRecord{
		ID:         newID(),
		IdentityID: profile.IdentityID,
		Name:       profile.Name,
		Email:      profile.Email,
		Avatar:     profile.Avatar,
		Role:       role,
		Badges:     []domain.Badge{domain.BadgeBronze},
		JoinedAt:   d.state.now(),
	}
	d.state.users[rec.IdentityID] = rec
	d.logger.Infow("devstack profile registered", "identity_id", rec.IdentityID, "role", rec.Role)
	c.JSON(http.StatusCreated, cloneUser(rec))
}

func (d *DevStack) getUser(c *gin.Context) {
	d.state.mu.RLock()
	defer d.state.mu.RUnlock()

	u := d.state.userByID(c.Param("id"))
	if u == nil {
		notFound(c, "user")
		return
	}
	c.JSON(http.StatusOK, cloneUser(u))
}

func (d *DevStack) listUsers(c *gin.Context) {
	search := strings.ToLower(c.Query("search"))

	d.state.mu.RLock()
	var users []domain.UserRecord
	for _, u := range d.state.users {
		if search != "" && !strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		users = append(users, *cloneUser(u))
	}
	d.state.mu.RUnlock()

	sortUsers(users)
	page, pages := paginate(users, queryInt(c, "page"), queryInt(c, "limit"))
	c.JSON(http.StatusOK, gin.H{
		"users":      page,
		"totalUsers": len(users),
		"totalPages": pages,
	})
}

func (d *DevStack) makeAdmin(c *gin.Context) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()

	u := d.state.userByID(c.Param("id"))
	if u == nil {
		notFound(c, "user")
		return
	}
	u.Role = domain.RoleAdmin
	c.JSON(http.StatusOK, cloneUser(u))
}

func (d *DevStack) grantBadge(c *gin.Context) {
	var req struct {
		Badge domain.Badge `json:"badge"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Badge == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "badge is required"})
		return
	}

	d.state.mu.Lock()
	defer d.state.mu.Unlock()

	u := d.state.userByID(c.Param("id"))
	if u == nil {
		notFound(c, "user")
		return
	}
	if me := d.caller(c); me == nil || (me.IdentityID != u.IdentityID && !me.IsAdmin()) {
		c.JSON(http.StatusForbidden, gin.H{"message": "cannot change another user's badges"})
		return
	}
	if !u.HasBadge(req.Badge) {
		u.Badges = append(u.Badges, req.Badge)
	}
	c.JSON(http.StatusOK, cloneUser(u))
}

func (d *DevStack) searchPosts(c *gin.Context) {
	term := strings.ToLower(c.Query("searchTerm"))

	d.state.mu.RLock()
	posts := make([]domain.Post, 0, len(d.state.posts))
	for _, p := range d.state.posts {
		if term == "" || strings.Contains(strings.ToLower(p.Tag), term) ||
			strings.Contains(strings.ToLower(p.Title), term) {
			posts = append(posts, *p)
		}
	}
	d.state.mu.RUnlock()

	sortPosts(posts)
	c.JSON(http.StatusOK, posts)
}

func (d *DevStack) getPost(c *gin.Context) {
	d.state.mu.RLock()
	defer d.state.mu.RUnlock()

	p, ok := d.state.posts[c.Param("id")]
	if !ok {
		notFound(c, "post")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (d *DevStack) postsByAuthor(c *gin.Context) {
	d.state.mu.RLock()
	posts := d.state.postsByAuthor(c.Param("id"))
	d.state.mu.RUnlock()

	page, pages := paginate(posts, queryInt(c, "page"), queryInt(c, "limit"))
	c.JSON(http.StatusOK, gin.H{
		"posts": page,
		"pagination": gin.H{
			"totalPosts": len(posts),
			"totalPages": pages,
		},
	})
}

func (d *DevStack) createPost(c *gin.Context) {
	var draft domain.PostDraft
	if err := c.ShouldBindJSON(&draft); err != nil || draft.AuthorID == "" || draft.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "authorId and title are required"})
		return
	}

	d.state.mu.Lock()
	defer d.state.mu.Unlock()

	author := d.state.userByID(draft.AuthorID)
	if author == nil {
		notFound(c, "author")
		return
	}
	if !author.IsPremium() && len(d.state.postsByAuthor(author.ID)) >= d.cfg.FreePostLimit {
		c.JSON(http.StatusForbidden, gin.H{"message": "post limit reached for free members"})
		return
	}

	p := &domain.Post{
		ID:          newID(),
		AuthorID:    author.ID,
		AuthorName:  draft.AuthorName,
		AuthorImage: draft.AuthorImage,
		Title:       draft.Title,
		Content:     draft.Content,
		Tag:         draft.Tag,
		Upvotes:     []string{},
		Downvotes:   []string{},
		CreatedAt:   d.state.now(),
	}
	d.state.posts[p.ID] = p
	c.JSON(http.StatusCreated, p)
}

func (d *DevStack) deletePost(c *gin.Context) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()

	p, ok := d.state.posts[c.Param("id")]
	if !ok {
		notFound(c, "post")
		return
	}
	if me := d.caller(c); me == nil || (me.ID != p.AuthorID && !me.IsAdmin()) {
		c.JSON(http.StatusForbidden, gin.H{"message": "only the author can delete this post"})
		return
	}
	delete(d.state.posts, p.ID)
	for id, cm := range d.state.comments {
		if cm.PostID == p.ID {
			delete(d.state.comments, id)
		}
	}
	c.Status(http.StatusNoContent)
}

func (d *DevStack) listComments(c *gin.Context) {
	postID := c.Param("id")

	d.state.mu.RLock()
	comments := []domain.Comment{}
	for _, cm := range d.state.comments {
		if cm.PostID == postID {
			comments = append(comments, *cm)
		}
	}
	d.state.mu.RUnlock()

	sortComments(comments)
	c.JSON(http.StatusOK, comments)
}

func (d *DevStack) createComment(c *gin.Context) {
	var draft domain.CommentDraft
	if err := c.ShouldBindJSON(&draft); err != nil || draft.PostID == "" || draft.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "postId and content are required"})
		return
	}

	d.state.mu.Lock()
	defer d.state.mu.Unlock()

	if _, ok := d.state.posts[draft.PostID]; !ok {
		notFound(c, "post")
		return
	}
	cm := &domain.Comment{
		ID:          newID(),
		PostID:      draft.PostID,
		AuthorID:    draft.AuthorID,
		AuthorName:  draft.AuthorName,
		AuthorImage: draft.AuthorImage,
		Content:     draft.Content,
		CreatedAt:   d.state.now(),
	}
	d.state.comments[cm.ID] = cm
	c.JSON(http.StatusCreated, cm)
}

func (d *DevStack) deleteComment(c *gin.Context) {
	d.state.mu.Lock()
	defer d.state.mu.Unlock()

	cm, ok := d.state.comments[c.Param("id")]
	if !ok {
		notFound(c, "comment")
		return
	}
	if me := d.caller(c); me == nil || (me.ID != cm.AuthorID && !me.IsAdmin()) {
		c.JSON(http.StatusForbidden, gin.H{"message": "cannot delete this comment"})
		return
	}
	delete(d.state.comments, cm.ID)
	c.Status(http.StatusNoContent)
}

func (d *DevStack) createReport(c *gin.Context) {
	var draft domain.ReportDraft
	if err := c.ShouldBindJSON(&draft); err != nil || draft.CommentID == "" || !draft.Reason.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "commentId and a valid reason are required"})
		return
	}

	d.state.mu.Lock()
	defer d.state.mu.Unlock()

	if _, ok := d.state.comments[draft.CommentID]; !ok {
		notFound(c, "comment")
		return
	}
	r := &domain.Report{
		ID:               newID(),
		CommentID:        draft.CommentID,
		PostID:           draft.PostID,
		ReportedByUserID: draft.ReportedByUserID,
		Reason:           draft.Reason,
		CommentContent:   draft.CommentContent,
		Status:           domain.ReportPending,
		CreatedAt:        d.state.now(),
	}
	d.state.reports[r.ID] = r
	c.JSON(http.StatusCreated, r)
}

func (d *DevStack) listReports(c *gin.Context) {
	status := domain.ReportStatus(c.Query("status"))

	d.state.mu.RLock()
	reports := []domain.Report{}
	for _, r := range d.state.reports {
		if status == "" || r.Status == status {
			reports = append(reports, *r)
		}
	}
	d.state.mu.RUnlock()

	sortReports(reports)
	page, pages := paginate(reports, queryInt(c, "page"), queryInt(c, "limit"))
	c.JSON(http.StatusOK, gin.H{
		"reports":      page,
		"totalReports": len(reports),
		"totalPages":   pages,
	})
}

func (d *DevStack) getReport(c *gin.Context) {
	d.state.mu.RLock()
	defer d.state.mu.RUnlock()

	r, ok := d.state.reports[c.Param("id")]
	if !ok {
		notFound(c, "report")
		return
	}
	c.JSON(http.StatusOK, r)
}

// updateReportStatus only moves pending reports to a terminal status.
func (d *DevStack) updateReportStatus(c *gin.Context) {
	var req struct {
		Status domain.ReportStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || !req.Status.IsTerminal() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "status must be resolved or dismissed"})
		return
	}

	d.state.mu.Lock()
	defer d.state.mu.Unlock()

	r, ok := d.state.reports[c.Param("id")]
	if !ok {
		notFound(c, "report")
		return
	}
	if r.Status != domain.ReportPending {
		c.JSON(http.StatusConflict, gin.H{"message": "report already " + string(r.Status)})
		return
	}
	r.Status = req.Status
	c.JSON(http.StatusOK, r)
}

func (d *DevStack) listAnnouncements(c *gin.Context) {
	d.state.mu.RLock()
	out := append([]domain.Announcement{}, d.state.announcements...)
	d.state.mu.RUnlock()
	c.JSON(http.StatusOK, out)
}

func (d *DevStack) createAnnouncement(c *gin.Context) {
	var a domain.Announcement
	if err := c.ShouldBindJSON(&a); err != nil || a.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "title is required"})
		return
	}

	d.state.mu.Lock()
	defer d.state.mu.Unlock()

	a.ID = newID()
	a.CreatedAt = d.state.now()
	// Newest first.
	d.state.announcements = append([]domain.Announcement{a}, d.state.announcements...)
	c.JSON(http.StatusCreated, a)
}

func (d *DevStack) listTags(c *gin.Context) {
	d.state.mu.RLock()
	out := append([]domain.Tag{}, d.state.tags...)
	d.state.mu.RUnlock()
	c.JSON(http.StatusOK, out)
}

func (d *DevStack) createTag(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name is required"})
		return
	}
	name := strings.ToLower(strings.TrimSpace(req.Name))

	d.state.mu.Lock()
	defer d.state.mu.Unlock()

	for _, t := range d.state.tags {
		if t.Name == name {
			c.JSON(http.StatusConflict, gin.H{"message": "tag already exists"})
			return
		}
	}
	t := domain.Tag{ID: newID(), Name: name}
	d.state.tags = append(d.state.tags, t)
	c.JSON(http.StatusCreated, t)
}

func (d *DevStack) siteStats(c *gin.Context) {
	d.state.mu.RLock()
	stats := domain.SiteStats{
		TotalPosts:    len(d.state.posts),
		TotalComments: len(d.state.comments),
		TotalUsers:    len(d.state.users),
	}
	d.state.mu.RUnlock()
	c.JSON(http.StatusOK, stats)
}

func (d *DevStack) createPaymentIntent(c *gin.Context) {
	var req struct {
		Price int64 `json:"price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "price must be positive"})
		return
	}
	c.JSON(http.StatusOK, domain.PaymentIntent{
		ClientSecret: "pi_" + newID() + "_secret_" + newID()[:8],
		Price:        req.Price,
	})
}
