package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/treebbs/middleware"
	"github.com/cppla/treebbs/services"
	"github.com/cppla/treebbs/utils"
)

// PostController exposes the content tree: posts and their comments share one endpoint set.
type PostController struct {
	content *services.ContentService
}

// NewPostController creates a new PostController instance.
func NewPostController(content *services.ContentService) *PostController {
	return &PostController{content: content}
}

// ListPosts returns all top-level posts with authors and direct comments.
func (p *PostController) ListPosts(ctx *gin.Context) {
	views, err := p.content.ListTopLevel(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": views})
}

// CreatePost publishes a new post for the session's user.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	// Binding errors fall through to the service, which reports the missing fields
	// after the session check.
	_ = ctx.ShouldBindJSON(&req)

	post, err := p.content.CreatePost(ctx.Request.Context(), middleware.SessionToken(ctx), req.Title, req.Body)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Created(ctx, gin.H{"post": post.ID})
}

// GetPost returns one post or comment with its direct comments.
func (p *PostController) GetPost(ctx *gin.Context) {
	view, err := p.content.GetWithComments(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post": view})
}

// UpdatePost replaces the body of a post or comment owned by the session's user.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req struct {
		Body string `json:"body"`
	}
	_ = ctx.ShouldBindJSON(&req)

	node, err := p.content.UpdateBody(ctx.Request.Context(), middleware.SessionToken(ctx), ctx.Param("id"), req.Body)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post": node})
}

// DeletePost removes a post or comment owned by the session's user.
func (p *PostController) DeletePost(ctx *gin.Context) {
	node, err := p.content.Delete(ctx.Request.Context(), middleware.SessionToken(ctx), ctx.Param("id"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"post": node})
}

// CreateComment attaches a comment to the post or comment in the path.
func (p *PostController) CreateComment(ctx *gin.Context) {
	var req struct {
		Body string `json:"body"`
	}
	_ = ctx.ShouldBindJSON(&req)

	comment, err := p.content.CreateComment(ctx.Request.Context(), middleware.SessionToken(ctx), ctx.Param("id"), req.Body)
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Created(ctx, gin.H{"comment": comment.ID})
}
