package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmacy-storefront/models"
	"pharmacy-storefront/services"
)

// ContentController serves health articles and medicine reminders.
type ContentController struct {
	contentService services.ContentService
}

func NewContentController(contentService services.ContentService) *ContentController {
	return &ContentController{contentService: contentService}
}

func (cc *ContentController) ListArticles(ctx *gin.Context) {
	articles, svcErr := cc.contentService.ListArticles(ctx.Request.Context())
	if svcErr != nil {
		fail(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, articles)
}

func (cc *ContentController) GetArticle(ctx *gin.Context) {
	id, ok := intParam(ctx, "id")
	if !ok {
		return
	}
	article, svcErr := cc.contentService.GetArticle(ctx.Request.Context(), int(id))
	if svcErr != nil {
		fail(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, article)
}

// ListReminders handles GET /api/reminders.
func (cc *ContentController) ListReminders(ctx *gin.Context) {
	id, ok := userID(ctx)
	if !ok {
		return
	}
	reminders, svcErr := cc.contentService.ListReminders(ctx.Request.Context(), id)
	if svcErr != nil {
		fail(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, reminders)
}

// AddReminder handles POST /api/reminders.
func (cc *ContentController) AddReminder(ctx *gin.Context) {
	id, ok := userID(ctx)
	if !ok {
		return
	}
	var reminder models.Reminder
	if err := ctx.ShouldBindJSON(&reminder); err != nil {
		badInput(ctx, err)
		return
	}
	created, svcErr := cc.contentService.AddReminder(ctx.Request.Context(), id, &reminder)
	if svcErr != nil {
		fail(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusCreated, created)
}
