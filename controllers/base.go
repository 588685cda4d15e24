package controllers

import (
	"errors"
	"net/http"
	"os"
	"sync"

	"conference-management-api/config"
	"conference-management-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func getDB() *gorm.DB { return config.DB }

// serviceBundle wires the review-core services over the shared DB and Redis
// connections. Built once, after config.InitDB has run.
type serviceBundle struct {
	abstracts      *services.AbstractService
	reviews        *services.ReviewService
	notifications  *services.NotificationService
	reviewerConfig *services.ReviewerConfigService

	abstractStore services.AbstractStore
	reviewStore   services.ReviewStore
	ruleStore     services.RuleStore
	pendingStore  services.PendingEmailStore
}

var (
	bundleOnce sync.Once
	bundle     *serviceBundle
)

func getServices() *serviceBundle {
	bundleOnce.Do(func() {
		db := getDB()
		abstractStore := services.NewGormAbstractStore(db)
		reviewStore := services.NewGormReviewStore(db)
		ruleStore := services.NewGormRuleStore(db)
		directory := services.NewGormUserDirectory(db)
		configStore := services.NewGormConfigStore(db)
		pendingStore := services.NewGormPendingEmailStore(db)

		var cursors services.CursorStore
		if config.Redis != nil {
			cursors = services.NewRedisCursorStore(config.Redis)
		} else {
			cursors = services.NewMemoryCursorStore()
		}

		configSvc := services.NewReviewerConfigService(configStore)
		notifications := services.NewNotificationService(pendingStore, configSvc, directory, os.Getenv("DASHBOARD_URL"))
		consensus := services.NewConsensusService(abstractStore, reviewStore, configSvc, notifications)
		selector := services.NewSelectorService(abstractStore, cursors)
		resolver := services.NewRuleResolver(ruleStore)

		bundle = &serviceBundle{
			abstracts:      services.NewAbstractService(abstractStore, resolver, selector, directory),
			reviews:        services.NewReviewService(abstractStore, reviewStore, configSvc, consensus),
			notifications:  notifications,
			reviewerConfig: configSvc,
			abstractStore:  abstractStore,
			reviewStore:    reviewStore,
			ruleStore:      ruleStore,
			pendingStore:   pendingStore,
		}
	})
	return bundle
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotAssigned):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrDuplicateReview), errors.Is(err, services.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
