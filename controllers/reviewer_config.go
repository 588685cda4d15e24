package controllers

import (
	"net/http"

	"conference-management-api/models"

	"github.com/gin-gonic/gin"
)

// GetReviewerConfig returns the merged review configuration.
func GetReviewerConfig(c *gin.Context) {
	cfg, err := getServices().reviewerConfig.Get(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"config":  cfg,
	})
}

// UpdateReviewerConfig saves the configuration and invalidates the cache so
// the next assignment/decision sees the new values.
func UpdateReviewerConfig(c *gin.Context) {
	var cfg models.ReviewerConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	merged, err := getServices().reviewerConfig.Update(c.Request.Context(), &cfg)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"config":  merged,
	})
}

// GetPendingEmails lists the queued decision notifications.
func GetPendingEmails(c *gin.Context) {
	entries, err := getServices().pendingStore.Snapshot(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"pending_emails": entries,
		"total":          len(entries),
	})
}

// FlushPendingEmails sends every queued notification and clears exactly the
// entries that were present when the flush began.
func FlushPendingEmails(c *gin.Context) {
	result, err := getServices().notifications.FlushPendingEmails(c.Request.Context(), getServices().abstractStore)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"sent_count":   result.SentCount,
		"failed_count": result.FailedCount,
		"errors":       result.Errors,
	})
}
