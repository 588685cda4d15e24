package controllers

import (
	"net/http"

	"conference-management-api/services"

	"github.com/gin-gonic/gin"
)

// SubmitReview records the calling reviewer's verdict on an abstract. A
// completed quorum flips the abstract to accepted/rejected in the same
// request.
func SubmitReview(c *gin.Context) {
	abstractID, ok := abstractIDParam(c)
	if !ok {
		return
	}

	userIDValue, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}
	reviewerID := userIDValue.(int)

	var input services.ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	review, err := getServices().reviews.SubmitReview(c.Request.Context(), abstractID, reviewerID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	abstract, err := getServices().abstractStore.ByID(c.Request.Context(), abstractID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":         true,
		"review":          review,
		"abstract_status": abstract.Status,
	})
}

// GetAbstractReviews lists all reviews recorded for an abstract.
func GetAbstractReviews(c *gin.Context) {
	abstractID, ok := abstractIDParam(c)
	if !ok {
		return
	}

	if _, err := getServices().abstractStore.ByID(c.Request.Context(), abstractID); err != nil {
		respondServiceError(c, err)
		return
	}

	reviews, err := getServices().reviewStore.ByAbstract(c.Request.Context(), abstractID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"reviews": reviews,
		"total":   len(reviews),
	})
}
