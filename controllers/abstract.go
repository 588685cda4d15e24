package controllers

import (
	"net/http"
	"strconv"

	"conference-management-api/services"
	"conference-management-api/utils"

	"github.com/gin-gonic/gin"
)

// SubmitAbstract creates an abstract and applies reviewer assignment in the
// same request.
func SubmitAbstract(c *gin.Context) {
	var input services.SubmitAbstractInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	userIDValue, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}
	input.UserID = userIDValue.(int)
	input.Title = utils.SanitizeInput(input.Title)

	abstract, err := getServices().abstracts.Submit(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"abstract": abstract,
	})
}

// GetAbstracts lists abstracts, optionally filtered by track, status or
// registration.
func GetAbstracts(c *gin.Context) {
	filter := services.AbstractFilter{
		Track:  c.Query("track"),
		Status: c.Query("status"),
	}
	if raw := c.Query("registration_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid registration_id"})
			return
		}
		filter.RegistrationID = id
	}

	abstracts, err := getServices().abstractStore.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"abstracts": abstracts,
		"total":     len(abstracts),
	})
}

// GetAbstract returns a single abstract with its assigned reviewers.
func GetAbstract(c *gin.Context) {
	abstractID, ok := abstractIDParam(c)
	if !ok {
		return
	}

	abstract, err := getServices().abstractStore.ByID(c.Request.Context(), abstractID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"abstract": abstract,
	})
}

type reviewerSetReq struct {
	ReviewerIDs []int `json:"reviewer_ids" binding:"required"`
}

// AddAbstractReviewers is the administrative bulk add. It does not trigger
// consensus evaluation.
func AddAbstractReviewers(c *gin.Context) {
	abstractID, ok := abstractIDParam(c)
	if !ok {
		return
	}

	var req reviewerSetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	added, err := getServices().abstracts.AddReviewers(c.Request.Context(), abstractID, req.ReviewerIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"updated_count": added,
	})
}

// RemoveAbstractReviewers is the administrative bulk remove.
func RemoveAbstractReviewers(c *gin.Context) {
	abstractID, ok := abstractIDParam(c)
	if !ok {
		return
	}

	var req reviewerSetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	removed, err := getServices().abstracts.RemoveReviewers(c.Request.Context(), abstractID, req.ReviewerIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"updated_count": removed,
	})
}

// AssignUnassignedAbstracts spreads all abstracts without reviewers over the
// active reviewer pool.
func AssignUnassignedAbstracts(c *gin.Context) {
	var req struct {
		ReviewersPerAbstract int `json:"reviewers_per_abstract"`
	}
	// Body is optional; an empty one keeps the default count.
	_ = c.ShouldBindJSON(&req)

	assigned, err := getServices().abstracts.AssignUnassigned(c.Request.Context(), req.ReviewersPerAbstract)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"assigned_count": assigned,
	})
}

// SetAbstractApprovedFor records the presentation category on an accepted
// abstract.
func SetAbstractApprovedFor(c *gin.Context) {
	abstractID, ok := abstractIDParam(c)
	if !ok {
		return
	}

	var req struct {
		ApprovedFor string `json:"approved_for" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := getServices().abstracts.SetApprovedFor(c.Request.Context(), abstractID, req.ApprovedFor); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetAssignmentRules lists the active assignment rules with their pools.
func GetAssignmentRules(c *gin.Context) {
	rules, err := getServices().ruleStore.Active(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"rules":   rules,
		"total":   len(rules),
	})
}

func abstractIDParam(c *gin.Context) (int, bool) {
	abstractID, err := strconv.Atoi(c.Param("id"))
	if err != nil || abstractID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid abstract ID"})
		return 0, false
	}
	return abstractID, true
}
