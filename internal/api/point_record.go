package api

import (
	"net/http" // HTTP status codes

	"rocketcoins/internal/domain"     // Importing domain models
	"rocketcoins/internal/timerecord" // Time record engine

	"github.com/gin-gonic/gin" // Gin web framework
)

// RecordPointRequest carries the clock-out description
type RecordPointRequest struct {
	Description string `json:"description"`
}

// RecordPointHandler clocks the caller in, or out when a record is open
func RecordPointHandler(records *timerecord.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := currentUserID(c)
		var req RecordPointRequest
		_ = c.ShouldBindJSON(&req) // Body is only needed to clock out
		record, err := records.RecordPoint(c.Request.Context(), userID, req.Description)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Point record saved", "data": record})
	}
}

// MyRecordsHandler lists the caller's records with summary counts
func MyRecordsHandler(records *timerecord.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := currentUserID(c)
		page, err := records.ListByUser(c.Request.Context(), userID, parsePage(c, domain.DefaultPageSize))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// WorkStatusHandler reports whether the caller is currently working
func WorkStatusHandler(records *timerecord.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := currentUserID(c)
		status, err := records.Status(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": status})
	}
}

// LastRecordHandler returns the caller's most recent record
func LastRecordHandler(records *timerecord.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := currentUserID(c)
		record, err := records.Last(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	}
}

// AllRecordsHandler lists every user's records
func AllRecordsHandler(records *timerecord.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := records.ListAll(c.Request.Context(), parsePage(c, domain.DefaultPageSize))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// GetRecordHandler returns one record
func GetRecordHandler(records *timerecord.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		record, err := records.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	}
}

// CloseRecordHandler force-closes an open record
func CloseRecordHandler(records *timerecord.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := uintParam(c, "id")
		if !ok {
			return
		}
		record, err := records.Close(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Point record closed", "data": record})
	}
}
