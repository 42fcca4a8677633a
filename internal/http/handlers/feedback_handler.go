package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/emotionwise-web/internal/domain"
	"github.com/tbourn/emotionwise-web/internal/http/middleware"
	"github.com/tbourn/emotionwise-web/internal/utils"
	"github.com/tbourn/emotionwise-web/internal/validation"
)

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

// ListFeedbackResponse wraps a page of feedback records.
type ListFeedbackResponse struct {
	Feedback   []domain.FeedbackRecord `json:"feedback"`
	Pagination Pagination              `json:"pagination"`
}

// SubmitFeedback godoc
// @ID          submitFeedback
// @Summary     Submit feedback on a detection
// @Description Validates labels locally (unknown labels rejected, suggestions de-duplicated), guesses the language when not given, and forwards the feedback. With an Idempotency-Key a retried submission replays the first receipt instead of creating a duplicate.
// @Tags        Feedback
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header    string  false  "Client-generated key for safe retries"  example(fb-7f9c2a)
// @Param       body             body      validation.FeedbackInput  true  "Feedback"
// @Success     201              {object}  domain.FeedbackReceipt
// @Success     200              {object}  domain.FeedbackReceipt  "Replayed"
// @Header      200              {string}  Idempotency-Replayed  "true when served from a previous submission"
// @Failure     400              {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     409              {object}  handlers.ErrorResponse  "Same Idempotency-Key still in progress"
// @Failure     429              {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     502              {object}  handlers.ErrorResponse  "Upstream error"
// @Router      /feedback [post]
func (h *Handlers) SubmitFeedback(c *gin.Context) {
	var in validation.FeedbackInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	res, err := h.feedback.Submit(c.Request.Context(), key, in)
	if err != nil {
		h.failErr(c, err)
		return
	}
	if res.Replayed {
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
		ok(c, http.StatusOK, res.Receipt)
		return
	}
	ok(c, http.StatusCreated, res.Receipt)
}

// ListFeedback godoc
// @ID          listFeedback
// @Summary     List submitted feedback
// @Description Returns feedback records newest first. limit caps how many records are fetched; page and page_size paginate the result. Supports weak ETag via If-None-Match.
// @Tags        Feedback
// @Produce     json
// @Param       limit          query   int     false  "Maximum records to fetch (0 = all)"  minimum(0)
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {object}  handlers.ListFeedbackResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Session expired"
// @Failure     502  {object}  handlers.ErrorResponse  "Upstream error"
// @Router      /feedback [get]
func (h *Handlers) ListFeedback(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 0)
	if limit < 0 {
		limit = 0
	}

	items, err := h.feedback.List(c.Request.Context(), limit)
	if err != nil {
		h.failErr(c, err)
		return
	}
	win := pageWindow(c, len(items))

	etag := feedbackETag(items, win.Page, win.Size)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}

	ok(c, http.StatusOK, ListFeedbackResponse{
		Feedback: items[win.Start:win.End],
		Pagination: Pagination{
			Page:       win.Page,
			PageSize:   win.Size,
			Total:      win.Total,
			TotalPages: win.TotalPages,
			HasNext:    win.HasNext,
		},
	})
}

// feedbackETag changes whenever a record is added or removed.
func feedbackETag(items []domain.FeedbackRecord, page, pageSize int) string {
	var maxID int64
	for _, it := range items {
		if it.ID > maxID {
			maxID = it.ID
		}
	}
	return fmt.Sprintf(`W/"feedback:%d:%d:%d:%d"`, len(items), maxID, page, pageSize)
}
