package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/emotionwise-web/internal/search"
	"github.com/tbourn/emotionwise-web/internal/utils"
)

const maxSearchResults = 50

// SearchResponse lists the best-matching history messages.
type SearchResponse struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
}

// SessionHistory godoc
// @ID          sessionHistory
// @Summary     History of one session
// @Description Entries of a detection session grouped by session id, newest first. An empty history has empty=true and message "No history found".
// @Tags        History
// @Produce     json
// @Param       id   path      string  true  "Session ID"
// @Success     200  {object}  viewmodel.HistoryView
// @Failure     400  {object}  handlers.ErrorResponse  "Blank session id"
// @Failure     401  {object}  handlers.ErrorResponse  "Session expired"
// @Failure     502  {object}  handlers.ErrorResponse  "Upstream error"
// @Router      /history/sessions/{id} [get]
func (h *Handlers) SessionHistory(c *gin.Context) {
	v, err := h.history.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// UserHistory godoc
// @ID          userHistory
// @Summary     History of the signed-in user
// @Description All of the user's entries grouped by session. detailed=true includes per-label confidence.
// @Tags        History
// @Produce     json
// @Param       detailed  query     bool  false  "Include confidence scores"
// @Success     200       {object}  viewmodel.HistoryView
// @Failure     401       {object}  handlers.ErrorResponse  "Session expired"
// @Failure     502       {object}  handlers.ErrorResponse  "Upstream error"
// @Router      /history/user [get]
func (h *Handlers) UserHistory(c *gin.Context) {
	v, err := h.history.User(c.Request.Context(), queryBool(c, "detailed"))
	if err != nil {
		h.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// SearchHistory godoc
// @ID          searchHistory
// @Summary     Search loaded history
// @Description Ranks the messages of every entry detected or loaded in this profile by word overlap with q (case and accent insensitive). Load history first to search it; the upstream API is not called.
// @Tags        History
// @Produce     json
// @Param       q    query     string  true   "Search terms"
// @Param       k    query     int     false  "Maximum results"  minimum(1) maximum(50) default(5)
// @Success     200  {object}  handlers.SearchResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing query"
// @Router      /history/search [get]
func (h *Handlers) SearchHistory(c *gin.Context) {
	k := utils.AtoiDefault(c.Query("k"), search.DefaultK)
	if k < 1 {
		k = 1
	}
	if k > maxSearchResults {
		k = maxSearchResults
	}
	q := c.Query("q")
	res, err := h.history.Search(c.Request.Context(), q, k)
	if err != nil {
		h.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, SearchResponse{Query: q, Results: res})
}
