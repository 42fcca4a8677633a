package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/emotionwise-web/internal/domain"
	"github.com/tbourn/emotionwise-web/internal/services"
	"github.com/tbourn/emotionwise-web/internal/viewmodel"
)

// CastVoteRequest is a thumbs-up/down on one detected emotion.
type CastVoteRequest struct {
	EntryKey string `json:"entry_key" binding:"required" example:"s1@1717232400000000000"`
	Label    string `json:"label" binding:"required" example:"love"`
	// true = the label was accurate
	Vote    *bool  `json:"vote" binding:"required" example:"true"`
	Comment string `json:"comment,omitempty" example:"spot on"`
}

// VotesResponse is the vote state of every detected emotion of an entry.
type VotesResponse struct {
	EntryKey string           `json:"entry_key"`
	Votes    []viewmodel.Vote `json:"votes"`
}

// CastVote godoc
// @ID          castVote
// @Summary     Vote on a detected emotion
// @Description Sends an accuracy vote for (entry, label). A pair accepts one vote; a failed vote may be retried. Concurrent votes on the same pair are rejected while one is in flight.
// @Tags        Votes
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.CastVoteRequest  true  "Vote"
// @Success     200   {object}  handlers.VotesResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid label or comment"
// @Failure     404   {object}  handlers.ErrorResponse  "Unknown entry"
// @Failure     409   {object}  handlers.ErrorResponse  "Voting unavailable, in progress or already recorded"
// @Failure     502   {object}  handlers.ErrorResponse  "Upstream rejected the vote"
// @Router      /votes [post]
func (h *Handlers) CastVote(c *gin.Context) {
	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "entry_key, label and vote are required")
		return
	}
	votes, err := h.votes.Cast(c.Request.Context(), services.CastInput{
		EntryKey: req.EntryKey,
		Label:    req.Label,
		Vote:     *req.Vote,
		Comment:  req.Comment,
	})
	if err != nil {
		h.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, VotesResponse{EntryKey: req.EntryKey, Votes: votes})
}

// EntryVotes godoc
// @ID          entryVotes
// @Summary     Vote states of an entry
// @Tags        Votes
// @Produce     json
// @Param       entry  path      string  true  "Entry key"
// @Success     200    {object}  handlers.VotesResponse
// @Failure     404    {object}  handlers.ErrorResponse  "Unknown entry"
// @Router      /votes/{entry} [get]
func (h *Handlers) EntryVotes(c *gin.Context) {
	key := c.Param("entry")
	votes, err := h.votes.Snapshot(c.Request.Context(), key)
	if err != nil {
		h.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, VotesResponse{EntryKey: key, Votes: votes})
}

// VoteStats godoc
// @ID          voteStats
// @Summary     Vote summary
// @Description Counts of stored vote outcomes: accepted votes split into accurate and inaccurate, plus failed ones. Supports weak ETag via If-None-Match.
// @Tags        Votes
// @Produce     json
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {object}  domain.VoteStats
// @Header      200  {string}  ETag  "Weak ETag for current summary"
// @Success     304  {string}  string  "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /votes/stats [get]
func (h *Handlers) VoteStats(c *gin.Context) {
	st, err := h.votes.Stats(c.Request.Context())
	if err != nil {
		h.failErr(c, err)
		return
	}
	etag := voteStatsETag(st)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}
	ok(c, http.StatusOK, st)
}

// voteStatsETag changes whenever an outcome is added or updated.
func voteStatsETag(st domain.VoteStats) string {
	var last int64
	if st.LastVoteAt != nil {
		last = st.LastVoteAt.UnixNano()
	}
	return fmt.Sprintf(`W/"votes:%d:%d:%d"`, st.Total, st.Accepted, last)
}
