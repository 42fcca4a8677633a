package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/emotionwise-web/internal/domain"
	"github.com/tbourn/emotionwise-web/internal/viewmodel"
)

// DetectRequest is the detector form.
type DetectRequest struct {
	// Text to analyse (1-1000 characters after trimming)
	Message string `json:"message" form:"message" example:"I love this!"`
	// Continue an existing session; empty starts a new one
	SessionID string `json:"session_id,omitempty" form:"session_id" example:"3b0d3c1e-4a57-4f7e-9c55-2f6f7c7c5a10"`
}

// LabelInfo is one entry of the label catalogue.
type LabelInfo struct {
	Label   domain.EmotionLabel `json:"label" example:"love"`
	Display string              `json:"display" example:"Love"`
}

// labelsETag is constant for the lifetime of the binary.
var labelsETag = fmt.Sprintf(`W/"labels:%d"`, len(domain.AllLabels()))

// Detect godoc
// @ID          detect
// @Summary     Detect emotions in a message
// @Description Runs emotion detection and returns a render-ready view: labels with percentage confidence, sarcasm badge, recommendation and whether per-emotion voting is enabled.
// @Tags        Detection
// @Accept      json,x-www-form-urlencoded
// @Produce     json
// @Param       body  body      handlers.DetectRequest  true  "Message"
// @Success     200   {object}  viewmodel.DetectionView
// @Failure     400   {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     401   {object}  handlers.ErrorResponse  "Session expired"
// @Failure     502   {object}  handlers.ErrorResponse  "Upstream error"
// @Failure     503   {object}  handlers.ErrorResponse  "Upstream unreachable"
// @Router      /detect [post]
func (h *Handlers) Detect(c *gin.Context) {
	var req DetectRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	v, err := h.detect.Detect(c.Request.Context(), req.Message, req.SessionID)
	if err != nil {
		h.failErr(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}

// Labels godoc
// @ID          labels
// @Summary     Emotion label catalogue
// @Description The 28 labels the detector can return, in canonical order. Supports If-None-Match.
// @Tags        Detection
// @Produce     json
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {array}   handlers.LabelInfo
// @Header      200  {string}  ETag  "Weak ETag"
// @Success     304  {string}  string  "Not Modified"
// @Router      /labels [get]
func (h *Handlers) Labels(c *gin.Context) {
	c.Header("ETag", labelsETag)
	if c.GetHeader("If-None-Match") == labelsETag {
		c.Status(http.StatusNotModified)
		return
	}
	all := domain.AllLabels()
	out := make([]LabelInfo, 0, len(all))
	for _, l := range all {
		out = append(out, LabelInfo{Label: l, Display: viewmodel.DisplayLabel(l)})
	}
	ok(c, http.StatusOK, out)
}
