package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/vuphan179/ieltsprep/internal/dto"
	"github.com/vuphan179/ieltsprep/internal/service"
)

type WritingController struct {
	writingService service.WritingFeedbackService
}

func NewWritingController(ws service.WritingFeedbackService) *WritingController {
	return &WritingController{writingService: ws}
}

// GetWritingFeedback godoc
// @Summary Get AI feedback on a writing task essay
// @Description Sends the essay to the feedback model and persists the result with a band estimate.
// @Tags User - Writing
// @Accept json
// @Produce json
// @Param essay body dto.WritingFeedbackRequestDTO true "Task prompt and essay text"
// @Success 200 {object} dto.WritingFeedbackResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 401 {object} dto.ErrorResponse "Missing user identity"
// @Failure 503 {object} dto.ErrorResponse "Feedback model unavailable"
// @Router /writing/feedback [post]
func (c *WritingController) GetWritingFeedback(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req dto.WritingFeedbackRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	feedback, err := c.writingService.FeedbackForEssay(ctx.Request.Context(), userID, req)
	if err != nil {
		log.Error().Err(err).Uint("userID", userID).Msg("GetWritingFeedback: feedback generation failed")
		ctx.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Message: "Writing feedback is currently unavailable"})
		return
	}
	ctx.JSON(http.StatusOK, feedback)
}

// GetWritingHistory godoc
// @Summary List the user's past writing feedback requests
// @Tags User - Writing
// @Produce json
// @Success 200 {array} dto.WritingFeedbackResponseDTO
// @Failure 401 {object} dto.ErrorResponse "Missing user identity"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /writing/attempts [get]
func (c *WritingController) GetWritingHistory(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	attempts, err := c.writingService.GetUserWritingAttempts(ctx.Request.Context(), userID)
	if err != nil {
		writeServiceError(ctx, err, "Failed to retrieve writing history")
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}
