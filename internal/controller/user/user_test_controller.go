package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/vuphan179/ieltsprep/internal/dto"
	"github.com/vuphan179/ieltsprep/internal/service"
)

type UserTestController struct {
	testService       service.TestService
	submissionService service.SubmissionService
}

func NewUserTestController(ts service.TestService, ss service.SubmissionService) *UserTestController {
	return &UserTestController{testService: ts, submissionService: ss}
}

// currentUserID reads the authenticated user from the X-User-ID header. The
// gateway in front of this service sets it; a missing or malformed header
// means the request never passed authentication.
func currentUserID(ctx *gin.Context) (uint, bool) {
	raw := ctx.GetHeader("X-User-ID")
	if raw == "" {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "X-User-ID header is required"})
		return 0, false
	}
	val, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || val == 0 {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "Invalid X-User-ID header"})
		return 0, false
	}
	return uint(val), true
}

// writeServiceError maps service errors to HTTP statuses: missing or foreign
// resources are 404, inconsistent input or state is 400, storage trouble 500.
func writeServiceError(ctx *gin.Context, err error, msg string) {
	if _, ok := err.(interface{ NotFound() }); ok {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	var integrity *service.DataIntegrityError
	if errors.As(err, &integrity) {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: integrity.Message})
		return
	}
	log.Error().Err(err).Msg(msg)
	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: msg})
}

func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	val, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(val), true
}

// GetAllTests godoc
// @Summary List all available listening tests
// @Description Get test summaries with question counts, newest first.
// @Tags User - Tests
// @Produce json
// @Success 200 {array} dto.TestSummaryDTO
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /tests [get]
func (c *UserTestController) GetAllTests(ctx *gin.Context) {
	tests, err := c.testService.GetAllTests(ctx.Request.Context())
	if err != nil {
		writeServiceError(ctx, err, "Failed to retrieve tests")
		return
	}
	ctx.JSON(http.StatusOK, tests)
}

// GetTestDetails godoc
// @Summary Get a test with its questions
// @Description Full test details for taking an attempt. Answer keys are never included.
// @Tags User - Tests
// @Produce json
// @Param test_id path int true "Test ID"
// @Success 200 {object} dto.TestResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Test ID format"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /tests/{test_id} [get]
func (c *UserTestController) GetTestDetails(ctx *gin.Context) {
	testID, ok := parseIDParam(ctx, "test_id")
	if !ok {
		return
	}
	details, err := c.testService.GetTestDetails(ctx.Request.Context(), testID)
	if err != nil {
		writeServiceError(ctx, err, "Failed to retrieve test details")
		return
	}
	ctx.JSON(http.StatusOK, details)
}

// StartAttempt godoc
// @Summary Start a listening attempt
// @Description Creates a new in_progress attempt for the given test.
// @Tags User - Attempts
// @Accept json
// @Produce json
// @Param attempt body dto.AttemptStartDTO true "Test to attempt"
// @Success 201 {object} dto.AttemptDetailDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Failure 401 {object} dto.ErrorResponse "Missing user identity"
// @Failure 404 {object} dto.ErrorResponse "Test not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /attempts [post]
func (c *UserTestController) StartAttempt(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	var req dto.AttemptStartDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	detail, err := c.submissionService.StartAttempt(ctx.Request.Context(), userID, req.TestID)
	if err != nil {
		writeServiceError(ctx, err, "Failed to start attempt")
		return
	}
	ctx.JSON(http.StatusCreated, detail)
}

// SaveAnswers godoc
// @Summary Autosave answers for an in-progress attempt
// @Description Upserts the supplied answers; the latest value per question wins. Rejected once the attempt is completed.
// @Tags User - Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param answers body dto.AnswersSaveDTO true "Answers to save"
// @Success 204 "Answers saved"
// @Failure 400 {object} dto.ErrorResponse "Invalid body or attempt already completed"
// @Failure 401 {object} dto.ErrorResponse "Missing user identity"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /attempts/{attempt_id}/answers [put]
func (c *UserTestController) SaveAnswers(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	attemptID, ok := parseIDParam(ctx, "attempt_id")
	if !ok {
		return
	}
	var req dto.AnswersSaveDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	if err := c.submissionService.SaveAnswers(ctx.Request.Context(), userID, attemptID, req.Answers); err != nil {
		writeServiceError(ctx, err, "Failed to save answers")
		return
	}
	ctx.Status(http.StatusNoContent)
}

// SubmitAttempt godoc
// @Summary Submit a listening attempt for scoring
// @Description Scores the attempt and returns the result. Resubmitting a completed attempt returns the stored result unchanged.
// @Tags User - Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param submission body dto.AttemptSubmitDTO true "Final answers and submission flags"
// @Success 200 {object} dto.AttemptResultDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid body or unscorable test data"
// @Failure 401 {object} dto.ErrorResponse "Missing user identity"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /attempts/{attempt_id}/submit [post]
func (c *UserTestController) SubmitAttempt(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	attemptID, ok := parseIDParam(ctx, "attempt_id")
	if !ok {
		return
	}
	var req dto.AttemptSubmitDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	log.Info().Uint("attemptID", attemptID).Uint("userID", userID).Int("answerCount", len(req.Answers)).Bool("autoSubmit", req.AutoSubmit).Msg("Received attempt submission")

	result, err := c.submissionService.Submit(ctx.Request.Context(), userID, attemptID, req)
	if err != nil {
		writeServiceError(ctx, err, "Failed to submit attempt")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetAttemptDetails godoc
// @Summary Get one attempt with its answers
// @Description Full attempt detail including per-answer verdicts once the attempt is completed.
// @Tags User - Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptDetailDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Attempt ID format"
// @Failure 401 {object} dto.ErrorResponse "Missing user identity"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /attempts/{attempt_id} [get]
func (c *UserTestController) GetAttemptDetails(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	attemptID, ok := parseIDParam(ctx, "attempt_id")
	if !ok {
		return
	}
	detail, err := c.submissionService.GetAttempt(ctx.Request.Context(), userID, attemptID)
	if err != nil {
		writeServiceError(ctx, err, "Failed to retrieve attempt")
		return
	}
	ctx.JSON(http.StatusOK, detail)
}

// GetMyAttempts godoc
// @Summary List the user's attempts for a test
// @Tags User - Attempts
// @Produce json
// @Param test_id path int true "Test ID"
// @Success 200 {array} dto.AttemptSummaryDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Test ID format"
// @Failure 401 {object} dto.ErrorResponse "Missing user identity"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /tests/{test_id}/my-attempts [get]
func (c *UserTestController) GetMyAttempts(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	testID, ok := parseIDParam(ctx, "test_id")
	if !ok {
		return
	}
	attempts, err := c.submissionService.GetUserAttemptsForTest(ctx.Request.Context(), userID, testID)
	if err != nil {
		writeServiceError(ctx, err, "Failed to retrieve attempts")
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}
