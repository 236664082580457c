package admin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/vuphan179/ieltsprep/internal/dto"
	"github.com/vuphan179/ieltsprep/internal/service"
)

type AdminTestController struct {
	adminTestService service.AdminTestService
}

func NewAdminTestController(ats service.AdminTestService) *AdminTestController {
	return &AdminTestController{adminTestService: ats}
}

// CreateTest godoc
// @Summary (Admin) Create a listening test with its questions
// @Description Creates a test and validates every question's type, answer key shape and numbering before anything is stored.
// @Tags Admin - Tests
// @Accept json
// @Produce json
// @Param test body dto.TestCreateDTO true "Test definition including questions"
// @Success 201 {object} dto.TestResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid body or inconsistent question set"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/tests [post]
func (c *AdminTestController) CreateTest(ctx *gin.Context) {
	var req dto.TestCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin CreateTest: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	created, err := c.adminTestService.CreateTest(ctx.Request.Context(), req)
	if err != nil {
		var integrity *service.DataIntegrityError
		if errors.As(err, &integrity) {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: integrity.Message})
			return
		}
		log.Error().Err(err).Msg("Admin CreateTest: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to create test"})
		return
	}
	ctx.JSON(http.StatusCreated, created)
}
