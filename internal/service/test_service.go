package service

import (
	"context"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/vuphan179/ieltsprep/internal/dto"
	"github.com/vuphan179/ieltsprep/internal/repository"
)

// TestService serves the candidate-facing test catalogue.
type TestService interface {
	GetAllTests(ctx context.Context) ([]dto.TestSummaryDTO, error)
	GetTestDetails(ctx context.Context, testID uint) (*dto.TestResponseDTO, error)
}

type testService struct {
	testRepo repository.TestRepository
}

func NewTestService(testRepo repository.TestRepository) TestService {
	return &testService{testRepo: testRepo}
}

func (s *testService) GetAllTests(ctx context.Context) ([]dto.TestSummaryDTO, error) {
	testsWithCount, err := s.testRepo.FindAllWithQuestionCount(ctx)
	if err != nil {
		log.Error().Err(err).Msg("GetAllTests: repository error")
		return nil, &StorageError{Op: "list tests", Cause: err}
	}

	summaries := make([]dto.TestSummaryDTO, 0, len(testsWithCount))
	for _, twc := range testsWithCount {
		summaries = append(summaries, dto.TestSummaryDTO{
			ID:            twc.Test.ID,
			Title:         twc.Test.Title,
			Description:   twc.Test.Description,
			Module:        twc.Test.Module,
			QuestionCount: twc.QuestionCount,
			CreatedAt:     twc.Test.CreatedAt,
		})
	}
	return summaries, nil
}

func (s *testService) GetTestDetails(ctx context.Context, testID uint) (*dto.TestResponseDTO, error) {
	test, err := s.testRepo.FindByIDWithQuestions(ctx, testID)
	if err != nil {
		return nil, lookupErr("test", testID, err)
	}

	var resp dto.TestResponseDTO
	if err := copier.Copy(&resp, test); err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("GetTestDetails: failed to copy test to DTO")
		return nil, &StorageError{Op: "prepare test details", Cause: err}
	}
	// The copier maps answer-key columns onto nothing: QuestionResponseDTO
	// deliberately has no key fields, so candidates never see them.
	return &resp, nil
}
