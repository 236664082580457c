package service

import (
	"context"
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/vuphan179/ieltsprep/internal/dto"
	"github.com/vuphan179/ieltsprep/internal/model"
	"github.com/vuphan179/ieltsprep/internal/repository"
	"github.com/vuphan179/ieltsprep/internal/scoring"
)

// AdminTestService authors tests. All structural validation happens here so
// a malformed question fails at authoring time, never at scoring time.
type AdminTestService interface {
	CreateTest(ctx context.Context, req dto.TestCreateDTO) (*dto.TestResponseDTO, error)
}

type adminTestService struct {
	testRepo repository.TestRepository
}

func NewAdminTestService(testRepo repository.TestRepository) AdminTestService {
	return &adminTestService{testRepo: testRepo}
}

func (s *adminTestService) CreateTest(ctx context.Context, req dto.TestCreateDTO) (*dto.TestResponseDTO, error) {
	numberSeen := make(map[int]bool, len(req.Questions))
	questions := make([]model.Question, 0, len(req.Questions))

	for _, qDto := range req.Questions {
		if numberSeen[qDto.QuestionNumber] {
			return nil, &DataIntegrityError{Message: fmt.Sprintf("duplicate question number %d", qDto.QuestionNumber)}
		}
		numberSeen[qDto.QuestionNumber] = true

		kind, err := model.NormalizeQuestionType(qDto.Type)
		if err != nil {
			return nil, &DataIntegrityError{Message: fmt.Sprintf("question %d", qDto.QuestionNumber), Cause: err}
		}

		switch kind {
		case scoring.KindMCQ:
			if len(qDto.AnswerKey) == 0 {
				return nil, &DataIntegrityError{Message: fmt.Sprintf("mcq question %d requires an answer key", qDto.QuestionNumber)}
			}
			if len(qDto.Options) < 2 {
				return nil, &DataIntegrityError{Message: fmt.Sprintf("mcq question %d requires at least two options", qDto.QuestionNumber)}
			}
		case scoring.KindGap:
			if len(qDto.AnswerKey) == 0 {
				return nil, &DataIntegrityError{Message: fmt.Sprintf("gap question %d requires at least one accepted answer", qDto.QuestionNumber)}
			}
		case scoring.KindMatch:
			if len(qDto.MatchPairs) == 0 {
				return nil, &DataIntegrityError{Message: fmt.Sprintf("match question %d requires key pairs", qDto.QuestionNumber)}
			}
		}

		section := qDto.SectionNumber
		if section == 0 {
			section = scoring.SectionForQuestion(qDto.QuestionNumber)
		}

		questions = append(questions, model.Question{
			QuestionNumber: qDto.QuestionNumber,
			Type:           string(kind),
			SectionNumber:  section,
			Prompt:         qDto.Prompt,
			Options:        qDto.Options,
			AnswerKey:      qDto.AnswerKey,
			MatchPairs:     qDto.MatchPairs,
		})
	}

	test := model.Test{
		Title:       req.Title,
		Description: req.Description,
		Module:      "listening",
		Questions:   questions,
	}
	if err := s.testRepo.Create(ctx, &test); err != nil {
		log.Error().Err(err).Str("title", req.Title).Msg("CreateTest: failed to persist test")
		return nil, &StorageError{Op: "create test", Cause: err}
	}

	created, err := s.testRepo.FindByIDWithQuestions(ctx, test.ID)
	if err != nil {
		log.Error().Err(err).Uint("testID", test.ID).Msg("CreateTest: failed to reload created test")
		var fallback dto.TestResponseDTO
		copier.Copy(&fallback, &test)
		return &fallback, nil
	}

	var resp dto.TestResponseDTO
	if err := copier.Copy(&resp, created); err != nil {
		return nil, &StorageError{Op: "prepare test response", Cause: err}
	}
	return &resp, nil
}
