package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/vuphan179/ieltsprep/internal/dto"
	"github.com/vuphan179/ieltsprep/internal/model"
	"github.com/vuphan179/ieltsprep/internal/repository"
	"github.com/vuphan179/ieltsprep/internal/scoring"
)

// SubmissionService is the stateful entry point of the Listening scoring
// engine: attempt lifecycle, answer autosave and the idempotent final
// submission.
type SubmissionService interface {
	StartAttempt(ctx context.Context, userID, testID uint) (*dto.AttemptDetailDTO, error)
	SaveAnswers(ctx context.Context, userID, attemptID uint, answers []dto.AnswerSubmitDTO) error
	Submit(ctx context.Context, userID, attemptID uint, req dto.AttemptSubmitDTO) (*dto.AttemptResultDTO, error)
	GetAttempt(ctx context.Context, userID, attemptID uint) (*dto.AttemptDetailDTO, error)
	GetUserAttemptsForTest(ctx context.Context, userID, testID uint) ([]dto.AttemptSummaryDTO, error)
}

type submissionService struct {
	testRepo     repository.TestRepository
	questionRepo repository.QuestionRepository
	attemptRepo  repository.ListeningAttemptRepository
	answerRepo   repository.AnswerRecordRepository
}

func NewSubmissionService(
	testRepo repository.TestRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.ListeningAttemptRepository,
	answerRepo repository.AnswerRecordRepository,
) SubmissionService {
	return &submissionService{
		testRepo:     testRepo,
		questionRepo: questionRepo,
		attemptRepo:  attemptRepo,
		answerRepo:   answerRepo,
	}
}

func (s *submissionService) StartAttempt(ctx context.Context, userID, testID uint) (*dto.AttemptDetailDTO, error) {
	test, err := s.testRepo.FindByID(ctx, testID)
	if err != nil {
		return nil, lookupErr("test", testID, err)
	}

	attempt := model.ListeningAttempt{
		UserID: userID,
		TestID: test.ID,
		Status: model.AttemptInProgress,
	}
	if err := s.attemptRepo.Create(ctx, &attempt); err != nil {
		log.Error().Err(err).Uint("testID", testID).Uint("userID", userID).Msg("StartAttempt: failed to create attempt")
		return nil, &StorageError{Op: "create attempt", Cause: err}
	}

	log.Info().Uint("attemptID", attempt.ID).Uint("testID", testID).Uint("userID", userID).Msg("Listening attempt started")
	detail := attemptToDetailDTO(&attempt, nil)
	detail.TestTitle = test.Title
	return detail, nil
}

func (s *submissionService) SaveAnswers(ctx context.Context, userID, attemptID uint, answers []dto.AnswerSubmitDTO) error {
	attempt, err := s.attemptRepo.FindByIDAndUser(ctx, attemptID, userID)
	if err != nil {
		return lookupErr("attempt", attemptID, err)
	}
	if attempt.Status.Terminal() {
		return &DataIntegrityError{Message: "attempt is already completed; answers are frozen"}
	}

	questions, err := s.questionRepo.FindByTestID(ctx, attempt.TestID)
	if err != nil {
		return &StorageError{Op: "load questions", Cause: err}
	}

	records, err := s.buildAnswerRecords(attemptID, questions, answers)
	if err != nil {
		return err
	}
	if err := s.answerRepo.UpsertMany(ctx, records); err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("SaveAnswers: upsert failed")
		return &StorageError{Op: "save answers", Cause: err}
	}
	return nil
}

// Submit finalizes an attempt. Calling it again on a completed attempt
// returns the stored result unchanged; nothing is rescored or rewritten.
func (s *submissionService) Submit(ctx context.Context, userID, attemptID uint, req dto.AttemptSubmitDTO) (*dto.AttemptResultDTO, error) {
	attempt, err := s.attemptRepo.FindByIDAndUser(ctx, attemptID, userID)
	if err != nil {
		return nil, lookupErr("attempt", attemptID, err)
	}

	// Idempotency guard: terminal attempts return the persisted scores.
	if attempt.Status.Terminal() {
		log.Info().Uint("attemptID", attemptID).Str("status", string(attempt.Status)).Msg("Submit: attempt already terminal, returning stored result")
		return storedResult(attempt)
	}

	questions, err := s.questionRepo.FindByTestID(ctx, attempt.TestID)
	if err != nil {
		return nil, &StorageError{Op: "load questions", Cause: err}
	}
	if len(questions) == 0 {
		return nil, &DataIntegrityError{Message: "test has no questions"}
	}

	if len(req.Answers) > 0 {
		records, err := s.buildAnswerRecords(attemptID, questions, req.Answers)
		if err != nil {
			return nil, err
		}
		if err := s.answerRepo.UpsertMany(ctx, records); err != nil {
			return nil, &StorageError{Op: "save answers", Cause: err}
		}
	}

	// Always read the answer set fresh: an autosave may have landed after
	// this submission started.
	stored, err := s.answerRepo.FindByAttemptID(ctx, attemptID)
	if err != nil {
		return nil, &StorageError{Op: "load answers", Cause: err}
	}

	scoringQuestions := make([]scoring.Question, len(questions))
	byID := make(map[uint]model.Question, len(questions))
	for i, q := range questions {
		scoringQuestions[i] = q.ToScoring()
		byID[q.ID] = q
	}

	values := make(map[uint]scoring.Value, len(stored))
	for _, record := range stored {
		q, ok := byID[record.QuestionID]
		if !ok {
			log.Warn().Uint("attemptID", attemptID).Uint("questionID", record.QuestionID).Msg("Submit: stored answer references a question outside this test, ignoring")
			continue
		}
		values[record.QuestionID] = decodeAnswerValue(scoring.Kind(q.Type), record.RawValue)
	}

	summary, err := scoring.Score(scoringQuestions, values)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("Submit: scoring failed on authored data")
		return nil, &DataIntegrityError{Message: "question set cannot be scored", Cause: err}
	}

	band, err := scoring.RawToBand(summary.RawScore, summary.TotalQuestions)
	if err != nil {
		return nil, &DataIntegrityError{Message: "band mapping failed", Cause: err}
	}

	status := model.AttemptCompleted
	if req.AutoSubmit {
		status = model.AttemptAutoSubmitted
	}

	completion := repository.AttemptCompletion{
		Status:          status,
		CompletedAt:     time.Now(),
		DurationSeconds: req.DurationSeconds,
		RawScore:        summary.RawScore,
		TotalQuestions:  summary.TotalQuestions,
		BandScore:       band,
		SectionScores:   model.SectionScoreMap(summary.Sections),
		Answers:         make(map[uint]repository.ScoredAnswer, len(stored)),
	}
	for _, record := range stored {
		correct, ok := summary.Correctness[record.QuestionID]
		if !ok {
			continue
		}
		completion.Answers[record.QuestionID] = repository.ScoredAnswer{
			NormalizedValue: record.NormalizedValue,
			IsCorrect:       correct,
		}
	}

	won, err := s.attemptRepo.Complete(ctx, attemptID, userID, completion)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("Submit: terminal transition failed")
		return nil, &StorageError{Op: "complete attempt", Cause: err}
	}
	if !won {
		// A concurrent submission finished first; its result stands.
		log.Info().Uint("attemptID", attemptID).Msg("Submit: lost completion race, returning stored result")
		settled, err := s.attemptRepo.FindByIDAndUser(ctx, attemptID, userID)
		if err != nil {
			return nil, lookupErr("attempt", attemptID, err)
		}
		return storedResult(settled)
	}

	log.Info().
		Uint("attemptID", attemptID).
		Int("rawScore", summary.RawScore).
		Int("totalQuestions", summary.TotalQuestions).
		Float64("bandScore", band).
		Str("status", string(status)).
		Msg("Listening attempt scored")

	return &dto.AttemptResultDTO{
		AttemptID:      attemptID,
		Status:         string(status),
		RawScore:       summary.RawScore,
		TotalQuestions: summary.TotalQuestions,
		BandScore:      band,
		SectionScores:  summary.Sections,
	}, nil
}

func (s *submissionService) GetAttempt(ctx context.Context, userID, attemptID uint) (*dto.AttemptDetailDTO, error) {
	attempt, err := s.attemptRepo.FindByIDAndUserWithAnswers(ctx, attemptID, userID)
	if err != nil {
		return nil, lookupErr("attempt", attemptID, err)
	}
	detail := attemptToDetailDTO(attempt, attempt.Answers)
	if attempt.Test.ID != 0 {
		detail.TestTitle = attempt.Test.Title
	}
	return detail, nil
}

func (s *submissionService) GetUserAttemptsForTest(ctx context.Context, userID, testID uint) ([]dto.AttemptSummaryDTO, error) {
	attempts, err := s.attemptRepo.FindAllByTestAndUser(ctx, testID, userID)
	if err != nil {
		return nil, &StorageError{Op: "load attempts", Cause: err}
	}

	summaries := make([]dto.AttemptSummaryDTO, 0, len(attempts))
	for _, attempt := range attempts {
		var summary dto.AttemptSummaryDTO
		if err := copier.Copy(&summary, &attempt); err != nil {
			log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("GetUserAttemptsForTest: failed to copy attempt summary")
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// buildAnswerRecords validates submitted answers against the question set
// and encodes them for storage. Answers to questions outside the test are
// dropped with a warning, matching the autosave tolerance for stale clients.
func (s *submissionService) buildAnswerRecords(attemptID uint, questions []model.Question, answers []dto.AnswerSubmitDTO) ([]model.AnswerRecord, error) {
	byID := make(map[uint]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	records := make([]model.AnswerRecord, 0, len(answers))
	for _, answer := range answers {
		q, ok := byID[answer.QuestionID]
		if !ok {
			log.Warn().Uint("attemptID", attemptID).Uint("questionID", answer.QuestionID).Msg("answer for a question not in this test, skipping")
			continue
		}
		raw, normalized, err := encodeAnswerValue(scoring.Kind(q.Type), answer)
		if err != nil {
			return nil, &DataIntegrityError{Message: "answer cannot be encoded", Cause: err}
		}
		records = append(records, model.AnswerRecord{
			AttemptID:       attemptID,
			QuestionID:      answer.QuestionID,
			RawValue:        raw,
			NormalizedValue: normalized,
		})
	}
	return records, nil
}

// storedResult rebuilds the submit response from a terminal attempt's
// persisted score fields.
func storedResult(attempt *model.ListeningAttempt) (*dto.AttemptResultDTO, error) {
	if attempt.RawScore == nil || attempt.TotalQuestions == nil || attempt.BandScore == nil {
		return nil, &DataIntegrityError{Message: "terminal attempt is missing persisted scores"}
	}
	return &dto.AttemptResultDTO{
		AttemptID:      attempt.ID,
		Status:         string(attempt.Status),
		RawScore:       *attempt.RawScore,
		TotalQuestions: *attempt.TotalQuestions,
		BandScore:      *attempt.BandScore,
		SectionScores:  attempt.SectionScores,
	}, nil
}

func attemptToDetailDTO(attempt *model.ListeningAttempt, answers []model.AnswerRecord) *dto.AttemptDetailDTO {
	detail := &dto.AttemptDetailDTO{
		ID:              attempt.ID,
		TestID:          attempt.TestID,
		UserID:          attempt.UserID,
		Status:          string(attempt.Status),
		DurationSeconds: attempt.DurationSeconds,
		RawScore:        attempt.RawScore,
		TotalQuestions:  attempt.TotalQuestions,
		BandScore:       attempt.BandScore,
		SectionScores:   attempt.SectionScores,
		CompletedAt:     attempt.CompletedAt,
		CreatedAt:       attempt.CreatedAt,
	}
	for _, record := range answers {
		detail.Answers = append(detail.Answers, dto.AnswerRecordDTO{
			QuestionID:      record.QuestionID,
			RawValue:        record.RawValue,
			NormalizedValue: record.NormalizedValue,
			IsCorrect:       record.IsCorrect,
		})
	}
	return detail
}

// encodeAnswerValue serializes a submitted value for the AnswerRecord row.
// The raw form keeps the submission as received; the normalized form is what
// comparison uses.
func encodeAnswerValue(kind scoring.Kind, answer dto.AnswerSubmitDTO) (raw string, normalized string, err error) {
	switch kind {
	case scoring.KindMatch:
		rawBytes, err := json.Marshal(answer.Pairs)
		if err != nil {
			return "", "", err
		}
		normalizedBytes, err := json.Marshal(scoring.CanonicalPairs(answer.Pairs))
		if err != nil {
			return "", "", err
		}
		return string(rawBytes), string(normalizedBytes), nil
	default:
		rawBytes, err := json.Marshal(answer.Value)
		if err != nil {
			return "", "", err
		}
		return string(rawBytes), scoring.Normalize(answer.Value), nil
	}
}

// decodeAnswerValue is the inverse of encodeAnswerValue. A row that fails to
// decode counts as unanswered rather than failing the whole submission.
func decodeAnswerValue(kind scoring.Kind, raw string) scoring.Value {
	switch kind {
	case scoring.KindMatch:
		var pairs []scoring.Pair
		if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
			log.Warn().Str("raw", raw).Msg("undecodable match answer, treating as unanswered")
			return scoring.Value{Kind: kind}
		}
		return scoring.Value{Kind: kind, Pairs: pairs}
	default:
		var text string
		if err := json.Unmarshal([]byte(raw), &text); err != nil {
			log.Warn().Str("raw", raw).Msg("undecodable text answer, treating as unanswered")
			return scoring.Value{Kind: kind}
		}
		return scoring.Value{Kind: kind, Text: text}
	}
}
