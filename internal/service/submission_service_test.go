package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vuphan179/ieltsprep/internal/dto"
	"github.com/vuphan179/ieltsprep/internal/model"
	"github.com/vuphan179/ieltsprep/internal/repository"
	"github.com/vuphan179/ieltsprep/internal/scoring"
	"gorm.io/gorm"
)

// fakeStore is an in-memory stand-in for the whole repository layer so the
// orchestrator can be exercised without a database.
type fakeStore struct {
	tests     map[uint]*model.Test
	questions map[uint][]model.Question
	attempts  map[uint]*model.ListeningAttempt
	answers   map[uint]map[uint]model.AnswerRecord

	nextAttemptID uint
	completeCalls int
	denyComplete  bool
	onDeny        func()
	failWith      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tests:         make(map[uint]*model.Test),
		questions:     make(map[uint][]model.Question),
		attempts:      make(map[uint]*model.ListeningAttempt),
		answers:       make(map[uint]map[uint]model.AnswerRecord),
		nextAttemptID: 1,
	}
}

// --- repository.TestRepository ---

func (f *fakeStore) Create(ctx context.Context, test *model.Test) error {
	f.tests[test.ID] = test
	return nil
}

func (f *fakeStore) FindByID(ctx context.Context, id uint) (*model.Test, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	t, ok := f.tests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (f *fakeStore) FindByIDWithQuestions(ctx context.Context, id uint) (*model.Test, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeStore) FindAllWithQuestionCount(ctx context.Context) ([]repository.TestWithQuestionCount, error) {
	return nil, nil
}

// --- repository.QuestionRepository ---

func (f *fakeStore) FindByTestID(ctx context.Context, testID uint) ([]model.Question, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.questions[testID], nil
}

// FindQuestionByID satisfies repository.QuestionRepository's FindByID via the
// questionRepo wrapper below.
func (f *fakeStore) findQuestionByID(id uint) (*model.Question, error) {
	for _, qs := range f.questions {
		for i := range qs {
			if qs[i].ID == id {
				return &qs[i], nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// --- repository.ListeningAttemptRepository ---

func (f *fakeStore) CreateAttempt(ctx context.Context, attempt *model.ListeningAttempt) error {
	attempt.ID = f.nextAttemptID
	f.nextAttemptID++
	attempt.CreatedAt = time.Now()
	f.attempts[attempt.ID] = attempt
	return nil
}

func (f *fakeStore) FindByIDAndUser(ctx context.Context, id, userID uint) (*model.ListeningAttempt, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	a, ok := f.attempts[id]
	if !ok || a.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) FindByIDAndUserWithAnswers(ctx context.Context, id, userID uint) (*model.ListeningAttempt, error) {
	a, err := f.FindByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	for _, record := range f.answers[id] {
		a.Answers = append(a.Answers, record)
	}
	return a, nil
}

func (f *fakeStore) FindAllByTestAndUser(ctx context.Context, testID, userID uint) ([]model.ListeningAttempt, error) {
	var out []model.ListeningAttempt
	for _, a := range f.attempts {
		if a.TestID == testID && a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeStore) Complete(ctx context.Context, id, userID uint, completion repository.AttemptCompletion) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	f.completeCalls++
	if f.denyComplete {
		if f.onDeny != nil {
			f.onDeny()
		}
		return false, nil
	}
	a, ok := f.attempts[id]
	if !ok || a.UserID != userID || a.Status != model.AttemptInProgress {
		return false, nil
	}
	completedAt := completion.CompletedAt
	a.Status = completion.Status
	a.CompletedAt = &completedAt
	a.DurationSeconds = completion.DurationSeconds
	a.RawScore = &completion.RawScore
	a.TotalQuestions = &completion.TotalQuestions
	a.BandScore = &completion.BandScore
	a.SectionScores = completion.SectionScores
	for questionID, verdict := range completion.Answers {
		record := f.answers[id][questionID]
		record.NormalizedValue = verdict.NormalizedValue
		correct := verdict.IsCorrect
		record.IsCorrect = &correct
		f.answers[id][questionID] = record
	}
	return true, nil
}

// --- repository.AnswerRecordRepository ---

func (f *fakeStore) UpsertMany(ctx context.Context, records []model.AnswerRecord) error {
	if f.failWith != nil {
		return f.failWith
	}
	for _, record := range records {
		byQuestion, ok := f.answers[record.AttemptID]
		if !ok {
			byQuestion = make(map[uint]model.AnswerRecord)
			f.answers[record.AttemptID] = byQuestion
		}
		byQuestion[record.QuestionID] = record
	}
	return nil
}

func (f *fakeStore) FindByAttemptID(ctx context.Context, attemptID uint) ([]model.AnswerRecord, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []model.AnswerRecord
	for _, record := range f.answers[attemptID] {
		out = append(out, record)
	}
	return out, nil
}

// attemptRepo and questionRepo adapters let one fakeStore satisfy every
// repository interface despite the overlapping method names.

type fakeAttemptRepo struct{ *fakeStore }

func (f fakeAttemptRepo) Create(ctx context.Context, attempt *model.ListeningAttempt) error {
	return f.CreateAttempt(ctx, attempt)
}

type fakeQuestionRepo struct{ *fakeStore }

func (f fakeQuestionRepo) FindByID(ctx context.Context, id uint) (*model.Question, error) {
	return f.findQuestionByID(id)
}

func newService(f *fakeStore) SubmissionService {
	return NewSubmissionService(f, fakeQuestionRepo{f}, fakeAttemptRepo{f}, f)
}

const (
	testID = uint(10)
	userID = uint(7)
)

func seedMCQTest(f *fakeStore, keys ...string) {
	f.tests[testID] = &model.Test{ID: testID, Title: "Listening Practice Test 1"}
	qs := make([]model.Question, len(keys))
	for i, key := range keys {
		qs[i] = model.Question{
			ID:             uint(100 + i),
			TestID:         testID,
			QuestionNumber: i + 1,
			Type:           string(scoring.KindMCQ),
			SectionNumber:  scoring.SectionForQuestion(i + 1),
			AnswerKey:      model.StringSlice{key},
		}
	}
	f.questions[testID] = qs
}

func startAttempt(t *testing.T, svc SubmissionService) uint {
	t.Helper()
	detail, err := svc.StartAttempt(context.Background(), userID, testID)
	require.NoError(t, err)
	return detail.ID
}

func mcqAnswers(values ...string) []dto.AnswerSubmitDTO {
	out := make([]dto.AnswerSubmitDTO, len(values))
	for i, v := range values {
		out[i] = dto.AnswerSubmitDTO{QuestionID: uint(100 + i), Value: v}
	}
	return out
}

func TestSubmitScoresMCQTest(t *testing.T) {
	f := newFakeStore()
	seedMCQTest(f, "A", "B", "C", "D")
	svc := newService(f)
	attemptID := startAttempt(t, svc)

	result, err := svc.Submit(context.Background(), userID, attemptID, dto.AttemptSubmitDTO{
		Answers: mcqAnswers("A", "B", "X", "D"),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.RawScore)
	assert.Equal(t, 4, result.TotalQuestions)
	assert.Equal(t, 7.0, result.BandScore) // pct 0.75
	assert.Equal(t, string(model.AttemptCompleted), result.Status)
	assert.Equal(t, scoring.SectionScore{Correct: 3, Total: 4}, result.SectionScores[1])
}

func TestSubmitIsIdempotent(t *testing.T) {
	f := newFakeStore()
	seedMCQTest(f, "A", "B", "C", "D")
	svc := newService(f)
	attemptID := startAttempt(t, svc)

	first, err := svc.Submit(context.Background(), userID, attemptID, dto.AttemptSubmitDTO{
		Answers: mcqAnswers("A", "B", "C", "D"),
	})
	require.NoError(t, err)
	completedAt := *f.attempts[attemptID].CompletedAt

	// A retry with different answers must change nothing.
	second, err := svc.Submit(context.Background(), userID, attemptID, dto.AttemptSubmitDTO{
		Answers: mcqAnswers("X", "X", "X", "X"),
	})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.completeCalls, "second submit must not attempt another transition")
	assert.Equal(t, completedAt, *f.attempts[attemptID].CompletedAt)
}

func TestSubmitAutoSubmitStatus(t *testing.T) {
	f := newFakeStore()
	seedMCQTest(f, "A")
	svc := newService(f)
	attemptID := startAttempt(t, svc)

	result, err := svc.Submit(context.Background(), userID, attemptID, dto.AttemptSubmitDTO{AutoSubmit: true})
	require.NoError(t, err)
	assert.Equal(t, string(model.AttemptAutoSubmitted), result.Status)
	assert.Equal(t, model.AttemptAutoSubmitted, f.attempts[attemptID].Status)
}

func TestSubmitUnansweredScoresIncorrect(t *testing.T) {
	f := newFakeStore()
	keys := make([]string, 40)
	for i := range keys {
		keys[i] = fmt.Sprintf("key%d", i+1)
	}
	seedMCQTest(f, keys...)
	svc := newService(f)
	attemptID := startAttempt(t, svc)

	// Answer only 22 of 40 questions correctly, leave the rest untouched.
	answers := make([]dto.AnswerSubmitDTO, 22)
	for i := range answers {
		answers[i] = dto.AnswerSubmitDTO{QuestionID: uint(100 + i), Value: keys[i]}
	}

	result, err := svc.Submit(context.Background(), userID, attemptID, dto.AttemptSubmitDTO{Answers: answers})
	require.NoError(t, err)
	assert.Equal(t, 22, result.RawScore)
	assert.Equal(t, 40, result.TotalQuestions)
	assert.Equal(t, 5.5, result.BandScore) // pct 0.55
}

func TestSubmitMatchPairOrderIndependent(t *testing.T) {
	f := newFakeStore()
	f.tests[testID] = &model.Test{ID: testID, Title: "Matching"}
	f.questions[testID] = []model.Question{{
		ID:             200,
		TestID:         testID,
		QuestionNumber: 1,
		Type:           string(scoring.KindMatch),
		SectionNumber:  1,
		MatchPairs:     model.PairSlice{{Left: "1", Right: "A"}, {Left: "2", Right: "B"}},
	}}
	svc := newService(f)
	attemptID := startAttempt(t, svc)

	result, err := svc.Submit(context.Background(), userID, attemptID, dto.AttemptSubmitDTO{
		Answers: []dto.AnswerSubmitDTO{{
			QuestionID: 200,
			Pairs:      []scoring.Pair{{Left: "2", Right: "B"}, {Left: "1", Right: "A"}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.RawScore)
}

func TestSubmitGapAnswerNormalized(t *testing.T) {
	f := newFakeStore()
	f.tests[testID] = &model.Test{ID: testID, Title: "Gap fill"}
	f.questions[testID] = []model.Question{{
		ID:             400,
		TestID:         testID,
		QuestionNumber: 1,
		Type:           string(scoring.KindGap),
		SectionNumber:  1,
		AnswerKey:      model.StringSlice{"mitigate", "mitigates"},
	}}
	svc := newService(f)
	attemptID := startAttempt(t, svc)

	result, err := svc.Submit(context.Background(), userID, attemptID, dto.AttemptSubmitDTO{
		Answers: []dto.AnswerSubmitDTO{{QuestionID: 400, Value: "  Mitigate "}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.RawScore)
}

func TestSubmitForeignAttemptIsNotFound(t *testing.T) {
	f := newFakeStore()
	seedMCQTest(f, "A")
	svc := newService(f)
	attemptID := startAttempt(t, svc)

	_, err := svc.Submit(context.Background(), userID+1, attemptID, dto.AttemptSubmitDTO{})
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestSubmitLostRaceReturnsStoredResult(t *testing.T) {
	f := newFakeStore()
	seedMCQTest(f, "A", "B")
	svc := newService(f)
	attemptID := startAttempt(t, svc)

	// The conditional write is denied and the attempt shows up terminal on
	// re-read, as if a concurrent submission committed in between.
	raw, total := 2, 2
	band := 9.0
	f.denyComplete = true
	f.onDeny = func() {
		winner := f.attempts[attemptID]
		winner.Status = model.AttemptCompleted
		winner.RawScore = &raw
		winner.TotalQuestions = &total
		winner.BandScore = &band
	}

	result, err := svc.Submit(context.Background(), userID, attemptID, dto.AttemptSubmitDTO{
		Answers: mcqAnswers("A", "B"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.RawScore)
	assert.Equal(t, 9.0, result.BandScore)
}

func TestSubmitEmptyQuestionSetIsDataIntegrity(t *testing.T) {
	f := newFakeStore()
	f.tests[testID] = &model.Test{ID: testID}
	svc := newService(f)
	attemptID := startAttempt(t, svc)

	_, err := svc.Submit(context.Background(), userID, attemptID, dto.AttemptSubmitDTO{})
	var integrity *DataIntegrityError
	require.ErrorAs(t, err, &integrity)
}

func TestSubmitUnknownQuestionTypeIsDataIntegrity(t *testing.T) {
	f := newFakeStore()
	f.tests[testID] = &model.Test{ID: testID}
	f.questions[testID] = []model.Question{{
		ID: 300, TestID: testID, QuestionNumber: 1, Type: "essay", SectionNumber: 1,
	}}
	svc := newService(f)
	attemptID := startAttempt(t, svc)

	_, err := svc.Submit(context.Background(), userID, attemptID, dto.AttemptSubmitDTO{})
	var integrity *DataIntegrityError
	require.ErrorAs(t, err, &integrity)
}

func TestSubmitStorageFailureIsStorageError(t *testing.T) {
	f := newFakeStore()
	seedMCQTest(f, "A")
	svc := newService(f)
	attemptID := startAttempt(t, svc)

	f.failWith = errors.New("connection reset")
	_, err := svc.Submit(context.Background(), userID, attemptID, dto.AttemptSubmitDTO{})
	var storage *StorageError
	require.ErrorAs(t, err, &storage)
}

func TestSaveAnswersRejectedAfterCompletion(t *testing.T) {
	f := newFakeStore()
	seedMCQTest(f, "A")
	svc := newService(f)
	attemptID := startAttempt(t, svc)

	_, err := svc.Submit(context.Background(), userID, attemptID, dto.AttemptSubmitDTO{})
	require.NoError(t, err)

	err = svc.SaveAnswers(context.Background(), userID, attemptID, mcqAnswers("A"))
	var integrity *DataIntegrityError
	require.ErrorAs(t, err, &integrity)
}

func TestSaveAnswersLastWriteWins(t *testing.T) {
	f := newFakeStore()
	seedMCQTest(f, "A")
	svc := newService(f)
	attemptID := startAttempt(t, svc)

	require.NoError(t, svc.SaveAnswers(context.Background(), userID, attemptID, mcqAnswers("B")))
	require.NoError(t, svc.SaveAnswers(context.Background(), userID, attemptID, mcqAnswers("A")))

	result, err := svc.Submit(context.Background(), userID, attemptID, dto.AttemptSubmitDTO{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.RawScore)
}

func TestSubmitIgnoresAnswersOutsideTest(t *testing.T) {
	f := newFakeStore()
	seedMCQTest(f, "A")
	svc := newService(f)
	attemptID := startAttempt(t, svc)

	result, err := svc.Submit(context.Background(), userID, attemptID, dto.AttemptSubmitDTO{
		Answers: []dto.AnswerSubmitDTO{
			{QuestionID: 100, Value: "A"},
			{QuestionID: 999, Value: "phantom"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.RawScore)
	assert.Equal(t, 1, result.TotalQuestions)
}

func TestGetAttemptReturnsFinalizedAnswers(t *testing.T) {
	f := newFakeStore()
	seedMCQTest(f, "A", "B")
	svc := newService(f)
	attemptID := startAttempt(t, svc)

	_, err := svc.Submit(context.Background(), userID, attemptID, dto.AttemptSubmitDTO{
		Answers: mcqAnswers("A", "X"),
	})
	require.NoError(t, err)

	detail, err := svc.GetAttempt(context.Background(), userID, attemptID)
	require.NoError(t, err)
	require.Len(t, detail.Answers, 2)

	verdicts := make(map[uint]bool, 2)
	for _, answer := range detail.Answers {
		require.NotNil(t, answer.IsCorrect)
		verdicts[answer.QuestionID] = *answer.IsCorrect
	}
	assert.True(t, verdicts[100])
	assert.False(t, verdicts[101])
}
