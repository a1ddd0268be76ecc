package practice

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/at-ishikawa/mathdrill/internal/api"
)

type ProblemAPI interface {
	NewProblem(ctx context.Context, req api.NewProblemRequest) (api.Problem, error)
	SubmitProblemAnswer(ctx context.Context, req api.ProblemAnswerRequest) (api.ProblemAnswerResponse, error)
}

type DrillAPI interface {
	DrillQuestion(ctx context.Context, difficulty string) (api.DrillQuestion, error)
	SubmitDrillAnswer(ctx context.Context, req api.DrillAnswerRequest) (api.DrillAnswerResponse, error)
}

type LegacyAPI interface {
	LegacyQuestion(ctx context.Context, level int) (api.LegacyQuestion, error)
}

const (
	VariantProblem = "problem"
	VariantDrill   = "drill"
	VariantLegacy  = "legacy"
)

// Gateway is every question API the sources can use.
type Gateway interface {
	ProblemAPI
	DrillAPI
	LegacyAPI
}

// NewSource returns the source of the configured API variant.
func NewSource(variant string, gateway Gateway) (Source, error) {
	switch variant {
	case VariantProblem, "":
		return NewProblemSource(gateway), nil
	case VariantDrill:
		return NewDrillSource(gateway), nil
	case VariantLegacy:
		return NewLegacySource(gateway), nil
	}
	return nil, fmt.Errorf("unknown api variant %q", variant)
}

// ProblemSource uses the problem API: timed problems with operations, graded by the server.
type ProblemSource struct {
	api ProblemAPI
}

func NewProblemSource(problemAPI ProblemAPI) *ProblemSource {
	return &ProblemSource{api: problemAPI}
}

func (s *ProblemSource) RequiresOperations() bool {
	return true
}

func (s *ProblemSource) Fetch(ctx context.Context, settings Settings) (Question, error) {
	ops := make([]string, len(settings.Operations))
	for i, op := range settings.Operations {
		ops[i] = string(op)
	}
	problem, err := s.api.NewProblem(ctx, api.NewProblemRequest{
		Difficulty: string(settings.Difficulty),
		Operations: ops,
	})
	if err != nil {
		return Question{}, fmt.Errorf("api.NewProblem() > %w", err)
	}
	difficulty := Difficulty(problem.Difficulty)
	if difficulty == "" {
		difficulty = settings.Difficulty
	}
	return Question{
		ID:         problem.ID,
		Expression: problem.Expression,
		Difficulty: difficulty,
		TimeLimit:  time.Duration(problem.TimeLimit) * time.Second,
	}, nil
}

func (s *ProblemSource) Grade(ctx context.Context, question Question, submission Submission) (Result, error) {
	response, err := s.api.SubmitProblemAnswer(ctx, api.ProblemAnswerRequest{
		ProblemID: question.ID,
		Answer:    submission.Answer,
		TimeSpent: int(math.Round(submission.TimeSpent.Seconds())),
	})
	if err != nil {
		return Result{}, fmt.Errorf("api.SubmitProblemAnswer() > %w", err)
	}
	return Result{
		Correct:       response.Correct,
		CorrectAnswer: response.CorrectAnswer,
		NeedRest:      response.NeedRest,
	}, nil
}

// DrillSource uses the drill API: untimed questions whose feedback message comes from the server.
type DrillSource struct {
	api DrillAPI
}

func NewDrillSource(drillAPI DrillAPI) *DrillSource {
	return &DrillSource{api: drillAPI}
}

func (s *DrillSource) RequiresOperations() bool {
	return false
}

func (s *DrillSource) Fetch(ctx context.Context, settings Settings) (Question, error) {
	question, err := s.api.DrillQuestion(ctx, string(settings.Difficulty))
	if err != nil {
		return Question{}, fmt.Errorf("api.DrillQuestion() > %w", err)
	}
	difficulty := Difficulty(question.Difficulty)
	if difficulty == "" {
		difficulty = settings.Difficulty
	}
	return Question{
		ID:         question.ID.String(),
		Expression: question.Question,
		Difficulty: difficulty,
	}, nil
}

func (s *DrillSource) Grade(ctx context.Context, question Question, submission Submission) (Result, error) {
	response, err := s.api.SubmitDrillAnswer(ctx, api.DrillAnswerRequest{
		QuestionID: json.Number(question.ID),
		Answer:     submission.Answer,
		Question:   question.Expression,
		Difficulty: string(question.Difficulty),
	})
	if err != nil {
		return Result{}, fmt.Errorf("api.SubmitDrillAnswer() > %w", err)
	}
	return Result{
		Correct: response.Correct,
		Message: response.Message,
	}, nil
}

// LegacySource uses the legacy question API, which returns the answer with the question.
// Answers are compared locally and never sent to the server.
type LegacySource struct {
	api LegacyAPI
	seq atomic.Int64
}

func NewLegacySource(legacyAPI LegacyAPI) *LegacySource {
	return &LegacySource{api: legacyAPI}
}

func (s *LegacySource) RequiresOperations() bool {
	return false
}

func (s *LegacySource) Fetch(ctx context.Context, settings Settings) (Question, error) {
	question, err := s.api.LegacyQuestion(ctx, settings.Difficulty.Level())
	if err != nil {
		return Question{}, fmt.Errorf("api.LegacyQuestion() > %w", err)
	}
	answer := question.Answer
	return Question{
		ID:         "legacy-" + strconv.FormatInt(s.seq.Add(1), 10),
		Expression: question.Question,
		Difficulty: settings.Difficulty,
		Answer:     &answer,
	}, nil
}

func (s *LegacySource) Grade(_ context.Context, question Question, submission Submission) (Result, error) {
	if question.Answer == nil {
		return Result{}, fmt.Errorf("question %s has no answer", question.ID)
	}
	return Result{
		Correct:       math.Abs(submission.Answer-*question.Answer) < 1e-9,
		CorrectAnswer: question.Answer,
	}, nil
}
