package api

import (
	"encoding/json"
	"time"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// DrillQuestion is the question of the drill API. The server emits a numeric id.
type DrillQuestion struct {
	ID         json.Number `json:"id"`
	Question   string      `json:"question"`
	Difficulty string      `json:"difficulty"`
}

type DrillAnswerRequest struct {
	QuestionID json.Number `json:"question_id"`
	Answer     float64     `json:"answer"`
	Question   string      `json:"question"`
	Difficulty string      `json:"difficulty"`
}

type DrillAnswerResponse struct {
	Correct bool   `json:"correct"`
	Message string `json:"message"`
}

type NewProblemRequest struct {
	Difficulty string   `json:"difficulty"`
	Operations []string `json:"operations,omitempty"`
}

type Problem struct {
	ID         string `json:"id"`
	Expression string `json:"expression"`
	Difficulty string `json:"difficulty"`
	// TimeLimit is in seconds, 0 when the problem is untimed.
	TimeLimit int `json:"timeLimit"`
}

type NewProblemResponse struct {
	Problem *Problem `json:"problem"`
}

type ProblemAnswerRequest struct {
	ProblemID string  `json:"problemId"`
	Answer    float64 `json:"answer"`
	// TimeSpent is in whole seconds.
	TimeSpent int `json:"timeSpent"`
}

type ProblemAnswerResponse struct {
	Correct       bool     `json:"correct"`
	CorrectAnswer *float64 `json:"correctAnswer"`
	NeedRest      bool     `json:"needRest"`
}

type LegacyQuestion struct {
	Question string  `json:"question"`
	Answer   float64 `json:"answer"`
}

type HistoryRecord struct {
	Question      string    `json:"question"`
	Difficulty    string    `json:"difficulty"`
	UserAnswer    float64   `json:"user_answer"`
	CorrectAnswer float64   `json:"correct_answer"`
	IsCorrect     bool      `json:"is_correct"`
	TimeSpent     float64   `json:"time_spent"`
	CreatedAt     time.Time `json:"created_at"`
}

// UnmarshalJSON accepts the question text under either "question" or "question_content".
func (r *HistoryRecord) UnmarshalJSON(data []byte) error {
	type plain HistoryRecord
	var raw struct {
		plain
		QuestionContent string `json:"question_content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = HistoryRecord(raw.plain)
	if r.Question == "" {
		r.Question = raw.QuestionContent
	}
	return nil
}

type AggregateStats struct {
	TotalQuestions  int64 `json:"total_questions"`
	EasyQuestions   int64 `json:"easy_questions"`
	MediumQuestions int64 `json:"medium_questions"`
	HardQuestions   int64 `json:"hard_questions"`
	TotalAttempts   int64 `json:"total_attempts"`
	CorrectAnswers  int64 `json:"correct_answers"`
	// Accuracy is a percentage in [0, 100].
	Accuracy float64 `json:"accuracy"`
}

type RankingEntry struct {
	Rank     int     `json:"rank"`
	Username string  `json:"username"`
	HotScore float64 `json:"hot_score"`
}

type RankingsResponse struct {
	Rankings []RankingEntry `json:"rankings"`
}
