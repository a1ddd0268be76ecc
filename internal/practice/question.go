package practice

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNoDifficulty  = errors.New("select a difficulty first")
	ErrNoOperations  = errors.New("select at least one operation")
	ErrInvalidAnswer = errors.New("answer is not a number")
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Difficulties returns every difficulty from the easiest.
func Difficulties() []Difficulty {
	return append([]Difficulty(nil), difficulties...)
}

func ParseDifficulty(value string) (Difficulty, error) {
	for _, d := range difficulties {
		if string(d) == value {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q, must be one of easy, medium, hard", value)
}

// Level is the numeric difficulty used by the legacy question API.
func (d Difficulty) Level() int {
	switch d {
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	}
	return 1
}

type Operation string

const (
	OperationAdd      Operation = "add"
	OperationSubtract Operation = "subtract"
	OperationMultiply Operation = "multiply"
	OperationDivide   Operation = "divide"
)

var operations = []Operation{OperationAdd, OperationSubtract, OperationMultiply, OperationDivide}

func Operations() []Operation {
	return append([]Operation(nil), operations...)
}

func ParseOperations(values []string) ([]Operation, error) {
	result := make([]Operation, 0, len(values))
	seen := map[Operation]bool{}
	for _, value := range values {
		op := Operation(strings.TrimSpace(value))
		valid := false
		for _, candidate := range operations {
			if op == candidate {
				valid = true
				break
			}
		}
		if !valid {
			return nil, fmt.Errorf("unknown operation %q", value)
		}
		if seen[op] {
			continue
		}
		seen[op] = true
		result = append(result, op)
	}
	return result, nil
}

// Settings is the selection made before a practice session starts.
type Settings struct {
	Difficulty Difficulty
	Operations []Operation
}

// Question is the current question of a session. It is never mutated once fetched.
type Question struct {
	ID         string
	Expression string
	Difficulty Difficulty
	// TimeLimit of 0 means the question is untimed.
	TimeLimit time.Duration
	// Answer is only known up front for sources that grade locally.
	Answer *float64
}

type Submission struct {
	QuestionID string
	Answer     float64
	TimeSpent  time.Duration
	Question   string
	Difficulty Difficulty
}

type Result struct {
	Correct bool
	// CorrectAnswer is nil when the source does not reveal it.
	CorrectAnswer *float64
	// Message is a feedback text supplied by the server.
	Message  string
	NeedRest bool
	// TimedOut is set when the countdown submitted the answer.
	TimedOut bool
}

// ParseAnswer accepts a decimal number with optional surrounding spaces.
func ParseAnswer(input string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, ErrInvalidAnswer
	}
	return value, nil
}
