package practice

import "context"

//go:generate mockgen -source=source.go -destination=../mocks/practice/mock_source.go -package=mock_practice

// Source fetches questions and grades answers.
type Source interface {
	Fetch(ctx context.Context, settings Settings) (Question, error)
	Grade(ctx context.Context, question Question, submission Submission) (Result, error)
	// RequiresOperations reports whether Start needs at least one operation.
	RequiresOperations() bool
}
