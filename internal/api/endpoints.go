package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Login authenticates without a bearer credential. A 401 means wrong credentials, not an expired session.
func (g *Gateway) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	var result LoginResponse
	response, err := g.send(ctx, http.MethodPost, "/api/auth/login", LoginRequest{
		Username: username,
		Password: password,
	}, &result)
	if err != nil {
		return LoginResponse{}, err
	}
	if response.StatusCode() == http.StatusUnauthorized {
		return LoginResponse{}, ErrInvalidCredentials
	}
	if response.IsError() {
		return LoginResponse{}, applicationError(response)
	}
	if result.Token == "" {
		return LoginResponse{}, &Error{Kind: KindApplication, StatusCode: response.StatusCode(), Message: "login response has no token"}
	}
	if result.Username == "" {
		result.Username = username
	}
	return result, nil
}

func (g *Gateway) Register(ctx context.Context, req RegisterRequest) error {
	err := g.Request(ctx, http.MethodPost, "/api/auth/register", req, nil)
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Kind == KindApplication && isUsernameTaken(apiErr) {
		return fmt.Errorf("%w: %s", ErrUsernameExists, req.Username)
	}
	return err
}

func isUsernameTaken(err *Error) bool {
	if err.StatusCode == http.StatusConflict {
		return true
	}
	return err.StatusCode == http.StatusBadRequest &&
		(strings.Contains(err.Message, "already exists") || strings.Contains(err.Message, "已存在"))
}

func (g *Gateway) Logout(ctx context.Context) error {
	return g.Request(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (g *Gateway) DrillQuestion(ctx context.Context, difficulty string) (DrillQuestion, error) {
	var result DrillQuestion
	path := "/api/drill/question?difficulty=" + url.QueryEscape(difficulty)
	if err := g.Request(ctx, http.MethodGet, path, nil, &result); err != nil {
		return DrillQuestion{}, err
	}
	return result, nil
}

func (g *Gateway) SubmitDrillAnswer(ctx context.Context, req DrillAnswerRequest) (DrillAnswerResponse, error) {
	var result DrillAnswerResponse
	if err := g.Request(ctx, http.MethodPost, "/api/drill/answer", req, &result); err != nil {
		return DrillAnswerResponse{}, err
	}
	return result, nil
}

func (g *Gateway) NewProblem(ctx context.Context, req NewProblemRequest) (Problem, error) {
	var result NewProblemResponse
	if err := g.Request(ctx, http.MethodPost, "/api/problem/new", req, &result); err != nil {
		return Problem{}, err
	}
	if result.Problem == nil {
		return Problem{}, &Error{Kind: KindApplication, StatusCode: http.StatusOK, Message: "response has no problem"}
	}
	return *result.Problem, nil
}

func (g *Gateway) SubmitProblemAnswer(ctx context.Context, req ProblemAnswerRequest) (ProblemAnswerResponse, error) {
	var result ProblemAnswerResponse
	if err := g.Request(ctx, http.MethodPost, "/api/problem/answer", req, &result); err != nil {
		return ProblemAnswerResponse{}, err
	}
	return result, nil
}

// LegacyQuestion fetches a question carrying its own answer. level is 1 to 3.
func (g *Gateway) LegacyQuestion(ctx context.Context, level int) (LegacyQuestion, error) {
	var result LegacyQuestion
	path := "/api/questions?difficulty=" + strconv.Itoa(level)
	if err := g.Request(ctx, http.MethodGet, path, nil, &result); err != nil {
		return LegacyQuestion{}, err
	}
	return result, nil
}

func (g *Gateway) History(ctx context.Context) ([]HistoryRecord, error) {
	var result []HistoryRecord
	if err := g.Request(ctx, http.MethodGet, "/api/history", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (g *Gateway) Stats(ctx context.Context) (AggregateStats, error) {
	var result AggregateStats
	if err := g.Request(ctx, http.MethodGet, "/api/history/stats", nil, &result); err != nil {
		return AggregateStats{}, err
	}
	return result, nil
}

func (g *Gateway) Rankings(ctx context.Context, window string) ([]RankingEntry, error) {
	var result RankingsResponse
	path := "/api/drill/rankings?type=" + url.QueryEscape(window)
	if err := g.Request(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Rankings, nil
}
