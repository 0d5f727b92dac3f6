package test

import (
	"errors"

	"github.com/drobyshev/leadmart/internal/domain/model"
)

// ErrStub is a generic stub failure for overriding happy paths.
var ErrStub = errors.New("stub error")

// HasherStub implements password hashing without bcrypt cost.
type HasherStub struct {
	HashFn    func(password string) (string, error)
	CompareFn func(hash, password string) error
}

func (s *HasherStub) Hash(password string) (string, error) {
	if s.HashFn != nil {
		return s.HashFn(password)
	}
	return "hashed:" + password, nil
}

func (s *HasherStub) Compare(hash, password string) error {
	if s.CompareFn != nil {
		return s.CompareFn(hash, password)
	}
	if hash != "hashed:"+password {
		return ErrStub
	}
	return nil
}

// StrategyStub implements token issue/parse with deterministic output.
type StrategyStub struct {
	IssueFn func(userID int64, role string) (string, error)
	ParseFn func(token string) (int64, string, error)

	UserID int64
	Role   string
}

func (s *StrategyStub) IssueToken(userID int64, role string) (string, error) {
	if s.IssueFn != nil {
		return s.IssueFn(userID, role)
	}
	return "token", nil
}

func (s *StrategyStub) ParseToken(token string) (int64, string, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	role := s.Role
	if role == "" {
		role = string(model.RoleUser)
	}
	return s.UserID, role, nil
}

func (s *StrategyStub) Name() string { return "stub" }

// ViewerParserStub resolves every token to a fixed viewer for middleware tests.
type ViewerParserStub struct {
	Viewer *model.Viewer
	Err    error
}

func (s *ViewerParserStub) ParseToken(token string) (*model.Viewer, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Viewer, nil
}
