package auth

import "time"

type Strategy interface {
	IssueToken(userID int64, role string) (string, error)
	ParseToken(token string) (int64, string, error)
	Name() string
}

type Options struct {
	TTL time.Duration
}
