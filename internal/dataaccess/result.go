package dataaccess

import (
	"errors"
)

var ErrNotFound = errors.New("not found")

// Source tells where a result came from and, for fallbacks, why.
type Source string

const (
	SourceLive                Source = "live"
	SourceFallbackUnavailable Source = "fallback_unavailable"
	SourceFallbackNetwork     Source = "fallback_network"
	SourceFallbackParse       Source = "fallback_parse"
)

func (s Source) Degraded() bool { return s != SourceLive }

// Result is what every data access call returns. Success is always true
// for list operations; Reason carries the error text behind a fallback.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Source  Source `json:"source"`
	Reason  string `json:"-"`
}

func live[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data, Source: SourceLive}
}

func fallback[T any](data T, src Source, reason string) Result[T] {
	return Result[T]{Success: true, Data: data, Source: src, Reason: reason}
}
