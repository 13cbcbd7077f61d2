package model

import "errors"

// Domain errors shared by the engine, the preference flow and the stores.
// Callers wrap them with context and match with errors.Is.
var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrDuplicateVote          = errors.New("duplicate vote")
	ErrNotFound               = errors.New("not found")
	ErrInsufficientCandidates = errors.New("insufficient candidates")
	ErrNoData                 = errors.New("no data")

	// ErrSessionFinished rejects votes and resolutions once a battle has a winner.
	ErrSessionFinished = errors.New("session finished")
	// ErrStaleRound rejects a vote or resolution aimed at a round that is no longer open.
	ErrStaleRound = errors.New("stale round")
)
