package domain

import "errors"

var (
	// ErrInvalidAttempt is returned when an assessment payload is malformed or out of range.
	ErrInvalidAttempt = errors.New("invalid assessment attempt")
	// ErrUnknownQuestion indicates a question ID that does not exist in the bank.
	ErrUnknownQuestion = errors.New("question not found")
	// ErrProfileNotFound is returned when a user has no profile record.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrUserNotFound is returned when no account matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidRequest marks request payloads that fail shape validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnauthenticated is returned when no user session is present.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidCredentials indicates a failed username/password login.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameTaken is returned when registering an existing username or email.
	ErrUsernameTaken = errors.New("username or email already registered")
	// ErrPodNotFound indicates the learning pod does not exist or is inactive.
	ErrPodNotFound = errors.New("pod not found")
	// ErrPodFull is returned when a pod has reached its member limit.
	ErrPodFull = errors.New("pod is full")
	// ErrTournamentNotFound indicates the tournament does not exist or has ended.
	ErrTournamentNotFound = errors.New("tournament not found")
	// ErrTournamentFull is returned when a tournament has no free seats.
	ErrTournamentFull = errors.New("tournament is full")
	// ErrBattleNotFound indicates an unknown, expired or foreign battle.
	ErrBattleNotFound = errors.New("battle not found")
	// ErrConnectionNotFound is returned by the relay for unknown connection IDs.
	ErrConnectionNotFound = errors.New("connection not found")
)
