// Package services defines the business logic for accounts, chats, and
// messages. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer; the
// handler layer translates them into HTTP statuses and user-facing messages
// (see internal/http/handlers/errors.go).
package services

import "errors"

var (
	// ErrUserNotFound indicates that no account matches the given id or
	// email.
	ErrUserNotFound = errors.New("user not found")

	// ErrContactNotFound indicates that the contact side of a chat could
	// not be resolved to an existing account.
	ErrContactNotFound = errors.New("contact not found")

	// ErrChatNotFound indicates that the requested chat does not exist.
	ErrChatNotFound = errors.New("chat not found")

	// ErrDuplicateAccount is returned when signup hits an email that is
	// already registered.
	ErrDuplicateAccount = errors.New("account already exists")

	// ErrDuplicateChat is returned when a chat for the same unordered
	// participant pair already exists.
	ErrDuplicateChat = errors.New("chat already exists for this pair")

	// ErrInvalidCredentials is returned when the password does not match
	// the stored hash.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotParticipant is returned when a sender is not one of the two
	// chat members.
	ErrNotParticipant = errors.New("sender is not a chat participant")

	// ErrValidation is returned when a request payload is missing required
	// fields or carries values of the wrong shape.
	ErrValidation = errors.New("invalid request payload")
)
