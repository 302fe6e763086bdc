package core

import (
	"errors"
	"fmt"
)

// Error kinds. The HTTP boundary maps these to status codes with errors.Is;
// everything else wraps them into entity-specific sentinels below.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	ErrCommunityNotFound = fmt.Errorf("community %w", ErrNotFound)
	ErrPostNotFound      = fmt.Errorf("post %w", ErrNotFound)
	ErrCommentNotFound   = fmt.Errorf("comment %w", ErrNotFound)
	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)
	ErrRatingNotFound    = fmt.Errorf("rating %w", ErrNotFound)

	ErrOwnerHasCommunity = fmt.Errorf("%w: user already owns a community", ErrConflict)

	// Verified posts are deletable by community admins only, never by
	// their authors.
	ErrVerifiedPostDelete = fmt.Errorf("%w: only community admins can remove verified posts", ErrForbidden)
	ErrCommentDelete      = fmt.Errorf("%w: only the comment author or a community admin can delete a comment", ErrForbidden)
)
