package guestbook

import (
	"strings"
	"unicode/utf8"

	"github.com/teranos/homepage/errors"
)

// AnonymousAuthor replaces a blank author
const AnonymousAuthor = "Anonymous"

var (
	// ErrEmptyContent is returned for blank message content
	ErrEmptyContent = errors.New("no content supplied")
	// ErrContentTooLong is returned when content exceeds Limits.MaxContentLength
	ErrContentTooLong = errors.New("content too long")
)

// Limits bounds user input, in characters
type Limits struct {
	MaxAuthorLength  int
	MaxContentLength int
}

// Prepare normalises a submitted author and content.
// A blank author becomes AnonymousAuthor and an overlong one is truncated;
// the default itself is never truncated.
// Content is stored as submitted but must not be blank or overlong.
func (l Limits) Prepare(author, content string) (string, string, error) {
	author = strings.TrimSpace(author)
	if author == "" {
		author = AnonymousAuthor
	} else if l.MaxAuthorLength > 0 && utf8.RuneCountInString(author) > l.MaxAuthorLength {
		author = string([]rune(author)[:l.MaxAuthorLength])
	}

	if strings.TrimSpace(content) == "" {
		return "", "", ErrEmptyContent
	}
	if l.MaxContentLength > 0 && utf8.RuneCountInString(content) > l.MaxContentLength {
		return "", "", errors.WithDetailf(ErrContentTooLong, "limit %d characters", l.MaxContentLength)
	}

	return author, content, nil
}
