// Package guestbook stores visitor messages in SQLite, newest first.
package guestbook

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/homepage/errors"
	"github.com/teranos/homepage/logger"
	"github.com/teranos/homepage/pagination"
)

// Message is one guestbook entry
type Message struct {
	ID        int64
	Author    string
	Content   string
	Timestamp time.Time
}

// Store reads and appends messages. Safe for concurrent use; database/sql
// serialises writers and WAL lets reads run alongside them.
type Store struct {
	db      *sql.DB
	logger  *zap.SugaredLogger
	timeNow func() time.Time
}

// NewStore wraps a migrated database
func NewStore(db *sql.DB, log *zap.SugaredLogger) *Store {
	return &Store{
		db:      db,
		logger:  logger.OrNop(log),
		timeNow: time.Now,
	}
}

const (
	insertMessageSQL = `
		INSERT INTO messages (author, content, timestamp)
		VALUES (?, ?, ?)
		RETURNING id, author, content, timestamp`

	readMessagesSQL = `
		SELECT id, author, content, timestamp
		FROM messages
		WHERE id < ?
		ORDER BY id DESC
		LIMIT ?`

	countMessagesSQL = `SELECT COUNT(*) FROM messages`
)

// Append stores a message stamped with the current UTC time and returns it as stored
func (s *Store) Append(ctx context.Context, author, content string) (*Message, error) {
	stamp := s.timeNow().UTC().Format(time.RFC3339)

	row := s.db.QueryRowContext(ctx, insertMessageSQL, author, content, stamp)
	msg, err := s.scan(row)
	if err != nil {
		return nil, errors.Wrap(err, "failed to append message")
	}

	s.logger.Infow("Message appended", "message_id", msg.ID, "author", msg.Author)
	return msg, nil
}

// Read returns one page of messages, newest first. The cursor is the id of
// the last message on the previous page; Next is set only if older messages remain.
func (s *Store) Read(ctx context.Context, p pagination.Params) (pagination.Page[Message], error) {
	p = p.Normalize()

	// One extra row tells us whether another page exists
	rows, err := s.db.QueryContext(ctx, readMessagesSQL, p.After(), p.Limit+1)
	if err != nil {
		return pagination.Page[Message]{}, errors.Wrap(err, "failed to query messages")
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		msg, err := s.scan(rows)
		if err != nil {
			return pagination.Page[Message]{}, errors.Wrap(err, "failed to scan message")
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return pagination.Page[Message]{}, errors.Wrap(err, "failed to iterate messages")
	}

	s.logger.Debugw("Messages read",
		logger.FieldCursor, p.After(),
		logger.FieldLimit, p.Limit,
		logger.FieldCount, len(messages),
	)

	return pagination.Trim(messages, p.Limit, func(m Message) int64 { return m.ID }), nil
}

// Count returns the number of stored messages
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, countMessagesSQL).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "failed to count messages")
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scan reads one row. An unparsable stored timestamp reads back as now.
func (s *Store) scan(row scanner) (*Message, error) {
	var (
		msg   Message
		stamp string
	)
	if err := row.Scan(&msg.ID, &msg.Author, &msg.Content, &stamp); err != nil {
		return nil, err
	}

	ts, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		s.logger.Warnw("Unparsable message timestamp, using now",
			"message_id", msg.ID,
			"timestamp", stamp,
		)
		ts = s.timeNow()
	}
	msg.Timestamp = ts.UTC()
	return &msg, nil
}
