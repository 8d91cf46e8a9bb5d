package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/worklink/internal/domain/chat"
	"github.com/geocoder89/worklink/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatsRepo struct {
	observer
	pool *pgxpool.Pool
}

func NewChatsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ChatsRepo {
	return &ChatsRepo{pool: pool, observer: observer{prom: prom}}
}

const chatMessageColumns = `id, seq, sender_id, sender_name, message, read, created_at`

func scanChatMessage(row pgx.Row) (chat.Message, error) {
	var m chat.Message
	err := row.Scan(&m.ID, &m.Seq, &m.SenderID, &m.SenderName, &m.Message, &m.Read, &m.Timestamp)
	return m, err
}

// ensureChat creates the conversation row if it does not exist yet.
func ensureChat(ctx context.Context, tx pgx.Tx, chatID string, participants []string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO chats (chat_id, participants, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (chat_id) DO NOTHING`, chatID, participants)
	return err
}

func (r *ChatsRepo) Get(ctx context.Context, chatID string) (chat.Chat, error) {
	var c chat.Chat

	err := r.observe("chats.get", func() error {
		return r.pool.QueryRow(ctx, `
			SELECT chat_id, participants, created_at, updated_at
			FROM chats WHERE chat_id = $1`, chatID,
		).Scan(&c.ChatID, &c.Participants, &c.CreatedAt, &c.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return chat.Chat{}, chat.ErrNotFound
		}
		return chat.Chat{}, err
	}
	return c, nil
}

// Messages returns messages with seq greater than afterSeq in append order.
func (r *ChatsRepo) Messages(ctx context.Context, chatID string, afterSeq int64) ([]chat.Message, error) {
	out := make([]chat.Message, 0)

	err := r.observe("chats.messages", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT `+chatMessageColumns+`
			FROM chat_messages
			WHERE chat_id = $1 AND seq > $2
			ORDER BY seq ASC`, chatID, afterSeq)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			m, err := scanChatMessage(rows)
			if err != nil {
				return err
			}
			out = append(out, m)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

// Append creates the chat on first use, then appends under a row lock so
// messages of one conversation are strictly ordered.
func (r *ChatsRepo) Append(ctx context.Context, nm chat.NewMessage) (chat.Message, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return chat.Message{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = r.observe("chats.ensure", func() error {
		return ensureChat(ctx, tx, nm.ChatID, nm.Participants)
	})
	if err != nil {
		return chat.Message{}, err
	}

	var c chat.Chat
	err = r.observe("chats.lock", func() error {
		return tx.QueryRow(ctx, `
			SELECT chat_id, participants FROM chats WHERE chat_id = $1 FOR UPDATE`,
			nm.ChatID,
		).Scan(&c.ChatID, &c.Participants)
	})
	if err != nil {
		return chat.Message{}, err
	}

	if !c.HasParticipant(nm.SenderID) {
		return chat.Message{}, chat.ErrNotParticipant
	}

	var m chat.Message
	err = r.observe("chats.append", func() error {
		var err error
		m, err = scanChatMessage(tx.QueryRow(ctx, `
			INSERT INTO chat_messages (id, chat_id, sender_id, sender_name, message, read, created_at)
			VALUES ($1, $2, $3, $4, $5, FALSE, $6)
			RETURNING `+chatMessageColumns,
			uuid.NewString(), nm.ChatID, nm.SenderID, nm.SenderName, nm.Message, time.Now().UTC(),
		))
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE chats SET updated_at = NOW() WHERE chat_id = $1`, nm.ChatID)
		return err
	})
	if err != nil {
		return chat.Message{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return chat.Message{}, err
	}
	return m, nil
}

// MarkRead flags every message not sent by readerID as read.
func (r *ChatsRepo) MarkRead(ctx context.Context, chatID, readerID string) (int64, error) {
	var n int64

	err := r.observe("chats.mark_read", func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE chat_messages
			SET read = TRUE
			WHERE chat_id = $1 AND sender_id <> $2 AND read = FALSE`, chatID, readerID)
		if err != nil {
			return err
		}
		n = tag.RowsAffected()
		return nil
	})
	return n, err
}

func (r *ChatsRepo) ListForUser(ctx context.Context, userID string) ([]chat.Summary, error) {
	out := make([]chat.Summary, 0)

	err := r.observe("chats.list_for_user", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT c.chat_id, c.participants, c.created_at, c.updated_at,
			       COALESCE(u.unread, 0),
			       lm.id, lm.seq, lm.sender_id, lm.sender_name, lm.message, lm.read, lm.created_at
			FROM chats c
			LEFT JOIN LATERAL (
				SELECT COUNT(*) AS unread
				FROM chat_messages m
				WHERE m.chat_id = c.chat_id AND m.sender_id <> $1 AND m.read = FALSE
			) u ON TRUE
			LEFT JOIN LATERAL (
				SELECT id, seq, sender_id, sender_name, message, read, created_at
				FROM chat_messages m
				WHERE m.chat_id = c.chat_id
				ORDER BY seq DESC
				LIMIT 1
			) lm ON TRUE
			WHERE $1 = ANY(c.participants)
			ORDER BY c.updated_at DESC`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				s          chat.Summary
				id         *string
				seq        *int64
				senderID   *string
				senderName *string
				message    *string
				read       *bool
				createdAt  *time.Time
			)

			if err := rows.Scan(
				&s.ChatID, &s.Participants, &s.CreatedAt, &s.UpdatedAt,
				&s.UnreadCount,
				&id, &seq, &senderID, &senderName, &message, &read, &createdAt,
			); err != nil {
				return err
			}

			if id != nil {
				s.LastMessage = &chat.Message{
					ID:         *id,
					Seq:        *seq,
					SenderID:   *senderID,
					SenderName: *senderName,
					Message:    *message,
					Read:       *read,
					Timestamp:  *createdAt,
				}
			}
			out = append(out, s)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}
