package mysql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/resonancehq/resonance/store"
)

func (d *DB) EnsureTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversation (
			id            VARCHAR(36) NOT NULL PRIMARY KEY,
			user_id       VARCHAR(36) NOT NULL,
			article_url   TEXT NOT NULL,
			article_title TEXT NOT NULL,
			started_ts    BIGINT NOT NULL,
			message_count INT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS message (
			id              VARCHAR(36) NOT NULL PRIMARY KEY,
			conversation_id VARCHAR(36) NOT NULL,
			role            VARCHAR(32) NOT NULL,
			content         TEXT NOT NULL,
			input_method    VARCHAR(32) NOT NULL DEFAULT 'text',
			created_ts      BIGINT NOT NULL,
			CONSTRAINT fk_message_conversation FOREIGN KEY (conversation_id) REFERENCES conversation(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX idx_message_conversation ON message(conversation_id)`,
	}
	for _, s := range stmts {
		if _, err := d.db.ExecContext(ctx, s); err != nil {
			// mysql has no CREATE INDEX IF NOT EXISTS; a duplicate-key
			// error on re-run is fine.
			if strings.Contains(err.Error(), "Duplicate key name") {
				continue
			}
			return err
		}
	}
	return nil
}

func (d *DB) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	if create.StartedTs == 0 {
		create.StartedTs = time.Now().Unix()
	}
	stmt := "INSERT INTO `conversation` (`id`, `user_id`, `article_url`, `article_title`, `started_ts`, `message_count`) VALUES (?, ?, ?, ?, ?, 0)"
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID, create.UserID, create.ArticleURL, create.ArticleTitle, create.StartedTs,
	); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "c.`id` = ?"), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "c.`user_id` = ?"), append(args, *v)
	}
	query := fmt.Sprintf(
		`SELECT c.id, c.user_id, c.article_url, c.article_title, c.started_ts, c.message_count,
		        COALESCE((SELECT content FROM message
		                  WHERE conversation_id = c.id AND role = 'user'
		                  ORDER BY created_ts ASC LIMIT 1), '')
		 FROM conversation c WHERE %s ORDER BY c.started_ts DESC`,
		strings.Join(where, " AND "),
	)
	if v := find.Limit; v != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *v)
	}
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*store.Conversation
	for rows.Next() {
		c := &store.Conversation{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.ArticleURL, &c.ArticleTitle, &c.StartedTs, &c.MessageCount, &c.FirstQuestion); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (d *DB) GetConversation(ctx context.Context, find *store.FindConversation) (*store.Conversation, error) {
	list, err := d.ListConversations(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (d *DB) SearchConversations(ctx context.Context, search *store.SearchConversation) ([]*store.Conversation, error) {
	query := `SELECT DISTINCT c.id, c.user_id, c.article_url, c.article_title, c.started_ts, c.message_count
	          FROM conversation c
	          JOIN message m ON m.conversation_id = c.id
	          WHERE c.user_id = ?
	            AND (LOWER(m.content) LIKE LOWER(?) OR LOWER(c.article_title) LIKE LOWER(?))
	          ORDER BY c.started_ts DESC LIMIT ?`
	pattern := "%" + search.Query + "%"
	rows, err := d.db.QueryContext(ctx, query, search.UserID, pattern, pattern, search.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*store.Conversation
	for rows.Next() {
		c := &store.Conversation{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.ArticleURL, &c.ArticleTitle, &c.StartedTs, &c.MessageCount); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (d *DB) DeleteConversation(ctx context.Context, id string) error {
	// Messages go with it via ON DELETE CASCADE.
	_, err := d.db.ExecContext(ctx, "DELETE FROM `conversation` WHERE `id` = ?", id)
	return err
}

func (d *DB) ConversationStats(ctx context.Context, userID string) (*store.Stats, error) {
	query := `SELECT COUNT(*), COALESCE(SUM(message_count), 0), COALESCE(AVG(message_count), 0)
	          FROM conversation WHERE user_id = ?`
	stats := &store.Stats{}
	if err := d.db.QueryRowContext(ctx, query, userID).
		Scan(&stats.TotalConversations, &stats.TotalMessages, &stats.AvgMessages); err != nil {
		return nil, err
	}
	return stats, nil
}

func (d *DB) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	stmt := "INSERT INTO `message` (`id`, `conversation_id`, `role`, `content`, `input_method`, `created_ts`) VALUES (?, ?, ?, ?, ?, ?)"
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID, create.ConversationID, create.Role, create.Content, create.InputMethod, create.CreatedTs,
	); err != nil {
		return nil, err
	}
	// Deliberately not wrapped in a transaction with the insert; a crash
	// between the two statements leaves the count stale.
	if _, err := d.db.ExecContext(ctx,
		"UPDATE `conversation` SET `message_count` = `message_count` + 1 WHERE `id` = ?", create.ConversationID,
	); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) ListMessages(ctx context.Context, conversationID string) ([]*store.Message, error) {
	query := `SELECT id, conversation_id, role, content, input_method, created_ts
	          FROM message WHERE conversation_id = ? ORDER BY created_ts ASC, id ASC`
	rows, err := d.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*store.Message
	for rows.Next() {
		m := &store.Message{}
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.InputMethod, &m.CreatedTs); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
