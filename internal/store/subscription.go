package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/foodgram/apiserver/types"
	"github.com/lib/pq"
)

// SubscriptionRepository handles persistence for subscriber/author links.
type SubscriptionRepository struct {
	db *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Add subscribes subscriberID to authorID. A duplicate yields ErrAlreadyExists.
func (r *SubscriptionRepository) Add(ctx context.Context, subscriberID, authorID int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (subscriber_id, author_id, created_at) VALUES ($1, $2, $3)`,
		subscriberID, authorID, time.Now(),
	)
	return mapWriteError(err)
}

// Remove deletes the subscription. A missing subscription yields ErrNotFound.
func (r *SubscriptionRepository) Remove(ctx context.Context, subscriberID, authorID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE subscriber_id = $1 AND author_id = $2`, subscriberID, authorID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SubscriptionRepository) Exists(ctx context.Context, subscriberID, authorID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM subscriptions WHERE subscriber_id = $1 AND author_id = $2)`,
		subscriberID, authorID,
	).Scan(&exists)
	return exists, err
}

// SubscribedTo reports which of authorIDs subscriberID follows.
func (r *SubscriptionRepository) SubscribedTo(ctx context.Context, subscriberID int, authorIDs []int) (map[int]bool, error) {
	followed := make(map[int]bool, len(authorIDs))
	if subscriberID == 0 || len(authorIDs) == 0 {
		return followed, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT author_id FROM subscriptions WHERE subscriber_id = $1 AND author_id = ANY($2)`,
		subscriberID, pq.Array(authorIDs),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		followed[id] = true
	}
	return followed, rows.Err()
}

// ListAuthors returns one page of the authors subscriberID follows, ordered
// by subscription time, and the total number of subscriptions.
func (r *SubscriptionRepository) ListAuthors(ctx context.Context, subscriberID, offset, limit int) ([]types.User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM subscriptions WHERE subscriber_id = $1`, subscriberID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
		SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.avatar, u.password_hash, u.created_at, u.updated_at
		FROM subscriptions s
		JOIN users u ON u.id = s.author_id
		WHERE s.subscriber_id = $1
		ORDER BY s.created_at, u.id
		OFFSET $2 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, subscriberID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	authors := make([]types.User, 0, limit)
	for rows.Next() {
		author, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		authors = append(authors, author)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return authors, total, nil
}
