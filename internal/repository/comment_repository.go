package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/itsmkit/helpdesk-service/internal/domain"
)

// CommentRepository persists the append-only comment log of a ticket.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository instantiates repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO ticket_comments (ticket_id, body, commented_by)
        VALUES ($1, $2, $3)
        RETURNING id, commented_at`
	return r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.Text,
		comment.CommentedBy,
	).Scan(&comment.ID, &comment.CommentedAt)
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	const query = `
        SELECT id, ticket_id, body, commented_by, commented_at
        FROM ticket_comments WHERE ticket_id=$1
        ORDER BY commented_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.Text,
			&comment.CommentedBy,
			&comment.CommentedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
