package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rfpworks/rfpworks/internal/domain"
)

// QuestionRepository reads and writes stored RFP questions. Question rows
// are created by the upstream extraction pipeline; this service mostly
// reads them.
type QuestionRepository struct {
	db dbtx
}

func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{db: pool}
}

func (r *QuestionRepository) Create(ctx context.Context, q *domain.Question) error {
	createdAt := q.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO questions (id, org_id, project_id, question_text, section, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		q.ID, q.OrgID, nullableString(q.ProjectID), q.Text, nullableString(q.Section), createdAt,
	)
	return err
}

func (r *QuestionRepository) GetByID(ctx context.Context, id string) (*domain.Question, error) {
	var q domain.Question
	var projectID, section pgtype.Text
	err := r.db.QueryRow(ctx,
		`SELECT id, org_id, project_id, question_text, section, created_at FROM questions WHERE id = $1`,
		id,
	).Scan(&q.ID, &q.OrgID, &projectID, &q.Text, &section, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrQuestionNotFound
		}
		return nil, err
	}
	if projectID.Valid {
		q.ProjectID = projectID.String
	}
	if section.Valid {
		q.Section = section.String
	}
	return &q, nil
}
