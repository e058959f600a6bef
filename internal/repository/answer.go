package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rfpworks/rfpworks/internal/domain"
	"github.com/rfpworks/rfpworks/internal/pagination"
)

// AnswerRepository persists generated answers and their source attributions.
// Answers are insert-only; regeneration adds a new row.
type AnswerRepository struct {
	db dbtx
}

func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{db: pool}
}

func NewAnswerRepositoryWithTx(tx dbtx) *AnswerRepository {
	return &AnswerRepository{db: tx}
}

// Create inserts an answer and its sources. Callers needing the two writes
// to be atomic run it inside a transaction.
func (r *AnswerRepository) Create(ctx context.Context, a *domain.GeneratedAnswer) error {
	if err := domain.ValidateGeneratedAnswer(a); err != nil {
		return err
	}

	generatedAt := a.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO answers (id, question_id, answer_text, confidence, generated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		a.ID, a.QuestionID, a.Text, a.Confidence, generatedAt,
	)
	if err != nil {
		return err
	}

	for i, src := range a.Sources {
		_, err := r.db.Exec(ctx,
			`INSERT INTO answer_sources (answer_id, position, file_name, chunk_ref, relevance_percent, text_excerpt)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			a.ID, i, src.FileName, src.ChunkRef, src.RelevancePercent, src.TextExcerpt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetByID loads one answer with its sources.
func (r *AnswerRepository) GetByID(ctx context.Context, id string) (*domain.GeneratedAnswer, error) {
	var a domain.GeneratedAnswer
	err := r.db.QueryRow(ctx,
		`SELECT id, question_id, answer_text, confidence, generated_at FROM answers WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.QuestionID, &a.Text, &a.Confidence, &a.GeneratedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAnswerNotFound
		}
		return nil, err
	}

	sources, err := r.loadSources(ctx, []string{a.ID})
	if err != nil {
		return nil, err
	}
	a.Sources = sources[a.ID]
	return &a, nil
}

// ListByQuestion returns a question's answers newest first, keyset-paginated
// on (generated_at, id).
func (r *AnswerRepository) ListByQuestion(ctx context.Context, questionID string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[*domain.GeneratedAnswer], error) {
	if limit <= 0 {
		limit = 20
	}

	var (
		rows pgx.Rows
		err  error
	)
	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, question_id, answer_text, confidence, generated_at
			 FROM answers
			 WHERE question_id = $1 AND (generated_at, id) < ($2, $3)
			 ORDER BY generated_at DESC, id DESC
			 LIMIT $4`,
			questionID, cursor.Timestamp, cursor.LastID, limit,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, question_id, answer_text, confidence, generated_at
			 FROM answers
			 WHERE question_id = $1
			 ORDER BY generated_at DESC, id DESC
			 LIMIT $2`,
			questionID, limit,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []*domain.GeneratedAnswer
	var ids []string
	for rows.Next() {
		var a domain.GeneratedAnswer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Text, &a.Confidence, &a.GeneratedAt); err != nil {
			return nil, err
		}
		answers = append(answers, &a)
		ids = append(ids, a.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) > 0 {
		sources, err := r.loadSources(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, a := range answers {
			a.Sources = sources[a.ID]
		}
	}

	next := pagination.CreateNextCursor(answers, limit,
		func(a *domain.GeneratedAnswer) string { return a.ID },
		func(a *domain.GeneratedAnswer) time.Time { return a.GeneratedAt },
	)
	return &pagination.PageResult[*domain.GeneratedAnswer]{
		Items:   answers,
		Cursor:  next,
		HasMore: next != "",
	}, nil
}

func (r *AnswerRepository) loadSources(ctx context.Context, answerIDs []string) (map[string][]domain.Source, error) {
	rows, err := r.db.Query(ctx,
		`SELECT answer_id, file_name, chunk_ref, relevance_percent, text_excerpt
		 FROM answer_sources
		 WHERE answer_id = ANY($1)
		 ORDER BY answer_id, position`,
		answerIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sources := make(map[string][]domain.Source)
	for rows.Next() {
		var answerID string
		var src domain.Source
		if err := rows.Scan(&answerID, &src.FileName, &src.ChunkRef, &src.RelevancePercent, &src.TextExcerpt); err != nil {
			return nil, err
		}
		sources[answerID] = append(sources[answerID], src)
	}
	return sources, rows.Err()
}
