package repository

import (
	"context"
	"time"

	"github.com/aiquery/relay-service/internal/models"
	"github.com/aiquery/relay-service/internal/store"
)

// SQLiteRepository implements Repository backed by the sqlite store
type SQLiteRepository struct {
	db        *store.DB
	queryRepo QueryRepositoryInterface
	eventRepo EventRepositoryInterface
}

func NewSQLiteRepository(db *store.DB) Repository {
	return &SQLiteRepository{
		db:        db,
		queryRepo: &SQLiteQueryRepository{db: db},
		eventRepo: &SQLiteEventRepository{db: db},
	}
}

func (r *SQLiteRepository) Query() QueryRepositoryInterface {
	return r.queryRepo
}

func (r *SQLiteRepository) Event() EventRepositoryInterface {
	return r.eventRepo
}

// SQLiteQueryRepository handles query logging
type SQLiteQueryRepository struct {
	db *store.DB
}

func (r *SQLiteQueryRepository) LogQuery(ctx context.Context, q *models.QueryLog) error {
	r.db.Rec(
		q.Timestamp,
		q.TraceID,
		q.ReqID,
		q.WorkerID,
		q.Source,
		q.ReplyTo,
		q.Prompt,
		q.Suffix,
		q.FullPrompt,
		q.Model,
		q.ResponseText,
		q.TokensIn,
		q.TokensOut,
		time.Duration(q.DurationMs)*time.Millisecond,
		q.Status,
		q.ErrorKind,
		q.Error,
	)
	return nil
}

func (r *SQLiteQueryRepository) GetQueryLogs(ctx context.Context, limit int) ([]*models.QueryLog, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT ts,trace_id,req_id,worker_id,source,reply_to,prompt,suffix,full_prompt,prompt_len,model,response_text,tokens_in,tokens_out,dur_ms,status,error_kind,error FROM queries ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.QueryLog
	for rows.Next() {
		var q models.QueryLog
		var tsFloat float64
		var durMs float64

		if err := rows.Scan(
			&tsFloat, &q.TraceID, &q.ReqID, &q.WorkerID, &q.Source, &q.ReplyTo,
			&q.Prompt, &q.Suffix, &q.FullPrompt, &q.PromptLen, &q.Model,
			&q.ResponseText, &q.TokensIn, &q.TokensOut, &durMs,
			&q.Status, &q.ErrorKind, &q.Error,
		); err == nil {
			q.Timestamp = time.Unix(0, int64(tsFloat*1e9))
			q.DurationMs = int64(durMs)
			logs = append(logs, &q)
		}
	}

	return logs, nil
}

// SQLiteEventRepository handles event logging
type SQLiteEventRepository struct {
	db *store.DB
}

func (r *SQLiteEventRepository) LogEvent(ctx context.Context, level, code, msg string, meta map[string]interface{}) error {
	r.db.Event(level, code, msg, meta)
	return nil
}
