package store

import (
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	*sql.DB
}

func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Create events table
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS events(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts REAL,
		level TEXT,
		code TEXT,
		msg TEXT,
		meta TEXT
	)`); err != nil {
		return nil, err
	}

	// Create queries table with full prompt/response content
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS queries(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts REAL,
		trace_id TEXT,
		req_id TEXT,
		worker_id TEXT,
		source TEXT,
		reply_to TEXT,
		prompt TEXT,
		suffix TEXT,
		full_prompt TEXT,
		prompt_len INTEGER,
		model TEXT,
		response_text TEXT,
		tokens_in INTEGER,
		tokens_out INTEGER,
		dur_ms REAL,
		status TEXT,
		error_kind TEXT,
		error TEXT
	)`); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

func (db *DB) Event(level, code, msg string, meta map[string]interface{}) {
	m := ""
	if meta != nil {
		b, _ := json.Marshal(meta)
		m = string(b)
	}
	_, _ = db.Exec(`INSERT INTO events(ts,level,code,msg,meta) VALUES(?,?,?,?,?)`,
		float64(time.Now().UnixNano())/1e9, level, code, msg, m)
}

func (db *DB) Rec(start time.Time, traceID, reqID, workerID, source, replyTo, prompt, suffix, fullPrompt, model, responseText string,
	tokIn, tokOut int, dur time.Duration, status, errorKind, errStr string) {
	_, _ = db.Exec(`INSERT INTO queries(
		ts, trace_id, req_id, worker_id, source, reply_to, prompt, suffix, full_prompt, prompt_len, model, response_text, tokens_in, tokens_out, dur_ms, status, error_kind, error)
		VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		float64(start.UnixNano())/1e9, traceID, reqID, workerID, source, replyTo, prompt, suffix, fullPrompt, len(prompt), model, responseText, tokIn, tokOut, float64(dur.Milliseconds()), status, errorKind, errStr)
}
