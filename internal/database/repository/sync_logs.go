package repository

import (
	"context"
	"database/sql"
	"time"
)

// SyncLogRepo records provider sync jobs.
type SyncLogRepo struct{ db *sql.DB }

func NewSyncLogRepo(db *sql.DB) *SyncLogRepo { return &SyncLogRepo{db: db} }

func (r *SyncLogRepo) Insert(ctx context.Context, l SyncLog) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO sync_logs(user_id, job_ref, provider, status, started_at, finished_at, message)
	VALUES(?, ?, ?, ?, ?, ?, ?)
	`, l.UserID, l.JobRef, l.Provider, l.Status, l.StartedAt, l.FinishedAt, l.Message)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *SyncLogRepo) UpdateStatus(ctx context.Context, id int64, status string, finishedAt *time.Time, message *string) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE sync_logs SET status=?, finished_at=?, message=? WHERE id=?`, status, finishedAt, message, id)
	return err
}

// List returns recent jobs newest first.
func (r *SyncLogRepo) List(ctx context.Context, userID int64, limit int) ([]SyncLog, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, user_id, job_ref, provider, status, started_at, finished_at, message
	FROM sync_logs WHERE user_id = ? ORDER BY started_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SyncLog
	for rows.Next() {
		var l SyncLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.JobRef, &l.Provider, &l.Status, &l.StartedAt, &l.FinishedAt, &l.Message); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
