package mysql

import (
	"database/sql"

	"github.com/D3stinn3/HC/internal/model"
)

type APILogRepository struct {
	db *sql.DB
}

func NewAPILogRepository(db *sql.DB) *APILogRepository {
	return &APILogRepository{db}
}

func (r *APILogRepository) Create(log *model.APILog) error {
	_, err := r.db.Exec(`
		INSERT INTO api_logs (endpoint, method, status_code, response_time_ms,
			user_id, request_body, error_message, ip_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW())`,
		log.Endpoint, log.Method, log.StatusCode, log.ResponseTimeMS,
		log.UserID, log.RequestBody, log.ErrorMessage, log.IPAddress)
	return err
}
