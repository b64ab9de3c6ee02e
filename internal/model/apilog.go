package model

import "time"

// APILog 接口调用日志，每个请求一条
type APILog struct {
	ID             int       `json:"id"`
	Endpoint       string    `json:"endpoint"`
	Method         string    `json:"method"`
	StatusCode     int       `json:"status_code"`
	ResponseTimeMS int       `json:"response_time_ms"`
	UserID         *int      `json:"user_id,omitempty"`
	RequestBody    string    `json:"request_body,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	IPAddress      string    `json:"ip_address,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
