package interfaces

import "github.com/D3stinn3/HC/internal/model"

type APILogRepository interface {
	Create(log *model.APILog) error
}
