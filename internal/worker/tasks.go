package worker

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TypeCachePurge = "cache:purge"

type CachePurgePayload struct {
	// Retention overrides the handler's retention window when positive.
	Retention time.Duration `json:"retention,omitempty"`
}

func NewCachePurgeTask(retention time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(CachePurgePayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCachePurge, payload, asynq.MaxRetry(3), asynq.Timeout(5*time.Minute)), nil
}
