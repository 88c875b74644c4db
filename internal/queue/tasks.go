package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/cathteng/bufo-stickers/internal/domain"
)

const TypeGeneratePack = "pack:generate"

type GeneratePackPayload struct {
	Request     domain.GenerateRequest `json:"request"`
	RequestedAt time.Time              `json:"requested_at"`
}

func NewGeneratePackTask(payload GeneratePackPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal generate payload: %w", err)
	}
	return asynq.NewTask(TypeGeneratePack, body), nil
}

func ParseGeneratePackPayload(task *asynq.Task) (GeneratePackPayload, error) {
	var payload GeneratePackPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return GeneratePackPayload{}, fmt.Errorf("unmarshal generate payload: %w", err)
	}
	return payload, nil
}
