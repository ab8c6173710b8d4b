package service

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"storyboard-server/config"

	"github.com/hibiken/asynq"
)

const (
	TypeBatchGenerate = "task:batch_generate"
)

type TaskPayload struct {
	TaskID string `json:"task_id"`
}

var QueueClient *asynq.Client

// InitQueue 初始化
func InitQueue() {
	QueueClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.Redis.Addr,
		Password: config.AppConfig.Redis.Password,
	})
}

// EnqueueBatchTask 批量生成任务入队
func EnqueueBatchTask(taskID string) error {
	payload, err := json.Marshal(TaskPayload{TaskID: taskID})
	if err != nil {
		return fmt.Errorf("marshal payload failed: %w", err)
	}

	task := asynq.NewTask(TypeBatchGenerate, payload,
		asynq.MaxRetry(0),             // 协调器不重试，部分完成的追加已落库
		asynq.Timeout(60*time.Minute), // 显卡生成较慢，设置较长超时
		asynq.Retention(24*time.Hour),
	)

	info, err := QueueClient.Enqueue(task)
	if err != nil {
		return fmt.Errorf("enqueue failed: %w", err)
	}

	log.Printf("[Queue] Task Enqueued: ID=%s, TaskID=%s", taskID, info.ID)
	return nil
}
