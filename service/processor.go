package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"storyboard-server/config"
	"storyboard-server/models"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// Processor 消费批量生成任务：逐分镜调用协调器并更新任务进度。
// 每个分镜的追加由协调器在存储层原子完成，任务失败不回滚已成功的分镜。
type Processor struct {
	DB    *gorm.DB
	Coord *Coordinator
}

func NewProcessor(db *gorm.DB, coord *Coordinator) *Processor {
	return &Processor{DB: db, Coord: coord}
}

// StartProcessor 启动任务消费者
func (p *Processor) StartProcessor(concurrency int) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     config.AppConfig.Redis.Addr,
			Password: config.AppConfig.Redis.Password,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeBatchGenerate, p.HandleBatchTask)

	log.Printf("Starting Task Processor with concurrency %d...", concurrency)
	go func() {
		if err := srv.Run(mux); err != nil {
			log.Fatalf("could not run server: %v", err)
		}
	}()
}

// batchOutcome summarizes one batch run. Failed shots are listed without
// rolling back the shots that already got their append.
type batchOutcome struct {
	total    int
	done     int
	failures []string
}

func (o batchOutcome) failed() bool { return len(o.failures) > 0 }

// runBatch walks the project's shots for one batch task, calling the
// coordinator per shot. For video batches only shots with a selected image
// are targeted. progress is invoked after every shot, done out of total.
func runBatch(ctx context.Context, coord *Coordinator, projectID, taskType string, progress func(done, total int)) (batchOutcome, error) {
	var out batchOutcome

	if taskType != models.TaskTypeBatchImages && taskType != models.TaskTypeBatchVideos {
		return out, fmt.Errorf("unknown task type: %s", taskType)
	}

	project, err := coord.Store.Get(ctx, projectID)
	if err != nil {
		return out, err
	}

	var targets []int
	for _, shot := range project.Shots {
		if taskType == models.TaskTypeBatchVideos && shot.SelectedImage == nil {
			continue
		}
		targets = append(targets, shot.Index)
	}
	out.total = len(targets)

	for _, idx := range targets {
		var genErr error
		switch taskType {
		case models.TaskTypeBatchImages:
			_, genErr = coord.GenerateImage(ctx, projectID, idx, nil)
		case models.TaskTypeBatchVideos:
			_, genErr = coord.GenerateVideo(ctx, projectID, idx)
		}

		if genErr != nil {
			log.Printf("batch %s on project %s: shot %d failed: %v", taskType, projectID, idx, genErr)
			out.failures = append(out.failures, fmt.Sprintf("shot %d: %v", idx, genErr))
		} else {
			out.done++
		}
		if progress != nil {
			progress(out.done, out.total)
		}
	}
	return out, nil
}

// HandleBatchTask 核心处理逻辑
func (p *Processor) HandleBatchTask(ctx context.Context, t *asynq.Task) error {
	var payload TaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	task, err := models.GetTaskByID(p.DB, payload.TaskID)
	if err != nil {
		return fmt.Errorf("task not found: %v", err)
	}

	log.Printf("Processing Task: %s | Type: %s", task.ID, task.Type)
	if err := task.UpdateStatus(p.DB, models.TaskStatusProcessing, "batch generation started", ""); err != nil {
		log.Printf("UpdateStatus processing failed: %v", err)
	}

	out, err := runBatch(ctx, p.Coord, task.ProjectId, task.Type, func(done, total int) {
		if task.Total != total {
			task.Total = total
			p.DB.Model(task).Update("total", total)
		}
		if err := task.UpdateProgress(p.DB, done, fmt.Sprintf("%d/%d shots done", done, total)); err != nil {
			log.Printf("UpdateProgress failed: %v", err)
		}
	})
	if err != nil {
		task.UpdateStatus(p.DB, models.TaskStatusFailed, "", err.Error())
		return nil
	}

	if out.failed() {
		task.UpdateStatus(p.DB, models.TaskStatusFailed,
			fmt.Sprintf("%d/%d shots done", out.done, out.total),
			strings.Join(out.failures, "; "))
		return nil
	}

	task.UpdateStatus(p.DB, models.TaskStatusSuccess, fmt.Sprintf("all %d shots done", out.total), "")
	log.Printf("Task %s completed successfully", task.ID)
	return nil
}
