package api

import (
	"net/http"
	"time"

	"storyboard-server/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// 查询任务状态：GET /v1/api/tasks/:task_id
func GetTaskStatus(c *gin.Context) {
	t, err := models.GetTaskByID(TaskDB, c.Param("task_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": t})
}

// 任务进度 WebSocket 推送：轮询 DB，状态/进度变化时推送，终态后关闭
func TaskProgressWebSocket(c *gin.Context) {
	taskID := c.Param("task_id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "websocket upgrade failed"})
		return
	}
	defer conn.Close()

	streamTaskProgress(conn, func() (*models.Task, error) {
		return models.GetTaskByID(TaskDB, taskID)
	})
}

// streamTaskProgress 推送任务进度直到终态或客户端断开。
// A reader goroutine drains the connection so a client hanging up is noticed
// within one poll tick even when the task is idle and nothing is written.
func streamTaskProgress(conn *websocket.Conn, fetch func() (*models.Task, error)) {
	t, err := fetch()
	if err != nil {
		conn.WriteJSON(map[string]interface{}{"error": "task not found"})
		return
	}
	_ = conn.WriteJSON(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	prevStatus := t.Status
	prevProgress := t.Progress

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}

		cur, err := fetch()
		if err != nil {
			continue
		}

		if cur.Status != prevStatus || cur.Progress != prevProgress {
			if err := conn.WriteJSON(cur); err != nil {
				return
			}
			prevStatus = cur.Status
			prevProgress = cur.Progress
		}

		if cur.Status == models.TaskStatusSuccess || cur.Status == models.TaskStatusFailed {
			_ = conn.WriteJSON(cur)
			return
		}
	}
}
