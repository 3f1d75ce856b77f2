package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"github.com/arigatojournal/arigato-backend/internal/models"
)

// Worker consumes push tasks and delivers them through FCM. Delivery
// problems are logged and dropped rather than retried forever; a push is
// best-effort and must not pile up behind a dead device token.
type Worker struct {
	server *asynq.Server
	db     *gorm.DB
	fcm    *FCMClient
	link   string
}

func NewWorker(redisURL string, db *gorm.DB, fcm *FCMClient, link string) (*Worker, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
	})

	return &Worker{server: server, db: db, fcm: fcm, link: link}, nil
}

// Start runs the worker in the background.
func (w *Worker) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskMessagePush, w.handlePush)
	return w.server.Start(mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handlePush(ctx context.Context, task *asynq.Task) error {
	var p PushPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		slog.Error("push task has malformed payload", slog.String("error", err.Error()))
		return nil
	}

	// Writing a note to yourself should not buzz your own phone.
	if p.FromID == p.ToID {
		return nil
	}

	var recipient models.User
	err := w.db.WithContext(ctx).
		Select("user_id", "fcm_token").
		Where("user_id = ?", p.ToID).
		First(&recipient).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load push recipient: %w", err)
	}
	if recipient.FCMToken == "" {
		slog.Info("recipient has no device token, skipping push",
			slog.String("to_id", p.ToID),
			slog.String("message_id", p.MessageID))
		return nil
	}

	title := "ありがとうが届きました！"
	body := fmt.Sprintf("%sさん: %s", p.FromName, Preview(p.Body))

	if err := w.fcm.Send(ctx, recipient.FCMToken, title, body, w.link); err != nil {
		slog.Error("push delivery failed",
			slog.String("to_id", p.ToID),
			slog.String("message_id", p.MessageID),
			slog.String("error", err.Error()))
		return nil
	}

	slog.Info("push delivered",
		slog.String("to_id", p.ToID),
		slog.String("message_id", p.MessageID))
	return nil
}
