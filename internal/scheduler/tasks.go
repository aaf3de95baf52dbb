package scheduler

import (
	"encoding/json"
	"fmt"

	"salesflow_backend/internal/notification/inapp"

	"github.com/hibiken/asynq"
)

const TaskDeliverNotification = "notifications.deliver"

// DeliverNotificationPayload is the queued form of one in-app notification.
type DeliverNotificationPayload struct {
	Notification inapp.SendParams `json:"notification"`
}

func NewDeliverNotificationTask(payload DeliverNotificationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDeliverNotification, data), nil
}

func ParseDeliverNotificationPayload(task *asynq.Task) (DeliverNotificationPayload, error) {
	var payload DeliverNotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DeliverNotificationPayload{}, fmt.Errorf("decode %s payload: %w", TaskDeliverNotification, err)
	}
	return payload, nil
}
