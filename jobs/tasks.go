package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeExpireSubscriptions sweeps overdue subscriptions.
	TaskTypeExpireSubscriptions = "subscriptions:expire"
	// TaskTypePruneSessions removes expired session records.
	TaskTypePruneSessions = "sessions:prune"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewExpireSubscriptionsTask constructs the subscription sweep task. It
// carries no payload.
func NewExpireSubscriptionsTask() *asynq.Task {
	return asynq.NewTask(TaskTypeExpireSubscriptions, nil)
}

// NewPruneSessionsTask constructs the session cleanup task.
func NewPruneSessionsTask() *asynq.Task {
	return asynq.NewTask(TaskTypePruneSessions, nil)
}

// WelcomeEmail builds the payload for the post-signup welcome message.
func WelcomeEmail(to, name string) SendEmailPayload {
	return SendEmailPayload{
		To:      to,
		Subject: "Bem-vindo ao Alimmenta!",
		Body: fmt.Sprintf("Olá %s,\n\n"+
			"Sua conta no Alimmenta foi criada. Configure o seu perfil alimentar para receber sugestões de produtos seguros para você.\n\n"+
			"Equipe Alimmenta", name),
	}
}
