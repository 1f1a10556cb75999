// Package worker consumes queued email jobs and delivers them through Mailgun.
package worker

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/trade-ham/marketplace-api/pkg/helpers"
	"github.com/trade-ham/marketplace-api/pkg/mailer"
	mailtpl "github.com/trade-ham/marketplace-api/pkg/mailer/templates"
)

// Sender delivers a rendered message; *mailer.Mailgun satisfies it.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Outcome tells the consumer how to settle a delivery.
type Outcome int

const (
	Ack Outcome = iota
	Drop
	Requeue
)

type EmailWorker struct {
	Sender      Sender
	Location    *time.Location
	Logger      *logrus.Logger
	SendTimeout time.Duration
}

func NewEmailWorker(sender Sender, loc *time.Location, logger *logrus.Logger) *EmailWorker {
	if loc == nil {
		loc = time.UTC
	}
	return &EmailWorker{Sender: sender, Location: loc, Logger: logger, SendTimeout: 15 * time.Second}
}

// Handle renders and sends one job body. Malformed or unrenderable jobs are
// dropped; send failures are requeued.
func (w *EmailWorker) Handle(ctx context.Context, body []byte) Outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.log().WithError(err).Warn("bad email job")
		return Drop
	}
	if job.To == "" {
		w.log().Warn("email job without recipient")
		return Drop
	}

	helpers.EnsureRecipientAndEmail(&job)
	helpers.LocalizeTimes(job.Data, w.Location)

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			w.log().WithError(err).WithField("template", job.Template).Warn("render failed")
			return Drop
		}
		subject, text, html = s, t, h
	}
	if subject == "" {
		subject = helpers.SubjectFor(&job)
	}

	c, cancel := context.WithTimeout(ctx, w.SendTimeout)
	defer cancel()
	if err := w.Sender.Send(c, job.To, subject, text, html); err != nil {
		w.log().WithError(err).WithField("template", job.Template).Warn("send failed")
		return Requeue
	}
	return Ack
}

// Run settles deliveries until msgs closes or ctx is done.
func (w *EmailWorker) Run(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			switch w.Handle(ctx, msg.Body) {
			case Ack:
				_ = msg.Ack(false)
			case Drop:
				_ = msg.Nack(false, false)
			case Requeue:
				_ = msg.Nack(false, true)
			}
		}
	}
}

func (w *EmailWorker) log() *logrus.Logger {
	if w.Logger == nil {
		return logrus.StandardLogger()
	}
	return w.Logger
}
