package mailer

import (
	"github.com/oksasatya/go-user-management/pkg/mailer/templates"
)

// EmailJob is one templated notification addressed to a single recipient.
type EmailJob struct {
	To       string
	Template string // templates.Welcome or templates.AccountBlocked
	Data     templates.EmailData
}

// Render produces subject, text and html bodies for the job.
func (j EmailJob) Render() (subject, text, html string, err error) {
	return templates.Render(j.Template, j.Data)
}
