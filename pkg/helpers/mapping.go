package helpers

import (
	"fmt"
	"strings"

	"github.com/trade-ham/marketplace-api/pkg/mailer"
	mailtpl "github.com/trade-ham/marketplace-api/pkg/mailer/templates"
)

// SubjectFor is the fallback subject when a job carries neither a subject nor
// a template with its own subject file.
func SubjectFor(job *mailer.EmailJob) string {
	if s := strings.TrimSpace(job.Subject); s != "" {
		return s
	}
	switch strings.ToLower(job.Template) {
	case mailtpl.PurchaseComplete:
		return "Your purchase is complete"
	default:
		return "Notification"
	}
}

func EnsureRecipientAndEmail(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}
