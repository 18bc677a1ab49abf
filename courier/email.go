package courier

import (
	"context"
	"os"
	"strconv"

	"github.com/go-gomail/gomail"
	log "github.com/spoken-corpus/anom-oral/logger"
	"github.com/spoken-corpus/anom-oral/utility/zip"
)

// maxAttachment is the largest zip, in bytes, attached to a message.
const maxAttachment = 2000000

// GoMailSendMail sends a plain text message through the SMTP server named
// by SMTP_HOST_NAME and SMTP_HOST_PORT. Attachments are zipped together.
func GoMailSendMail(ctx context.Context, recipients []string, subject string, msg string,
	attachments []string) *log.Status {
	senderEmail := os.Getenv("SMTP_SENDER_EMAIL")
	password := os.Getenv("SMTP_PASSWORD")
	smtpHost := os.Getenv("SMTP_HOST_NAME")
	smtpPort, _ := strconv.Atoi(os.Getenv("SMTP_HOST_PORT"))

	m := gomail.NewMessage()
	m.SetHeader("From", senderEmail)
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", msg)
	if len(attachments) > 0 {
		zipFile, zipSize, err := zip.ZipFiles(attachments)
		if err != nil {
			_ = log.Error(ctx, 500, err, "Failed to create zip for attachment")
		} else if zipSize < maxAttachment {
			m.Attach(zipFile)
		} else {
			log.Warn(ctx, "Attachment", zipFile, "is too large to send")
		}
	}
	d := gomail.NewDialer(smtpHost, smtpPort, senderEmail, password)
	err := d.DialAndSend(m)
	if err != nil {
		return log.Error(ctx, 500, err, "Error sending email")
	}
	log.Info(ctx, "Email sent", smtpHost, smtpPort, subject, recipients)
	return nil
}
