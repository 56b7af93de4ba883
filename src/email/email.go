package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"mime"
	"mime/quotedprintable"
	"net/smtp"
	"regexp"
	"strings"
	"time"

	"git.collab.network/collab/src/config"
	"git.collab.network/collab/src/models"
	"git.collab.network/collab/src/notifications"
	"git.collab.network/collab/src/oops"
	"git.collab.network/collab/src/parsing"
	"github.com/Masterminds/sprig"
	"github.com/google/uuid"
)

const excerptLength = 280

//go:embed templates
var templateFS embed.FS

var templates = template.Must(
	template.New("").
		Funcs(sprig.FuncMap()).
		ParseFS(templateFS, "templates/*.html"),
)

type MentionEmailData struct {
	RecipientName string
	AuthorName    string
	Kind          models.ContentKind
	PostTitle     string
	Excerpt       string
	URL           string
	SentAt        time.Time
}

// The function used to actually send mail. Matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Delivers notifications as email over SMTP.
type Deliverer struct {
	Config config.EmailConfig
	Send   SendFunc
	Now    func() time.Time
}

var _ notifications.Deliverer = &Deliverer{}

func NewDeliverer(cfg config.EmailConfig) *Deliverer {
	return &Deliverer{
		Config: cfg,
		Send:   smtp.SendMail,
	}
}

func (d *Deliverer) Deliver(ctx context.Context, msg notifications.Message) error {
	if !d.Config.Configured() {
		return oops.New(nil, "email is not configured")
	}
	if !IsEmail(msg.Recipient.Email) {
		return oops.New(nil, "recipient has an invalid email address")
	}

	now := time.Now()
	if d.Now != nil {
		now = d.Now()
	}

	contents, err := renderTemplate("mention.html", MentionEmailData{
		RecipientName: msg.Recipient.BestName(),
		AuthorName:    msg.Subject.AuthorName,
		Kind:          msg.Subject.Kind,
		PostTitle:     msg.Subject.PostTitle,
		Excerpt:       parsing.RenderPlaintext(msg.Subject.Markdown, excerptLength),
		URL:           msg.URL,
		SentAt:        now,
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("[collab] %s mentioned you", msg.Subject.AuthorName)
	if err := d.sendMail(msg.Recipient.Email, msg.Recipient.BestName(), subject, contents, now); err != nil {
		return oops.New(err, "failed to send email")
	}
	return nil
}

var EmailRegex = regexp.MustCompile(`^[^:\p{Cc} ]+@[^:\p{Cc} ]+\.[^:\p{Cc} ]+$`)

func IsEmail(address string) bool {
	return EmailRegex.MatchString(address)
}

func renderTemplate(name string, data any) (string, error) {
	var buffer bytes.Buffer
	err := templates.ExecuteTemplate(&buffer, name, data)
	if err != nil {
		return "", oops.New(err, "failed to render template for email")
	}
	return strings.ReplaceAll(buffer.String(), "\n", "\r\n"), nil
}

func (d *Deliverer) sendMail(toAddress, toName, subject, contentHtml string, now time.Time) error {
	cfg := d.Config
	if cfg.ForceToAddress != "" {
		toAddress = cfg.ForceToAddress
	}
	contents := prepMailContents(
		makeHeaderAddress(toAddress, toName),
		makeHeaderAddress(cfg.FromAddress, cfg.FromName),
		messageID(cfg.FromAddress),
		subject,
		contentHtml,
		now,
	)

	send := d.Send
	if send == nil {
		send = smtp.SendMail
	}
	return send(
		fmt.Sprintf("%s:%d", cfg.ServerAddress, cfg.ServerPort),
		smtp.PlainAuth("", cfg.MailerUsername, cfg.MailerPassword, cfg.ServerAddress),
		cfg.FromAddress,
		[]string{toAddress},
		contents,
	)
}

func messageID(fromAddress string) string {
	domain := "collab.local"
	if at := strings.LastIndex(fromAddress, "@"); at >= 0 {
		domain = fromAddress[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.New().String(), domain)
}

func makeHeaderAddress(email, fullname string) string {
	if fullname != "" {
		encoded := mime.BEncoding.Encode("utf-8", fullname)
		if encoded == fullname {
			encoded = strings.ReplaceAll(encoded, `"`, `\"`)
			encoded = fmt.Sprintf("\"%s\"", encoded)
		}
		return fmt.Sprintf("%s <%s>", encoded, email)
	} else {
		return email
	}
}

func prepMailContents(toLine, fromLine, messageID, subject, contentHtml string, now time.Time) []byte {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("To: %s\r\n", toLine))
	builder.WriteString(fmt.Sprintf("From: %s\r\n", fromLine))
	builder.WriteString(fmt.Sprintf("Message-ID: %s\r\n", messageID))
	builder.WriteString(fmt.Sprintf("Date: %s\r\n", now.UTC().Format(time.RFC1123Z)))
	builder.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject)))
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	builder.WriteString("Content-Transfer-Encoding: quoted-printable\r\n")
	builder.WriteString("\r\n")
	writer := quotedprintable.NewWriter(&builder)
	writer.Write([]byte(contentHtml))
	writer.Close()
	builder.WriteString("\r\n")

	return []byte(builder.String())
}
