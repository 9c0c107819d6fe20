package mail

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmlTemplate "html/template"
	"io/fs"
	"os"
	textTemplate "text/template"
	"time"

	"github.com/tech-arch1tect/accounts/config"
	"github.com/tech-arch1tect/accounts/services/logging"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

//go:embed templates/*.html templates/*.txt
var defaultTemplates embed.FS

var ErrTemplateNotFound = errors.New("mail template not found")

// Client is the part of *mail.Client the service uses.
type Client interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Service struct {
	config        *config.MailConfig
	client        Client
	htmlTemplates *htmlTemplate.Template
	textTemplates *textTemplate.Template
	logger        *logging.Service
}

func NewService(cfg *config.MailConfig, logger *logging.Service) (*Service, error) {
	if cfg.Host == "" {
		return nil, errors.New("mail host is required")
	}

	clientOpts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(15 * time.Second),
	}

	switch cfg.Encryption {
	case "ssl":
		clientOpts = append(clientOpts, mail.WithSSL())
	case "none":
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.NoTLS))
	case "opportunistic":
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.TLSOpportunistic))
	default:
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	if cfg.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password))
	}

	client, err := mail.NewClient(cfg.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	logger.Info("mail client configured",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("encryption", cfg.Encryption))

	return NewServiceWithClient(cfg, logger, client)
}

func NewServiceWithClient(cfg *config.MailConfig, logger *logging.Service, client Client) (*Service, error) {
	if cfg.FromAddress == "" {
		return nil, errors.New("mail from address is required")
	}

	s := &Service{
		config: cfg,
		client: client,
		logger: logger.Named("mail"),
	}
	if err := s.loadTemplates(); err != nil {
		return nil, err
	}
	return s, nil
}

// loadTemplates parses the embedded defaults, then lets files in
// TemplatesDir override them by name.
func (s *Service) loadTemplates() error {
	sources := []fs.FS{mustSub(defaultTemplates, "templates")}
	if s.config.TemplatesDir != "" {
		sources = append(sources, os.DirFS(s.config.TemplatesDir))
	}

	s.htmlTemplates = htmlTemplate.New("mail")
	s.textTemplates = textTemplate.New("mail")

	for _, src := range sources {
		if err := parseInto(src, "*.html", func(name, body string) error {
			_, err := s.htmlTemplates.New(name).Parse(body)
			return err
		}); err != nil {
			return fmt.Errorf("failed to parse html templates: %w", err)
		}
		if err := parseInto(src, "*.txt", func(name, body string) error {
			_, err := s.textTemplates.New(name).Parse(body)
			return err
		}); err != nil {
			return fmt.Errorf("failed to parse text templates: %w", err)
		}
	}

	s.logger.Debug("mail templates loaded",
		zap.Int("html_templates", len(s.htmlTemplates.Templates())),
		zap.Int("text_templates", len(s.textTemplates.Templates())))
	return nil
}

func parseInto(src fs.FS, pattern string, add func(name, body string) error) error {
	matches, err := fs.Glob(src, pattern)
	if err != nil {
		return err
	}
	for _, name := range matches {
		body, err := fs.ReadFile(src, name)
		if err != nil {
			return err
		}
		if err := add(name, string(body)); err != nil {
			return err
		}
	}
	return nil
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

func (s *Service) newMessage(to []string, subject string) (*mail.Msg, error) {
	message := mail.NewMsg()

	if s.config.FromName != "" {
		if err := message.FromFormat(s.config.FromName, s.config.FromAddress); err != nil {
			return nil, fmt.Errorf("invalid from address: %w", err)
		}
	} else if err := message.From(s.config.FromAddress); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}

	if err := message.To(to...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}
	message.Subject(subject)
	return message, nil
}

// Render builds the message for templateName without sending it.
func (s *Service) Render(templateName string, to []string, subject string, data map[string]any) (*mail.Msg, error) {
	message, err := s.newMessage(to, subject)
	if err != nil {
		return nil, err
	}

	var rendered bool

	if t := s.htmlTemplates.Lookup(templateName + ".html"); t != nil {
		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("failed to execute html template %s: %w", templateName, err)
		}
		message.SetBodyString(mail.TypeTextHTML, buf.String())
		rendered = true
	}

	if t := s.textTemplates.Lookup(templateName + ".txt"); t != nil {
		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("failed to execute text template %s: %w", templateName, err)
		}
		if rendered {
			message.AddAlternativeString(mail.TypeTextPlain, buf.String())
		} else {
			message.SetBodyString(mail.TypeTextPlain, buf.String())
		}
		rendered = true
	}

	if !rendered {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateName)
	}
	return message, nil
}

func (s *Service) SendTemplate(ctx context.Context, templateName string, to []string, subject string, data map[string]any) error {
	message, err := s.Render(templateName, to, subject, data)
	if err != nil {
		s.logger.Error("failed to build email", zap.Error(err), zap.String("template", templateName))
		return err
	}

	start := time.Now()
	if err := s.client.DialAndSendWithContext(ctx, message); err != nil {
		s.logger.Error("failed to send email", zap.Error(err),
			zap.String("template", templateName),
			zap.Duration("attempt_duration", time.Since(start)))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent", zap.String("template", templateName),
		zap.Duration("send_duration", time.Since(start)))
	return nil
}
