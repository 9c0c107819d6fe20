package delivery

import (
	"context"

	"github.com/tech-arch1tect/accounts/services/logging"
	"go.uber.org/zap"
)

// LogSender stands in when no SMTP host is configured. It records that a
// message would have been sent without its contents.
type LogSender struct {
	logger *logging.Service
}

func NewLogSender(logger *logging.Service) *LogSender {
	return &LogSender{logger: logger.Named("delivery")}
}

func (s *LogSender) SendTemplate(_ context.Context, templateName string, to []string, subject string, _ map[string]any) error {
	s.logger.Info("mail not configured, message not sent",
		zap.String("template", templateName),
		zap.Int("recipients", len(to)),
		zap.String("subject", subject))
	return nil
}
