package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bebeku/farm/internal/config"
	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/service/assistant"
	"github.com/bebeku/farm/internal/service/commands"
	client "github.com/bebeku/farm/pkg/clients/whatsapp"
	"github.com/bebeku/farm/pkg/llm"
)

const (
	sendTimeout      = 10 * time.Second
	assistantTimeout = 60 * time.Second
)

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// Assistant answers free-text messages.
type Assistant interface {
	Run(ctx context.Context, history []llm.Message) (*assistant.Result, error)
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg        config.WhatsAppConfig
	client     client.Client
	dispatcher commands.Dispatcher
	assistant  Assistant
	sessions   *SessionManager
	logger     *zap.Logger
}

var _ MessagingService = (*MetaWhatsAppService)(nil)

// NewMetaWhatsAppService wires a new service instance. The assistant may be
// nil, in which case free text gets the command help.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, dispatcher commands.Dispatcher, assistant Assistant, sessions *SessionManager, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:        cfg,
		client:     client,
		dispatcher: dispatcher,
		assistant:  assistant,
		sessions:   sessions,
		logger:     logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.sessions == nil {
		svc.sessions = NewSessionManager(0, 0)
	}
	return svc
}

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", errors.New("missing mode or verify token")
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("unsupported hub.mode %s", mode)
	}

	if verifyToken != s.cfg.VerifyToken {
		return "", errors.New("invalid verify token")
	}

	return challenge, nil
}

// HandleWebhook processes inbound webhook payloads.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	var firstErr error

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if err := s.handleInboundMessage(ctx, msg); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}

	return firstErr
}

func (s *MetaWhatsAppService) handleInboundMessage(ctx context.Context, msg models.InboundMessage) error {
	text := strings.TrimSpace(extractMessageText(msg))
	if text == "" {
		s.logger.Debug("ignoring non-text message", zap.String("type", msg.Type), zap.String("message_id", msg.ID))
		return nil
	}

	reply := s.Reply(ctx, msg.From, text)

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return client.SendText(sendCtx, s.client, msg.From, reply)
}

// Reply computes the answer to one worker message: slash commands go to the
// dispatcher, anything else to the assistant.
func (s *MetaWhatsAppService) Reply(ctx context.Context, from, text string) string {
	if models.IsCommand(text) {
		cmd := models.ParseCommand(text)
		s.logger.Info("parsed inbound command",
			zap.String("from", from),
			zap.String("command", string(cmd.Type)),
			zap.Strings("args", cmd.Args))

		out, err := s.dispatcher.HandleCommand(ctx, cmd, from)
		if err != nil {
			return s.describeError(err)
		}
		return out
	}

	if s.assistant == nil {
		return commands.HelpText()
	}

	runCtx, cancel := context.WithTimeout(ctx, assistantTimeout)
	defer cancel()

	history := append(s.sessions.GetSession(from), llm.UserText(text))
	res, err := s.assistant.Run(runCtx, history)
	if err != nil {
		s.logger.Error("assistant failed", zap.String("from", from), zap.Error(err))
		s.sessions.ClearSession(from)
		return "Maaf, asisten sedang tidak bisa menjawab. Gunakan /bantuan untuk mencatat lewat perintah."
	}
	s.sessions.UpdateSession(from, res.Messages)
	if res.Reply == "" {
		return "Selesai."
	}
	return res.Reply
}

func (s *MetaWhatsAppService) describeError(err error) string {
	if usage, ok := commands.Usage(err); ok {
		return "Format salah. Gunakan:\n" + usage.Message
	}
	if errors.Is(err, commands.ErrUnsupportedCommand) {
		return "Perintah tidak dikenal. Ketik /bantuan untuk daftar perintah."
	}

	var de *models.DomainError
	if errors.As(err, &de) {
		switch de.Code {
		case models.CodeNotFound:
			return "Data tidak ditemukan: " + de.Message
		case models.CodeInvalidInput:
			return "Input tidak valid: " + de.Message
		case models.CodePrecondition, models.CodeConflict:
			return "Tidak bisa diproses: " + de.Message
		}
	}

	s.logger.Error("command failed", zap.Error(err))
	return "Terjadi kesalahan, silakan coba lagi nanti."
}

// SendOutbound lets internal operators push quick notifications via HTTP.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         req.To,
		Body:       req.Message,
		PreviewURL: req.PreviewURL,
	})
	return err
}

// Notify sends a message to the configured farm group.
func (s *MetaWhatsAppService) Notify(ctx context.Context, body string) error {
	if s.cfg.GroupID == "" {
		return errors.New("WHATSAPP_GROUP_ID is not configured")
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return client.SendText(ctxWithTimeout, s.client, s.cfg.GroupID, body)
}

func extractMessageText(msg models.InboundMessage) string {
	if msg.Text != nil {
		return msg.Text.Body
	}

	if msg.Interactive != nil {
		if msg.Interactive.ButtonReply != nil {
			return msg.Interactive.ButtonReply.ID
		}
		if msg.Interactive.ListReply != nil {
			return msg.Interactive.ListReply.ID
		}
	}

	return ""
}
