// Package service proxies chat and transcription requests to the OpenAI API.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/adapters/storage"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/assistant/prompts"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/assistant/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/domain"
	reporttransport "github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/reporting/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/logger"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultChatModel       = openai.GPT4oMini
	MaxAudioBytes    int64 = 25 << 20
)

// Client is the subset of *openai.Client the assistant calls.
type Client interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// PipelineSummary provides the CRM context block.
type PipelineSummary interface {
	Dashboard(ctx context.Context, actor access.Actor) (*reporttransport.DashboardResponse, error)
}

// Audio is an uploaded voice note read into memory.
type Audio struct {
	FileName    string
	ContentType string
	Data        []byte
}

type Service struct {
	client   Client
	catalog  *prompts.Catalog
	pipeline PipelineSummary
	archiver storage.Archiver
	bucket   string
	model    string
	log      *logger.Logger
}

// New builds the service. pipeline and archiver are optional.
func New(client Client, catalog *prompts.Catalog, pipeline PipelineSummary, archiver storage.Archiver, bucket, model string, log *logger.Logger) *Service {
	if model == "" {
		model = DefaultChatModel
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		client:   client,
		catalog:  catalog,
		pipeline: pipeline,
		archiver: archiver,
		bucket:   bucket,
		model:    model,
		log:      log,
	}
}

// NewOpenAIClient honours a custom base URL for compatible gateways.
func NewOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return openai.NewClientWithConfig(cfg)
}

// Chat prepends the system prompt, and the caller's CRM figures when asked,
// then forwards the conversation.
func (s *Service) Chat(ctx context.Context, actor access.Actor, req transport.ChatRequest) (transport.ChatResponse, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: s.catalog.Text(prompts.ChatSystem),
	})

	if req.IncludeContext && s.pipeline != nil {
		block, err := s.contextBlock(ctx, actor)
		if err != nil {
			s.log.Warn("assistant context unavailable", "error", err, "memberId", actor.MemberID)
		} else {
			messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: block})
		}
	}

	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: messages,
	})
	if err != nil {
		return transport.ChatResponse{}, upstreamError("chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return transport.ChatResponse{}, apperr.Unavailable("assistant returned no reply")
	}

	return transport.ChatResponse{
		Reply: resp.Choices[0].Message.Content,
		Model: resp.Model,
		Usage: transport.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

type stageValue struct {
	Name  string
	Value float64
}

func (s *Service) contextBlock(ctx context.Context, actor access.Actor) (string, error) {
	d, err := s.pipeline.Dashboard(ctx, actor)
	if err != nil {
		return "", err
	}

	stages := make([]stageValue, 0, len(domain.Statuses))
	for _, st := range domain.Statuses {
		stages = append(stages, stageValue{Name: st, Value: d.PipelineByStatus[st]})
	}
	scope := "for the whole team"
	if !actor.SeesAll() {
		scope = "for your own leads"
	}

	return s.catalog.Render(prompts.CRMContext, map[string]any{
		"MemberRole":           actor.Role,
		"Scope":                scope,
		"TotalLeads":           d.TotalLeads,
		"NewLeadsThisWeek":     d.NewLeadsThisWeek,
		"OpenTasks":            d.OpenTasks,
		"OverdueTasks":         d.OverdueTasks,
		"UpcomingAppointments": d.UpcomingAppointments,
		"PipelineValue":        d.PipelineValue,
		"Stages":               stages,
	})
}

// Transcribe sends the audio to Whisper and archives it when storage is set up.
func (s *Service) Transcribe(ctx context.Context, actor access.Actor, audio Audio) (transport.TranscribeResponse, error) {
	if len(audio.Data) == 0 {
		return transport.TranscribeResponse{}, apperr.Validation("audio file is empty")
	}
	if int64(len(audio.Data)) > MaxAudioBytes {
		return transport.TranscribeResponse{}, apperr.TooLarge(fmt.Sprintf("audio exceeds %d bytes", MaxAudioBytes))
	}
	name := path.Base(audio.FileName)
	if name == "." || name == "/" || name == "" {
		name = "voice-note.webm"
	}

	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: name,
		Reader:   bytes.NewReader(audio.Data),
	})
	if err != nil {
		return transport.TranscribeResponse{}, upstreamError("transcription", err)
	}

	return transport.TranscribeResponse{
		Text:       strings.TrimSpace(resp.Text),
		ArchiveKey: s.archive(ctx, actor, name, audio),
	}, nil
}

func (s *Service) archive(ctx context.Context, actor access.Actor, name string, audio Audio) string {
	if s.archiver == nil {
		return ""
	}
	contentType := storage.NormalizeContentType(audio.ContentType)
	size := int64(len(audio.Data))
	if err := s.archiver.Validate(storage.KindAudio, contentType, size); err != nil {
		s.log.Warn("voice note not archived", "error", err, "contentType", contentType)
		return ""
	}
	folder := actor.OrgID.String() + "/" + actor.MemberID.String()
	key, err := s.archiver.Archive(ctx, s.bucket, folder, name, contentType, bytes.NewReader(audio.Data), size)
	if err != nil {
		s.log.Warn("voice note archive failed", "error", err)
		return ""
	}
	return key
}

// upstreamError keeps provider rate limits distinguishable from outages.
func upstreamError(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 400:
			return apperr.Wrap(apperr.KindBadRequest, "assistant rejected the request", err).WithOp(op)
		case 429:
			return apperr.Wrap(apperr.KindUnavailable, "assistant is busy, try again shortly", err).WithOp(op)
		}
	}
	return apperr.Wrap(apperr.KindUnavailable, "assistant is unavailable", err).WithOp(op)
}
