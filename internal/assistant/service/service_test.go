package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/adapters/storage"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/assistant/prompts"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/assistant/transport"
	reporttransport "github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/reporting/transport"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/apperr"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
)

type fakeClient struct {
	chatReq  openai.ChatCompletionRequest
	audioReq openai.AudioRequest
	audio    []byte
	err      error
}

func (f *fakeClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.chatReq = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Model:   req.Model,
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "Call Acme today."}}},
		Usage:   openai.Usage{PromptTokens: 40, CompletionTokens: 5, TotalTokens: 45},
	}, nil
}

func (f *fakeClient) CreateTranscription(_ context.Context, req openai.AudioRequest) (openai.AudioResponse, error) {
	f.audioReq = req
	data, err := io.ReadAll(req.Reader)
	if err != nil {
		return openai.AudioResponse{}, err
	}
	f.audio = data
	return openai.AudioResponse{Text: "  follow up with Acme  "}, nil
}

type fixedDashboard struct{}

func (fixedDashboard) Dashboard(context.Context, access.Actor) (*reporttransport.DashboardResponse, error) {
	return &reporttransport.DashboardResponse{
		TotalLeads:       12,
		OverdueTasks:     2,
		PipelineByStatus: map[string]float64{"proposal": 5000},
		PipelineValue:    5000,
	}, nil
}

type audioArchive struct {
	folder string
}

func (a *audioArchive) Archive(_ context.Context, _, folder, fileName, _ string, _ io.Reader, _ int64) (string, error) {
	a.folder = folder
	return folder + "/" + fileName, nil
}

func (a *audioArchive) DownloadURL(context.Context, string, string) (*storage.PresignedURL, error) {
	return nil, nil
}

func (a *audioArchive) EnsureBucketExists(context.Context, string) error { return nil }

func (a *audioArchive) Validate(kind storage.Kind, _ string, _ int64) error {
	if kind != storage.KindAudio {
		return apperr.Validation("wrong kind")
	}
	return nil
}

func testCatalog(t *testing.T) *prompts.Catalog {
	t.Helper()
	c, err := prompts.Load()
	if err != nil {
		t.Fatalf("load prompts: %v", err)
	}
	return c
}

var associate = access.Actor{UserID: uuid.New(), OrgID: uuid.New(), MemberID: uuid.New(), Role: access.RoleSalesAssociate}

func TestChatPrependsPromptsAndContext(t *testing.T) {
	client := &fakeClient{}
	svc := New(client, testCatalog(t), fixedDashboard{}, nil, "", "", nil)

	resp, err := svc.Chat(context.Background(), associate, transport.ChatRequest{
		Messages:       []transport.ChatMessage{{Role: "user", Content: "What should I do today?"}},
		IncludeContext: true,
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	msgs := client.chatReq.Messages
	if len(msgs) != 3 {
		t.Fatalf("expected system, context and user messages, got %d", len(msgs))
	}
	if msgs[0].Role != openai.ChatMessageRoleSystem || msgs[1].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("unexpected roles %q %q", msgs[0].Role, msgs[1].Role)
	}
	for _, want := range []string{"total leads: 12", "overdue: 2", "proposal=5000", "for your own leads"} {
		if !strings.Contains(msgs[1].Content, want) {
			t.Fatalf("context block missing %q:\n%s", want, msgs[1].Content)
		}
	}
	if client.chatReq.Model != DefaultChatModel {
		t.Fatalf("expected default model, got %q", client.chatReq.Model)
	}
	if resp.Reply != "Call Acme today." || resp.Usage.TotalTokens != 45 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestChatWithoutContext(t *testing.T) {
	client := &fakeClient{}
	svc := New(client, testCatalog(t), fixedDashboard{}, nil, "", "custom-model", nil)

	_, err := svc.Chat(context.Background(), associate, transport.ChatRequest{
		Messages: []transport.ChatMessage{{Role: "user", Content: "hi"}, {Role: "assistant", Content: "hello"}, {Role: "user", Content: "help"}},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if len(client.chatReq.Messages) != 4 || client.chatReq.Model != "custom-model" {
		t.Fatalf("unexpected request %+v", client.chatReq)
	}
}

func TestChatMapsUpstreamErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind apperr.Kind
	}{
		{"rate limited", &openai.APIError{HTTPStatusCode: 429, Message: "slow down"}, apperr.KindUnavailable},
		{"bad request", &openai.APIError{HTTPStatusCode: 400, Message: "bad"}, apperr.KindBadRequest},
		{"network", errors.New("connection reset"), apperr.KindUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := New(&fakeClient{err: tt.err}, testCatalog(t), nil, nil, "", "", nil)
			_, err := svc.Chat(context.Background(), associate, transport.ChatRequest{Messages: []transport.ChatMessage{{Role: "user", Content: "x"}}})
			if !apperr.Is(err, tt.kind) {
				t.Fatalf("expected kind %v, got %v", tt.kind, err)
			}
		})
	}
}

func TestTranscribeArchivesAudio(t *testing.T) {
	client := &fakeClient{}
	archive := &audioArchive{}
	svc := New(client, testCatalog(t), nil, archive, "voice-notes", "", nil)

	resp, err := svc.Transcribe(context.Background(), associate, Audio{FileName: "../note.webm", ContentType: "audio/webm", Data: []byte("RIFF")})
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if resp.Text != "follow up with Acme" {
		t.Fatalf("unexpected text %q", resp.Text)
	}
	if client.audioReq.Model != openai.Whisper1 || client.audioReq.FilePath != "note.webm" || string(client.audio) != "RIFF" {
		t.Fatalf("unexpected audio request %+v", client.audioReq)
	}
	wantFolder := associate.OrgID.String() + "/" + associate.MemberID.String()
	if archive.folder != wantFolder || resp.ArchiveKey != wantFolder+"/note.webm" {
		t.Fatalf("unexpected archive %q / %q", archive.folder, resp.ArchiveKey)
	}
}

func TestTranscribeRejectsEmptyAudio(t *testing.T) {
	svc := New(&fakeClient{}, testCatalog(t), nil, nil, "", "", nil)
	if _, err := svc.Transcribe(context.Background(), associate, Audio{FileName: "a.webm"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
