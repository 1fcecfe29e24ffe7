package transport

type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required,max=4000"`
}

type ChatRequest struct {
	Messages       []ChatMessage `json:"messages" validate:"required,min=1,max=30,dive"`
	IncludeContext bool          `json:"includeContext"`
}

type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

type ChatResponse struct {
	Reply string `json:"reply"`
	Model string `json:"model"`
	Usage Usage  `json:"usage"`
}

type TranscribeResponse struct {
	Text       string `json:"text"`
	ArchiveKey string `json:"archiveKey,omitempty"`
}
