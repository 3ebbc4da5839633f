package probe

import (
	"encoding/json"
	"slices"
	"strings"
)

// Provider is the upstream API style that decides the request payload shape.
type Provider string

const (
	ProviderBaidu  Provider = "baidu"
	ProviderOpenAI Provider = "openai"
)

// Fixed generation settings sent with every probe.
const (
	SystemPrompt = "你是一个专业的动漫信息助手，帮助用户填写动漫相关信息"
	Temperature  = 0.7
	MaxTokens    = 2000
)

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the chat-completions request body.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// PayloadBuilder builds the request body for a provider.
type PayloadBuilder func(model, prompt string) ChatRequest

// ReplyExtractor pulls the assistant text out of a successful response body.
// It returns an empty string when the body has no recognizable reply.
type ReplyExtractor func(body []byte) string

// ProviderInfo describes a supported provider.
type ProviderInfo struct {
	Provider Provider
	Endpoint string
	Model    string
}

type providerEntry struct {
	info    ProviderInfo
	payload PayloadBuilder
	reply   ReplyExtractor
}

var providers = map[Provider]providerEntry{
	ProviderBaidu: {
		info: ProviderInfo{
			Provider: ProviderBaidu,
			Endpoint: "https://qianfan.baidubce.com/v2/chat/completions",
			Model:    "qwen3-14b",
		},
		payload: qianfanPayload,
		reply:   chatCompletionReply,
	},
	ProviderOpenAI: {
		info: ProviderInfo{
			Provider: ProviderOpenAI,
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
		},
		payload: openAIPayload,
		reply:   chatCompletionReply,
	},
}

// ParseProvider normalizes a provider tag. The result may be unsupported.
func ParseProvider(s string) Provider {
	return Provider(strings.ToLower(strings.TrimSpace(s)))
}

// Supported reports whether the provider has a registered payload builder.
func (p Provider) Supported() bool {
	_, ok := providers[p]
	return ok
}

func (p Provider) String() string {
	return string(p)
}

// Catalog lists supported providers sorted by tag.
func Catalog() []ProviderInfo {
	out := make([]ProviderInfo, 0, len(providers))
	for _, entry := range providers {
		out = append(out, entry.info)
	}
	slices.SortFunc(out, func(a, b ProviderInfo) int {
		return strings.Compare(string(a.Provider), string(b.Provider))
	})
	return out
}

// Tags lists supported provider tags sorted.
func Tags() []string {
	catalog := Catalog()
	out := make([]string, 0, len(catalog))
	for _, info := range catalog {
		out = append(out, string(info.Provider))
	}
	return out
}

func chatMessages(prompt string) []Message {
	return []Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: prompt},
	}
}

// Qianfan v2 accepts the OpenAI chat-completions shape.
func qianfanPayload(model, prompt string) ChatRequest {
	return ChatRequest{
		Model:       model,
		Messages:    chatMessages(prompt),
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	}
}

func openAIPayload(model, prompt string) ChatRequest {
	return ChatRequest{
		Model:       model,
		Messages:    chatMessages(prompt),
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	}
}

type chatCompletion struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func chatCompletionReply(body []byte) string {
	var resp chatCompletion
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	if len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
}
