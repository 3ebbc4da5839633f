package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadBuilders_ProduceIdenticalShapes(t *testing.T) {
	t.Parallel()

	baidu := providers[ProviderBaidu].payload("m", "p")
	openai := providers[ProviderOpenAI].payload("m", "p")
	assert.Equal(t, baidu, openai)

	body, err := encodeJSON(baidu, false)
	require.NoError(t, err)
	want := `{"model":"m","messages":[{"role":"system","content":"` + SystemPrompt +
		`"},{"role":"user","content":"p"}],"temperature":0.7,"max_tokens":2000}`
	assert.JSONEq(t, want, string(body))
}

func TestParseProvider(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ProviderOpenAI, ParseProvider("  OpenAI "))
	assert.True(t, ParseProvider("BAIDU").Supported())
	assert.False(t, ParseProvider("doubao").Supported())
}

func TestCatalog_SortedByTag(t *testing.T) {
	t.Parallel()

	catalog := Catalog()
	require.Len(t, catalog, 2)
	assert.Equal(t, ProviderBaidu, catalog[0].Provider)
	assert.Equal(t, "https://qianfan.baidubce.com/v2/chat/completions", catalog[0].Endpoint)
	assert.Equal(t, ProviderOpenAI, catalog[1].Provider)
	assert.Equal(t, []string{"baidu", "openai"}, Tags())
}

func TestChatCompletionReply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "content", body: `{"choices":[{"message":{"content":"ok"}}]}`, want: "ok"},
		{name: "no choices", body: `{"choices":[]}`, want: ""},
		{name: "not json", body: `oops`, want: ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, chatCompletionReply([]byte(tt.body)))
		})
	}
}
