package llm

import (
	"fmt"
	"strings"

	"github.com/PabloGalante/vitalito/internal/domain"
)

// MockLLM produces canned replies for local development. It does no inference.
type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

// Reply answers the last user message of the conversation.
func (m *MockLLM) Reply(history []domain.Message) string {
	return fmt.Sprintf(mockChatReply, LastUserText(history))
}

// Chunks splits a reply into word-sized stream deltas that concatenate back
// to the original text.
func (m *MockLLM) Chunks(reply string) []string {
	var chunks []string
	for len(reply) > 0 {
		i := strings.IndexByte(reply, ' ')
		if i < 0 {
			chunks = append(chunks, reply)
			break
		}
		chunks = append(chunks, reply[:i+1])
		reply = reply[i+1:]
	}
	return chunks
}

// DescribeImage acknowledges an uploaded image.
func (m *MockLLM) DescribeImage(format string, width, height int) string {
	return fmt.Sprintf(mockImageReply, width, height, format)
}
