package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/vitalito/internal/adapters/storage/memory"
	"github.com/PabloGalante/vitalito/internal/domain"
)

func TestKVStoreGetSet(t *testing.T) {
	ctx := context.Background()
	s := memory.NewKVStore()

	_, ok, err := s.Get(ctx, "input")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "input", "hola"))
	require.NoError(t, s.Set(ctx, "input", "hola mundo"))

	v, ok, err := s.Get(ctx, "input")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hola mundo", v)
	assert.Equal(t, 2, s.Writes())
}

func TestMessageLogUpdateAndSanitize(t *testing.T) {
	l := memory.NewMessageLog()
	l.Append(domain.Message{ID: "u1", Role: domain.RoleUser, Content: "hola"})
	l.Append(domain.Message{ID: "a1", Role: domain.RoleAssistant, Pending: true})

	ok := l.Update("a1", func(m *domain.Message) { m.Content += "par" })
	require.True(t, ok)
	assert.False(t, l.Update("missing", func(*domain.Message) {}))

	msgs := l.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "par", msgs[1].Content)

	l.Update("a1", func(m *domain.Message) { m.Content = "" })
	l.Sanitize()
	assert.Equal(t, 1, l.Len())
}

func TestMessageLogMessagesReturnsCopy(t *testing.T) {
	l := memory.NewMessageLog()
	l.Append(domain.Message{ID: "u1", Content: "hola"})

	msgs := l.Messages()
	msgs[0].Content = "mutated"

	assert.Equal(t, "hola", l.Messages()[0].Content)
}

func TestMessageLogRemove(t *testing.T) {
	l := memory.NewMessageLog()
	l.Append(domain.Message{ID: "u1", Role: domain.RoleUser, Content: "hola"})
	l.Append(domain.Message{ID: "a1", Role: domain.RoleAssistant})
	l.Append(domain.Message{ID: "u2", Role: domain.RoleUser, Content: "sigo"})

	assert.True(t, l.Remove("a1"))
	assert.False(t, l.Remove("a1"))

	msgs := l.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.MessageID("u1"), msgs[0].ID)
	assert.Equal(t, domain.MessageID("u2"), msgs[1].ID)
}
