package overview_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/vitalito/internal/adapters/storage/memory"
	"github.com/PabloGalante/vitalito/internal/app/overview"
	"github.com/PabloGalante/vitalito/internal/domain"
)

type recordingResponder struct{ submitted []string }

func (r *recordingResponder) Submit(_ context.Context, text string) error {
	r.submitted = append(r.submitted, text)
	return nil
}
func (r *recordingResponder) Stop()             {}
func (r *recordingResponder) IsStreaming() bool { return false }

func TestPickSubmitsAction(t *testing.T) {
	r := &recordingResponder{}

	require.NoError(t, overview.Pick(context.Background(), r, 1))

	assert.Equal(t, []string{"Dime 3 factores de riesgo para contraer diabetes"}, r.submitted)
}

func TestPickOutOfRange(t *testing.T) {
	r := &recordingResponder{}

	assert.Error(t, overview.Pick(context.Background(), r, 2))
	assert.Error(t, overview.Pick(context.Background(), r, -1))
	assert.Empty(t, r.submitted)
}

func TestVisibleOnlyWhenEmpty(t *testing.T) {
	log := memory.NewMessageLog()
	assert.True(t, overview.Visible(log))

	log.Append(domain.Message{Role: domain.RoleUser, Content: "hola"})
	assert.False(t, overview.Visible(log))
}
