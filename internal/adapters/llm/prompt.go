package llm

import (
	"strings"

	"github.com/PabloGalante/vitalito/internal/domain"
)

// VisionPrompt is sent along with a captured prescription photo.
const VisionPrompt = "Dime información importante sobre esta receta, no olvides que debes responder en español"

const mockChatReply = `Soy Vitalito (modo de prueba). Recibí tu mensaje: %q.
Recuerda que no reemplazo la consulta con un profesional de la salud.`

const mockImageReply = `Imagen recibida (%dx%d, %s). En modo de prueba no puedo leer la receta, ` +
	`pero el flujo de captura y envío funciona correctamente.`

// FormatConversation renders messages as "role: content" lines.
func FormatConversation(msgs []domain.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, string(m.Role)+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

// LastUserText returns the content of the most recent user message.
func LastUserText(msgs []domain.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}
