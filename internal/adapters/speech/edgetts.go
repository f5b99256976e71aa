package speech

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/PabloGalante/vitalito/internal/domain"
	"github.com/PabloGalante/vitalito/internal/observability"
)

// ErrUnavailable means edge-tts or an audio player is missing.
var ErrUnavailable = errors.New("speech synthesis not available")

// players are tried in order; the first one on PATH plays the audio.
var players = [][]string{
	{"afplay"},
	{"mpv", "--no-video", "--really-quiet"},
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
}

// localeVoices is the voice used for a locale when the configured one does
// not speak it.
var localeVoices = map[string]string{
	"es-ES": "es-ES-ElviraNeural",
	"es-MX": "es-MX-DaliaNeural",
	"en-US": "en-US-AriaNeural",
	"en-GB": "en-GB-SoniaNeural",
	"fr-FR": "fr-FR-DeniseNeural",
	"pt-BR": "pt-BR-FranciscaNeural",
}

// EdgeTTS synthesizes speech with the edge-tts CLI and plays the result
// with the first available audio player. It implements domain.Speaker.
type EdgeTTS struct {
	voice string
	dir   string
}

// NewEdgeTTS uses voice for every utterance in its locale. An empty voice
// picks the locale default.
func NewEdgeTTS(voice string) *EdgeTTS {
	return &EdgeTTS{voice: voice, dir: os.TempDir()}
}

// Speak blocks until playback ends or ctx is cancelled.
func (e *EdgeTTS) Speak(ctx context.Context, u domain.Utterance) error {
	if _, err := exec.LookPath("edge-tts"); err != nil {
		return fmt.Errorf("%w: edge-tts not found", ErrUnavailable)
	}
	player, ok := findPlayer()
	if !ok {
		return fmt.Errorf("%w: no audio player found", ErrUnavailable)
	}

	f, err := os.CreateTemp(e.dir, "vitalito-tts-*.mp3")
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	media := f.Name()
	f.Close()
	defer os.Remove(media)

	txt := filepath.Join(filepath.Dir(media), strings.TrimSuffix(filepath.Base(media), ".mp3")+".txt")
	if err := os.WriteFile(txt, []byte(u.Text), 0o600); err != nil {
		return fmt.Errorf("write utterance: %w", err)
	}
	defer os.Remove(txt)

	synth := exec.CommandContext(ctx, "edge-tts", e.synthArgs(u, txt, media)...)
	if out, err := synth.CombinedOutput(); err != nil {
		return fmt.Errorf("edge-tts: %w: %s", err, strings.TrimSpace(string(out)))
	}

	observability.LoggerFromContext(ctx).Debug("playing utterance", "player", player[0], "chars", len(u.Text))

	play := exec.CommandContext(ctx, player[0], append(player[1:], media)...)
	if err := play.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s: %w", player[0], err)
	}
	return nil
}

func (e *EdgeTTS) synthArgs(u domain.Utterance, textFile, mediaFile string) []string {
	return []string{
		"--voice", e.voiceFor(u.Lang),
		"--rate", percent(u.Rate),
		"--volume", percent(u.Volume),
		"-f", textFile,
		"--write-media", mediaFile,
	}
}

// voiceFor keeps the configured voice when it speaks lang, else falls back
// to the locale default.
func (e *EdgeTTS) voiceFor(lang string) string {
	if lang == "" {
		if e.voice != "" {
			return e.voice
		}
		return localeVoices["es-ES"]
	}
	if e.voice != "" && strings.HasPrefix(strings.ToLower(e.voice), strings.ToLower(lang)+"-") {
		return e.voice
	}
	if v, ok := localeVoices[lang]; ok {
		return v
	}
	// unknown locale; edge-tts voices are named <lang>-<Name>Neural
	observability.Logger().Warn("no voice for locale, using configured voice", "lang", lang, "voice", e.voice)
	if e.voice != "" {
		return e.voice
	}
	return localeVoices["es-ES"]
}

// percent maps a 1.0-based multiplier to edge-tts's signed percentage.
// Zero is treated as the default.
func percent(v float64) string {
	if v == 0 {
		v = 1
	}
	p := int(math.Round((v - 1) * 100))
	if p < 0 {
		return fmt.Sprintf("%d%%", p)
	}
	return fmt.Sprintf("+%d%%", p)
}

func findPlayer() ([]string, bool) {
	for _, p := range players {
		if _, err := exec.LookPath(p[0]); err == nil {
			return p, true
		}
	}
	return nil, false
}
