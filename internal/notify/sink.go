// Package notify raises user-visible reminders through three independent
// channels: a desktop notification, a short audio cue, and a spoken
// phrase. Channels degrade individually; one failing never blocks the
// others.
package notify

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"go.uber.org/zap"
)

// Sink is the side-effecting leaf that delivers a reminder to the user.
type Sink struct {
	logger    *zap.Logger
	player    *SoundPlayer
	notifyBin string
	voiceBin  string
}

// NewSink probes the available delivery channels. A nil player disables
// the audio channel; missing system binaries disable theirs. Nothing
// here is fatal: a sink with zero working channels is still valid and
// simply logs deliveries.
func NewSink(player *SoundPlayer, logger *zap.Logger) *Sink {
	s := &Sink{logger: logger, player: player}

	if path, err := exec.LookPath(notifyCommand()); err == nil {
		s.notifyBin = path
	} else {
		logger.Info("desktop notifications unavailable", zap.Error(err))
	}
	if path, err := exec.LookPath(voiceCommand()); err == nil {
		s.voiceBin = path
	} else {
		logger.Info("speech synthesis unavailable", zap.Error(err))
	}

	return s
}

// Notify delivers title/body on every requested channel. Each channel is
// attempted regardless of its siblings' outcome; the joined error is
// informational for the caller's log.
func (s *Sink) Notify(title, body string, sound, voice bool) error {
	s.logger.Info("reminder", zap.String("title", title), zap.String("body", body))

	var errs []error

	if s.notifyBin != "" {
		if err := exec.Command(s.notifyBin, title, body).Run(); err != nil {
			errs = append(errs, fmt.Errorf("desktop notification: %w", err))
		}
	}

	if sound && s.player != nil {
		if err := s.player.Play(); err != nil {
			errs = append(errs, fmt.Errorf("sound: %w", err))
		}
	}

	if voice && s.voiceBin != "" {
		if err := exec.Command(s.voiceBin, body).Start(); err != nil {
			errs = append(errs, fmt.Errorf("voice: %w", err))
		}
	}

	return errors.Join(errs...)
}

func notifyCommand() string {
	if runtime.GOOS == "darwin" {
		return "terminal-notifier"
	}
	return "notify-send"
}

func voiceCommand() string {
	if runtime.GOOS == "darwin" {
		return "say"
	}
	return "espeak"
}
