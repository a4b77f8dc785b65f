package notify

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// SoundPlayer plays a short WAV cue through the system audio device. The
// audio context is created lazily on first use and shared afterwards.
type SoundPlayer struct {
	once    sync.Once
	ctx     *oto.Context
	initErr error
	format  *wavFormat
	samples []byte
}

type wavFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// NewSoundPlayer parses the WAV data up front so a bad asset surfaces at
// startup rather than at the first reminder.
func NewSoundPlayer(wavData []byte) (*SoundPlayer, error) {
	format, samples, err := parseWAV(wavData)
	if err != nil {
		return nil, fmt.Errorf("parse wav: %w", err)
	}
	return &SoundPlayer{format: format, samples: samples}, nil
}

// Play starts the cue without waiting for it to finish.
func (p *SoundPlayer) Play() error {
	p.once.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   p.format.SampleRate,
			ChannelCount: p.format.Channels,
			Format:       oto.FormatSignedInt16LE,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			p.initErr = err
			return
		}
		<-ready
		p.ctx = ctx
	})
	if p.initErr != nil {
		return fmt.Errorf("audio context: %w", p.initErr)
	}

	player := p.ctx.NewPlayer(bytes.NewReader(p.samples))
	player.Play()

	// Let the short cue run out on its own, then release the player.
	go func() {
		for player.IsPlaying() {
			time.Sleep(10 * time.Millisecond)
		}
		_ = player.Close()
	}()

	return nil
}

// parseWAV walks the RIFF chunks and returns the format plus raw PCM data.
func parseWAV(data []byte) (*wavFormat, []byte, error) {
	reader := bytes.NewReader(data)

	riff := make([]byte, 4)
	if _, err := io.ReadFull(reader, riff); err != nil || string(riff) != "RIFF" {
		return nil, nil, errors.New("not a RIFF file")
	}
	if _, err := reader.Seek(4, io.SeekCurrent); err != nil {
		return nil, nil, err
	}
	wave := make([]byte, 4)
	if _, err := io.ReadFull(reader, wave); err != nil || string(wave) != "WAVE" {
		return nil, nil, errors.New("not a WAVE file")
	}

	format := &wavFormat{}
	var dataStart int64
	var dataSize uint32

	for {
		chunkID := make([]byte, 4)
		if _, err := io.ReadFull(reader, chunkID); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, nil, err
		}
		var chunkSize uint32
		if err := binary.Read(reader, binary.LittleEndian, &chunkSize); err != nil {
			return nil, nil, err
		}

		switch string(chunkID) {
		case "fmt ":
			var audioFormat, numChannels uint16
			var sampleRate uint32
			binary.Read(reader, binary.LittleEndian, &audioFormat)
			binary.Read(reader, binary.LittleEndian, &numChannels)
			binary.Read(reader, binary.LittleEndian, &sampleRate)
			format.Channels = int(numChannels)
			format.SampleRate = int(sampleRate)

			// Skip byte rate and block align.
			reader.Seek(6, io.SeekCurrent)

			var bitsPerSample uint16
			binary.Read(reader, binary.LittleEndian, &bitsPerSample)
			format.BitDepth = int(bitsPerSample)

			if remaining := int64(chunkSize) - 16; remaining > 0 {
				reader.Seek(remaining, io.SeekCurrent)
			}
		case "data":
			dataStart, _ = reader.Seek(0, io.SeekCurrent)
			dataSize = chunkSize
		default:
			reader.Seek(int64(chunkSize), io.SeekCurrent)
		}
		if dataSize > 0 {
			break
		}
	}

	if format.SampleRate == 0 || dataSize == 0 {
		return nil, nil, errors.New("missing fmt or data chunk")
	}
	if format.BitDepth != 16 {
		return nil, nil, fmt.Errorf("unsupported bit depth %d", format.BitDepth)
	}

	samples := make([]byte, dataSize)
	if _, err := reader.Seek(dataStart, io.SeekStart); err != nil {
		return nil, nil, err
	}
	if _, err := io.ReadFull(reader, samples); err != nil {
		return nil, nil, err
	}

	return format, samples, nil
}
