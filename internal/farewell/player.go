package farewell

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/swoopingasaservice/discordbots/internal/logging"
)

// Player plays a short goodbye sound in a voice channel whenever a user
// is banned or force-disconnected. The sound file is DCA-encoded opus
// (int16 little-endian frame length prefixes), loaded once at startup.
type Player struct {
	mu     sync.Mutex
	frames [][]byte
}

// NewPlayer loads the sound file at path. A missing or unreadable file
// returns a nil player; like the relay, a nil *Player no-ops every call
// so handlers never need to check whether the prank is configured.
func NewPlayer(path string) *Player {
	frames, err := loadSound(path)
	if err != nil {
		logging.Warn("Farewell sound unavailable (%s): %v", path, err)
		return nil
	}

	logging.Info("Loaded farewell sound: %s (%d frames)", path, len(frames))
	return &Player{frames: frames}
}

// loadSound reads all opus frames from a DCA file.
func loadSound(path string) ([][]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var frames [][]byte
	for {
		var frameLen int16
		err := binary.Read(file, binary.LittleEndian, &frameLen)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return frames, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read frame length: %w", err)
		}
		if frameLen <= 0 {
			return nil, fmt.Errorf("invalid frame length %d", frameLen)
		}

		frame := make([]byte, frameLen)
		if err := binary.Read(file, binary.LittleEndian, &frame); err != nil {
			return nil, fmt.Errorf("failed to read frame: %w", err)
		}
		frames = append(frames, frame)
	}
}

// PlayGoodbye plays the sound in the guild's best voice channel: the
// one the departed user was in when known, otherwise the first voice
// channel the guild has.
func (p *Player) PlayGoodbye(s *discordgo.Session, guildID, preferredChannelID string) {
	if p == nil {
		return
	}

	channelID := preferredChannelID
	if channelID == "" {
		channelID = firstVoiceChannel(s, guildID)
	}
	if channelID == "" {
		logging.Debug("No voice channel found in guild %s for farewell sound", guildID)
		return
	}

	if err := p.playIn(s, guildID, channelID); err != nil {
		logging.Warn("Farewell playback failed in guild %s: %v", guildID, err)
	}
}

// playIn joins, streams every frame, and leaves. One playback at a time;
// overlapping bans queue up behind the mutex.
func (p *Player) playIn(s *discordgo.Session, guildID, channelID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	vc, err := s.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}
	defer vc.Disconnect()

	// Give the voice connection a moment to settle before streaming.
	time.Sleep(250 * time.Millisecond)

	if err := vc.Speaking(true); err != nil {
		return fmt.Errorf("failed to set speaking state: %w", err)
	}
	err = streamFrames(vc.OpusSend, p.frames, frameSendTimeout)
	vc.Speaking(false)
	if err != nil {
		return err
	}

	time.Sleep(250 * time.Millisecond)
	return nil
}

// frameSendTimeout bounds each opus frame send. A dropped voice
// connection stops draining OpusSend; without the bound the stream
// would block under p.mu and wedge every later playback.
const frameSendTimeout = time.Second

func streamFrames(send chan<- []byte, frames [][]byte, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for i, frame := range frames {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(timeout)

		select {
		case send <- frame:
		case <-timer.C:
			return fmt.Errorf("voice send stalled at frame %d of %d", i, len(frames))
		}
	}
	return nil
}

// firstVoiceChannel returns the first voice channel in the guild,
// preferring one that currently has members in it.
func firstVoiceChannel(s *discordgo.Session, guildID string) string {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		guild, err = s.Guild(guildID)
		if err != nil {
			return ""
		}
	}

	occupied := make(map[string]bool)
	for _, vs := range guild.VoiceStates {
		occupied[vs.ChannelID] = true
	}

	var first string
	for _, ch := range guild.Channels {
		if ch.Type != discordgo.ChannelTypeGuildVoice {
			continue
		}
		if occupied[ch.ID] {
			return ch.ID
		}
		if first == "" {
			first = ch.ID
		}
	}
	return first
}
