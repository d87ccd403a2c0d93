package bot

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	_ "golang.org/x/image/webp"
)

// Custom emoji mention, such as <:blob:1234> or <a:party:5678>.
var emojiPattern = regexp.MustCompile(`<(a?):([0-9A-Za-z_]+):([0-9]+)>`)

const maxEmojiBytes = 256 * 1024

var emojiHTTP = &http.Client{Timeout: 10 * time.Second}

// fetchEmojiImage downloads an image and encodes it as the data URI the
// emoji endpoint expects.
func fetchEmojiImage(url string) (string, error) {
	resp, err := emojiHTTP.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEmojiBytes+1))
	if err != nil {
		return "", err
	}
	if len(body) > maxEmojiBytes {
		return "", fmt.Errorf("image exceeds %d KiB", maxEmojiBytes/1024)
	}

	// The webp decoder is registered so a webp upload fails with a clear
	// message instead of an opaque API error.
	cfg, format, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s is not an image I can read", url)
	}
	switch format {
	case "png", "jpeg", "gif":
	default:
		return "", fmt.Errorf("emoji images have to be png, jpeg or gif, not %s", format)
	}
	if cfg.Width > 4096 || cfg.Height > 4096 {
		return "", fmt.Errorf("image is too large (%dx%d)", cfg.Width, cfg.Height)
	}

	return "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(body), nil
}

func (b *Bot) handleEmoji(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	sub := data.Options[0]
	opts := optionMap(sub.Options)

	switch sub.Name {
	case "add":
		name := strings.TrimSpace(optionString(opts, "name"))
		if len(name) < 2 || len(name) > 32 {
			b.respond(s, i, "Emoji names have to be 2 to 32 characters long.", true)
			return
		}
		b.createEmoji(s, i, name, optionString(opts, "url"))
	case "copy":
		raw := optionString(opts, "emoji")
		match := emojiPattern.FindStringSubmatch(raw)
		if match == nil {
			b.respond(s, i, "That is not a custom emoji I can copy.", true)
			return
		}
		animated, name, id := match[1] == "a", match[2], match[3]
		url := discordgo.EndpointEmoji(id)
		if animated {
			url = discordgo.EndpointEmojiAnimated(id)
		}
		b.createEmoji(s, i, name, url)
	case "delete":
		raw := strings.TrimSpace(optionString(opts, "emoji"))
		id := raw
		if match := emojiPattern.FindStringSubmatch(raw); match != nil {
			id = match[3]
		}
		if err := s.GuildEmojiDelete(i.GuildID, id); err != nil {
			b.respond(s, i, "Could not delete the emoji: "+err.Error(), true)
			return
		}
		b.respond(s, i, "Deleted the emoji.", false)
	}
}

func (b *Bot) createEmoji(s *discordgo.Session, i *discordgo.InteractionCreate, name, url string) {
	image, err := fetchEmojiImage(url)
	if err != nil {
		b.respond(s, i, "Could not fetch the image: "+err.Error(), true)
		return
	}
	emoji, err := s.GuildEmojiCreate(i.GuildID, &discordgo.EmojiParams{Name: name, Image: image})
	if err != nil {
		b.respond(s, i, "Could not create the emoji: "+err.Error(), true)
		return
	}
	b.respond(s, i, fmt.Sprintf("Added %s as `:%s:`.", emoji.MessageFormat(), emoji.Name), false)
}
