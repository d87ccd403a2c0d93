// Package watch detects invite links and lookalike invite domains in
// message content.
package watch

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

var urlRegex = regexp.MustCompile(`https?://[^\s]+`)

var inviteRegex = regexp.MustCompile(`(?i)(?:discord\.gg|discord(?:app)?\.com/invite)/([0-9A-Za-z-]+)`)

// Hosts that legitimately serve invites. Anything that merely looks like
// them after punycode normalization is treated as a lookalike.
var inviteHosts = map[string]struct{}{
	"discord.gg":      {},
	"discord.com":     {},
	"discordapp.com":  {},
	"www.discord.com": {},
}

// Invites returns the invite codes mentioned in content, in order of
// appearance and without duplicates.
func Invites(content string) []string {
	matches := inviteRegex.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	codes := make([]string, 0, len(matches))
	for _, match := range matches {
		code := match[1]
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes
}

// LookalikeHosts returns the hosts in content that resemble an invite
// domain once normalized to punycode but are not one of the real hosts.
// A unicode "discorԁ.gg" resolves somewhere else entirely while reading
// like the real thing.
func LookalikeHosts(content string) []string {
	var hosts []string
	seen := make(map[string]struct{})
	for _, raw := range urlRegex.FindAllString(content, -1) {
		parsed, err := url.Parse(raw)
		if err != nil {
			continue
		}
		host := strings.ToLower(parsed.Hostname())
		if host == "" {
			continue
		}
		ascii, err := idna.ToASCII(host)
		if err != nil {
			continue
		}
		if _, real := inviteHosts[ascii]; real {
			continue
		}
		if !resemblesInviteHost(ascii) {
			continue
		}
		if _, ok := seen[ascii]; ok {
			continue
		}
		seen[ascii] = struct{}{}
		hosts = append(hosts, ascii)
	}
	return hosts
}

func resemblesInviteHost(ascii string) bool {
	if strings.HasPrefix(ascii, "xn--") || strings.Contains(ascii, ".xn--") {
		folded, err := idna.ToUnicode(ascii)
		if err == nil && foldsToInviteHost(folded) {
			return true
		}
	}
	return foldsToInviteHost(ascii)
}

// foldsToInviteHost strips separators and checks the remaining label
// against the real invite hosts the same way.
func foldsToInviteHost(host string) bool {
	folded := foldHost(host)
	for real := range inviteHosts {
		if folded == foldHost(real) && host != real {
			return true
		}
	}
	return false
}

func foldHost(host string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(host) {
		switch r {
		case '-', '_', '.':
			continue
		}
		sb.WriteRune(foldRune(r))
	}
	return sb.String()
}

// foldRune maps common confusable characters onto their ASCII shape.
func foldRune(r rune) rune {
	switch r {
	case '0', 'о', 'ο': // cyrillic and greek o
		return 'o'
	case '1', 'l', 'і': // cyrillic i
		return 'i'
	case 'ԁ', 'ɗ':
		return 'd'
	case 'с': // cyrillic s
		return 'c'
	case 'ѕ': // cyrillic dze
		return 's'
	case 'е': // cyrillic e
		return 'e'
	case 'а': // cyrillic a
		return 'a'
	case 'ɡ', 'ց':
		return 'g'
	case 'р': // cyrillic r
		return 'p'
	default:
		return r
	}
}
