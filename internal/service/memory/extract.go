package memory

import (
	"strings"

	"github.com/sandevgo/recall/internal/core"
)

// Short all-uppercase tokens that are ordinary words, not ticker symbols.
var capsStoplist = map[string]struct{}{
	"THE": {}, "AND": {}, "FOR": {}, "NOT": {}, "BUT": {}, "ALL": {},
	"ARE": {}, "WAS": {}, "YOU": {}, "CAN": {}, "NEW": {}, "NOW": {},
	"GET": {}, "HAS": {}, "HAD": {}, "OUT": {}, "TOP": {}, "ITS": {},
	"ASAP": {}, "FYI": {}, "IMO": {}, "LOL": {},
}

// Platform names matched as case-insensitive substrings.
var knownPlatforms = []string{"telegram", "discord", "twitter", "youtube", "twitch"}

// ExtractMentions finds candidate entities in free text using three
// detectors: @-mention tokens, short all-uppercase tokens (ticker shaped),
// and known platform names.
func ExtractMentions(content, context string) []core.Mention {
	text := content
	if context != "" {
		text += " " + context
	}

	seen := make(map[string]struct{})
	var mentions []core.Mention

	add := func(name string, typ core.EntityType, literal string) {
		key := strings.ToLower(name) + "/" + string(typ)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		mentions = append(mentions, core.Mention{Name: name, Type: typ, Text: literal})
	}

	for _, token := range strings.Fields(text) {
		if name, ok := mentionToken(token); ok {
			add(name, core.EntityUser, token)
			continue
		}
		if name, ok := tickerToken(token); ok {
			add(name, core.EntityToken, name)
		}
	}

	lower := strings.ToLower(text)
	for _, platform := range knownPlatforms {
		if strings.Contains(lower, platform) {
			add(platform, core.EntityPlatform, platform)
		}
	}

	return mentions
}

// InferEntityType guesses a type from name shape when the caller supplied
// none. Returns one of the closed EntityType variants.
func InferEntityType(name string) core.EntityType {
	if strings.HasPrefix(name, "@") {
		return core.EntityUser
	}
	for _, platform := range knownPlatforms {
		if strings.EqualFold(name, platform) {
			return core.EntityPlatform
		}
	}
	if trimmed, ok := tickerToken(name); ok && trimmed == name {
		return core.EntityToken
	}
	return core.EntityOther
}

func mentionToken(token string) (string, bool) {
	if !strings.HasPrefix(token, "@") {
		return "", false
	}
	name := strings.TrimFunc(token[1:], func(r rune) bool {
		return !isWordRune(r)
	})
	if name == "" {
		return "", false
	}
	return name, true
}

func tickerToken(token string) (string, bool) {
	token = strings.TrimFunc(token, func(r rune) bool {
		return !isWordRune(r)
	})
	if len(token) < 3 || len(token) > 6 {
		return "", false
	}
	for _, r := range token {
		if r < 'A' || r > 'Z' {
			return "", false
		}
	}
	if _, stopped := capsStoplist[token]; stopped {
		return "", false
	}
	return token, true
}

func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
