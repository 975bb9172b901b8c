package session

import "github.com/matheus3301/confchat/internal/config"

const DefaultSessionName = "main"

// Resolve determines the active session name using precedence:
// 1. flagOverride (--session flag)
// 2. config.toml default_session
// 3. "main"
//
// Names are normalized but not validated.
func Resolve(flagOverride string) string {
	if name := NormalizeName(flagOverride); name != "" {
		return name
	}
	cfg, err := config.Load(ConfigPath())
	if err == nil && cfg.DefaultSession != "" {
		return NormalizeName(cfg.DefaultSession)
	}
	return DefaultSessionName
}
