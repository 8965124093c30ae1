package config

import "net/url"

const redacted = "***"

// RedactedConfig returns a deep-enough copy of cfg that is safe to log.
// Secrets become "***"; connection URLs keep their host but lose the password.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	for _, s := range []*string{
		&out.Postgres.Password,
		&out.Redis.Password,
		&out.S3.AccessKey,
		&out.S3.SecretKey,
		&out.Notify.TelegramToken,
		&out.Notify.DiscordWebhookURL,
	} {
		if *s != "" {
			*s = redacted
		}
	}
	out.Postgres.DSN = redactURL(out.Postgres.DSN)
	out.Redis.Addr = redactURL(out.Redis.Addr)

	out.Notify.Events = cloneStrings(cfg.Notify.Events)
	out.Server.CORSOrigins = cloneStrings(cfg.Server.CORSOrigins)
	return out
}

// redactURL masks the password of a URL-shaped connection string. Plain
// host:port values pass through; anything with a scheme that fails to parse
// is replaced outright.
func redactURL(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return redacted
	}
	if u.Scheme == "" || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), redacted)
	}
	return u.String()
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
