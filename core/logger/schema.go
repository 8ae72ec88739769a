package logger

import "strings"

var allowedStatus = map[string]string{
	"ok":           "ok",
	"fail":         "fail",
	"skip":         "skip",
	"ignored":      "ignored",
	"rate_limited": "rate_limited",
}

var allowedOutcome = map[string]string{
	"ok":           "ok",
	"fail":         "fail",
	"ignored":      "ignored",
	"rate_limited": "rate_limited",
}

func normalizeLevel(level string) string {
	switch strings.ToLower(level) {
	case "", "info":
		return "INFO"
	case "debug":
		return "DEBUG"
	case "warn", "warning":
		return "WARN"
	case "error":
		return "ERROR"
	}
	return strings.ToUpper(level)
}

func normalizeEnum(value string, allowed map[string]string) (string, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "", false
	}
	mapped, ok := allowed[value]
	if !ok {
		return value, false
	}
	return mapped, true
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"handler",
	"kind",
	"transition",
	"step_from",
	"step_to",
	"event_id",
	"decision",
	"submission_id",
	"outcome",
	"duration_ms",
	"action",
	"endpoint",
	"payload",
	"username",
	"mode",
	"listen",
	"public_url",
	"http_code",
	"db",
	"host",
	"port",
	"sheet",
	"err",
	"err_code",
	"cause",
	"attempts",
}
