package respond

import "regexp"

type maskRule struct {
	pattern *regexp.Regexp
	repl    string
}

// Ordered: the Anthropic pattern must run before the OpenAI one, or sk-ant-
// keys end up half-masked by the broader sk- match.
var maskRules = []maskRule{
	{regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`), "sk-ant-****"},
	{regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`), "sk-****"},
	// Password inside a connection string DSN.
	{regexp.MustCompile(`://([^:]+):([^@]+)@`), "://$1:****@"},
}

// SanitizeError returns the error message with API keys and DSN passwords masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, r := range maskRules {
		msg = r.pattern.ReplaceAllString(msg, r.repl)
	}
	return msg
}
