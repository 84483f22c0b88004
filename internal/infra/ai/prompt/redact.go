package prompt

import "regexp"

const redacted = "[REDACTED]"

// Partners sometimes paste credentials into their self-assessment. These are
// masked before the text leaves the service.
var detectors = []*regexp.Regexp{
	// private keys
	regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----[\s\S]*?-----END (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`),
	// AWS
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)aws_secret_access_key\s*[:=]\s*["']?[A-Za-z0-9/+=]{20,}`),
	// GitHub
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{20,}`),
	regexp.MustCompile(`github_pat_[A-Za-z0-9_]{20,}`),
	// Google
	regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`),
	// Slack
	regexp.MustCompile(`xox[baprs]-[A-Za-z0-9\-]{10,}`),
	// Stripe
	regexp.MustCompile(`sk_(?:live|test)_[0-9A-Za-z]{10,}`),
	// OpenAI
	regexp.MustCompile(`(?i)sk-[a-z0-9\-_]{20,}`),
	// JWT / bearer
	regexp.MustCompile(`[A-Za-z0-9-_]{8,}\.eyJ[A-Za-z0-9-_]{5,}\.[A-Za-z0-9-_]{10,}`),
	regexp.MustCompile(`(?i)authorization\s*[:=]\s*["']?bearer\s+[A-Za-z0-9\-\._~\+\/]+=*`),
	// generic key hints
	regexp.MustCompile(`(?i)(api[_-]?key|client[_-]?secret|secret|token|password)\s*[:=]\s*["']?[^\s"']{8,}`),
}

// creds embedded in URLs keep the scheme and host
var urlCreds = regexp.MustCompile(`://[^\s/:@]+:[^\s/@]+@`)

// Redact masks credential-looking substrings.
func Redact(s string) string {
	for _, re := range detectors {
		s = re.ReplaceAllString(s, redacted)
	}
	return urlCreds.ReplaceAllString(s, "://"+redacted+"@")
}
