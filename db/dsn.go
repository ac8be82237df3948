package db

import (
	"net/url"
	"strings"
)

const preparedBinaryParam = "disable_prepared_binary_result"

// DSN is a Postgres connection string in either URL or key=value form.
type DSN struct {
	raw    string
	parsed *url.URL
}

func ParseDSN(raw string) DSN {
	raw = strings.TrimSpace(raw)
	dsn := DSN{raw: raw}
	if parsed, err := url.Parse(raw); err == nil && parsed.Scheme != "" {
		dsn.parsed = parsed
	}
	return dsn
}

func (d DSN) String() string {
	if d.parsed != nil {
		return d.parsed.String()
	}
	return d.raw
}

// Name returns the database name, or "" when the DSN does not carry one.
func (d DSN) Name() string {
	if d.parsed != nil {
		return strings.TrimSpace(strings.TrimPrefix(d.parsed.Path, "/"))
	}
	for _, token := range strings.Fields(d.raw) {
		if name, ok := strings.CutPrefix(token, "dbname="); ok {
			return strings.Trim(name, `"'`)
		}
	}
	return ""
}

// Host returns host:port for logs. Credentials never leave the DSN.
func (d DSN) Host() string {
	if d.parsed != nil {
		return d.parsed.Host
	}
	for _, token := range strings.Fields(d.raw) {
		if host, ok := strings.CutPrefix(token, "host="); ok {
			return host
		}
	}
	return ""
}

// WithoutPreparedBinary sets disable_prepared_binary_result=yes unless the DSN already decides it.
// Transaction-mode poolers reject the binary result format of reused prepared statements.
func (d DSN) WithoutPreparedBinary() DSN {
	if d.parsed == nil {
		if strings.Contains(d.raw, preparedBinaryParam+"=") {
			return d
		}
		return DSN{raw: strings.TrimSpace(d.raw + " " + preparedBinaryParam + "=yes")}
	}

	query := d.parsed.Query()
	if query.Get(preparedBinaryParam) != "" {
		return d
	}
	query.Set(preparedBinaryParam, "yes")
	next := *d.parsed
	next.RawQuery = query.Encode()
	return DSN{raw: next.String(), parsed: &next}
}
