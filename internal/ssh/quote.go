package ssh

import "strings"

// Quote wraps a value in single quotes with POSIX escaping for any
// embedded single quotes. Every value interpolated into a remote
// command goes through here; nothing else may build quoted arguments.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// QuoteHome prefixes a home-relative path with an unquoted $HOME so the
// remote shell expands it while the path itself stays quoted.
func QuoteHome(rel string) string {
	return `"$HOME"/` + Quote(rel)
}
