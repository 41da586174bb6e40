package guard

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern is a compiled denylist entry.
type Pattern struct {
	re     *regexp.Regexp
	reason string
}

// NewPattern compiles a denylist entry.
func NewPattern(expr, reason string) (Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	if reason == "" {
		reason = fmt.Sprintf("matches blocked pattern %q", expr)
	}
	return Pattern{re: re, reason: reason}, nil
}

func mustPattern(expr, reason string) Pattern {
	p, err := NewPattern(expr, reason)
	if err != nil {
		panic(err)
	}
	return p
}

// artisan matches a Laravel artisan invocation up to its subcommand,
// with or without a php executable and global flags in between.
const artisan = `\bartisan(?:\.bat|\.php)?\s+(?:-\S+\s+)*`

// rmRecursive matches rm with a recursive flag ("-rf", "-fr", "-r -f",
// "--recursive") followed by any operands up to the target word.
const rmRecursive = `\brm\s+(?:-\S+\s+)*?(?:-[a-zA-Z]*[rR][a-zA-Z]*|--recursive)\s+(?:[^\s;&|]+\s+)*?["']?`

var destructiveCommands = []Pattern{
	mustPattern(artisan+`db:wipe\b`, "php artisan db:wipe drops every table in the database"),
	mustPattern(artisan+`migrate:(?:fresh|reset)\b`, "migrate:fresh and migrate:reset destroy all migrated data"),
	mustPattern(artisan+`migrate:refresh\b.*--force\b`, "forced migrate:refresh rolls back every migration"),
	mustPattern(rmRecursive+`(?:\./)?storage\b`, "recursive deletion of storage/ destroys uploads, logs and keys"),
	mustPattern(rmRecursive+`(?:\./)?vendor\b`, "recursive deletion of vendor/ breaks the installed dependencies"),
	mustPattern(rmRecursive+`\./?\*?(?:["']?\s|["']?$|;|&|\|)`, "recursive deletion of the current directory"),
	mustPattern(rmRecursive+`\*(?:\s|$)`, "recursive deletion of everything in the current directory"),
	mustPattern(rmRecursive+`/\*?(?:\s|$)`, "recursive deletion of the filesystem root"),
	mustPattern(rmRecursive+`~/?\*?(?:\s|$)`, "recursive deletion of the home directory"),
	mustPattern(`(?i)\b(?:rmdir|rd)\s+(?:/\w\s+)*/s\b`, "recursive directory deletion (rmdir /s)"),
	mustPattern(`(?i)\bdel\s+(?:/\w\s+)*/s\b`, "recursive file deletion (del /s)"),
	mustPattern(`(?i)\bRemove-Item\b.*\s-Recurse\b`, "recursive deletion (Remove-Item -Recurse)"),
}

var criticalPaths = []Pattern{
	mustPattern(`(?:^|/)\.env$`, ".env holds the application secrets"),
	mustPattern(`(?:^|/)config/database\.php$`, "config/database.php controls database connections"),
	mustPattern(`(?:^|/)storage/(?:[^/]+/)*[^/]+\.key$`, "key files under storage/ are private keys"),
	mustPattern(`(?:^|/)\.git/config$`, ".git/config controls repository remotes and credentials"),
}

var (
	shellSegmentSep = regexp.MustCompile(`&&|\|\||[;|\n]`)
	envReference    = regexp.MustCompile(`\.env\b`)
	envReader       = regexp.MustCompile(`\b(?:cat|cp|mv)\s`)
)

// commandTouchesEnv reports whether a shell command reads, copies, moves or
// redirects output into a .env file. Each reference is judged within its own
// shell segment, so "cat README; ls .env.d" is not a hit.
func (g *Guard) commandTouchesEnv(command string) bool {
	for _, segment := range shellSegmentSep.Split(command, -1) {
		for _, loc := range envReference.FindAllStringIndex(segment, -1) {
			start, end := tokenBounds(segment, loc[0])
			if g.envAllowed(segment[start:end]) {
				continue
			}
			prefix := segment[:start]
			if envReader.MatchString(prefix) || redirectsInto(prefix) {
				return true
			}
		}
	}
	return false
}

func isTokenDelim(c byte) bool {
	switch c {
	case ' ', '\t', '"', '\'', '<', '>', '(', ')', '`':
		return true
	}
	return false
}

// tokenBounds returns the word of s that contains index i.
func tokenBounds(s string, i int) (int, int) {
	start := i
	for start > 0 && !isTokenDelim(s[start-1]) {
		start--
	}
	end := i
	for end < len(s) && !isTokenDelim(s[end]) {
		end++
	}
	return start, end
}

func redirectsInto(prefix string) bool {
	return strings.HasSuffix(strings.TrimRight(prefix, " \t\"'"), ">")
}
