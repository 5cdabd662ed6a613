package header

import (
	"strconv"
	"strings"
)

// IsAnonymousName reports an empty name or an upstream placeholder for an
// unnamed struct/enum body, such as "(anonymous at foo.h:3:9)" or
// "struct (unnamed at foo.h:3:9)".
func IsAnonymousName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return true
	}
	return strings.Contains(name, "(anonymous") || strings.Contains(name, "(unnamed")
}

// AnonymousName builds the placeholder used for an unnamed body at a
// position, in the same shape clang prints.
func AnonymousName(path string, line, column int) string {
	if path == "" {
		path = "<input>"
	}
	return "(anonymous at " + path + ":" + strconv.Itoa(line) + ":" + strconv.Itoa(column) + ")"
}

// NormalizeSpelling collapses whitespace runs to single spaces.
func NormalizeSpelling(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// CleanComment strips C comment markers and returns the first paragraph.
func CleanComment(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "/**<")
		line = strings.TrimPrefix(line, "///<")
		line = strings.TrimPrefix(line, "/**")
		line = strings.TrimPrefix(line, "/*!")
		line = strings.TrimPrefix(line, "/*")
		line = strings.TrimPrefix(line, "///")
		line = strings.TrimPrefix(line, "//!")
		line = strings.TrimPrefix(line, "//")
		line = strings.TrimSuffix(line, "*/")
		line = strings.TrimPrefix(strings.TrimSpace(line), "*")
		line = strings.TrimSpace(line)
		lines = append(lines, line)
	}

	var paragraph []string
	for _, line := range lines {
		if line == "" {
			if len(paragraph) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(line, "@") || strings.HasPrefix(line, "\\") {
			if len(paragraph) > 0 {
				break
			}
			if rest, ok := cutDirective(line, "brief"); ok {
				paragraph = append(paragraph, rest)
			}
			continue
		}
		paragraph = append(paragraph, line)
	}
	return strings.Join(paragraph, " ")
}

func cutDirective(line, name string) (string, bool) {
	for _, prefix := range []string{"@" + name, "\\" + name} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}
	return "", false
}
