package calversion

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoVersionField is returned when a descriptor holds no recognizable version field.
var ErrNoVersionField = errors.New("no version field found")

// FieldPattern finds one kind of field declaration on a single line. The
// first capture group is the value.
type FieldPattern struct {
	Pattern *regexp.Regexp
	Name    string
}

var (
	xmlVersion  = FieldPattern{regexp.MustCompile(`<version>\s*([^<\s]+)\s*</version>`), "XML version tag"}
	xmlName     = FieldPattern{regexp.MustCompile(`<name>\s*([^<]+?)\s*</name>`), "XML name tag"}
	xmlArtifact = FieldPattern{regexp.MustCompile(`<artifactId>\s*([^<\s]+)\s*</artifactId>`), "XML artifactId tag"}
	jsonVersion = FieldPattern{regexp.MustCompile(`"version"\s*:\s*"([^"]*)"`), "JSON version field"}
	jsonName    = FieldPattern{regexp.MustCompile(`"name"\s*:\s*"([^"]*)"`), "JSON name field"}
	tomlVersion = FieldPattern{regexp.MustCompile(`^\s*version\s*=\s*"([^"]*)"`), "TOML version field"}
	tomlName    = FieldPattern{regexp.MustCompile(`^\s*name\s*=\s*"([^"]*)"`), "TOML name field"}
	assignment  = FieldPattern{regexp.MustCompile(`(?i)^\s*version\s*[:=]\s*["']?([^"'\s]+)["']?`), "VERSION assignment"}
	bareVersion = FieldPattern{regexp.MustCompile(`^\s*(\d+\.\d+\.[0-9A-Za-z-]+)\s*$`), "bare version line"}

	// xmlTag matches a start, end or empty-element tag, possibly spanning lines.
	xmlTag      = regexp.MustCompile(`<(/?)[A-Za-z_][^>]*?(/?)>`)
	xmlComment  = regexp.MustCompile(`(?s)<!--.*?-->`)
	tomlSection = regexp.MustCompile(`^\s*\[([^\]]+)\]\s*$`)
)

// FieldMatch is the location of a field value inside a file.
type FieldMatch struct {
	Line       int // 1-based
	StartIndex int // byte offset of the value within the line
	EndIndex   int
	Value      string
	Pattern    FieldPattern
}

type descriptorKind int

const (
	kindPlain descriptorKind = iota
	kindXML
	kindJSON
	kindTOML
)

func kindOf(path string) descriptorKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return kindXML
	case ".json":
		return kindJSON
	case ".toml":
		return kindTOML
	}
	return kindPlain
}

// scanTopLevel calls visit for every line of a line-oriented descriptor
// (TOML or plain text) that belongs to the project itself rather than to a
// nested table. It stops when visit returns true.
func scanTopLevel(path string, lines []string, visit func(lineNum int, line string) bool) {
	kind := kindOf(path)
	section := ""
	for i, line := range lines {
		if kind == kindTOML {
			if m := tomlSection.FindStringSubmatch(line); m != nil {
				section = strings.TrimSpace(m[1])
				continue
			}
			if section != "" && section != "package" && section != "project" {
				continue
			}
		}
		if visit(i+1, line) {
			return
		}
	}
}

// xmlTopLevel returns the first match of fp that is a direct child of the
// root element, e.g. <project>. Matches inside comments are ignored.
func xmlTopLevel(data string, fp FieldPattern) *FieldMatch {
	comments := xmlComment.FindAllStringIndex(data, -1)
	inComment := func(pos int) bool {
		for _, c := range comments {
			if pos >= c[0] && pos < c[1] {
				return true
			}
		}
		return false
	}

	tags := xmlTag.FindAllStringSubmatchIndex(data, -1)
	depth, next := 0, 0
	for _, m := range fp.Pattern.FindAllStringSubmatchIndex(data, -1) {
		for ; next < len(tags) && tags[next][0] < m[0]; next++ {
			t := tags[next]
			if inComment(t[0]) {
				continue
			}
			switch {
			case t[3] > t[2]: // </end>
				depth--
			case t[5] > t[4]: // <empty/>
			default:
				depth++
			}
		}
		if depth == 1 && !inComment(m[0]) {
			return matchAt(data, m, fp)
		}
	}
	return nil
}

// jsonTopLevel returns the first match of fp that is a member of the
// outermost object, wherever the line breaks fall.
func jsonTopLevel(data string, fp FieldPattern) *FieldMatch {
	depth, pos := 0, 0
	inString, escaped := false, false
	for _, m := range fp.Pattern.FindAllStringSubmatchIndex(data, -1) {
		for ; pos < m[0]; pos++ {
			c := data[pos]
			switch {
			case escaped:
				escaped = false
			case inString && c == '\\':
				escaped = true
			case c == '"':
				inString = !inString
			case inString:
			case c == '{' || c == '[':
				depth++
			case c == '}' || c == ']':
				depth--
			}
		}
		if depth == 1 && !inString {
			return matchAt(data, m, fp)
		}
	}
	return nil
}

// matchAt converts the byte offsets of a submatch into a FieldMatch.
func matchAt(data string, m []int, fp FieldPattern) *FieldMatch {
	lineStart := strings.LastIndexByte(data[:m[2]], '\n') + 1
	return &FieldMatch{
		Line:       strings.Count(data[:m[2]], "\n") + 1,
		StartIndex: m[2] - lineStart,
		EndIndex:   m[3] - lineStart,
		Value:      data[m[2]:m[3]],
		Pattern:    fp,
	}
}

func patternsFor(path string, field string) []FieldPattern {
	switch kindOf(path) {
	case kindXML:
		if field == "name" {
			return []FieldPattern{xmlName, xmlArtifact}
		}
		return []FieldPattern{xmlVersion}
	case kindJSON:
		if field == "name" {
			return []FieldPattern{jsonName}
		}
		return []FieldPattern{jsonVersion}
	case kindTOML:
		if field == "name" {
			return []FieldPattern{tomlName}
		}
		return []FieldPattern{tomlVersion}
	}
	if field == "name" {
		return nil
	}
	return []FieldPattern{assignment, bareVersion}
}

// findField returns the first top-level match of field ("version" or "name").
// Patterns are tried in priority order so that, for example, a pom's <name>
// wins over its <artifactId>.
func findField(path string, data []byte, field string) *FieldMatch {
	kind := kindOf(path)
	lines := strings.Split(string(data), "\n")
	for _, fp := range patternsFor(path, field) {
		var found *FieldMatch
		switch kind {
		case kindXML:
			found = xmlTopLevel(string(data), fp)
		case kindJSON:
			found = jsonTopLevel(string(data), fp)
		default:
			scanTopLevel(path, lines, func(lineNum int, line string) bool {
				m := fp.Pattern.FindStringSubmatchIndex(line)
				if m == nil || len(m) < 4 {
					return false
				}
				found = &FieldMatch{
					Line:       lineNum,
					StartIndex: m[2],
					EndIndex:   m[3],
					Value:      line[m[2]:m[3]],
					Pattern:    fp,
				}
				return true
			})
		}
		if found != nil {
			return found
		}
	}
	return nil
}

// FindMainVersionInFile returns the project's own version field in a
// descriptor. Only direct children of the pom's root element, members of the
// outermost JSON object and keys outside non-package TOML tables count.
func FindMainVersionInFile(filePath string) (*FieldMatch, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading file %s", filePath)
	}
	match := findField(filePath, data, "version")
	if match == nil {
		return nil, errors.Wrapf(ErrNoVersionField, "%s", filePath)
	}
	return match, nil
}

// FindProjectNameInFile returns the project name declared in a descriptor.
func FindProjectNameInFile(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", errors.Wrapf(err, "reading file %s", filePath)
	}
	match := findField(filePath, data, "name")
	if match == nil {
		return "", errors.Errorf("no project name found in %s", filePath)
	}
	return match.Value, nil
}

// ReplaceFieldInFile overwrites the value at match with value, keeping the
// rest of the file byte for byte.
func ReplaceFieldInFile(filePath string, match FieldMatch, value string) error {
	info, err := os.Stat(filePath)
	if err != nil {
		return errors.Wrapf(err, "stat %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "reading file %s", filePath)
	}

	lines := strings.Split(string(data), "\n")
	if match.Line < 1 || match.Line > len(lines) {
		return errors.Errorf("%s: line %d out of range", filePath, match.Line)
	}
	line := lines[match.Line-1]
	if match.StartIndex < 0 || match.EndIndex > len(line) || match.StartIndex > match.EndIndex {
		return errors.Errorf("%s:%d: match out of range", filePath, match.Line)
	}
	lines[match.Line-1] = line[:match.StartIndex] + value + line[match.EndIndex:]

	return os.WriteFile(filePath, []byte(strings.Join(lines, "\n")), info.Mode().Perm())
}

// BumpVersionInFile replaces the project's own version field with newVersion.
// It reports false, without error, when the file has no version field.
func BumpVersionInFile(filePath string, newVersion string) (bool, error) {
	match, err := FindMainVersionInFile(filePath)
	if errors.Is(err, ErrNoVersionField) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := ReplaceFieldInFile(filePath, *match, newVersion); err != nil {
		return false, err
	}
	return true, nil
}
