package assistant

import (
	"path/filepath"
	"regexp"
	"strings"
)

// contextRadius is how many lines around the cursor are sent to the model.
const contextRadius = 10

// CodeContext describes the code surrounding the cursor.
type CodeContext struct {
	Language           string   `json:"language"`
	Framework          string   `json:"framework"`
	BeforeContext      string   `json:"beforeContext"`
	CurrentLine        string   `json:"currentLine"`
	AfterContext       string   `json:"afterContext"`
	CursorPosition     Position `json:"cursorPosition"`
	IsInFunction       bool     `json:"isInFunction"`
	IsInClass          bool     `json:"isInClass"`
	IsAfterComment     bool     `json:"isAfterComment"`
	IncompletePatterns []string `json:"incompletePatterns"`
}

var languageByExt = map[string]string{
	"ts":   "TypeScript",
	"tsx":  "TypeScript",
	"js":   "JavaScript",
	"jsx":  "JavaScript",
	"py":   "Python",
	"java": "Java",
	"go":   "Go",
	"rs":   "Rust",
	"php":  "PHP",
}

var (
	functionStart = regexp.MustCompile(`^\s*(function|def|const\s+\w+\s*=|let\s+\w+\s*=)`)
	blockEnd      = regexp.MustCompile(`^\s*}`)
	classStart    = regexp.MustCompile(`^\s*(class|interface)\s+`)
)

// AnalyzeContext extracts the cursor neighbourhood and a few structural
// hints from a file.
func AnalyzeContext(content string, line, column int, fileName string) CodeContext {
	lines := strings.Split(content, "\n")
	current := ""
	if line < len(lines) {
		current = lines[line]
	}
	start := max(0, line-contextRadius)
	end := min(len(lines), line+contextRadius)

	before, after := "", ""
	if start < min(line, len(lines)) {
		before = strings.Join(lines[start:min(line, len(lines))], "\n")
	}
	if line+1 < end {
		after = strings.Join(lines[line+1:end], "\n")
	}

	head := prefix(current, column)
	return CodeContext{
		Language:           DetectLanguage(content, fileName),
		Framework:          DetectFramework(content),
		BeforeContext:      before,
		CurrentLine:        current,
		AfterContext:       after,
		CursorPosition:     Position{Line: line, Column: column},
		IsInFunction:       inFunction(lines, line),
		IsInClass:          inClass(lines, line),
		IsAfterComment:     strings.Contains(head, "//"),
		IncompletePatterns: incompletePatterns(head),
	}
}

// DetectLanguage maps a file extension to a language name, falling back
// to a content sniff for TypeScript.
func DetectLanguage(content, fileName string) string {
	if fileName != "" {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
		if lang, ok := languageByExt[ext]; ok {
			return lang
		}
	}
	if strings.Contains(content, "interface ") {
		return "TypeScript"
	}
	return "JavaScript"
}

// DetectFramework recognises React and Next.js sources.
func DetectFramework(content string) string {
	switch {
	case strings.Contains(content, "import React"), strings.Contains(content, "useState"):
		return "React"
	case strings.Contains(content, "next/"):
		return "Next.js"
	default:
		return "None"
	}
}

func inFunction(lines []string, line int) bool {
	for i := min(line, len(lines)) - 1; i >= 0; i-- {
		if functionStart.MatchString(lines[i]) {
			return true
		}
		if blockEnd.MatchString(lines[i]) {
			break
		}
	}
	return false
}

func inClass(lines []string, line int) bool {
	for i := min(line, len(lines)) - 1; i >= 0; i-- {
		if classStart.MatchString(lines[i]) {
			return true
		}
	}
	return false
}

func incompletePatterns(head string) []string {
	head = strings.TrimSpace(head)
	patterns := []string{}
	if strings.HasSuffix(head, "(") {
		patterns = append(patterns, "params")
	}
	if strings.HasSuffix(head, "{") {
		patterns = append(patterns, "block")
	}
	return patterns
}

// prefix returns the first column runes of s, clamped to its length.
func prefix(s string, column int) string {
	r := []rune(s)
	if column > len(r) {
		column = len(r)
	}
	return string(r[:column])
}

func suffix(s string, column int) string {
	r := []rune(s)
	if column > len(r) {
		column = len(r)
	}
	return string(r[column:])
}
