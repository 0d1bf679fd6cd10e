// Package clean implements the post-processing stage that turns the raw
// concatenated page chunks into the delivered document. Two variants share
// the same contract: a local rule-based cleaner and an Ollama-backed
// rewriter. Both fall back to returning the input unchanged on any failure.
package clean

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
	"go.uber.org/zap"
)

// RulesConfig controls the rule-based cleaner.
type RulesConfig struct {
	// Language is the ISO 639-3 code lines must match to be kept.
	Language string
	// MinClassifyRunes is the length below which a line is too short to
	// classify reliably and is always kept.
	MinClassifyRunes int
	// MinConfidence is the detection confidence below which a line counts
	// as undetermined and is kept.
	MinConfidence float64
}

const (
	defaultLanguage         = "eng"
	defaultMinClassifyRunes = 24
	defaultMinConfidence    = 0.5
)

var boilerplatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\[?(edit|improve) this page`),
	regexp.MustCompile(`(?i)^#*\s*(table of contents|on this page|in this article)\s*$`),
	regexp.MustCompile(`(?i)^(skip to (main )?content|toggle menu|toggle navigation|toggle sidebar)$`),
	regexp.MustCompile(`(?i)^(previous|next)$`),
	regexp.MustCompile(`(?i)^was this page helpful\??$`),
}

var (
	separatorLine = regexp.MustCompile(`^[-=_*]( ?[-=_*])*$`)
	markdownLink  = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	markupRunes   = strings.NewReplacer("*", "", "_", "", "#", "", "`", "", ">", "", "|", "")
)

// Thematic breaks survive the separator filter.
var thematicBreaks = map[string]bool{"---": true, "***": true, "___": true}

// RulesCleaner implements the local cleanup variant.
type RulesCleaner struct {
	cfg    RulesConfig
	logger *zap.Logger
}

// NewRules constructs a RulesCleaner.
func NewRules(cfg RulesConfig, logger *zap.Logger) *RulesCleaner {
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}
	if cfg.MinClassifyRunes <= 0 {
		cfg.MinClassifyRunes = defaultMinClassifyRunes
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = defaultMinConfidence
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RulesCleaner{cfg: cfg, logger: logger}
}

// Clean strips boilerplate lines, filters non-target-language prose, and
// collapses runs of three or more blank lines to one. Lines inside fenced
// code regions are kept verbatim, fence markers included.
func (c *RulesCleaner) Clean(_ context.Context, raw string) string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	inFence := false
	blankRun := 0

	flushBlanks := func() {
		if blankRun == 0 {
			return
		}
		n := blankRun
		if n >= 3 {
			n = 1
		}
		for i := 0; i < n; i++ {
			out = append(out, "")
		}
		blankRun = 0
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			flushBlanks()
			inFence = !inFence
			out = append(out, line)
			continue
		}
		if inFence {
			out = append(out, line)
			continue
		}
		if trimmed == "" {
			blankRun++
			continue
		}
		if c.drop(trimmed) {
			continue
		}
		flushBlanks()
		out = append(out, line)
	}
	flushBlanks()

	return strings.Join(out, "\n")
}

func (c *RulesCleaner) drop(trimmed string) bool {
	for _, pattern := range boilerplatePatterns {
		if pattern.MatchString(trimmed) {
			return true
		}
	}
	if !thematicBreaks[trimmed] && len(trimmed) >= 3 && separatorLine.MatchString(trimmed) {
		return true
	}
	return !c.keepByLanguage(trimmed)
}

func (c *RulesCleaner) keepByLanguage(trimmed string) bool {
	stripped := strings.TrimSpace(markupRunes.Replace(markdownLink.ReplaceAllString(trimmed, "$1")))
	if utf8.RuneCountInString(stripped) < c.cfg.MinClassifyRunes {
		return true
	}
	info := whatlanggo.Detect(stripped)
	if info.Confidence < c.cfg.MinConfidence {
		// Undetermined; keep.
		return true
	}
	return whatlanggo.LangToString(info.Lang) == c.cfg.Language
}
