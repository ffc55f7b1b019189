package mention

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	openQuote  = `[«"]`
	closeQuote = `[»"]`
	// ws also covers Unicode spaces such as the no-break space.
	ws = `[\s\v\p{Zs}\x{FEFF}\x{2028}\x{2029}]`
	// authorName is one or two capitalized words.
	authorName = `[А-ЯЁA-Z][а-яёa-z]+(?:` + ws + `+[А-ЯЁA-Z][а-яёa-z]+)?`
	// byMarker is a word that introduces the author.
	byMarker = `(?i:автор[аы]?|от|by)`

	// contextRunes is how far past a bare quoted title an author is looked for.
	contextRunes = 100
)

var (
	tagRe   = regexp.MustCompile(`<[^>]*>`)
	blockRe = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(BlockStart) + `\s*(.*?)\s*` + regexp.QuoteMeta(BlockEnd))

	quotedWithAuthorRe = regexp.MustCompile(
		openQuote + `([^«"»]+?)` + closeQuote + ws + `+` + byMarker + ws + `+(` + authorName + `)`)
	numberedRe = regexp.MustCompile(
		`\d+[.)]` + ws + `*` + openQuote + `?([^«"»—–\n]+?)` + closeQuote + `?` + ws + `*(?:[–—]|` + byMarker + `)` + ws + `*(` + authorName + `)`)
	bulletRe = regexp.MustCompile(
		`[-•]` + ws + `*` + openQuote + `?([^«"»—–\n]+?)` + closeQuote + `?` + ws + `+(` + authorName + `)(?:` + ws + `*[()]|$)`)
	quotedRe      = regexp.MustCompile(openQuote + `([^«"»]+?)` + closeQuote)
	contextAuthor = regexp.MustCompile(byMarker + ws + `+(` + authorName + `)`)

	quoteStripper = strings.NewReplacer("«", "", "»", "", `"`, "")
)

// Extractor finds book mentions in text. It holds no mutable state and is safe
// for concurrent use.
type Extractor struct {
	log *zap.Logger
}

// NewExtractor returns an Extractor that reports malformed structured blocks
// to log. A nil logger disables reporting.
func NewExtractor(log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{log: log}
}

var defaultExtractor = NewExtractor(nil)

// Extract runs the default Extractor.
func Extract(text string) []Mention {
	return defaultExtractor.Extract(text)
}

// HasMentions runs the default Extractor.
func HasMentions(text string) bool {
	return defaultExtractor.HasMentions(text)
}

// Extract returns up to MaxMentions distinct mentions in the order they appear.
// It never fails; text without recognisable books yields an empty slice.
func (e *Extractor) Extract(text string) []Mention {
	clean := tagRe.ReplaceAllString(text, " ")

	if found := e.structured(clean); len(found) > 0 {
		return limit(dedupe(found))
	}
	return limit(dedupe(naturalLanguage(clean)))
}

// HasMentions reports whether Extract finds at least one mention.
func (e *Extractor) HasMentions(text string) bool {
	return len(e.Extract(text)) > 0
}

func (e *Extractor) structured(text string) []Mention {
	m := blockRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	raw := strings.TrimSpace(m[1])

	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		e.log.Warn("malformed books block, falling back to text patterns",
			zap.Error(err), zap.Int("block_len", len(raw)))
		return nil
	}
	records, ok := parsed.([]any)
	if !ok {
		return nil
	}

	var out []Mention
	for _, rec := range records {
		fields, ok := rec.(map[string]any)
		if !ok {
			continue
		}
		title, ok := fields["title"].(string)
		if !ok {
			continue
		}
		title = strings.TrimSpace(title)
		if !validTitle(title) {
			continue
		}
		author, _ := fields["author"].(string)
		out = append(out, newMention(title, strings.TrimSpace(author)))
	}
	return out
}

// naturalLanguage applies the pattern ladder. The first three patterns all
// contribute; bare quoted titles are only considered when they found nothing.
func naturalLanguage(text string) []Mention {
	var out []Mention

	for _, m := range quotedWithAuthorRe.FindAllStringSubmatch(text, -1) {
		out = appendCandidate(out, strings.TrimSpace(m[1]), strings.TrimSpace(m[2]))
	}
	for _, m := range numberedRe.FindAllStringSubmatch(text, -1) {
		out = appendCandidate(out, stripQuotes(m[1]), strings.TrimSpace(m[2]))
	}
	for _, m := range bulletRe.FindAllStringSubmatch(text, -1) {
		out = appendCandidate(out, stripQuotes(m[1]), strings.TrimSpace(m[2]))
	}
	if len(out) > 0 {
		return out
	}

	for _, loc := range quotedRe.FindAllStringSubmatchIndex(text, -1) {
		title := strings.TrimSpace(text[loc[2]:loc[3]])
		if !validTitle(title) {
			continue
		}
		window := runePrefix(text[loc[0]:], utf8.RuneCountInString(text[loc[0]:loc[1]])+contextRunes)
		var author string
		if am := contextAuthor.FindStringSubmatch(window); am != nil {
			author = strings.TrimSpace(am[1])
		}
		out = append(out, newMention(title, author))
	}
	return out
}

func appendCandidate(out []Mention, title, author string) []Mention {
	if !validTitle(title) || author == "" {
		return out
	}
	return append(out, newMention(title, author))
}

func stripQuotes(s string) string {
	return strings.TrimSpace(quoteStripper.Replace(strings.TrimSpace(s)))
}

func validTitle(title string) bool {
	n := utf8.RuneCountInString(title)
	return n > minTitleLen && n < maxTitleLen
}

// runePrefix returns at most n runes from the start of s.
func runePrefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func dedupe(in []Mention) []Mention {
	seen := make(map[string]bool, len(in))
	out := make([]Mention, 0, len(in))
	for _, m := range in {
		k := m.key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, m)
	}
	return out
}

func limit(in []Mention) []Mention {
	if len(in) > MaxMentions {
		return in[:MaxMentions]
	}
	return in
}
