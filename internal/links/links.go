// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package links enriches note bodies with wiki-style cross-references.
// The inferencer reads the knowledge index as an oracle: emphasized
// spans that overlap known topics become inline links, and a Related
// Topics section collects every sufficiently confident target. It
// never mutates or persists index state.
package links

import (
	"fmt"
	"iter"
	"regexp"
	"strings"

	"github.com/okazmin/vaultpipe/internal/index"
	"github.com/okazmin/vaultpipe/pkg/types"
)

var (
	boldRe     = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
)

// Threshold defaults, applied for zero-valued config fields.
const (
	defaultAutoLinkMinConfidence = 0.6
	defaultMinRelevance          = 0.4
	defaultMaxRelated            = 5
	defaultMinRelatedRelevance   = 0.3

	// mentionConfidence is assigned to every mention-to-topic match.
	mentionConfidence = 0.8

	relatedHeading = "## Related Topics"
)

// Opportunity is one candidate cross-reference: a target note, an
// optional anchor span to rewrite inline, and a confidence score.
type Opportunity struct {
	Target string

	// Anchor is the mention text the opportunity came from; empty for
	// opportunities derived from similarity ranking alone.
	Anchor string

	Confidence float64
}

// Inferencer finds and applies cross-reference opportunities.
type Inferencer struct {
	idx                 *index.Index
	autoLinkMin         float64
	minRelevance        float64
	maxRelated          int
	minRelatedRelevance float64
}

// New builds an Inferencer over idx. Zero-valued thresholds in cfg
// fall back to the package defaults.
func New(idx *index.Index, cfg types.LinksConfig) *Inferencer {
	inf := &Inferencer{
		idx:                 idx,
		autoLinkMin:         cfg.AutoLinkMinConfidence,
		minRelevance:        cfg.MinRelevance,
		maxRelated:          cfg.MaxRelated,
		minRelatedRelevance: cfg.MinRelatedRelevance,
	}
	if inf.autoLinkMin == 0 {
		inf.autoLinkMin = defaultAutoLinkMinConfidence
	}
	if inf.minRelevance == 0 {
		inf.minRelevance = defaultMinRelevance
	}
	if inf.maxRelated == 0 {
		inf.maxRelated = defaultMaxRelated
	}
	if inf.minRelatedRelevance == 0 {
		inf.minRelatedRelevance = defaultMinRelatedRelevance
	}
	return inf
}

// Mentions yields the lowercase text of every bold span in body, in
// order of appearance. The sequence is finite and restartable.
func Mentions(body string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, m := range boldRe.FindAllStringSubmatch(body, -1) {
			if !yield(strings.ToLower(m[1])) {
				return
			}
		}
	}
}

// WikiLinks returns the deduplicated targets of every [[...]] link in
// body, with [[Target|Alias]] forms normalized to their target.
func WikiLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]bool, len(matches))
	var out []string
	for _, m := range matches {
		target := m[1]
		if i := strings.IndexByte(target, '|'); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" || seen[target] {
			continue
		}
		seen[target] = true
		out = append(out, target)
	}
	return out
}

// Related returns the similarity ranking for filename using the
// inferencer's resolved thresholds.
func (inf *Inferencer) Related(filename string) []index.Match {
	return inf.idx.FindRelated(filename, inf.maxRelated, inf.minRelatedRelevance)
}

// FindLinkOpportunities combines two sources: mentions whose text
// overlaps an indexed topic (every note under that topic becomes a
// candidate with a fixed confidence), and the similarity ranking for
// filename (each match's score is its confidence). The subject note
// is never its own target.
func (inf *Inferencer) FindLinkOpportunities(filename, body string) []Opportunity {
	var opps []Opportunity

	for mention := range Mentions(body) {
		for _, topic := range inf.idx.Topics() {
			if !strings.Contains(topic, mention) && !strings.Contains(mention, topic) {
				continue
			}
			for _, target := range inf.idx.FindByTopic(topic) {
				if target != filename {
					opps = append(opps, Opportunity{
						Target:     target,
						Anchor:     mention,
						Confidence: mentionConfidence,
					})
				}
			}
		}
	}

	for _, m := range inf.idx.FindRelated(filename, inf.maxRelated, inf.minRelatedRelevance) {
		opps = append(opps, Opportunity{Target: m.Filename, Confidence: m.Score})
	}

	return opps
}

// GenerateLinks rewrites qualifying bold spans in body into wiki links
// and appends or refreshes the Related Topics section. With no
// opportunities at all the body comes back unchanged. Re-running over
// already converted text is stable: a converted span is no longer bold
// markup, so a second pass finds nothing further to convert, and the
// section converges to the same content while the index is unchanged.
func (inf *Inferencer) GenerateLinks(filename, body string) string {
	opps := inf.FindLinkOpportunities(filename, body)

	for _, opp := range opps {
		if opp.Anchor == "" || opp.Confidence < inf.autoLinkMin {
			continue
		}
		body = rewriteFirstBold(body, opp.Anchor, opp.Target)
	}

	if len(opps) > 0 {
		body = upsertRelatedSection(body, inf.relatedSection(opps))
	}

	return body
}

// rewriteFirstBold converts the first bold span matching anchor
// (case-insensitive) into a [[target|anchor]] link. At most one span
// is rewritten per call.
func rewriteFirstBold(body, anchor, target string) string {
	re := regexp.MustCompile(`(?i)\*\*` + regexp.QuoteMeta(anchor) + `\*\*`)
	loc := re.FindStringIndex(body)
	if loc == nil {
		return body
	}
	link := "[[" + strings.TrimSuffix(target, ".md") + "|" + anchor + "]]"
	return body[:loc[0]] + link + body[loc[1]:]
}

// relatedSection renders the section body: one entry per distinct
// target above the relevance floor, first occurrence winning, titled
// from the index when the target is known.
func (inf *Inferencer) relatedSection(opps []Opportunity) string {
	var b strings.Builder
	b.WriteString(relatedHeading + "\n")

	seen := map[string]bool{}
	for _, opp := range opps {
		if opp.Confidence <= inf.minRelevance || seen[opp.Target] {
			continue
		}
		seen[opp.Target] = true

		name := strings.TrimSuffix(opp.Target, ".md")
		title := name
		if rec, ok := inf.idx.GetFileInfo(opp.Target); ok && rec.Title != "" {
			title = rec.Title
		}
		fmt.Fprintf(&b, "- [[%s]] - %s\n", name, title)
	}

	return b.String()
}

// upsertRelatedSection replaces an existing Related Topics section in
// place, up to the next heading or end of text, or appends one.
func upsertRelatedSection(body, section string) string {
	start := strings.Index(body, relatedHeading)
	if start < 0 {
		return body + "\n" + section
	}

	rest := body[start+len(relatedHeading):]
	if next := strings.Index(rest, "\n##"); next >= 0 {
		return body[:start] + section + rest[next:]
	}
	return body[:start] + section
}
