// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline turns source documents into linked vault notes.
// One run of ProcessDocument loads a document, asks the generative
// model for a structured note, derives a stable filename, registers
// the note in the knowledge index, infers cross-references, and
// persists the note, the index snapshot, and the processing ledger.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/okazmin/vaultpipe/internal/docload"
	"github.com/okazmin/vaultpipe/internal/index"
	"github.com/okazmin/vaultpipe/internal/ledger"
	"github.com/okazmin/vaultpipe/internal/links"
	"github.com/okazmin/vaultpipe/internal/metadata"
	"github.com/okazmin/vaultpipe/internal/slug"
	"github.com/okazmin/vaultpipe/internal/vault"
	"github.com/okazmin/vaultpipe/pkg/types"
)

// topicHeadingRe matches second-level headings; the first few become
// the note's topics.
var topicHeadingRe = regexp.MustCompile(`(?m)^## (.+)$`)

// maxTopics caps how many headings are promoted to topics.
const maxTopics = 5

// Generator produces raw note text from a prompt and document text.
type Generator interface {
	Chat(ctx context.Context, prompt, text string) (string, error)
}

// Pipeline wires the processing stages together around one vault.
type Pipeline struct {
	cfg    types.PipelineConfig
	gen    Generator
	idx    *index.Index
	inf    *links.Inferencer
	writer *vault.Writer
	led    *ledger.Ledger
}

// Result reports where a processed document ended up.
type Result struct {
	Filename   string
	OutputPath string

	// Skipped is set when the ledger shows the input unchanged since
	// its last run; no API call is made in that case.
	Skipped bool
}

// New opens the vault, index, and ledger described by cfg. The ledger
// is optional: with an empty ledger path every document is processed
// unconditionally.
func New(cfg types.PipelineConfig, gen Generator) (*Pipeline, error) {
	idx, err := index.Open(cfg.Vault.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}

	writer, err := vault.NewWriter(cfg.Vault.Dir)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:    cfg,
		gen:    gen,
		idx:    idx,
		inf:    links.New(idx, cfg.Links),
		writer: writer,
	}

	if cfg.Vault.LedgerPath != "" {
		p.led, err = ledger.Open(cfg.Vault.LedgerPath)
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Close releases the pipeline's resources.
func (p *Pipeline) Close() error {
	if p.led != nil {
		return p.led.Close()
	}
	return nil
}

// Index exposes the knowledge index for query commands.
func (p *Pipeline) Index() *index.Index {
	return p.idx
}

// ProcessDocument runs the full pipeline for one input file. The
// prompt file supplies the instruction text sent ahead of the document.
// A non-empty outputName overrides filename derivation when the model
// reports no main topic.
func (p *Pipeline) ProcessDocument(ctx context.Context, inputPath, promptPath, outputName string) (Result, error) {
	slog.Info("processing document", "input", inputPath)

	doc, err := docload.Load(inputPath)
	if err != nil {
		return Result{}, err
	}

	checksum := ledger.Checksum(doc.Content)
	if p.led != nil {
		prev, same, err := p.led.Unchanged(ctx, inputPath, checksum)
		if err != nil {
			return Result{}, err
		}
		if same {
			slog.Info("input unchanged since last run, skipping",
				"input", inputPath, "output", prev.OutputFile)
			return Result{
				Filename:   prev.OutputFile,
				OutputPath: p.writer.NotePath(prev.OutputFile),
				Skipped:    true,
			}, nil
		}
	}

	promptDoc, err := docload.Load(promptPath)
	if err != nil {
		return Result{}, fmt.Errorf("loading prompt: %w", err)
	}

	slog.Info("requesting note generation",
		"chars", len([]rune(doc.Content)), "format", doc.Format)

	raw, err := p.gen.Chat(ctx, promptDoc.Content, doc.Content)
	if err != nil {
		return Result{}, fmt.Errorf("generating note for %s: %w", inputPath, err)
	}

	fm, body := metadata.Parse(raw)

	filename := p.deriveFilename(fm, doc.FileName, outputName)
	title := fm.GetString("title")
	if title == "" {
		title = strings.TrimSuffix(filename, ".md")
	}
	tags := fm.StringList("tags")
	topics := extractTopics(body)

	p.idx.Add(filename, title, tags, topics, nil, nil)

	body = p.inf.GenerateLinks(filename, body)

	related := make([]string, 0)
	for _, m := range p.inf.Related(filename) {
		related = append(related, m.Filename)
	}
	p.idx.UpdateRelatedLinks(filename, related)

	for _, target := range links.WikiLinks(body) {
		p.idx.UpdateBacklink(filename, noteFile(target))
	}

	path, err := p.writer.WriteNote(filename, fm, body)
	if err != nil {
		return Result{}, err
	}

	if err := p.idx.Save(); err != nil {
		return Result{}, err
	}

	if p.led != nil {
		if err := p.led.Record(ctx, inputPath, checksum, filename); err != nil {
			return Result{}, err
		}
	}

	slog.Info("note written", "output", path, "tags", len(tags), "topics", len(topics))

	return Result{Filename: filename, OutputPath: path}, nil
}

// deriveFilename picks the note filename: topic-anchored when the
// model reported a main topic, otherwise the explicit override, the
// sanitized title, or the sanitized input name.
func (p *Pipeline) deriveFilename(fm types.Frontmatter, inputName, outputName string) string {
	mainTopic := strings.TrimSpace(fm.GetString("main_topic"))
	title := strings.TrimSpace(fm.GetString("title"))

	var filename string
	switch {
	case mainTopic != "":
		filename = slug.Derive(mainTopic, title, slug.Sanitize(inputName))
	case outputName != "":
		filename = outputName
	case title != "":
		filename = slug.Sanitize(title)
	default:
		filename = slug.Sanitize(inputName)
	}

	return noteFile(filename)
}

// noteFile ensures a name carries the .md suffix.
func noteFile(name string) string {
	if strings.HasSuffix(name, ".md") {
		return name
	}
	return name + ".md"
}

// extractTopics promotes the first few second-level headings of the
// body to topic labels: lowercased, spaces replaced by underscores.
func extractTopics(body string) []string {
	matches := topicHeadingRe.FindAllStringSubmatch(body, maxTopics)

	topics := make([]string, 0, len(matches))
	for _, m := range matches {
		heading := strings.ToLower(strings.TrimSpace(m[1]))
		topics = append(topics, strings.ReplaceAll(heading, " ", "_"))
	}
	return topics
}

// GraphStats returns the index summary counters.
func (p *Pipeline) GraphStats() index.Summary {
	return p.idx.Summarize()
}

// Orphans returns notes with no incoming or outgoing links.
func (p *Pipeline) Orphans() []string {
	return p.idx.Orphans()
}
