package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bclonan/ecfr-analyzer/internal/checksum"
	"github.com/bclonan/ecfr-analyzer/internal/enrich"
	"github.com/bclonan/ecfr-analyzer/internal/fetch"
	"github.com/bclonan/ecfr-analyzer/internal/metrics"
	"github.com/bclonan/ecfr-analyzer/internal/normalize"
	"github.com/bclonan/ecfr-analyzer/internal/search"
	"github.com/bclonan/ecfr-analyzer/internal/store"
	"github.com/bclonan/ecfr-analyzer/internal/worker"
)

// downloadStep fetches raw XML for every pending title and compares it
// against the recorded checksum. Unchanged titles leave the chain here;
// their checksum entry is not touched, so a later forced run sees the same
// baseline. Fetches run concurrently, partitioned by title.
type downloadStep struct{}

func (downloadStep) Name() string { return "download" }

func (downloadStep) Run(ctx context.Context, pc *Context) error {
	type fetched struct {
		title  int
		body   []byte
		digest string
		state  checksum.Outcome
	}
	pool := worker.NewPool[int, fetched](pc.Workers)
	results := pool.Run(ctx, pc.Titles, func(ctx context.Context, title int) (fetched, error) {
		body, err := pc.Fetcher.Fetch(ctx, title)
		if err != nil {
			return fetched{title: title}, err
		}
		state, digest, err := pc.Checksums.Check(title, body)
		if err != nil {
			return fetched{title: title}, err
		}
		return fetched{title: title, body: body, digest: digest, state: state}, nil
	})

	for _, res := range results {
		d := pc.Docs[res.Item]
		if res.Err != nil {
			kind := KindFetchTransient
			if errors.Is(res.Err, fetch.ErrPermanent) {
				kind = KindFetchPermanent
			}
			d.Fail(kind, res.Err)
			pc.Logger.Printf("title %d: fetch failed: %v", res.Item, res.Err)
			continue
		}
		fetchBytes.Add(float64(len(res.Out.body)))
		if res.Out.state == checksum.Unchanged && !pc.Force {
			d.Status = StatusUnchanged
			pc.Logger.Printf("title %d: unchanged (%s)", res.Item, short(res.Out.digest))
			continue
		}
		d.Raw = res.Out.body
		d.Digest = res.Out.digest
		d.Status = StatusLive
	}
	return nil
}

// normalizeStep parses the raw XML of every live document into sections.
// A document with no recoverable sections fails structurally; recoverable
// anomalies become warnings on the document.
type normalizeStep struct{}

func (normalizeStep) Name() string { return "normalize" }

func (normalizeStep) Run(ctx context.Context, pc *Context) error {
	for _, d := range pc.Live() {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, err := normalize.Parse(d.Title, bytes.NewReader(d.Raw))
		if err != nil {
			d.Fail(KindParse, err)
			pc.Logger.Printf("title %d: parse failed: %v", d.Title, err)
			continue
		}
		d.Doc = doc
		d.Warnings = append(d.Warnings, doc.Warnings...)
		for _, w := range doc.Warnings {
			pc.Logger.Printf("title %d: %s", d.Title, w)
		}
	}
	return nil
}

// enrichStep extracts outbound citations from every section of every live
// document. Every occurrence is kept, so reference frequency is queryable.
type enrichStep struct{}

func (enrichStep) Name() string { return "enrich" }

func (enrichStep) Run(ctx context.Context, pc *Context) error {
	for _, d := range pc.Live() {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.Refs = make(map[string][]enrich.Reference, len(d.Doc.Sections))
		for _, sec := range d.Doc.Sections {
			d.Refs[sec.UID] = enrich.Enrich(sec)
		}
	}
	return nil
}

// metricsStep scores every section and rolls the scores up per part.
type metricsStep struct{}

func (metricsStep) Name() string { return "metrics" }

func (metricsStep) Run(ctx context.Context, pc *Context) error {
	for _, d := range pc.Live() {
		if err := ctx.Err(); err != nil {
			return err
		}
		d.Scores = d.Scores[:0]
		byPart := map[string][]metrics.SectionMetric{}
		for _, sec := range d.Doc.Sections {
			m := metrics.ScoreSection(sec)
			d.Scores = append(d.Scores, m)
			byPart[sec.Part] = append(byPart[sec.Part], m)
		}
		parts := make([]string, 0, len(byPart))
		for p := range byPart {
			parts = append(parts, p)
		}
		sort.Strings(parts)
		d.Rollups = d.Rollups[:0]
		for _, p := range parts {
			d.Rollups = append(d.Rollups, metrics.RollupPart(d.Title, p, byPart[p]))
		}
	}
	return nil
}

// storeStep persists documents, sections, references and scores. Any write
// failure fails the whole document: the checksum entry is never advanced
// over a partial write, so the next run retries from scratch.
type storeStep struct{}

func (storeStep) Name() string { return "store" }

func (storeStep) Run(ctx context.Context, pc *Context) error {
	for _, d := range pc.Live() {
		if err := storeDocument(ctx, pc.Store, d); err != nil {
			d.Fail(KindStorage, err)
			pc.Logger.Printf("title %d: store failed: %v", d.Title, err)
		}
	}
	return nil
}

func storeDocument(ctx context.Context, st *store.Store, d *DocState) error {
	now := time.Now().UTC()
	rec := store.DocumentRecord{
		Title:         d.Title,
		Name:          d.Doc.Name,
		Digest:        d.Digest,
		TotalWords:    d.Doc.Lexical.TotalWords,
		UniqueWords:   d.Doc.Lexical.UniqueWords,
		SentenceCount: d.Doc.Lexical.SentenceCount,
		FetchedAt:     now,
		UpdatedAt:     now,
	}
	if err := st.UpsertDocument(ctx, rec); err != nil {
		return fmt.Errorf("document: %w", err)
	}
	for _, sec := range d.Doc.Sections {
		if err := st.UpsertSection(ctx, sec); err != nil {
			return fmt.Errorf("section %s: %w", sec.UID, err)
		}
		if err := st.ReplaceReferences(ctx, sec.UID, d.Refs[sec.UID]); err != nil {
			return fmt.Errorf("refs %s: %w", sec.UID, err)
		}
	}
	for _, m := range d.Scores {
		if err := st.UpsertSectionMetric(ctx, m); err != nil {
			return fmt.Errorf("metric %s: %w", m.SectionUID, err)
		}
	}
	for _, pm := range d.Rollups {
		if err := st.UpsertPartMetric(ctx, pm); err != nil {
			return fmt.Errorf("rollup %d/%s: %w", pm.Title, pm.Part, err)
		}
	}
	return nil
}

// indexStep pushes section text into the full-text index. Section UIDs are
// stable across runs, so re-indexing overwrites in place.
type indexStep struct{}

func (indexStep) Name() string { return "index" }

func (indexStep) Run(ctx context.Context, pc *Context) error {
	for _, d := range pc.Live() {
		for _, sec := range d.Doc.Sections {
			doc := search.SectionDoc{
				UID:     sec.UID,
				Title:   sec.Title,
				Part:    sec.Part,
				Heading: sec.Heading,
				Text:    sec.Text,
			}
			if err := pc.Search.Upsert(doc); err != nil {
				d.Fail(KindStorage, fmt.Errorf("index %s: %w", sec.UID, err))
				pc.Logger.Printf("title %d: index failed: %v", d.Title, d.Err)
				break
			}
		}
	}
	return nil
}

// commitStep advances the checksum entry for documents that survived every
// earlier step. A document that failed anywhere keeps its old checksum and
// will be reprocessed in full next run.
type commitStep struct{}

func (commitStep) Name() string { return "commit" }

func (commitStep) Run(ctx context.Context, pc *Context) error {
	for _, d := range pc.Live() {
		if err := pc.Checksums.Commit(d.Title, d.Digest); err != nil {
			d.Fail(KindStorage, fmt.Errorf("checksum commit: %w", err))
			pc.Logger.Printf("title %d: commit failed: %v", d.Title, err)
			continue
		}
		d.Status = StatusSucceeded
		pc.Logger.Printf("title %d: committed %s (%d sections)", d.Title, short(d.Digest), len(d.Doc.Sections))
	}
	return nil
}

func short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
