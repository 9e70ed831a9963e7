// Package store is the durable, queryable record store for normalized
// documents, sections, references and metrics. All writes are idempotent
// upserts keyed by stable identifier; the rows for one section (record,
// paragraphs, references, metric) are kept mutually consistent by writing
// them inside one transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/bclonan/ecfr-analyzer/internal/enrich"
	"github.com/bclonan/ecfr-analyzer/internal/metrics"
	"github.com/bclonan/ecfr-analyzer/internal/normalize"
)

// ErrNotFound is returned by point lookups that match nothing.
var ErrNotFound = errors.New("not found")

// Store wraps a Postgres handle. Writers are serialized through mu so
// concurrent callers cannot interleave the per-section row families;
// readers go straight to the pool.
type Store struct {
	DB *sql.DB
	mu sync.Mutex
}

// NewWithDSN opens and pings a Postgres connection.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{DB: db}, nil
}

// DocumentRecord is one stored title row.
type DocumentRecord struct {
	Title         int
	Name          string
	Digest        string
	TotalWords    int
	UniqueWords   int
	SentenceCount int
	FetchedAt     time.Time
	UpdatedAt     time.Time
}

// UpsertDocument records a title's digest and lexical stats. Documents are
// never deleted, only superseded.
func (s *Store) UpsertDocument(ctx context.Context, d DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO documents (title, name, digest, total_words, unique_words, sentence_count, fetched_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW())
ON CONFLICT (title) DO UPDATE SET
  name = EXCLUDED.name,
  digest = EXCLUDED.digest,
  total_words = EXCLUDED.total_words,
  unique_words = EXCLUDED.unique_words,
  sentence_count = EXCLUDED.sentence_count,
  fetched_at = NOW(),
  updated_at = NOW();
`, d.Title, d.Name, d.Digest, d.TotalWords, d.UniqueWords, d.SentenceCount)
	if err != nil {
		return fmt.Errorf("upsert document %d: %w", d.Title, err)
	}
	return nil
}

// UpsertSection writes a section row and replaces its paragraphs in one
// transaction. Running it twice with identical input leaves identical state.
func (s *Store) UpsertSection(ctx context.Context, sec normalize.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert section %s: %w", sec.UID, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO sections (uid, title, part, section_number, heading, short_title, text_norm,
                      word_count, paragraph_count, sentence_count, digest,
                      reserved, definition, fr_citations, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,NOW(),NOW())
ON CONFLICT (uid) DO UPDATE SET
  title = EXCLUDED.title,
  part = EXCLUDED.part,
  section_number = EXCLUDED.section_number,
  heading = EXCLUDED.heading,
  short_title = EXCLUDED.short_title,
  text_norm = EXCLUDED.text_norm,
  word_count = EXCLUDED.word_count,
  paragraph_count = EXCLUDED.paragraph_count,
  sentence_count = EXCLUDED.sentence_count,
  digest = EXCLUDED.digest,
  reserved = EXCLUDED.reserved,
  definition = EXCLUDED.definition,
  fr_citations = EXCLUDED.fr_citations,
  updated_at = NOW();
`, sec.UID, sec.Title, sec.Part, sec.Number, sec.Heading, sec.ShortTitle, sec.Text,
		sec.WordCount, sec.ParagraphCount, sec.SentenceCount, sec.Digest,
		sec.Reserved, sec.Definition, pq.Array(sec.FRCitations))
	if err != nil {
		return fmt.Errorf("upsert section %s: %w", sec.UID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM paragraphs WHERE section_uid = $1`, sec.UID); err != nil {
		return fmt.Errorf("clear paragraphs for %s: %w", sec.UID, err)
	}
	for _, p := range sec.Paragraphs {
		_, err := tx.ExecContext(ctx, `
INSERT INTO paragraphs (uid, section_uid, idx, text_norm, word_count, digest)
VALUES ($1,$2,$3,$4,$5,$6);
`, p.UID, sec.UID, p.Index, p.Text, p.WordCount, p.Digest)
		if err != nil {
			return fmt.Errorf("insert paragraph %s: %w", p.UID, err)
		}
	}
	return tx.Commit()
}

// ReplaceReferences swaps a section's reference edges for the given set.
// References are frequency-preserving: duplicates with distinct positions
// are all kept.
func (s *Store) ReplaceReferences(ctx context.Context, sectionUID string, refs []enrich.Reference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace refs %s: %w", sectionUID, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM section_refs WHERE section_uid = $1`, sectionUID); err != nil {
		return fmt.Errorf("clear refs for %s: %w", sectionUID, err)
	}
	for _, r := range refs {
		_, err := tx.ExecContext(ctx, `
INSERT INTO section_refs (section_uid, kind, raw, target, position)
VALUES ($1,$2,$3,$4,$5);
`, sectionUID, r.Kind, r.Raw, r.Target, r.Position)
		if err != nil {
			return fmt.Errorf("insert ref for %s: %w", sectionUID, err)
		}
	}
	return tx.Commit()
}

// UpsertSectionMetric replaces a section's metric row wholesale.
func (s *Store) UpsertSectionMetric(ctx context.Context, m metrics.SectionMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO section_metrics (section_uid, digest, schema_version, word_count, paragraph_count, sentence_count,
                             eri, dor, pbi, amr, fli, hvi, drs, soi, fk_grade, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,NOW())
ON CONFLICT (section_uid) DO UPDATE SET
  digest = EXCLUDED.digest,
  schema_version = EXCLUDED.schema_version,
  word_count = EXCLUDED.word_count,
  paragraph_count = EXCLUDED.paragraph_count,
  sentence_count = EXCLUDED.sentence_count,
  eri = EXCLUDED.eri,
  dor = EXCLUDED.dor,
  pbi = EXCLUDED.pbi,
  amr = EXCLUDED.amr,
  fli = EXCLUDED.fli,
  hvi = EXCLUDED.hvi,
  drs = EXCLUDED.drs,
  soi = EXCLUDED.soi,
  fk_grade = EXCLUDED.fk_grade,
  updated_at = NOW();
`, m.SectionUID, m.Digest, m.Schema, m.WordCount, m.ParagraphCount, m.SentenceCount,
		m.ERI, m.DOR, m.PBI, m.AMR, m.FLI, m.HVI, m.DRS, m.SOI, m.FKGrade)
	if err != nil {
		return fmt.Errorf("upsert section metric %s: %w", m.SectionUID, err)
	}
	return nil
}

// UpsertPartMetric replaces a part's rollup row wholesale.
func (s *Store) UpsertPartMetric(ctx context.Context, pm metrics.PartMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO part_metrics (title, part, schema_version, section_count, word_count, paragraph_count, sentence_count,
                          mean_eri, mean_dor, mean_pbi, mean_amr, mean_fli, mean_hvi, mean_drs, mean_soi, mean_fk_grade, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,NOW())
ON CONFLICT (title, part) DO UPDATE SET
  schema_version = EXCLUDED.schema_version,
  section_count = EXCLUDED.section_count,
  word_count = EXCLUDED.word_count,
  paragraph_count = EXCLUDED.paragraph_count,
  sentence_count = EXCLUDED.sentence_count,
  mean_eri = EXCLUDED.mean_eri,
  mean_dor = EXCLUDED.mean_dor,
  mean_pbi = EXCLUDED.mean_pbi,
  mean_amr = EXCLUDED.mean_amr,
  mean_fli = EXCLUDED.mean_fli,
  mean_hvi = EXCLUDED.mean_hvi,
  mean_drs = EXCLUDED.mean_drs,
  mean_soi = EXCLUDED.mean_soi,
  mean_fk_grade = EXCLUDED.mean_fk_grade,
  updated_at = NOW();
`, pm.Title, pm.Part, pm.Schema, pm.SectionCount, pm.WordCount, pm.ParagraphCount, pm.SentenceCount,
		pm.MeanERI, pm.MeanDOR, pm.MeanPBI, pm.MeanAMR, pm.MeanFLI, pm.MeanHVI, pm.MeanDRS, pm.MeanSOI, pm.MeanFKGrade)
	if err != nil {
		return fmt.Errorf("upsert part metric %d/%s: %w", pm.Title, pm.Part, err)
	}
	return nil
}
