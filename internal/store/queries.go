package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/bclonan/ecfr-analyzer/internal/metrics"
)

// SectionRecord is the stored shape of a section as the query surface sees
// it.
type SectionRecord struct {
	UID            string
	Title          int
	Part           string
	Number         string
	Heading        string
	ShortTitle     string
	Text           string
	WordCount      int
	ParagraphCount int
	SentenceCount  int
	Digest         string
	Reserved       bool
	Definition     bool
	FRCitations    []string
	UpdatedAt      time.Time
}

// PartListing identifies one part within a title.
type PartListing struct {
	Title int
	Part  string
}

// RefGroup is an aggregated reference search row: identical (kind, raw,
// target) tuples grouped with their frequency.
type RefGroup struct {
	Kind   string
	Raw    string
	Target string
	Count  int
}

const sectionColumns = `uid, title, part, section_number, heading, short_title, text_norm,
       word_count, paragraph_count, sentence_count, digest, reserved, definition, fr_citations, updated_at`

// GetSection looks up one section by its stable identifier.
func (s *Store) GetSection(ctx context.Context, uid string) (SectionRecord, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT `+sectionColumns+`
FROM sections
WHERE uid = $1
`, uid)
	return scanSection(row)
}

// ListTitles returns the distinct stored title numbers in order.
func (s *Store) ListTitles(ctx context.Context) ([]int, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT title FROM documents ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var t int
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListParts returns the distinct parts, optionally filtered to one title.
func (s *Store) ListParts(ctx context.Context, title int) ([]PartListing, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if title > 0 {
		rows, err = s.DB.QueryContext(ctx, `
SELECT DISTINCT title, part FROM sections WHERE title = $1 AND part <> '' ORDER BY title, part
`, title)
	} else {
		rows, err = s.DB.QueryContext(ctx, `
SELECT DISTINCT title, part FROM sections WHERE part <> '' ORDER BY title, part
`)
	}
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	defer rows.Close()
	var out []PartListing
	for rows.Next() {
		var p PartListing
		if err := rows.Scan(&p.Title, &p.Part); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListSections returns the sections of one title in identifier order,
// optionally filtered to one part. An empty part means every part.
func (s *Store) ListSections(ctx context.Context, title int, part string) ([]SectionRecord, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if part != "" {
		rows, err = s.DB.QueryContext(ctx, `
SELECT `+sectionColumns+`
FROM sections
WHERE title = $1 AND part = $2
ORDER BY uid
`, title, part)
	} else {
		rows, err = s.DB.QueryContext(ctx, `
SELECT `+sectionColumns+`
FROM sections
WHERE title = $1
ORDER BY uid
`, title)
	}
	if err != nil {
		return nil, fmt.Errorf("list sections %d/%s: %w", title, part, err)
	}
	defer rows.Close()
	return scanSections(rows)
}

// RecentSections lists the most recently touched sections, newest first.
func (s *Store) RecentSections(ctx context.Context, limit int) ([]SectionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT `+sectionColumns+`
FROM sections
ORDER BY updated_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent sections: %w", err)
	}
	defer rows.Close()
	return scanSections(rows)
}

// SearchReferences finds references whose raw span or normalized target
// contains q, grouped with frequency. Frequency ordering surfaces the most
// cited targets first.
func (s *Store) SearchReferences(ctx context.Context, q string, limit int) ([]RefGroup, error) {
	if limit <= 0 {
		limit = 25
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT kind, raw, target, COUNT(*) AS freq
FROM section_refs
WHERE raw ILIKE $1 OR target ILIKE $1
GROUP BY kind, raw, target
ORDER BY freq DESC
LIMIT $2
`, "%"+q+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search references: %w", err)
	}
	defer rows.Close()
	var out []RefGroup
	for rows.Next() {
		var g RefGroup
		if err := rows.Scan(&g.Kind, &g.Raw, &g.Target, &g.Count); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetSectionMetric returns the stored metric row for a section.
func (s *Store) GetSectionMetric(ctx context.Context, uid string) (metrics.SectionMetric, error) {
	var m metrics.SectionMetric
	err := s.DB.QueryRowContext(ctx, `
SELECT section_uid, digest, schema_version, word_count, paragraph_count, sentence_count,
       eri, dor, pbi, amr, fli, hvi, drs, soi, fk_grade
FROM section_metrics
WHERE section_uid = $1
`, uid).Scan(&m.SectionUID, &m.Digest, &m.Schema, &m.WordCount, &m.ParagraphCount, &m.SentenceCount,
		&m.ERI, &m.DOR, &m.PBI, &m.AMR, &m.FLI, &m.HVI, &m.DRS, &m.SOI, &m.FKGrade)
	if err == sql.ErrNoRows {
		return m, ErrNotFound
	}
	if err != nil {
		return m, fmt.Errorf("get section metric %s: %w", uid, err)
	}
	return m, nil
}

// GetPartMetric returns the stored rollup for one (title, part) key.
func (s *Store) GetPartMetric(ctx context.Context, title int, part string) (metrics.PartMetric, error) {
	var pm metrics.PartMetric
	err := s.DB.QueryRowContext(ctx, `
SELECT title, part, schema_version, section_count, word_count, paragraph_count, sentence_count,
       mean_eri, mean_dor, mean_pbi, mean_amr, mean_fli, mean_hvi, mean_drs, mean_soi, mean_fk_grade
FROM part_metrics
WHERE title = $1 AND part = $2
`, title, part).Scan(&pm.Title, &pm.Part, &pm.Schema, &pm.SectionCount, &pm.WordCount, &pm.ParagraphCount, &pm.SentenceCount,
		&pm.MeanERI, &pm.MeanDOR, &pm.MeanPBI, &pm.MeanAMR, &pm.MeanFLI, &pm.MeanHVI, &pm.MeanDRS, &pm.MeanSOI, &pm.MeanFKGrade)
	if err == sql.ErrNoRows {
		return pm, ErrNotFound
	}
	if err != nil {
		return pm, fmt.Errorf("get part metric %d/%s: %w", title, part, err)
	}
	return pm, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSection(row rowScanner) (SectionRecord, error) {
	var rec SectionRecord
	err := row.Scan(&rec.UID, &rec.Title, &rec.Part, &rec.Number, &rec.Heading, &rec.ShortTitle, &rec.Text,
		&rec.WordCount, &rec.ParagraphCount, &rec.SentenceCount, &rec.Digest,
		&rec.Reserved, &rec.Definition, pq.Array(&rec.FRCitations), &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, fmt.Errorf("scan section: %w", err)
	}
	return rec, nil
}

func scanSections(rows *sql.Rows) ([]SectionRecord, error) {
	var out []SectionRecord
	for rows.Next() {
		rec, err := scanSection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
