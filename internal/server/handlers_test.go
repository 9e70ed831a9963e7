package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/bclonan/ecfr-analyzer/internal/search"
	"github.com/bclonan/ecfr-analyzer/internal/store"
)

func newMockStore(t *testing.T) (*store.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &store.Store{DB: db}, mock
}

func sectionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"uid", "title", "part", "section_number", "heading", "short_title", "text_norm",
		"word_count", "paragraph_count", "sentence_count", "digest", "reserved", "definition",
		"fr_citations", "updated_at",
	})
}

func TestGetSectionWithMetric(t *testing.T) {
	e := echo.New()
	st, mock := newMockStore(t)
	handler := &CorpusHandler{Store: st}

	mock.ExpectQuery(`SELECT uid, title, part`).
		WithArgs("title40-261-1").
		WillReturnRows(sectionRows().AddRow(
			"title40-261-1", 40, "261", "261.1", "§ 261.1 Purpose and scope.", "Purpose and scope.",
			"The owner shall comply.", 4, 1, 1, "deadbeef", false, false,
			[]byte(`{"45 FR 33119"}`), time.Now(),
		))
	mock.ExpectQuery(`SELECT section_uid, digest, schema_version`).
		WithArgs("title40-261-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"section_uid", "digest", "schema_version", "word_count", "paragraph_count", "sentence_count",
			"eri", "dor", "pbi", "amr", "fli", "hvi", "drs", "soi", "fk_grade",
		}).AddRow("title40-261-1", "deadbeef", 2, 4, 1, 1, 0.25, 0.25, 0.0, 0.0, 0.0, 0.0, 0.0, 0.375, 3.2))

	req := httptest.NewRequest(http.MethodGet, "/api/sections/title40-261-1", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("uid")
	ctx.SetParamValues("title40-261-1")

	if err := handler.section(ctx); err != nil {
		t.Fatalf("section: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var resp sectionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Section.UID != "title40-261-1" || resp.Metric == nil || resp.Metric.SOI != 0.375 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetSectionNotFound(t *testing.T) {
	e := echo.New()
	st, mock := newMockStore(t)
	handler := &CorpusHandler{Store: st}

	mock.ExpectQuery(`SELECT uid, title, part`).
		WithArgs("title40-999-1").
		WillReturnRows(sectionRows())

	req := httptest.NewRequest(http.MethodGet, "/api/sections/title40-999-1", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("uid")
	ctx.SetParamValues("title40-999-1")

	err := handler.section(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestListTitles(t *testing.T) {
	e := echo.New()
	st, mock := newMockStore(t)
	handler := &CorpusHandler{Store: st}

	mock.ExpectQuery(`SELECT title FROM documents ORDER BY title`).
		WillReturnRows(sqlmock.NewRows([]string{"title"}).AddRow(29).AddRow(40))

	req := httptest.NewRequest(http.MethodGet, "/api/titles", nil)
	rec := httptest.NewRecorder()
	if err := handler.titles(e.NewContext(req, rec)); err != nil {
		t.Fatalf("titles: %v", err)
	}
	var titles []int
	if err := json.Unmarshal(rec.Body.Bytes(), &titles); err != nil {
		t.Fatal(err)
	}
	if len(titles) != 2 || titles[0] != 29 || titles[1] != 40 {
		t.Fatalf("unexpected titles: %v", titles)
	}
}

func TestPartMetricNotFound(t *testing.T) {
	e := echo.New()
	st, mock := newMockStore(t)
	handler := &CorpusHandler{Store: st}

	mock.ExpectQuery(`SELECT title, part, schema_version`).
		WithArgs(40, "999").
		WillReturnRows(sqlmock.NewRows([]string{"title"}))

	req := httptest.NewRequest(http.MethodGet, "/api/parts/40/999", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	ctx.SetParamNames("title", "part")
	ctx.SetParamValues("40", "999")

	err := handler.partMetric(ctx)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestListSectionsWholeTitle(t *testing.T) {
	e := echo.New()
	st, mock := newMockStore(t)
	handler := &CorpusHandler{Store: st}

	// No part filter: every part of the title comes back.
	mock.ExpectQuery(`FROM sections\s+WHERE title = \$1\s+ORDER BY uid`).
		WithArgs(40).
		WillReturnRows(sectionRows().
			AddRow("title40-260-1", 40, "260", "260.1", "§ 260.1 Scope.", "Scope.",
				"Applies broadly.", 2, 1, 1, "d1", false, false, []byte(`{}`), time.Now()).
			AddRow("title40-261-1", 40, "261", "261.1", "§ 261.1 Purpose.", "Purpose.",
				"Identifies waste.", 2, 1, 1, "d2", false, false, []byte(`{}`), time.Now()))

	req := httptest.NewRequest(http.MethodGet, "/api/sections?title=40", nil)
	rec := httptest.NewRecorder()
	if err := handler.sections(e.NewContext(req, rec)); err != nil {
		t.Fatalf("sections: %v", err)
	}
	var recs []store.SectionRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &recs); err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].Part != "260" || recs[1].Part != "261" {
		t.Fatalf("unexpected sections: %+v", recs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestBadTitleQuery(t *testing.T) {
	e := echo.New()
	st, _ := newMockStore(t)
	handler := &CorpusHandler{Store: st}

	req := httptest.NewRequest(http.MethodGet, "/api/parts?title=forty", nil)
	rec := httptest.NewRecorder()
	err := handler.parts(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestReferenceSearch(t *testing.T) {
	e := echo.New()
	st, mock := newMockStore(t)
	handler := &SearchHandler{Store: st}

	mock.ExpectQuery(`SELECT kind, raw, target, COUNT`).
		WithArgs("%261%", 20).
		WillReturnRows(sqlmock.NewRows([]string{"kind", "raw", "target", "freq"}).
			AddRow("CFR", "40 CFR 261.5", "40 CFR 261.5", 7))

	req := httptest.NewRequest(http.MethodGet, "/api/refs/search?q=261", nil)
	rec := httptest.NewRecorder()
	if err := handler.references(e.NewContext(req, rec)); err != nil {
		t.Fatalf("references: %v", err)
	}
	var groups []store.RefGroup
	if err := json.Unmarshal(rec.Body.Bytes(), &groups); err != nil {
		t.Fatal(err)
	}
	if len(groups) != 1 || groups[0].Count != 7 {
		t.Fatalf("unexpected groups: %+v", groups)
	}
}

func TestFullTextSearch(t *testing.T) {
	idx, err := search.Open("")
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	if err := idx.Upsert(search.SectionDoc{
		UID: "title40-261-1", Title: 40, Part: "261",
		Heading: "§ 261.1 Purpose and scope.",
		Text:    "Hazardous waste identification applies here.",
	}); err != nil {
		t.Fatal(err)
	}

	e := New(Deps{Search: idx})
	req := httptest.NewRequest(http.MethodGet, "/api/search?q=hazardous", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var hits []search.Hit
	if err := json.Unmarshal(rec.Body.Bytes(), &hits); err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].UID != "title40-261-1" {
		t.Fatalf("unexpected hits: %+v", hits)
	}

	// missing q is a client error
	req = httptest.NewRequest(http.MethodGet, "/api/search", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}
