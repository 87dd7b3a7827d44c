package record

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aarondl/opt/null"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/roach88/splitkeeper/internal/ir"
	"github.com/roach88/splitkeeper/internal/route"
)

// Kind tags which record a document holds.
type Kind string

const (
	KindPersonalBest Kind = "personal_best"
	KindGolds        Kind = "golds"
)

// Document is the persisted form of a record.
type Document struct {
	// Version must equal ir.RecordVersion.
	Version int `yaml:"version"`

	// Kind distinguishes personal-best files from gold files.
	Kind Kind `yaml:"kind"`

	// Route and RouteHash describe the route the record was saved
	// against. They are informational; loading resyncs by split identity.
	Route     string `yaml:"route,omitempty"`
	RouteHash string `yaml:"route_hash,omitempty"`

	Entries []EntryDoc `yaml:"entries"`
}

// EntryDoc is one persisted time. An empty Time means no value.
type EntryDoc struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Level int    `yaml:"level"`
	Time  string `yaml:"time,omitempty"`
}

// LoadTimes reads a personal-best file. A missing file yields an empty
// record.
func LoadTimes(path string) (*Times, error) {
	doc, err := readDocument(path, KindPersonalBest)
	if err != nil || doc == nil {
		return NewTimes(), err
	}
	t := NewTimes()
	for i, e := range doc.Entries {
		id, v, err := decodeEntry(e)
		if err != nil {
			return nil, entryError(path, i, err)
		}
		t.Set(Entry{ID: id, Level: e.Level, Name: e.Name, Time: v})
	}
	return t, nil
}

// LoadGolds reads a gold file. A missing file yields an empty record.
func LoadGolds(path string) (*Golds, error) {
	doc, err := readDocument(path, KindGolds)
	if err != nil || doc == nil {
		return NewGolds(), err
	}
	g := NewGolds()
	for i, e := range doc.Entries {
		id, v, err := decodeEntry(e)
		if err != nil {
			return nil, entryError(path, i, err)
		}
		g.Set(GoldEntry{Key: Key{ID: id, Level: e.Level}, Name: e.Name, Time: v})
	}
	return g, nil
}

// SaveTimes writes t as a personal-best file for r.
func SaveTimes(path string, t *Times, r *route.Route) error {
	doc := newDocument(KindPersonalBest, r)
	for _, e := range t.entries {
		doc.Entries = append(doc.Entries, encodeEntry(e.ID, e.Name, e.Level, e.Time))
	}
	return writeDocument(path, doc)
}

// SaveGolds writes g as a gold file for r.
func SaveGolds(path string, g *Golds, r *route.Route) error {
	doc := newDocument(KindGolds, r)
	for _, e := range g.entries {
		doc.Entries = append(doc.Entries, encodeEntry(e.ID, e.Name, e.Level, e.Time))
	}
	return writeDocument(path, doc)
}

func newDocument(kind Kind, r *route.Route) Document {
	doc := Document{Version: ir.RecordVersion, Kind: kind, Entries: []EntryDoc{}}
	if r != nil {
		doc.Route = r.Name
		doc.RouteHash = r.Hash()
	}
	return doc
}

func readDocument(path string, want Kind) (*Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}

	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, &ir.FormatError{Path: path, Message: "cannot parse record", Err: err}
	}
	if doc.Version != ir.RecordVersion {
		return nil, &ir.FormatError{
			Path:    path,
			Version: doc.Version,
			Message: fmt.Sprintf("unsupported record version, want %d", ir.RecordVersion),
		}
	}
	if doc.Kind != want {
		return nil, &ir.FormatError{
			Path:    path,
			Version: doc.Version,
			Message: fmt.Sprintf("record kind is %q, want %q", doc.Kind, want),
		}
	}
	return &doc, nil
}

func decodeEntry(e EntryDoc) (uuid.UUID, null.Val[int64], error) {
	id, err := uuid.Parse(e.ID)
	if err != nil {
		return uuid.Nil, null.Val[int64]{}, fmt.Errorf("invalid id %q: %w", e.ID, err)
	}
	if e.Time == "" {
		return id, null.Val[int64]{}, nil
	}
	ms, err := ParseTime(e.Time)
	if err != nil {
		return uuid.Nil, null.Val[int64]{}, err
	}
	return id, null.From(ms), nil
}

func encodeEntry(id uuid.UUID, name string, level int, t null.Val[int64]) EntryDoc {
	e := EntryDoc{ID: id.String(), Name: name, Level: level}
	if ms, ok := t.Get(); ok {
		e.Time = FormatTime(ms)
	}
	return e
}

func entryError(path string, i int, err error) error {
	return &ir.FormatError{
		Path:    path,
		Version: ir.RecordVersion,
		Message: fmt.Sprintf("entries[%d]", i),
		Err:     err,
	}
}

// writeDocument replaces path atomically.
func writeDocument(path string, doc Document) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create record directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
