package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"projectboard/model"
)

// fakeDocs loses the first conflicts version checks to simulate concurrent
// writers bumping the document in between.
type fakeDocs struct {
	doc       *model.Project
	loadErr   error
	conflicts int
	loads     int
	replaces  int
}

func (f *fakeDocs) load(_ context.Context, id string) (*model.Project, error) {
	f.loads++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.doc.Clone(), nil
}

func (f *fakeDocs) replaceIfVersion(_ context.Context, next *model.Project, version int64) (bool, error) {
	f.replaces++
	if f.conflicts > 0 {
		f.conflicts--
		f.doc.Version++
		return false, nil
	}
	if f.doc.Version != version {
		return false, nil
	}
	f.doc = next.Clone()
	return true, nil
}

func fixedNow() time.Time { return time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC) }

func rename(name string) MutateFunc {
	return func(p *model.Project) error {
		p.Name = name
		return nil
	}
}

func TestCASMutate(t *testing.T) {
	base := &model.Project{ProjectID: "p1", Name: "Board", Version: 3}
	boom := errors.New("boom")

	tests := []struct {
		name         string
		docs         *fakeDocs
		fn           MutateFunc
		wantErr      error
		wantName     string
		wantReplaces int
	}{
		{
			name:         "first attempt wins",
			docs:         &fakeDocs{doc: base.Clone()},
			fn:           rename("Renamed"),
			wantName:     "Renamed",
			wantReplaces: 1,
		},
		{
			name:         "reloads after a lost race",
			docs:         &fakeDocs{doc: base.Clone(), conflicts: 2},
			fn:           rename("Renamed"),
			wantName:     "Renamed",
			wantReplaces: 3,
		},
		{
			name:         "gives up after repeated races",
			docs:         &fakeDocs{doc: base.Clone(), conflicts: maxCASAttempts},
			fn:           rename("Renamed"),
			wantErr:      ErrConflict,
			wantReplaces: maxCASAttempts,
		},
		{
			name:         "no change skips the write",
			docs:         &fakeDocs{doc: base.Clone()},
			fn:           func(*model.Project) error { return ErrNoChange },
			wantName:     "Board",
			wantReplaces: 0,
		},
		{
			name:         "callback error aborts",
			docs:         &fakeDocs{doc: base.Clone()},
			fn:           func(*model.Project) error { return boom },
			wantErr:      boom,
			wantReplaces: 0,
		},
		{
			name:         "missing document",
			docs:         &fakeDocs{loadErr: ErrNotFound},
			fn:           rename("Renamed"),
			wantErr:      ErrNotFound,
			wantReplaces: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := casMutate(context.Background(), tt.docs, "p1", tt.fn, fixedNow)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("casMutate: %v", err)
				}
				if got.Name != tt.wantName {
					t.Errorf("name = %q, want %q", got.Name, tt.wantName)
				}
			}
			if tt.docs.replaces != tt.wantReplaces {
				t.Errorf("replaces = %d, want %d", tt.docs.replaces, tt.wantReplaces)
			}
		})
	}
}

func TestCASMutate_StampsWrite(t *testing.T) {
	docs := &fakeDocs{doc: &model.Project{ProjectID: "p1", Version: 7}, conflicts: 1}

	got, err := casMutate(context.Background(), docs, "p1", rename("x"), fixedNow)
	if err != nil {
		t.Fatalf("casMutate: %v", err)
	}
	// One concurrent write moved the document to 8 before ours landed.
	if got.Version != 9 {
		t.Errorf("version = %d, want 9", got.Version)
	}
	if !got.UpdatedAt.Equal(fixedNow()) {
		t.Errorf("updatedAt = %v", got.UpdatedAt)
	}
	if docs.doc.Name != "x" || docs.loads != 2 {
		t.Errorf("stored %q after %d loads", docs.doc.Name, docs.loads)
	}
}

func TestChangeEvent_ProjectEvent(t *testing.T) {
	doc := &model.Project{ProjectID: "p1", Name: "Board"}

	tests := []struct {
		op           string
		full         *model.Project
		wantEmit     bool
		wantTerminal bool
		wantProject  bool
	}{
		{"insert", doc, true, false, true},
		{"update", doc, true, false, true},
		{"replace", doc, true, false, true},
		{"update", nil, true, false, false},
		{"delete", nil, true, false, false},
		{"invalidate", nil, true, true, false},
		{"drop", nil, true, true, false},
		{"dropDatabase", nil, true, true, false},
		{"rename", nil, true, true, false},
		{"createIndexes", nil, false, false, false},
	}
	for _, tt := range tests {
		name := tt.op
		if tt.full == nil {
			name += " without document"
		}
		t.Run(name, func(t *testing.T) {
			out, emit, terminal := changeEvent{OperationType: tt.op, FullDocument: tt.full}.projectEvent()
			if emit != tt.wantEmit || terminal != tt.wantTerminal {
				t.Errorf("emit, terminal = %v, %v; want %v, %v", emit, terminal, tt.wantEmit, tt.wantTerminal)
			}
			if (out.Project != nil) != tt.wantProject {
				t.Errorf("project = %+v, want present=%v", out.Project, tt.wantProject)
			}
			if out.Err != nil {
				t.Errorf("err = %v", out.Err)
			}
		})
	}
}
