package store_test

import (
	"testing"

	"github.com/cohesion-lang/cohesionc/pkg/store"
)

func TestPutAndGet(t *testing.T) {
	s := store.New()
	files := map[string]string{"workflow.sfn.json": `{"StartAt":"a"}`}

	b := s.Put(files)
	if b.ID == "" {
		t.Fatalf("expected a non-empty bundle ID")
	}

	got, err := s.Get(b.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Files["workflow.sfn.json"] != files["workflow.sfn.json"] {
		t.Errorf("round-tripped files do not match")
	}
}

func TestGetUnknownID(t *testing.T) {
	s := store.New()
	if _, err := s.Get("does-not-exist"); err == nil {
		t.Fatalf("expected an error for an unknown bundle ID")
	}
}

func TestPutAssignsDistinctIDs(t *testing.T) {
	s := store.New()
	a := s.Put(map[string]string{"a": "1"})
	b := s.Put(map[string]string{"b": "2"})
	if a.ID == b.ID {
		t.Fatalf("expected distinct bundle IDs, got %q twice", a.ID)
	}
}
