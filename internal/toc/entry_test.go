package toc

import (
	"errors"
	"testing"
)

func TestValidatePages_AllInRange(t *testing.T) {
	entries := []Entry{
		{GroupName: "g", Label: "a", PageIndex: 0},
		{GroupName: "g", Label: "b", PageIndex: 9},
	}
	if errs := ValidatePages(entries, 10); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidatePages_ReportsEveryViolation(t *testing.T) {
	entries := []Entry{
		{GroupName: "g", Label: "ok", PageIndex: 3},
		{GroupName: "g", Label: "beyond", PageIndex: 999},
		{GroupName: "h", Label: "negative", PageIndex: -1},
	}
	errs := ValidatePages(entries, 10)
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}
	var poor *PageOutOfRangeError
	if !errors.As(errs[0], &poor) {
		t.Fatalf("expected PageOutOfRangeError, got %T", errs[0])
	}
	if poor.Label != "beyond" || poor.PageIndex != 999 || poor.PageCount != 10 {
		t.Errorf("unexpected error fields: %+v", poor)
	}
}

func TestValidatePages_UnknownCountSkipsCheck(t *testing.T) {
	entries := []Entry{{GroupName: "g", Label: "x", PageIndex: 999}}
	if errs := ValidatePages(entries, 0); errs != nil {
		t.Fatalf("expected nil for unknown page count, got %v", errs)
	}
}

func TestGroupNames_FirstSeenOrder(t *testing.T) {
	entries := []Entry{
		{GroupName: "b"},
		{GroupName: "a"},
		{GroupName: "b"},
		{GroupName: "c"},
	}
	names := GroupNames(entries)
	want := []string{"b", "a", "c"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}

func TestKeyLess_TotalOrder(t *testing.T) {
	a := Key{Rank: 0, Seq: 1}
	b := Key{Rank: 1, Seq: 0}
	c := Key{Rank: 1, Seq: 2}
	if !a.Less(b) || !b.Less(c) || !a.Less(c) {
		t.Error("expected rank-then-seq ordering")
	}
	if b.Less(a) || c.Less(b) {
		t.Error("expected ordering to be antisymmetric")
	}
}
