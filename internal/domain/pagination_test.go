package domain

import "testing"

func TestPaginateFirstPage(t *testing.T) {
	start, end, p := Paginate(25, 1, 10)
	if start != 0 || end != 10 {
		t.Fatalf("bounds = [%d, %d)", start, end)
	}
	if p.TotalPages != 3 || p.HasPrev || !p.HasNext {
		t.Fatalf("unexpected page: %+v", p)
	}
	if p.PrevPage != nil || p.NextPage == nil || *p.NextPage != 2 {
		t.Fatalf("unexpected neighbors: %+v", p)
	}
	if p.StartItem != 1 || p.EndItem != 10 {
		t.Fatalf("unexpected item range: %+v", p)
	}
}

func TestPaginateLastPartialPage(t *testing.T) {
	start, end, p := Paginate(25, 3, 10)
	if start != 20 || end != 25 {
		t.Fatalf("bounds = [%d, %d)", start, end)
	}
	if !p.HasPrev || p.HasNext {
		t.Fatalf("unexpected page: %+v", p)
	}
	if p.StartItem != 21 || p.EndItem != 25 {
		t.Fatalf("unexpected item range: %+v", p)
	}
}

func TestPaginateClampsOutOfRangePage(t *testing.T) {
	_, _, p := Paginate(5, 99, 10)
	if p.Page != 1 {
		t.Fatalf("expected clamp to last page, got %d", p.Page)
	}
	_, _, p = Paginate(25, 99, 10)
	if p.Page != 3 {
		t.Fatalf("expected clamp to page 3, got %d", p.Page)
	}
}

func TestPaginateEmpty(t *testing.T) {
	start, end, p := Paginate(0, 1, 10)
	if start != 0 || end != 0 {
		t.Fatalf("bounds = [%d, %d)", start, end)
	}
	if p.TotalPages != 1 || p.StartItem != 0 || p.EndItem != 0 {
		t.Fatalf("unexpected page: %+v", p)
	}
}
