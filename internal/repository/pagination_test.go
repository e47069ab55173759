package repository

import "testing"

func TestNormalizePageRequestBounds(t *testing.T) {
	tests := []struct {
		name string
		in   PageRequest
		want PageRequest
	}{
		{name: "bare request gets defaults", in: PageRequest{}, want: PageRequest{Page: DefaultPage, PageSize: DefaultPageSize}},
		{name: "negative page floored", in: PageRequest{Page: -3, PageSize: 25}, want: PageRequest{Page: DefaultPage, PageSize: 25}},
		{name: "zero size gets default", in: PageRequest{Page: 4, PageSize: 0}, want: PageRequest{Page: 4, PageSize: DefaultPageSize}},
		{name: "oversized page capped", in: PageRequest{Page: 4, PageSize: MaxPageSize * 10}, want: PageRequest{Page: 4, PageSize: MaxPageSize}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizePageRequest(tc.in)
			if got != tc.want {
				t.Fatalf("normalizePageRequest(%+v) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestPageRequestOffset(t *testing.T) {
	if got := (PageRequest{Page: 1, PageSize: 20}).offset(); got != 0 {
		t.Fatalf("first page offset = %d, want 0", got)
	}
	if got := (PageRequest{Page: 3, PageSize: 25}).offset(); got != 50 {
		t.Fatalf("third page offset = %d, want 50", got)
	}
}

func TestCalcTotalPages(t *testing.T) {
	tests := []struct {
		total    int64
		pageSize int
		want     int
	}{
		{total: 0, pageSize: 20, want: 0},
		{total: 15, pageSize: 0, want: 0},
		{total: 1, pageSize: 25, want: 1},
		{total: 50, pageSize: 25, want: 2},
		{total: 51, pageSize: 25, want: 3},
	}
	for _, tc := range tests {
		got := calcTotalPages(tc.total, tc.pageSize)
		if got != tc.want {
			t.Fatalf("calcTotalPages(%d, %d) = %d, want %d", tc.total, tc.pageSize, got, tc.want)
		}
	}
}
