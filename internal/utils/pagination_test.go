package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		{"", 10, 10},
		{"42", 0, 42},
		{"-13", 1, -13},
		{"x", 5, 5},
		{" 42", 7, 7},
		{"999999999999999999999999", -1, -1},
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestPaginate(t *testing.T) {
	cases := []struct {
		name                   string
		total, page, size, max int
		want                   Window
	}{
		{"first page", 5, 1, 2, 100, Window{Page: 1, Size: 2, Total: 5, TotalPages: 3, Start: 0, End: 2, HasNext: true}},
		{"last partial page", 5, 3, 2, 100, Window{Page: 3, Size: 2, Total: 5, TotalPages: 3, Start: 4, End: 5}},
		{"past the end", 3, 9, 20, 100, Window{Page: 9, Size: 20, Total: 3, TotalPages: 1, Start: 3, End: 3}},
		{"clamps page and size", 10, 0, 500, 100, Window{Page: 1, Size: 100, Total: 10, TotalPages: 1, Start: 0, End: 10}},
		{"zero size", 2, 1, 0, 0, Window{Page: 1, Size: 1, Total: 2, TotalPages: 2, Start: 0, End: 1, HasNext: true}},
		{"empty list", 0, 1, 20, 100, Window{Page: 1, Size: 20}},
	}
	for _, tc := range cases {
		if got := Paginate(tc.total, tc.page, tc.size, tc.max); got != tc.want {
			t.Fatalf("%s: got %+v; want %+v", tc.name, got, tc.want)
		}
	}
}
