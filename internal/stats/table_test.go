package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Date", "Start", "Hours"}
	rows := [][]string{
		{"2024-01-02", "20:00", "2.50"},
		{"2024-01-01", "9:05", "12.25"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Date       Start Hours" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "2024-01-02 20:00  2.50" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "2024-01-01  9:05 12.25" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Name", "N"}, [][]string{{"狗狗", "3"}, {"ab", "12"}}, map[int]bool{1: true})
	if lines[1] != "狗狗  3" {
		t.Fatalf("unexpected wide row: %q", lines[1])
	}
	if lines[2] != "ab   12" {
		t.Fatalf("unexpected narrow row: %q", lines[2])
	}
}
