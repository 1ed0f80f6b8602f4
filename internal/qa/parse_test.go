package qa

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseWellFormedBlocks(t *testing.T) {
	raw := "INPUT: Tôi quên uống thuốc rồi\nOUTPUT: Bác uống ngay bây giờ nhé\n---\n" +
		"INPUT: Đau đầu quá\nOUTPUT: Bác nghỉ ngơi một chút\n---\n" +
		"INPUT: Hôm nay nấu gì\nOUTPUT: Canh bí đỏ bác nhé\n"

	records := Parse(raw)
	want := []Record{
		{Input: "Tôi quên uống thuốc rồi", Output: "Bác uống ngay bây giờ nhé"},
		{Input: "Đau đầu quá", Output: "Bác nghỉ ngơi một chút"},
		{Input: "Hôm nay nấu gì", Output: "Canh bí đỏ bác nhé"},
	}
	if !reflect.DeepEqual(records, want) {
		t.Fatalf("unexpected records:\n got %#v\nwant %#v", records, want)
	}
}

func TestParseDropsIncompleteBlocks(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{name: "input only", raw: "INPUT: x\n", want: 0},
		{name: "output only", raw: "OUTPUT: y\n", want: 0},
		{name: "empty output", raw: "INPUT: x\nOUTPUT:\n", want: 0},
		{name: "mixed", raw: "INPUT: a\n---\nINPUT: b\nOUTPUT: c\n---\nOUTPUT: d\n", want: 1},
		{name: "empty", raw: "", want: 0},
		{name: "separators only", raw: "---\n---\n", want: 0},
	}

	for _, tc := range cases {
		if got := len(Parse(tc.raw)); got != tc.want {
			t.Fatalf("%s: expected %d records, got %d", tc.name, tc.want, got)
		}
	}
}

func TestParseMultilineOutput(t *testing.T) {
	records := Parse("INPUT: q\nOUTPUT: a\nb\n\n  c  \n")
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Output != "a b c" {
		t.Fatalf("expected joined output %q, got %q", "a b c", records[0].Output)
	}
}

func TestParseDiscardsPreamble(t *testing.T) {
	raw := "Sau đây là dữ liệu:\nINPUT: q\nnoise before output\nOUTPUT: a\n"
	records := Parse(raw)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Input != "q" || records[0].Output != "a" {
		t.Fatalf("unexpected record %#v", records[0])
	}
}

func TestParseLastInputWins(t *testing.T) {
	records := Parse("INPUT: first\nINPUT: second\nOUTPUT: answer\n")
	if len(records) != 1 || records[0].Input != "second" {
		t.Fatalf("expected last INPUT to win, got %#v", records)
	}
}

func TestParseIndentedPrefixes(t *testing.T) {
	records := Parse("   INPUT:  q  \n\t OUTPUT:  a \r\n")
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0] != (Record{Input: "q", Output: "a"}) {
		t.Fatalf("unexpected record %#v", records[0])
	}
}

func TestParseBlocksAreIndependent(t *testing.T) {
	raw := "INPUT: q1\nOUTPUT: a1\n---\ncontinuation that must not leak\nINPUT: q2\n"
	records := Parse(raw)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if strings.Contains(records[0].Output, "leak") {
		t.Fatalf("state leaked across separator: %q", records[0].Output)
	}
}

func TestParseIsIdempotent(t *testing.T) {
	raw := "INPUT: a\nOUTPUT: b\nc\n---\nINPUT: d\n---\nINPUT: e\nOUTPUT: f\n"
	first := Parse(raw)
	second := Parse(raw)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("parse not idempotent: %#v vs %#v", first, second)
	}
}

func TestParseStatsCountsDroppedBlocks(t *testing.T) {
	raw := "INPUT: a\nOUTPUT: b\n---\nINPUT: c\n---\nINPUT: d\nOUTPUT: e\n"
	records, stats := ParseStats(raw)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if stats.Blocks != 3 || stats.Dropped != 1 || stats.Records != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
