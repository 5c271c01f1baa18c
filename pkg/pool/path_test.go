package pool

import (
	"reflect"
	"sync"
	"testing"
)

func TestPathBuilder_AppendField(t *testing.T) {
	pb := AcquirePathBuilder()
	defer pb.Release()

	pb.AppendField("address")
	pb.AppendField("city")

	if got := pb.String(); got != "address.city" {
		t.Errorf("String() = %q; want %q", got, "address.city")
	}
}

func TestPathBuilder_AppendIndex(t *testing.T) {
	pb := AcquirePathBuilder()
	defer pb.Release()

	pb.AppendField("people")
	pb.AppendIndex(0)
	pb.AppendField("allergies")
	pb.AppendIndex(3)

	if got := pb.String(); got != "people[0].allergies[3]" {
		t.Errorf("String() = %q; want %q", got, "people[0].allergies[3]")
	}
}

func TestPathBuilder_Reset(t *testing.T) {
	pb := AcquirePathBuilder()
	defer pb.Release()

	pb.WriteString("contact_details")
	pb.Reset()

	if pb.Len() != 0 {
		t.Errorf("Len() after Reset = %d; want 0", pb.Len())
	}
}

func TestPathBuilder_NilRelease(t *testing.T) {
	var pb *PathBuilder
	pb.Release() // Should not panic
}

func TestField(t *testing.T) {
	tests := []struct {
		base, name string
		want       string
	}{
		{"", "name", "name"},
		{"address", "city", "address.city"},
		{"people[1]", "email", "people[1].email"},
	}

	for _, tt := range tests {
		if got := Field(tt.base, tt.name); got != tt.want {
			t.Errorf("Field(%q, %q) = %q; want %q", tt.base, tt.name, got, tt.want)
		}
	}
}

func TestIndex(t *testing.T) {
	if got := Index("allergies", 2); got != "allergies[2]" {
		t.Errorf("Index = %q; want %q", got, "allergies[2]")
	}
	if got := Index("", 0); got != "[0]" {
		t.Errorf("Index on empty base = %q; want %q", got, "[0]")
	}
}

func TestJoinPath(t *testing.T) {
	tests := []struct {
		segments []string
		want     string
	}{
		{nil, ""},
		{[]string{"address"}, "address"},
		{[]string{"address", "city"}, "address.city"},
		{[]string{"Patient", ""}, "Patient"},
		{[]string{"", "age"}, "age"},
		{[]string{"people", "[1].address"}, "people[1].address"},
		{[]string{"people[0]", "address.city"}, "people[0].address.city"},
	}

	for _, tt := range tests {
		got := JoinPath(tt.segments...)
		if got != tt.want {
			t.Errorf("JoinPath(%v) = %q; want %q", tt.segments, got, tt.want)
		}
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path string
		want []Segment
	}{
		{"", nil},
		{"name", []Segment{{Name: "name"}}},
		{"address.city", []Segment{{Name: "address"}, {Name: "city"}}},
		{"allergies[2]", []Segment{{Name: "allergies"}, {Index: 2, IsIndex: true}}},
		{"people[1].address.city", []Segment{
			{Name: "people"}, {Index: 1, IsIndex: true}, {Name: "address"}, {Name: "city"},
		}},
		{"grid[0][1]", []Segment{{Name: "grid"}, {Index: 0, IsIndex: true}, {Index: 1, IsIndex: true}}},
	}

	for _, tt := range tests {
		got := SplitPath(tt.path)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitPath(%q) = %+v; want %+v", tt.path, got, tt.want)
		}
	}
}

func TestBuffer(t *testing.T) {
	b := AcquireBuffer()
	*b = append(*b, "abc"...)
	ReleaseBuffer(b)

	b = AcquireBuffer()
	defer ReleaseBuffer(b)
	if len(*b) != 0 {
		t.Errorf("AcquireBuffer() len = %d; want 0", len(*b))
	}
	ReleaseBuffer(nil) // Should not panic
}

func TestPathBuilder_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	n := 100

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if got := Index("allergies", i); got == "" {
				t.Error("Index returned empty path")
			}
		}(i)
	}

	wg.Wait()
}

func BenchmarkField(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Field("people[0].address", "city")
	}
}
