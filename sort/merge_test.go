package sort

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"testing"
)

func ExampleMerge() {
	fmt.Println(Merge([]int32{1, 2, 4, 5}, []int32{0, 3, 6, 7}))

	// Output:
	// [0 1 2 3 4 5 6 7]
}

func TestMerge(t *testing.T) {
	sizes := []int{0, 1, 2, 7, 100, msortGrainSize, 3 * msortGrainSize}
	for _, la := range sizes {
		for _, lb := range sizes {
			a := makeRandomSlice(la, 1000)
			b := makeRandomSlice(lb, 1000)
			slices.Sort(a)
			slices.Sort(b)
			ca := append([]int32(nil), a...)
			cb := append([]int32(nil), b...)

			want := append(append([]int32{}, a...), b...)
			slices.Sort(want)

			got := Merge(a, b)
			if len(got) != la+lb {
				t.Fatalf("Merge(%v, %v): length %v", la, lb, len(got))
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Merge(%v, %v): result is not the sorted union", la, lb)
			}
			if !reflect.DeepEqual(a, ca) || !reflect.DeepEqual(b, cb) {
				t.Errorf("Merge(%v, %v): inputs modified", la, lb)
			}
		}
	}
}

type tagged struct {
	key    int
	source int
	pos    int
}

func TestMergeFuncTies(t *testing.T) {
	for _, size := range []int{4, 50, 2 * msortGrainSize} {
		a := make([]tagged, size)
		b := make([]tagged, size)
		for i := range a {
			a[i] = tagged{i / 4, 0, i}
			b[i] = tagged{i / 3, 1, i}
		}
		got := MergeFunc(a, b, func(x, y tagged) int { return cmp.Compare(x.key, y.key) })
		if len(got) != 2*size {
			t.Fatalf("size %v: length %v", size, len(got))
		}
		for i := 1; i < len(got); i++ {
			x, y := got[i-1], got[i]
			switch {
			case x.key > y.key:
				t.Fatalf("size %v: not sorted at %v", size, i)
			case x.key == y.key && x.source > y.source:
				t.Fatalf("size %v: second source precedes first on tie at %v", size, i)
			case x.key == y.key && x.source == y.source && x.pos > y.pos:
				t.Fatalf("size %v: source order not kept at %v", size, i)
			}
		}
	}
}

func BenchmarkMerge(b *testing.B) {
	x := makeRandomSlice(1<<20, 1<<30)
	y := makeRandomSlice(1<<20, 1<<30)
	slices.Sort(x)
	slices.Sort(y)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Merge(x, y)
	}
}
