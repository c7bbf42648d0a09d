package msort

import "fmt"

// An Inversion is a pair of adjacent positions whose values are out of
// order.
type Inversion struct {
	Left, Right           int
	LeftValue, RightValue int32
}

func (inv *Inversion) String() string {
	return fmt.Sprintf("position %d / %d: %d > %d", inv.Left, inv.Right, inv.LeftValue, inv.RightValue)
}

// CheckSorted returns the first inversion in block, or nil if block is
// sorted in ascending order. It stops scanning at the first inversion.
func CheckSorted(block []int32) *Inversion {
	for i := 1; i < len(block); i++ {
		if block[i-1] > block[i] {
			return &Inversion{
				Left:       i - 1,
				Right:      i,
				LeftValue:  block[i-1],
				RightValue: block[i],
			}
		}
	}
	return nil
}
