package route_test

import (
	"fmt"

	"github.com/matzehuels/linkroute/pkg/route"
)

func ExampleSlotTracker() {
	slots := route.NewSlotTracker()

	// Sources get slots in the order they first cross a row.
	fmt.Println(slots.RowSlot(3, "a"), slots.RowSlot(3, "b"), slots.RowSlot(3, "a"))

	// Rows and columns are tracked separately.
	fmt.Println(slots.ColumnSlot(3, "b"))
	fmt.Println(slots.RowSources(3))
	// Output:
	// 0 1 0
	// 0
	// [a b]
}
