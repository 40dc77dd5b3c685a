package matching

const (
	// defaultReservedOrderSlots specifies initial size of the hashmap array
	// storing orders by order id.
	defaultReservedOrderSlots = 1024

	// DefaultMaxMatchLevels bounds how many price levels of the opposing side
	// a single ProcessOrder call snapshots. Typical simulated books are far
	// shallower; deeper books need a raised limit or repeated calls.
	DefaultMaxMatchLevels = 100

	// DefaultDepth is the amount of levels per side in depth snapshots.
	DefaultDepth = 10
)
