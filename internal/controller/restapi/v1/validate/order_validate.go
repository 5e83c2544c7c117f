package validate

const (
	MaxOrderItems int = 100

	MinQuantity int = 1
	MaxQuantity int = 1_000_000

	MaxIdempotencyKeyLen int = 255
)
