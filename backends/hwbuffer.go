package backends

// HardwareBufferFormat is the pixel/content format of a platform hardware
// buffer. The runtime only distinguishes FormatBlob, the flat byte-buffer
// format, from everything else: a blob buffer behaves like a host segment
// of its declared byte width, any other format is opaque to the runtime
// and only usable as an execution input or output.
type HardwareBufferFormat uint32

const (
	// FormatR8G8B8A8Unorm is a representative non-blob (pixel) format.
	FormatR8G8B8A8Unorm HardwareBufferFormat = 1

	// FormatBlob is the flat byte-buffer format.
	FormatBlob HardwareBufferFormat = 0x21
)

// HardwareBuffer is a platform graphics/compute buffer shared with the
// runtime. The platform owns the buffer; the runtime only wraps it in a
// memory object.
type HardwareBuffer interface {
	// Format returns the buffer's content format.
	Format() HardwareBufferFormat

	// ByteWidth returns the buffer's declared width in bytes. Only
	// meaningful for FormatBlob buffers; ignored otherwise.
	ByteWidth() int

	// Map returns a host mapping of the buffer content. Non-blob buffers
	// are generally not host-mappable and return an error.
	Map() ([]byte, error)
}
