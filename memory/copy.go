package memory

import (
	"k8s.io/klog/v2"
)

// Copy transfers the logical tensor content of src into dst, between any
// pair of backing kinds. The source must be initialized and its metadata
// must be compatible with the destination's validator. Whatever the
// outcome, the destination's initialization state is set from it: a failed
// copy leaves dst Uninitialized even if it previously held valid data.
func Copy(src, dst *Memory) error {
	if src == dst {
		return nil
	}
	err := copyInternal(src, dst)
	dst.validator.SetInitialized(err == nil)
	if err != nil {
		klog.Warningf("memory.Copy failed: %v", err)
	}
	return err
}

func copyInternal(src, dst *Memory) error {
	if !src.validator.IsInitialized() {
		return badDataf("uninitialized source memory")
	}
	srcMetadata := src.validator.Metadata()
	if err := dst.validator.UpdateMetadata(srcMetadata); err != nil {
		return withStatus(BadData, err)
	}

	switch {
	case src.buffer != nil && dst.buffer != nil:
		return copyDeviceBuffers(src, dst, srcMetadata)
	case src.segment != nil && dst.segment != nil:
		return copySegments(src.segment, dst.segment)
	case src.segment != nil && dst.buffer != nil:
		return copySegmentToDevice(src.segment, dst, srcMetadata.Dimensions)
	case src.buffer != nil && dst.segment != nil:
		return copyDeviceToSegment(src, dst.segment)
	}
	return opFailedf("memory objects have no backing to copy between")
}

// copySegments is the host-to-host path: a byte-for-byte copy requiring
// equal byte sizes, followed by a flush of the destination mapping.
func copySegments(src, dst *Segment) error {
	if src.Size() != dst.Size() {
		return badDataf("incompatible memory sizes: %d and %d", src.Size(), dst.Size())
	}
	srcBytes, err := src.Bytes()
	if err != nil {
		return withStatus(Unmappable, err)
	}
	dstBytes, err := dst.Bytes()
	if err != nil {
		return withStatus(Unmappable, err)
	}
	copy(dstBytes, srcBytes)
	if err := dst.Flush(); err != nil {
		return withStatus(OpFailed, err)
	}
	return nil
}

// copyDeviceBuffers is the opaque-to-opaque path. No direct
// driver-to-driver transfer is assumed, so the content round-trips through
// a temporary host segment sized to the source's logical size.
func copyDeviceBuffers(src, dst *Memory, srcMetadata Metadata) error {
	tmp, err := newAnonymousSegment("copy_staging", srcMetadata.LogicalSize)
	if err != nil {
		return withStatus(OutOfMemory, err)
	}
	defer tmp.Close()
	staging, err := tmp.Bytes()
	if err != nil {
		return withStatus(Unmappable, err)
	}
	if err := src.buffer.CopyTo(staging); err != nil {
		return withStatus(OpFailed, err)
	}
	if err := dst.buffer.CopyFrom(staging, srcMetadata.Dimensions); err != nil {
		return withStatus(OpFailed, err)
	}
	return nil
}

// copySegmentToDevice is a single driver-mediated transfer, supplying the
// destination's expected dimensions.
func copySegmentToDevice(src *Segment, dst *Memory, dimensions []int) error {
	srcBytes, err := src.Bytes()
	if err != nil {
		return withStatus(Unmappable, err)
	}
	if err := dst.buffer.CopyFrom(srcBytes, dimensions); err != nil {
		return withStatus(OpFailed, err)
	}
	return nil
}

func copyDeviceToSegment(src *Memory, dst *Segment) error {
	dstBytes, err := dst.Bytes()
	if err != nil {
		return withStatus(Unmappable, err)
	}
	if err := src.buffer.CopyTo(dstBytes); err != nil {
		return withStatus(OpFailed, err)
	}
	return nil
}
