package metadata

type MemoryRange struct {
	Offset uint64
	Size   uint64
}

func GetAlignedRange(offset, size, granularity uint64) *MemoryRange {
	m := &MemoryRange{
		Offset: GetAligned(offset, granularity),
		Size:   GetAligned(size, granularity),
	}
	return m
}

func GetAligned(operand, granularity uint64) uint64 {
	val := (operand + (granularity - 1)) &^ (granularity - 1)
	return val
}
