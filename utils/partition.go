package utils

// PartitionMap splits an index range into near-equal buckets, one per
// worker goroutine. Buckets differ in size by at most one.
type PartitionMap struct {
	MaxIndex       int // MaxIndex is partitioned into ParallelDegree partitions
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	if ParallelDegree < 1 {
		ParallelDegree = 1
	}
	if ParallelDegree > maxIndex && maxIndex > 0 {
		ParallelDegree = maxIndex
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

// Split1D returns the half-open index range of bucket threadNum. The
// remainder cells are spread over the leading buckets.
func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	var (
		size = pm.MaxIndex / pm.ParallelDegree
		rem  = pm.MaxIndex % pm.ParallelDegree
	)
	if threadNum < rem {
		bucket[0] = threadNum * (size + 1)
		bucket[1] = bucket[0] + size + 1
	} else {
		bucket[0] = rem*(size+1) + (threadNum-rem)*size
		bucket[1] = bucket[0] + size
	}
	return
}

func (pm *PartitionMap) GetBucketRange(threadNum int) (min, max int) {
	min, max = pm.Partitions[threadNum][0], pm.Partitions[threadNum][1]
	return
}

func (pm *PartitionMap) GetBucketDimension(threadNum int) int {
	return pm.Partitions[threadNum][1] - pm.Partitions[threadNum][0]
}
