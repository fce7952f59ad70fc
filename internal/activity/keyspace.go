package activity

// BucketKey addresses one cell of a profile table.
type BucketKey[B comparable] struct {
	StationID string
	Bucket    B
}

// FillKeySpace returns a new mapping holding an entry for every combination
// of stations and buckets. Values present in partial are kept, missing
// combinations get def, and entries of partial outside the key space are
// dropped. partial is not modified.
func FillKeySpace[B comparable, V any](partial map[BucketKey[B]]V, stations []string, buckets []B, def V) map[BucketKey[B]]V {
	full := make(map[BucketKey[B]]V, len(stations)*len(buckets))
	for _, s := range stations {
		for _, b := range buckets {
			k := BucketKey[B]{StationID: s, Bucket: b}
			if v, ok := partial[k]; ok {
				full[k] = v
			} else {
				full[k] = def
			}
		}
	}
	return full
}

// bucketRange returns 0..n-1.
func bucketRange(n int) []int {
	b := make([]int, n)
	for i := range b {
		b[i] = i
	}
	return b
}
