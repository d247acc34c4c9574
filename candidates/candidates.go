package candidates

import (
	"sort"

	"dupfinder/fingerprint"
	"dupfinder/logging"
	"dupfinder/types"
)

const (
	// DefaultMaxDistance is the fingerprint Hamming distance bound below
	// which two images become a candidate pair. Tuned empirically: unrelated
	// photos essentially never land within 5 bits of each other on a 64-bit
	// difference hash.
	DefaultMaxDistance = 5

	// chunkCount splits a 64-bit fingerprint into 8 one-byte chunks for
	// bucketing. By pigeonhole, any two fingerprints within distance 7 share
	// at least one identical chunk, so the bucketed path loses no pairs as
	// long as MaxDistance < chunkCount.
	chunkCount = 8

	// pairwiseCutoff is the collection size below which the exact all-pairs
	// check is cheap enough to skip bucketing entirely
	pairwiseCutoff = 256
)

// Grouper produces candidate pairs from a set of image records without
// comparing all pairs in the common case. It only does bit-distance math; the
// expensive structural scoring runs downstream on the pairs it emits.
type Grouper struct {
	MaxDistance int
}

// NewGrouper returns a grouper with the given Hamming distance bound, or the
// default bound when maxDistance is negative
func NewGrouper(maxDistance int) *Grouper {
	if maxDistance < 0 {
		maxDistance = DefaultMaxDistance
	}
	return &Grouper{MaxDistance: maxDistance}
}

// Pairs returns every unordered pair of records whose fingerprint distance is
// within the bound, each pair exactly once, with the earlier-discovered record
// first. The result is sorted by path so a run is deterministic regardless of
// which search strategy produced it.
func (g *Grouper) Pairs(records []*types.ImageRecord) []types.CandidatePair {
	var pairs []types.CandidatePair

	if len(records) <= pairwiseCutoff || g.MaxDistance >= chunkCount {
		pairs = g.pairwise(records)
	} else {
		pairs = g.bucketed(records)
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A.Path != pairs[j].A.Path {
			return pairs[i].A.Path < pairs[j].A.Path
		}
		return pairs[i].B.Path < pairs[j].B.Path
	})

	logging.DebugLog("Candidate grouping: %d records, %d pairs within distance %d",
		len(records), len(pairs), g.MaxDistance)

	return pairs
}

// pairwise is the exact strategy: popcount over every pair. Quadratic, but
// each comparison is a single XOR on 64-bit integers, so it stays cheap for
// small collections and for bounds the bucket scheme cannot guarantee.
func (g *Grouper) pairwise(records []*types.ImageRecord) []types.CandidatePair {
	var pairs []types.CandidatePair
	for i := 0; i < len(records); i++ {
		for j := i + 1; j < len(records); j++ {
			d := fingerprint.Distance(records[i].Fingerprint, records[j].Fingerprint)
			if d <= g.MaxDistance {
				pairs = append(pairs, types.CandidatePair{
					A:            records[i],
					B:            records[j],
					HashDistance: d,
				})
			}
		}
	}
	return pairs
}

// bucketed indexes every record under its 8 fingerprint bytes and compares
// only records that collide in at least one bucket. Sub-quadratic when
// fingerprints are spread out; degrades towards all-pairs only when many
// images share chunks, in which case most of them are near-duplicates anyway.
func (g *Grouper) bucketed(records []*types.ImageRecord) []types.CandidatePair {
	buckets := make(map[uint16][]int)
	for i, rec := range records {
		for c := 0; c < chunkCount; c++ {
			key := uint16(c)<<8 | uint16(rec.Fingerprint>>(8*c))&0xff
			buckets[key] = append(buckets[key], i)
		}
	}

	seen := make(map[uint64]struct{})
	var pairs []types.CandidatePair

	for _, members := range buckets {
		for x := 0; x < len(members); x++ {
			for y := x + 1; y < len(members); y++ {
				i, j := members[x], members[y]
				if i > j {
					i, j = j, i
				}

				pairKey := uint64(i)<<32 | uint64(j)
				if _, dup := seen[pairKey]; dup {
					continue
				}
				seen[pairKey] = struct{}{}

				// The bucket collision is only a hint; the full bound still
				// decides membership.
				d := fingerprint.Distance(records[i].Fingerprint, records[j].Fingerprint)
				if d <= g.MaxDistance {
					pairs = append(pairs, types.CandidatePair{
						A:            records[i],
						B:            records[j],
						HashDistance: d,
					})
				}
			}
		}
	}
	return pairs
}
