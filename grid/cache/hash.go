package cache

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/minio/highwayhash"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"

	"github.com/jook1356/grid-sub001/grid"
)

// hashKey seeds highwayhash. The key is fixed so config hashes are stable
// across processes and can be compared after a restart.
var hashKey = []byte("gridview-config-hash-seed-0001\x00\x00")

// jsonOpts sorts map keys so the encoded form of a Row is deterministic
var jsonOpts = ojg.Options{Sort: true}

// hashBytes fingerprints a byte slice as a 16-digit hex string
func hashBytes(data []byte) string {
	sum := highwayhash.Sum64(data, hashKey)
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(sum >> (56 - 8*i))
	}
	return hex.EncodeToString(buf[:])
}

// HashAxis fingerprints one configuration axis (filters, sorts, pivot or
// group section) without deep comparison
func HashAxis(axis any) string {
	encoded, err := oj.Marshal(axis, &jsonOpts)
	if err != nil {
		// Fall back to the formatted value; a stable-but-ugly key beats a
		// lost invalidation
		encoded = []byte(fmt.Sprintf("%v", axis))
	}
	return hashBytes(encoded)
}

// DataFingerprint computes the coarse change-detection fingerprint for a
// data set: row count, first-row key set, and the JSON forms of the first
// and last rows. Interior mutations that leave all four unchanged are not
// detected; callers that mutate rows in place must call InvalidateAll.
func DataFingerprint(data []grid.Row) string {
	if len(data) == 0 {
		return "0:::"
	}

	first := data[0]
	keys := make([]string, 0, len(first))
	for k := range first {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	firstJSON, err := oj.Marshal(first, &jsonOpts)
	if err != nil {
		firstJSON = []byte(fmt.Sprintf("%v", first))
	}
	lastJSON, err := oj.Marshal(data[len(data)-1], &jsonOpts)
	if err != nil {
		lastJSON = []byte(fmt.Sprintf("%v", data[len(data)-1]))
	}

	return fmt.Sprintf("%d:%s:%s:%s", len(data), strings.Join(keys, ","), firstJSON, lastJSON)
}
