package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/roach88/baselines/internal/vclock"
)

// DomainBaseline prefixes baseline content digests. The version suffix
// allows the document layout to change without colliding with old digests.
const DomainBaseline = "baselines/content/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ClockObject converts a clock to an Object for canonical serialization.
// Revisions above math.MaxInt64 are rejected by LogEntry.Validate.
func ClockObject(c vclock.Clock) Object {
	obj := make(Object, len(c))
	for id, rev := range c {
		obj[id] = Int(int64(rev))
	}
	return obj
}

// PropertiesObject converts a property map to its canonical document form:
// {"name": {"kind": "set", "value": ...}}. Value is omitted when nil.
func PropertiesObject(props map[string]PropertyChange) Object {
	obj := make(Object, len(props))
	for name, p := range props {
		doc := Object{"kind": String(p.Kind.String())}
		if p.Value != nil {
			doc["value"] = p.Value
		}
		obj[name] = doc
	}
	return obj
}

// RecordsArray renders change records sorted by GlobalID.
func RecordsArray(records []*ChangeRecord) Array {
	sorted := slices.Clone(records)
	slices.SortFunc(sorted, func(a, b *ChangeRecord) int {
		if a.GlobalID < b.GlobalID {
			return -1
		}
		if a.GlobalID > b.GlobalID {
			return 1
		}
		return 0
	})
	arr := make(Array, len(sorted))
	for i, r := range sorted {
		arr[i] = Object{
			"global_id":  String(r.GlobalID),
			"properties": PropertiesObject(r.Properties),
		}
	}
	return arr
}

// Digest computes a content digest of an entry's knowledge: its clock and
// its change set. Identity fields (ID, timestamp, global count) are excluded,
// so replicas that consolidate the same baselines independently produce the
// same digest.
func Digest(e *LogEntry) (string, error) {
	doc := Object{
		"clock":   ClockObject(e.Clock),
		"records": RecordsArray(e.Records),
	}
	canonical, err := MarshalCanonical(doc)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", e.ID, err)
	}
	return hashWithDomain(DomainBaseline, canonical), nil
}

// MustDigest is like Digest but panics on error.
// Use only in tests or when the entry is known to be valid.
func MustDigest(e *LogEntry) string {
	d, err := Digest(e)
	if err != nil {
		panic(err)
	}
	return d
}
