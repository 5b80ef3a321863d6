// Package keys implements the tuple-packed byte-key schema that isolates
// tenants and separates a tenant's data section from its stats section in
// the backing store.
//
// Every key is the concatenation of tagged, self-delimiting tuple elements:
// a bytes element is a tag byte, a 4-byte big-endian length, and the raw
// bytes; a small-int element is a tag byte followed by the value byte. Tags
// differ between the two kinds so a bytes element can never be mistaken for
// an int element, and every bytes element carries its own length so no
// tenant's packed prefix can also be a genuine prefix of another tenant's
// packed key (the classic ambiguity with naive concatenation).
package keys

import "encoding/binary"

const (
	tagBytes byte = 0x01
	tagUint  byte = 0x02
)

// Section codes under <tenant, section, ...>.
const (
	SectionData  uint8 = 0
	SectionStats uint8 = 1
)

// Entity codes under <tenant, STATS, entity, ...>.
const (
	EntityHeadcount uint8 = 0
	EntitySizes     uint8 = 1
)

// Stat-value codes under <tenant, STATS, entity, stat>. Only StatValue is
// populated by the core; the others are reserved so a future revision can
// add running sums/min/max without reshuffling the byte layout.
const (
	StatValue uint8 = 0
	StatSum   uint8 = 1
	StatMin   uint8 = 2
	StatMax   uint8 = 3
)

func appendBytesElem(buf, b []byte) []byte {
	buf = append(buf, tagBytes)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, b...)
}

func appendUintElem(buf []byte, v uint8) []byte {
	return append(buf, tagUint, v)
}

func tenantPrefix(tenant string) []byte {
	return appendBytesElem(nil, []byte(tenant))
}

// Data packs the key for a single item: <tenant, DATA, key>.
func Data(tenant string, key []byte) []byte {
	buf := tenantPrefix(tenant)
	buf = appendUintElem(buf, SectionData)
	return appendBytesElem(buf, key)
}

// DataRange returns the half-open byte range [start, end) that covers every
// <tenant, DATA, *> key for tenant and nothing else — not the tenant's stats
// keys, and not any other tenant's keys.
func DataRange(tenant string) (start, end []byte) {
	prefix := tenantPrefix(tenant)
	prefix = appendUintElem(prefix, SectionData)
	start = append([]byte{}, prefix...)
	end = append(append([]byte{}, prefix...), 0xFF)
	return start, end
}

// Counter packs the key for a tenant's headcount or size counter:
// <tenant, STATS, entity, VALUE>.
func Counter(tenant string, entity uint8) []byte {
	buf := tenantPrefix(tenant)
	buf = appendUintElem(buf, SectionStats)
	buf = appendUintElem(buf, entity)
	return appendUintElem(buf, StatValue)
}
