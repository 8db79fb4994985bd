package dnsmsg

// wireName builds the canonical uncompressed wire form of a dotted name from
// its labels, e.g. wireName("www", "example", "com") for "www.example.com.".
// wireName() (no labels) returns the root name.
func wireName(labels ...string) []byte {
	out := make([]byte, 0, len(labels)+1)
	for _, l := range labels {
		out = append(out, byte(len(l)))
		out = append(out, l...)
	}
	return append(out, 0)
}
