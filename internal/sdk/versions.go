// Package sdk maps Android release names to API levels.
package sdk

import (
	"strings"

	"apiguard/internal/tree"
)

// Build.VERSION_CODES
var versionCodes = map[string]int{
	"BASE":                   1,
	"BASE_1_1":               2,
	"CUPCAKE":                3,
	"DONUT":                  4,
	"ECLAIR":                 5,
	"ECLAIR_0_1":             6,
	"ECLAIR_MR1":             7,
	"FROYO":                  8,
	"GINGERBREAD":            9,
	"GINGERBREAD_MR1":        10,
	"HONEYCOMB":              11,
	"HONEYCOMB_MR1":          12,
	"HONEYCOMB_MR2":          13,
	"ICE_CREAM_SANDWICH":     14,
	"ICE_CREAM_SANDWICH_MR1": 15,
	"JELLY_BEAN":             16,
	"JELLY_BEAN_MR1":         17,
	"JELLY_BEAN_MR2":         18,
	"KITKAT":                 19,
	"KITKAT_WATCH":           20,
	"LOLLIPOP":               21,
	"LOLLIPOP_MR1":           22,
	"M":                      23,
	"N":                      24,
	"N_MR1":                  25,
	"O":                      26,
	"O_MR1":                  27,
	"P":                      28,
	"Q":                      29,
	"R":                      30,
	"S":                      31,
	"S_V2":                   32,
	"TIRAMISU":               33,
	"UPSIDE_DOWN_CAKE":       34,
	"VANILLA_ICE_CREAM":      35,
	"BAKLAVA":                36,
}

// BuildCompat.isAtLeastX suffixes
var compatSuffixes = map[string]int{
	"N":    24,
	"NMR1": 25,
	"O":    26,
	"OMR1": 27,
	"P":    28,
	"Q":    29,
	"R":    30,
	"S":    31,
	"Sv2":  32,
	"T":    33,
	"U":    34,
	"V":    35,
}

// CompatPrefix is the method-name prefix of BuildCompat style helpers.
const CompatPrefix = "isAtLeast"

// Table resolves symbolic version names. The zero value resolves nothing;
// use Default.
type Table struct {
	levels map[string]int
	compat map[string]int
}

// Default returns the table of released platform versions.
func Default() *Table {
	t := &Table{
		levels: make(map[string]int, len(versionCodes)),
		compat: make(map[string]int, len(compatSuffixes)),
	}
	for k, v := range versionCodes {
		t.levels[k] = v
	}
	for k, v := range compatSuffixes {
		t.compat[k] = v
	}
	return t
}

// WithOverrides returns a copy of t that also knows the given names.
// Entries with a non-positive level are ignored.
func (t *Table) WithOverrides(extra map[string]int) *Table {
	out := &Table{
		levels: make(map[string]int, len(t.levels)+len(extra)),
		compat: make(map[string]int, len(t.compat)),
	}
	for k, v := range t.levels {
		out.levels[k] = v
	}
	for k, v := range t.compat {
		out.compat[k] = v
	}
	for k, v := range extra {
		if v > 0 {
			out.levels[tree.LastSegment(k)] = v
		}
	}
	return out
}

// Level resolves a version-code name such as "Build.VERSION_CODES.LOLLIPOP".
// A qualified name counts only when its qualifier ends in VERSION_CODES,
// so Limits.S is not a version code while a bare S is.
func (t *Table) Level(name string) (int, bool) {
	if t == nil {
		return 0, false
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		if tree.LastSegment(name[:i]) != "VERSION_CODES" {
			return 0, false
		}
		name = name[i+1:]
	}
	level, ok := t.levels[name]
	return level, ok
}

// CompatLevel resolves a BuildCompat helper name such as "isAtLeastO".
func (t *Table) CompatLevel(method string) (int, bool) {
	if t == nil || !strings.HasPrefix(method, CompatPrefix) {
		return 0, false
	}
	level, ok := t.compat[strings.TrimPrefix(method, CompatPrefix)]
	return level, ok
}

// Name returns the canonical code name for level, or "" if none is known.
// When several names share a level the shortest wins.
func (t *Table) Name(level int) string {
	if t == nil {
		return ""
	}
	best := ""
	for name, l := range t.levels {
		if l != level {
			continue
		}
		if best == "" || len(name) < len(best) || (len(name) == len(best) && name < best) {
			best = name
		}
	}
	return best
}

// Max returns the highest level the table knows.
func (t *Table) Max() int {
	highest := 0
	if t == nil {
		return highest
	}
	for _, l := range t.levels {
		highest = max(highest, l)
	}
	return highest
}

var sdkIntNames = map[string]bool{
	"SDK_INT":                          true,
	"VERSION.SDK_INT":                  true,
	"Build.VERSION.SDK_INT":            true,
	"android.os.Build.VERSION.SDK_INT": true,
}

// IsSdkInt reports whether a reference names Build.VERSION.SDK_INT.
func IsSdkInt(name string) bool {
	return sdkIntNames[name]
}
