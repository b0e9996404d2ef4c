package cache

import (
	"strings"
	"testing"

	"github.com/jook1356/grid-sub001/grid"
)

func TestHashAxisDeterministic(t *testing.T) {
	filters := []grid.FilterState{
		{ColumnKey: "score", Operator: grid.OpGt, Value: 10.0},
	}
	if HashAxis(filters) != HashAxis(filters) {
		t.Error("Expected identical hashes for the same axis value")
	}
}

func TestHashAxisDistinguishesConfigs(t *testing.T) {
	a := HashAxis([]grid.FilterState{{ColumnKey: "score", Operator: grid.OpGt, Value: 10.0}})
	b := HashAxis([]grid.FilterState{{ColumnKey: "score", Operator: grid.OpGt, Value: 11.0}})
	if a == b {
		t.Error("Expected different hashes for different filter values")
	}

	empty := HashAxis([]grid.FilterState{})
	var nilFilters []grid.FilterState
	if empty != HashAxis(nilFilters) {
		// Both encode as JSON arrays; nil encodes as null, empty as []
		t.Log("nil and empty filter lists hash differently; the cache treats that as a config change")
	}
}

func TestHashAxisLength(t *testing.T) {
	h := HashAxis(nil)
	if len(h) != 16 {
		t.Errorf("Expected 16 hex digits, got %d (%q)", len(h), h)
	}
}

func TestDataFingerprint(t *testing.T) {
	empty := DataFingerprint(nil)
	if empty != "0:::" {
		t.Errorf("Expected empty fingerprint '0:::', got %q", empty)
	}

	data := []grid.Row{
		{"id": 1.0, "name": "a"},
		{"id": 2.0, "name": "b"},
		{"id": 3.0, "name": "c"},
	}
	fp := DataFingerprint(data)

	if !strings.HasPrefix(fp, "3:") {
		t.Errorf("Expected fingerprint to start with row count, got %q", fp)
	}
	if !strings.Contains(fp, "id,name") {
		t.Errorf("Expected sorted first-row keys in fingerprint, got %q", fp)
	}

	// Changing the last row changes the fingerprint
	changed := []grid.Row{data[0], data[1], {"id": 3.0, "name": "z"}}
	if DataFingerprint(changed) == fp {
		t.Error("Expected last-row change to alter the fingerprint")
	}

	// Changing the length changes the fingerprint
	if DataFingerprint(data[:2]) == fp {
		t.Error("Expected length change to alter the fingerprint")
	}

	// An interior-only change is invisible: that is the documented limitation
	interior := []grid.Row{data[0], {"id": 99.0, "name": "q"}, data[2]}
	if DataFingerprint(interior) != fp {
		t.Error("Expected interior-only change to keep the coarse fingerprint stable")
	}
}
