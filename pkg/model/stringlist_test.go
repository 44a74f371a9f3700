package model

import "testing"

func TestStringListValueAndScan(t *testing.T) {
	list := StringList{"environment", "youth education"}

	value, err := list.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}

	var scanned StringList
	if err := scanned.Scan(value); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(scanned) != 2 || scanned[0] != "environment" || scanned[1] != "youth education" {
		t.Fatalf("unexpected round trip: %v", scanned)
	}
}

func TestStringListGormDataType(t *testing.T) {
	// The parser-level type must be present: a Valuer slice without it is
	// treated as a relation and schema parsing fails for every model that
	// reaches Project.
	if (StringList{}).GormDataType() != "text" {
		t.Fatalf("expected text data type, got %q", StringList{}.GormDataType())
	}
}
