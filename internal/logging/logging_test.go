package logging

import (
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DEBUG, false},
		{"INFO", INFO, false},
		{"Warn", WARN, false},
		{"error", ERROR, false},
		{"fatal", FATAL, false},
		{"verbose", -1, true},
		{"", -1, true},
	}

	for _, tc := range cases {
		got, err := ParseLevel(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseLevel(%q): expected error, got none", tc.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLevel(%q): unexpected error: %v", tc.input, err)
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestWithFieldImmutability(t *testing.T) {
	base := GetLogger("test")
	child := base.WithField("vehicle_id", "VIN-1")

	if len(base.fields) != 0 {
		t.Errorf("base logger fields mutated: %v", base.fields)
	}
	if child.fields["vehicle_id"] != "VIN-1" {
		t.Errorf("child logger missing field, got %v", child.fields)
	}

	grandchild := child.WithFields(Field("stage", "diagnosis"), Field("attempt", 2))
	if len(child.fields) != 1 {
		t.Errorf("child logger mutated by WithFields: %v", child.fields)
	}
	if grandchild.fields["stage"] != "diagnosis" || grandchild.fields["attempt"] != 2 {
		t.Errorf("grandchild fields wrong: %v", grandchild.fields)
	}
}

func TestCloneFields(t *testing.T) {
	src := map[string]interface{}{"a": 1, "b": "x"}
	dst := cloneFields(src)
	dst["a"] = 99
	if src["a"] != 1 {
		t.Error("cloneFields did not produce an independent copy")
	}

	if got := cloneFields(nil); got == nil || len(got) != 0 {
		t.Errorf("cloneFields(nil) = %v, want empty map", got)
	}
}
