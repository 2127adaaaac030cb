package model

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestAccessModeUnmarshalYAML(t *testing.T) {
	cases := map[string]AccessMode{
		"PRW":   PRW,
		"PR_PW": PRPW,
		"pr_sw": PRSW,
		"SR_PW": SRPW,
		"sr_sw": SRSW,
	}
	for raw, want := range cases {
		var got AccessMode
		if err := yaml.Unmarshal([]byte(raw), &got); err != nil {
			t.Fatalf("unmarshal %q: %v", raw, err)
		}
		if got != want {
			t.Errorf("unmarshal %q = %v, want %v", raw, got, want)
		}
	}
}

func TestAccessModeUnmarshalYAMLRejectsUnknown(t *testing.T) {
	var got AccessMode
	if err := yaml.Unmarshal([]byte("NOT_A_MODE"), &got); err == nil {
		t.Fatal("expected error for unknown access mode")
	}
}

func TestSchedPredefUnmarshalYAML(t *testing.T) {
	cases := map[string]SchedPredef{
		"basic":   SchedBasic,
		"PRIO":    SchedPrio,
		"default": SchedDefault,
	}
	for raw, want := range cases {
		var got SchedPredef
		if err := yaml.Unmarshal([]byte(raw), &got); err != nil {
			t.Fatalf("unmarshal %q: %v", raw, err)
		}
		if got != want {
			t.Errorf("unmarshal %q = %v, want %v", raw, got, want)
		}
	}
}

func TestSchedTypeUnmarshalYAML(t *testing.T) {
	var got SchedType
	if err := yaml.Unmarshal([]byte("task_only"), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != SchedTaskOnly {
		t.Errorf("got %v, want SchedTaskOnly", got)
	}
}
