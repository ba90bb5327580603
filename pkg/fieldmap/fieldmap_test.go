package fieldmap

import (
	"reflect"
	"testing"
)

func TestSnakeKey(t *testing.T) {
	cases := []struct{ in, want string }{
		{"patientCount", "patient_count"},
		{"messagesLast30Days", "messages_last30_days"},
		{"name", "name"},
		{"already_snake", "already_snake"},
		{"", ""},
	}
	for _, tt := range cases {
		if got := SnakeKey(tt.in); got != tt.want {
			t.Errorf("SnakeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCamelKey(t *testing.T) {
	cases := []struct{ in, want string }{
		{"patient_count", "patientCount"},
		{"appointments_by_status", "appointmentsByStatus"},
		{"name", "name"},
		{"trailing_", "trailing"},
		{"", ""},
	}
	for _, tt := range cases {
		if got := CamelKey(tt.in); got != tt.want {
			t.Errorf("CamelKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToCamel_ShallowOnly(t *testing.T) {
	nested := map[string]interface{}{"inner_key": 1}
	in := map[string]interface{}{
		"patient_count": 12,
		"by_status":     nested,
	}

	out := ToCamel(in)

	want := map[string]interface{}{
		"patientCount": 12,
		"byStatus":     nested,
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("got %v, want %v", out, want)
	}
	// Nested maps are passed through untouched.
	if _, ok := out["byStatus"].(map[string]interface{})["inner_key"]; !ok {
		t.Error("nested keys must not be converted")
	}
}

func TestToSnake(t *testing.T) {
	out := ToSnake(map[string]interface{}{"generatedAt": "now", "total": 3})
	want := map[string]interface{}{"generated_at": "now", "total": 3}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("got %v, want %v", out, want)
	}
}
