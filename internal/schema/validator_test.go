package schema

import "testing"

func TestValidator_Analysis(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"animal_count":2,"repetitions":1,"memory_score":98,"brain_health_score":88,"report":"..."}`, false},
		{"extra fields allowed", `{"animal_count":2,"repetitions":1,"memory_score":98,"brain_health_score":88,"report":"","version":"0.1.0"}`, false},
		{"missing report", `{"animal_count":2,"repetitions":1,"memory_score":98,"brain_health_score":88}`, true},
		{"string count", `{"animal_count":"2","repetitions":1,"memory_score":98,"brain_health_score":88,"report":""}`, true},
		{"fractional score", `{"animal_count":2,"repetitions":1,"memory_score":98.5,"brain_health_score":88,"report":""}`, true},
		{"negative count", `{"animal_count":-1,"repetitions":1,"memory_score":98,"brain_health_score":88,"report":""}`, true},
		{"not json", `<html>502 Bad Gateway</html>`, true},
		{"array", `[]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(Analysis, []byte(tt.body))
			if tt.wantErr && err == nil {
				t.Errorf("expected error for %s", tt.body)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidator_Transcription(t *testing.T) {
	v := New()

	if err := v.Validate(Transcription, []byte(`{"text":"cat dog","confidence":0.93}`)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := v.Validate(Transcription, []byte(`{"text":""}`)); err != nil {
		t.Errorf("empty text without confidence should be valid: %v", err)
	}
	if err := v.Validate(Transcription, []byte(`{"confidence":1}`)); err == nil {
		t.Error("expected error when text is missing")
	}
}

func TestValidator_VendorTranscription(t *testing.T) {
	v := New()

	for _, body := range []string{`{"text":"cat"}`, `{"text":null}`, `{}`} {
		if err := v.Validate(VendorTranscription, []byte(body)); err != nil {
			t.Errorf("Validate(%s) unexpected error: %v", body, err)
		}
	}
	if err := v.Validate(VendorTranscription, []byte(`{"text":42}`)); err == nil {
		t.Error("expected error for numeric text")
	}
}

func TestValidator_UnknownSchema(t *testing.T) {
	v := New()
	if err := v.Validate("nope.json", []byte(`{}`)); err == nil {
		t.Error("expected error for unknown schema")
	}
}
