package domain

import (
	"encoding/json"
	"testing"
)

func TestFlexString_Unmarshal(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "string", in: `{"v":"1500/day"}`, want: "1500/day"},
		{name: "integer", in: `{"v":1500}`, want: "1500"},
		{name: "decimal", in: `{"v":799.5}`, want: "799.5"},
		{name: "null", in: `{"v":null}`, want: ""},
		{name: "bool", in: `{"v":true}`, wantErr: true},
		{name: "object", in: `{"v":{"a":1}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				V FlexString `json:"v"`
			}
			err := json.Unmarshal([]byte(tt.in), &out)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got value %q", out.V)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.V.String() != tt.want {
				t.Fatalf("got %q want %q", out.V, tt.want)
			}
		})
	}
}
