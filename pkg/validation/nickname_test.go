package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAndNormalizeNickname(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		max     int
		want    string
		wantErr bool
	}{
		{name: "plain", input: "alice", max: 20, want: "alice"},
		{name: "trimmed", input: "  bob \n", max: 20, want: "bob"},
		{name: "empty", input: "", max: 20, wantErr: true},
		{name: "whitespace only", input: "   ", max: 20, wantErr: true},
		{name: "exactly at bound", input: strings.Repeat("a", 20), max: 20, want: strings.Repeat("a", 20)},
		{name: "over bound", input: strings.Repeat("a", 21), max: 20, wantErr: true},
		{name: "multibyte counted as runes", input: "복조리복조리", max: 6, want: "복조리복조리"},
		{name: "multibyte over bound", input: "복조리복조리복", max: 6, wantErr: true},
		{name: "default bound", input: strings.Repeat("x", 21), max: 0, wantErr: true},
		{name: "invalid utf8", input: "a\xffb", max: 20, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateAndNormalizeNickname(tt.input, tt.max)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
