package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linesmerrill/secure-evidence-api/api"
)

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"Warehouse break-in":                 "Warehouse break-in",
		"<b>bold</b> claim":                  "bold claim",
		"<script>alert(1)</script>CCTV copy": "CCTV copy",
		"Smith & Sons ledger":                "Smith & Sons ledger",
		"  padded  ":                         "padded",
	}
	for in, want := range tests {
		assert.Equal(t, want, api.Sanitize(in), in)
	}
}
