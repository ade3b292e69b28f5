package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Sutiã Renda Rosé":         "sutia-renda-rose",
		"  Coleção  Noite—Íntima ": "colecao-noite-intima",
		"Body #2 (P/M)":            "body-2-p-m",
		"---":                      "",
		"ÇÃÕ":                      "cao",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}
