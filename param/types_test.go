package param

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		Static:           "STATIC",
		Dynamic:          "DYNAMIC",
		DynamicDependent: "DYNAMIC_DEPENDENT",
		Inherited:        "INHERITED",
		Kind(99):         "UNKNOWN",
	}
	for k, want := range cases {
		assert.Equal(t, want, k.String())
	}
}

func TestAddRefRelease(t *testing.T) {
	p := &Parameter{Name: "N", Kind: Static, value: 1, resolved: true}

	p.addRef()
	p.addRef()
	assert.False(t, p.release(), "two refs held, one release must not reach zero")
	assert.True(t, p.release(), "second release must reach zero")
}
