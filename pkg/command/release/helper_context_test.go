package release

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsConfirmed(t *testing.T) {
	tests := map[string]bool{
		"y":     true,
		"yes":   true,
		" Yes ": true,
		"j":     true,
		"ja":    true,
		"":      false,
		"n":     false,
		"no":    false,
		"ok":    false,
	}

	for answer, want := range tests {
		assert.Equal(t, want, isConfirmed(answer), answer)
	}
}

func TestWithDependencies(t *testing.T) {
	var out bytes.Buffer
	confirm := promptConfirm(&out)

	ctx := withDependencies(context.Background(), nil, &fakeGitRepo{}, confirm, &out)

	assert.NotNil(t, getCtxConfirm(ctx))
	assert.Same(t, &out, getCtxOutput(ctx))
	assert.Empty(t, out.String())
}
