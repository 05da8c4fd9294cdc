package fferr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(StoreUnavailable, "opening frecency db", cause)

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "store_unavailable")
	assert.Contains(t, err.Error(), "disk full")
}

func TestIsMatchesKindAcrossChain(t *testing.T) {
	base := New(NotFound, "base_path missing")
	wrapped := errors.Join(errors.New("context"), base)

	assert.True(t, Is(wrapped, NotFound))
	assert.False(t, Is(wrapped, PermissionDenied))
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("opaque failure")))
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, ScanFailed, KindOf(New(ScanFailed, "walk aborted")))
}

func TestRecoverProducesInternal(t *testing.T) {
	var got *Error
	func() {
		defer func() {
			if r := recover(); r != nil {
				got = Recover(r)
			}
		}()
		panic("boom")
	}()

	require.NotNil(t, got)
	assert.Equal(t, Internal, got.Kind)
	assert.Contains(t, got.Message, "boom")
}
