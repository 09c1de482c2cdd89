package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCost(t *testing.T) {
	assert.InDelta(t, 0.65, Cost(UploadImage, 1), 1e-9)
	assert.InDelta(t, 5.6, Cost(UploadZip, 8), 1e-9)
	assert.InDelta(t, 3.0, Cost(Inference, 2), 1e-9)
	assert.Zero(t, Cost(UploadImage, 0))
}

func TestCostUnknownKindIsFree(t *testing.T) {
	// Historical fallback: an unpriced kind costs nothing. The enum keeps
	// this unreachable from the API; this test exists so removing the
	// fallback is a conscious decision.
	assert.Zero(t, Cost(Kind(99), 10))
}

func TestRemaining(t *testing.T) {
	assert.InDelta(t, 4.4, Remaining(10, UploadZip, 8), 1e-9)
	assert.InDelta(t, 7.0, Remaining(10, Inference, 2), 1e-9)

	// Balance 1.0 cannot pay for one inference item.
	assert.Less(t, Remaining(1.0, Inference, 1), 0.0)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "uploadImage", UploadImage.String())
	assert.Equal(t, "uploadZip", UploadZip.String())
	assert.Equal(t, "inference", Inference.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
