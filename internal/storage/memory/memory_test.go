package memory

import (
	"testing"

	"spendly/internal/storage/storagetest"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, New())
}
