package testkit

import (
	"testing"

	"xdao.co/base32768/storage"
)

func TestMemoryConformance(t *testing.T) {
	RunStoreConformance(t, func(*testing.T) storage.Store { return NewMemory() })
}
