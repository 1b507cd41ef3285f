package testsupport

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Global counter for generating unique sequential IDs in tests
var testSequence uint64

func init() {
	// Initialize with current timestamp to ensure uniqueness across test runs
	testSequence = uint64(time.Now().UnixNano() % 1000000)
}

// NextSequence returns next unique sequence number
func NextSequence() uint64 {
	return atomic.AddUint64(&testSequence, 1)
}

// UniqueName generates a unique name with given prefix
// Example: UniqueName("test_product") -> "test_product_123456"
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, NextSequence())
}

// UniqueSKU generates a unique SKU for catalog tests
// Example: UniqueSKU("WM") -> "WM-123456"
func UniqueSKU(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, NextSequence())
}

// UniqueString generates a unique string identifier
// Useful when you need guaranteed uniqueness (uses UUID)
func UniqueString() string {
	return uuid.New().String()
}
