package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaseLocks_SerializesOneCase(t *testing.T) {
	locks := NewCaseLocks()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("case-1")
			defer unlock()
			v := counter
			v++
			counter = v
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
	assert.Equal(t, 0, locks.Len(), "idle locks are released")
}

func TestCaseLocks_IndependentCases(t *testing.T) {
	locks := NewCaseLocks()

	unlockA := locks.Lock("case-a")
	unlockB := locks.Lock("case-b")
	assert.Equal(t, 2, locks.Len())

	unlockA()
	unlockB()
	assert.Equal(t, 0, locks.Len())
}
