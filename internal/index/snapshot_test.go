package index

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/starford/notecal/internal/models"
)

func TestCell_LoadBeforePublish(t *testing.T) {
	c := NewCell()
	s := c.Load()
	assert.NotNil(t, s)
	assert.Equal(t, uint64(0), s.Generation)
	assert.Equal(t, 0, s.Index.Len())
}

func TestCell_StaleGenerationDiscarded(t *testing.T) {
	c := NewCell()
	slow := c.Begin()
	fast := c.Begin()

	assert.True(t, c.Publish(&Snapshot{Generation: fast, Index: models.NewDateIndex()}))
	assert.False(t, c.Publish(&Snapshot{Generation: slow, Index: models.NewDateIndex()}))
	assert.Equal(t, fast, c.Load().Generation)
}

func TestCell_SameGenerationNotRepublished(t *testing.T) {
	c := NewCell()
	g := c.Begin()
	first := &Snapshot{Generation: g, Index: models.NewDateIndex()}
	assert.True(t, c.Publish(first))
	assert.False(t, c.Publish(&Snapshot{Generation: g, Index: models.NewDateIndex()}))
	assert.Same(t, first, c.Load())
}

func TestCell_ConcurrentPublishKeepsNewest(t *testing.T) {
	c := NewCell()
	gens := make([]uint64, 50)
	for i := range gens {
		gens[i] = c.Begin()
	}

	var wg sync.WaitGroup
	for _, g := range gens {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Publish(&Snapshot{Generation: g, Index: models.NewDateIndex()})
		}()
	}
	wg.Wait()
	assert.Equal(t, gens[len(gens)-1], c.Load().Generation)
}
