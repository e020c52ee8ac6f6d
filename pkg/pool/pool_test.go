package pool

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelizeOrdered(t *testing.T) {
	for _, p := range []*Pool{nil, NewPool(0), NewPool(3)} {
		got := p.Parallelize(50, func(i int) interface{} { return i * i })
		require.Len(t, got, 50)
		for i, v := range got {
			assert.Equal(t, i*i, v)
		}
		p.TearDown()
	}
}

func TestWorkers(t *testing.T) {
	var p *Pool
	assert.Equal(t, 1, p.Workers())
	p = NewPool(4)
	defer p.TearDown()
	assert.Equal(t, 4, p.Workers())
}

func TestLockedReader(t *testing.T) {
	src := make([]byte, 1024)
	for i := range src {
		src[i] = byte(i)
	}
	r := NewLockedReader(bytes.NewReader(src))

	var (
		mtx  sync.Mutex
		seen = make(map[byte]int)
		wg   sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := make([]byte, 16)
			for {
				n, err := io.ReadFull(r, buf)
				mtx.Lock()
				for _, b := range buf[:n] {
					seen[b]++
				}
				mtx.Unlock()
				if err != nil {
					return
				}
			}
		}()
	}
	wg.Wait()
	for b, count := range seen {
		assert.Equal(t, 4, count, "byte %d", b)
	}
}
