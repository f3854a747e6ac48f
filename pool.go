package helmetvision

import (
	"sync"
)

// Pool is a simple service pool for sharing multiple identically
// configured detector services across concurrent request handlers
type Pool struct {
	// pool of services
	services chan *Service
	// size of pool
	size  int
	close sync.Once
}

// NewPool creates a pool of services using the given builder to construct
// each instance
func NewPool(size int, build func() (*Service, error)) (*Pool, error) {

	p := &Pool{
		services: make(chan *Service, size),
		size:     size,
	}

	for i := 0; i < size; i++ {
		svc, err := build()

		if err != nil {
			// close any instances that may have been created before
			// receiving the error
			p.Close()
			return nil, err
		}

		// attach to pool
		p.Return(svc)
	}

	return p, nil
}

// Get a service from the pool, blocking until one is available
func (p *Pool) Get() *Service {
	return <-p.services
}

// Return a service to the pool
func (p *Pool) Return(svc *Service) {
	select {
	case p.services <- svc:
	default:
		// pool is full or closed
	}
}

// Size returns the number of services the pool was created with
func (p *Pool) Size() int {
	return p.size
}

// Close the pool and all services in it
func (p *Pool) Close() {
	p.close.Do(func() {
		// close channel
		close(p.services)

		// close all services
		for next := range p.services {
			_ = next.Close()
		}
	})
}
