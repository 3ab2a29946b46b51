package bedrock

import "sync"

// atomicBytes is a mutex-guarded byte slice backing the downcast hook
// for retrieving the last raw request JSON sent to Bedrock, for debugging
// only, never read for control flow.
type atomicBytes struct {
	mu   sync.Mutex
	data []byte
}

func (a *atomicBytes) store(b []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = append([]byte(nil), b...)
}

func (a *atomicBytes) load() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]byte(nil), a.data...)
}

// LastRawRequest returns the most recent raw request body sent to Bedrock,
// a downcast hook for provider-specific diagnostics.
func (p *Provider) LastRawRequest() []byte {
	return p.lastRawRequest.load()
}
