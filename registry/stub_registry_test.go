package registry

import (
	"context"
	"sync"
)

// stubRegistry is a canned-response backend for aggregator tests. Writes
// are recorded but not applied to the canned read results.
type stubRegistry struct {
	kind Kind
	uri  string

	metadata  map[ChainName]ChainMetadata
	addresses map[ChainName]ChainAddresses
	content   RegistryContent

	readErr  error
	writeErr error

	// onRead, when set, runs at the start of every read call.
	onRead func()

	mu         sync.Mutex
	writeOps   []string
	addedChain []NewChainRecord
	removed    []ChainName
	routes     []WarpRouteConfig
}

var _ Registry = &stubRegistry{}

func (s *stubRegistry) Kind() Kind  { return s.kind }
func (s *stubRegistry) URI() string { return s.uri }

func (s *stubRegistry) ListRegistryContent(context.Context) (RegistryContent, error) {
	if s.onRead != nil {
		s.onRead()
	}
	if s.readErr != nil {
		return RegistryContent{}, s.readErr
	}

	return s.content, nil
}

func (s *stubRegistry) GetMetadata(context.Context) (map[ChainName]ChainMetadata, error) {
	if s.onRead != nil {
		s.onRead()
	}
	if s.readErr != nil {
		return nil, s.readErr
	}

	return s.metadata, nil
}

func (s *stubRegistry) GetAddresses(context.Context) (map[ChainName]ChainAddresses, error) {
	if s.onRead != nil {
		s.onRead()
	}
	if s.readErr != nil {
		return nil, s.readErr
	}

	return s.addresses, nil
}

func (s *stubRegistry) AddChain(_ context.Context, chain NewChainRecord) error {
	s.recordWrite("AddChain")
	if s.writeErr != nil {
		return s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addedChain = append(s.addedChain, chain)

	return nil
}

func (s *stubRegistry) UpdateChain(_ context.Context, chain NewChainRecord) error {
	s.recordWrite("UpdateChain")
	if s.writeErr != nil {
		return s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addedChain = append(s.addedChain, chain)

	return nil
}

func (s *stubRegistry) RemoveChain(_ context.Context, name ChainName) error {
	s.recordWrite("RemoveChain")
	if s.writeErr != nil {
		return s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, name)

	return nil
}

func (s *stubRegistry) AddWarpRoute(_ context.Context, route WarpRouteConfig) error {
	s.recordWrite("AddWarpRoute")
	if s.writeErr != nil {
		return s.writeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, route)

	return nil
}

func (s *stubRegistry) recordWrite(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeOps = append(s.writeOps, op)
}

func (s *stubRegistry) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.writeOps)
}
