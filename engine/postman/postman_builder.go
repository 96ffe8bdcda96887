package postman

import "github.com/Carmen-Shannon/oxy3d/engine/scene"

// PostmanBuilderOption is a functional option for configuring a Postman.
type PostmanBuilderOption func(p *postman)

// WithScene sets the scene whose nodes receive backend changes.
func WithScene(s scene.Scene) PostmanBuilderOption {
	return func(p *postman) {
		p.scene = s
	}
}

// WithBackend sets where NotifyBackend publishes.
func WithBackend(b Backend) PostmanBuilderOption {
	return func(p *postman) {
		p.backend = b
	}
}
