package usecase

import (
	"log"

	"github.com/1IxI1/sc-indexer/domain"
)

// HandlerFunc processes one candidate account of a known contract type.
type HandlerFunc func(task domain.AccountTask) error

// Registry maps a contract code hash to its handler. It is built once at
// startup and passed by reference into the index interactor; there is no
// ambient global table.
type Registry struct {
	handlers map[string]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]HandlerFunc),
	}
}

func (r *Registry) Register(codeHash string, handler HandlerFunc) {
	r.handlers[codeHash] = handler
}

// CodeHashes returns the registered contract types; the driver uses them to
// filter candidate accounts.
func (r *Registry) CodeHashes() []string {
	hashes := make([]string, 0, len(r.handlers))
	for hash := range r.handlers {
		hashes = append(hashes, hash)
	}
	return hashes
}

// Dispatch invokes the handler registered for the task's code hash. Unknown
// contract types are expected and skipped without error.
func (r *Registry) Dispatch(task domain.AccountTask) error {
	handler, ok := r.handlers[task.CodeHash]
	if !ok {
		log.Printf("🔵 no handler for code hash %v, skipping %v\n", task.CodeHash, task.Address)
		return nil
	}
	return handler(task)
}
