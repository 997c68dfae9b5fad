package engine

// Registry hands out entity identifiers. Identifiers start at 1, only ever grow,
// and a retired identifier is never handed out again.
type Registry struct {
	next    int
	retired map[int]struct{}
}

// NewRegistry returns a registry whose first identifier is 1.
func NewRegistry() *Registry {
	return &Registry{next: 1, retired: make(map[int]struct{})}
}

// Next returns a fresh identifier.
func (r *Registry) Next() int {
	for {
		id := r.next
		r.next++
		if _, ok := r.retired[id]; !ok {
			return id
		}
	}
}

// Retire marks id as permanently used.
func (r *Registry) Retire(id int) {
	r.retired[id] = struct{}{}
}

// IsRetired reports whether id was retired.
func (r *Registry) IsRetired(id int) bool {
	_, ok := r.retired[id]
	return ok
}

