package mapfile

import (
	"strconv"
	"strings"
	"sync"
)

// symbolicBase is where symbolic ids start numbering, well above any id
// written by hand, in the manner of generated resource ids.
const symbolicBase = 0x7f000000

// IDRegistry hands out stable integer ids for symbolic area ids such as
// "@+id/door". Numeric ids are used as they are and reserved so that no
// symbolic name is ever given the same number.
type IDRegistry struct {
	mu     sync.Mutex
	byName map[string]int
	byID   map[int]string
	next   int
}

func NewIDRegistry() *IDRegistry {
	return &IDRegistry{
		byName: make(map[string]int),
		byID:   make(map[int]string),
		next:   symbolicBase,
	}
}

// symbol strips resource prefixes from a raw id attribute.
func symbol(raw string) string {
	s := strings.TrimSpace(raw)
	for _, prefix := range []string{"@+id/", "@id/"} {
		if strings.HasPrefix(s, prefix) {
			return strings.TrimSpace(s[len(prefix):])
		}
	}
	return s
}

// Resolve returns the integer id for raw, assigning one if needed. It
// returns 0 for an empty id, which the region catalog rejects.
func (r *IDRegistry) Resolve(raw string) int {
	name := symbol(raw)
	if name == "" {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byName[name]; ok {
		return id
	}

	if n, err := strconv.Atoi(name); err == nil {
		if n <= 0 {
			return 0
		}
		r.byName[name] = n
		if _, taken := r.byID[n]; !taken {
			r.byID[n] = name
		}
		return n
	}

	for {
		r.next++
		if _, taken := r.byID[r.next]; !taken {
			break
		}
	}
	r.byName[name] = r.next
	r.byID[r.next] = name
	return r.next
}

// resolveAreas sets the id of every area from its raw "id" attribute.
// Numeric ids are reserved before any symbolic name is numbered so that a
// symbolic id earlier in the file never takes a number written later.
func (r *IDRegistry) resolveAreas(maps []Map) {
	numeric := func(raw string) bool {
		_, err := strconv.Atoi(symbol(raw))
		return err == nil
	}
	for _, pass := range []bool{true, false} {
		for i := range maps {
			for j := range maps[i].Areas {
				d := &maps[i].Areas[j]
				raw := d.Attrs["id"]
				if numeric(raw) == pass {
					d.ID = r.Resolve(raw)
				}
			}
		}
	}
}

// Name returns the symbolic name registered for id.
func (r *IDRegistry) Name(id int) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.byID[id]
	return name, ok
}

// Len returns the number of registered names.
func (r *IDRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byName)
}
