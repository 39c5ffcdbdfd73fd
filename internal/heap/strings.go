package heap

import (
	"fmt"
	"sync"
)

// strChunkSize is the capacity of one byte arena. A string longer than this
// gets a dedicated oversized chunk.
const strChunkSize = 64 * 1024

// StrArena is a sequence of fixed-capacity byte arenas. When the current
// chunk cannot fit the next string a fresh one is appended; addresses encode
// (chunk index, offset) and remain stable forever.
type StrArena struct {
	mu     sync.Mutex
	chunks [][]byte
}

func (s *StrArena) add(b []byte) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	need := len(b)
	if len(s.chunks) == 0 || cap(s.chunks[len(s.chunks)-1])-len(s.chunks[len(s.chunks)-1]) < need {
		size := strChunkSize
		if need > size {
			size = need
		}
		s.chunks = append(s.chunks, make([]byte, 0, size))
	}
	idx := len(s.chunks) - 1
	off := len(s.chunks[idx])
	s.chunks[idx] = append(s.chunks[idx], b...)
	return uint64(idx)<<32 | uint64(off)
}

func (s *StrArena) get(addr uint64, length int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := int(addr >> 32)
	off := int(addr & 0xFFFFFFFF)
	return string(s.chunks[idx][off : off+length])
}

// String objects carry two instance fields: the byte length and the
// address of the bytes in the string arena.
const (
	stringFieldLength = 0
	stringFieldIndex  = 1
	stringFieldCount  = 2
)

// StringPool allocates bootstrap string objects and interns them by content.
//
// Interning is not strictly idempotent under racing writers: two goroutines
// may each allocate a handle for the same content, and the later map commit
// wins. Both handles stay valid; the pool hands out a canonical handle only
// once both writers have committed.
type StringPool struct {
	arena *Arena
	str   StrArena

	classID uint32 // the bootstrap string class, set once during VM init

	mu       sync.RWMutex
	interned map[string]Ref
}

func NewStringPool(arena *Arena) *StringPool {
	return &StringPool{
		arena:    arena,
		interned: make(map[string]Ref),
	}
}

// SetStringClass installs the class id every string object's header carries.
// Must be called before the first Add.
func (p *StringPool) SetStringClass(classID uint32) {
	p.classID = classID
}

// Add copies the string's bytes into the byte arena and allocates a fresh
// string object pointing at them. No deduplication.
func (p *StringPool) Add(s string) (Ref, error) {
	addr := p.str.add([]byte(s))
	obj, err := p.arena.NewObject(p.classID, stringFieldCount)
	if err != nil {
		return 0, fmt.Errorf("allocating string object: %w", err)
	}
	p.arena.SetField(obj, stringFieldLength, uint64(len(s)))
	p.arena.SetField(obj, stringFieldIndex, addr)
	return obj, nil
}

// Intern returns the pooled handle for s, allocating and recording one if
// none exists yet.
func (p *StringPool) Intern(s string) (Ref, error) {
	p.mu.RLock()
	r, ok := p.interned[s]
	p.mu.RUnlock()
	if ok {
		return r, nil
	}

	r, err := p.Add(s)
	if err != nil {
		return 0, err
	}
	p.mu.Lock()
	p.interned[s] = r
	p.mu.Unlock()
	return r, nil
}

// Get reconstitutes a host string from a string object handle.
func (p *StringPool) Get(r Ref) string {
	length := int(p.arena.GetField(r, stringFieldLength))
	addr := p.arena.GetField(r, stringFieldIndex)
	if length == 0 {
		return ""
	}
	return p.str.get(addr, length)
}
