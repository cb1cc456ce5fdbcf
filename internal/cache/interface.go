package cache

import (
	"fmt"

	"github.com/weiawesome/disfake/internal/idgen"
)

// Key addresses a cache entry. A zero field means "absent": (0, user) is a user slot,
// (guild, 0) is the list of records hanging off a guild.
type Key struct {
	ParentID idgen.ID
	EntityID idgen.ID
}

// EntityKey returns the key of a standalone entity.
func EntityKey(id idgen.ID) Key { return Key{EntityID: id} }

// ParentKey returns the key of a parent's relationship list or slot.
func ParentKey(id idgen.ID) Key { return Key{ParentID: id} }

func (k Key) String() string {
	return fmt.Sprintf("(%s,%s)", idString(k.ParentID), idString(k.EntityID))
}

func idString(id idgen.ID) string {
	if id == 0 {
		return "-"
	}
	return id.String()
}

// EntityCache stores generated records so related records can reference each other.
// Misses are reported through the boolean or an empty list; callers decide whether a
// miss is fatal.
type EntityCache[T any] interface {
	Put(key Key, record T)
	Get(key Key) (T, bool)
	Append(parent Key, record T)
	ListFor(parent Key) []T
	Reset()
}
