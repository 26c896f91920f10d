package service

import "sync"

// RingList is a fixed-capacity list of strings with a mutex for safe
// concurrent access. When the list is full, adding a new item evicts
// the oldest. Workers use this to remember which submission ids they
// are already processing, since NSQ does not dedupe messages.
type RingList struct {
	capacity int
	items    []string
	mutex    *sync.RWMutex
}

func NewRingList(capacity int) *RingList {
	return &RingList{
		capacity: capacity,
		items:    make([]string, 0, capacity),
		mutex:    &sync.RWMutex{},
	}
}

// Add adds an item to the list, evicting the oldest item if the list
// is at capacity.
func (list *RingList) Add(item string) {
	list.mutex.Lock()
	defer list.mutex.Unlock()
	if len(list.items) == list.capacity {
		list.items = list.items[1:]
	}
	list.items = append(list.items, item)
}

// Del removes every instance of item from the list.
func (list *RingList) Del(item string) {
	list.mutex.Lock()
	defer list.mutex.Unlock()
	kept := list.items[:0]
	for _, existing := range list.items {
		if existing != item {
			kept = append(kept, existing)
		}
	}
	list.items = kept
}

// Contains returns true if the item is in the list.
func (list *RingList) Contains(item string) bool {
	list.mutex.RLock()
	defer list.mutex.RUnlock()
	for _, existing := range list.items {
		if existing == item {
			return true
		}
	}
	return false
}

// Items returns a copy of the list's contents, oldest first.
func (list *RingList) Items() []string {
	list.mutex.RLock()
	defer list.mutex.RUnlock()
	items := make([]string, len(list.items))
	copy(items, list.items)
	return items
}
