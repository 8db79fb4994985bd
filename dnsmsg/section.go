package dnsmsg

// sectionList is an ordered, doubly-linked list of Name handles backing one
// logical section (spec.md §4.3).
type sectionList struct {
	head, tail *Name
	count      int
}

func (l *sectionList) append(n *Name) {
	n.next, n.prev = nil, nil
	if l.tail == nil {
		l.head, l.tail = n, n
	} else {
		n.prev = l.tail
		l.tail.next = n
		l.tail = n
	}
	l.count++
}

func (l *sectionList) unlink(n *Name) {
	if n.prev != nil {
		n.prev.next = n.next
	} else if l.head == n {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else if l.tail == n {
		l.tail = n.prev
	}
	n.next, n.prev = nil, nil
	l.count--
}

// findTailToHead searches the list from tail to head, returning the most
// recently inserted Name equal to target. This "most recent wins" order is
// load-bearing per spec.md §9 — callers may depend on it.
func (l *sectionList) findTailToHead(target *Name) *Name {
	for n := l.tail; n != nil; n = n.prev {
		if n.Equal(target) {
			return n
		}
	}
	return nil
}

// sectionStore holds the four wire sections plus the TSIG pseudo-section.
type sectionStore struct {
	lists [numSections]sectionList
}

func (s *sectionStore) list(sec section) *sectionList { return &s.lists[sec] }

func (s *sectionStore) append(sec section, n *Name) {
	n.sect = sec
	n.inSection = true
	s.lists[sec].append(n)
}

func (s *sectionStore) remove(n *Name) {
	if !n.inSection {
		return
	}
	s.lists[n.sect].unlink(n)
	n.inSection = false
}

// move relocates n from its current section to dst, preserving wire order
// within dst (appended at the tail).
func (s *sectionStore) move(n *Name, dst section) {
	s.remove(n)
	s.append(dst, n)
}

// findName searches sec for a Name equal to target, tail-to-head.
func (s *sectionStore) findName(sec section, target *Name) *Name {
	return s.lists[sec].findTailToHead(target)
}

// findByType searches sec for a Name equal to target that also carries a
// RecordSet of (rtype, covers), distinguishing "name not found" from
// "name found, no record of that type" the way dns_message_find does.
func (s *sectionStore) findByType(sec section, target *Name, rtype, covers uint16) (name *Name, rs *RecordSet, err error) {
	n := s.findName(sec, target)
	if n == nil {
		return nil, nil, errNotFound("name not present in section")
	}
	if found := n.FindSet(rtype, covers); found != nil {
		return n, found, nil
	}
	return n, nil, errNoRecordForType("name present, no record of that type")
}

// findType searches every Name in sec, tail-to-head (matching
// findTailToHead's "most recent wins" order), for a RecordSet of
// (rtype, covers), returning the first match directly without requiring the
// caller to already hold the owning Name.
func (s *sectionStore) findType(sec section, rtype, covers uint16) (*RecordSet, error) {
	for n := s.lists[sec].tail; n != nil; n = n.prev {
		if rs := n.FindSet(rtype, covers); rs != nil {
			return rs, nil
		}
	}
	return nil, errNotFound("no record of that type in section")
}

// cursor is a section-iteration position.
type cursor struct {
	sec section
	cur *Name
}

func (s *sectionStore) first(sec section) (*Name, error) {
	n := s.lists[sec].head
	if n == nil {
		return nil, errNoMore("section is empty")
	}
	return n, nil
}

func (s *sectionStore) next(n *Name) (*Name, error) {
	if n.next == nil {
		return nil, errNoMore("no more names in section")
	}
	return n.next, nil
}

func (s *sectionStore) count(sec section) int { return s.lists[sec].count }

// clear empties a section list without releasing the Name handles; the
// caller is responsible for returning them to the allocator.
func (s *sectionStore) clear(sec section) []*Name {
	var out []*Name
	for n := s.lists[sec].head; n != nil; {
		next := n.next
		out = append(out, n)
		n.next, n.prev = nil, nil
		n.inSection = false
		n = next
	}
	s.lists[sec] = sectionList{}
	return out
}
