package grabcache

import "testing"

type testNode struct {
	value int
	hook  link[testNode]
}

func testNodeHook(n *testNode) *link[testNode] { return &n.hook }

func initList(v ...int) *dlist[testNode] {
	l := newDList(testNodeHook)
	for _, vi := range v {
		l.append(&testNode{value: vi})
	}

	return l
}

func checkList(t *testing.T, l *dlist[testNode], values ...int) {
	t.Helper()

	counter := 0
	n, p := l.first, l.last
	var head, tail []int
	for n != nil && p != nil {
		head = append(head, n.value)
		tail = append([]int{p.value}, tail...)
		if n.value != values[counter] || p.value != values[len(values)-1-counter] {
			t.Error("invalid list order", head, tail, values)
			return
		}

		counter++
		n, p = n.hook.next, p.hook.prev
	}

	if counter != len(values) {
		t.Error("invalid list length", head, tail, values)
	}

	if n != nil || p != nil {
		t.Error("list broken", head, tail, values)
	}
}

func TestListAppend(t *testing.T) {
	t.Run("append to empty list", func(t *testing.T) {
		l := initList()
		l.append(&testNode{value: 1})
		checkList(t, l, 1)
	})

	t.Run("append to list with one item", func(t *testing.T) {
		l := initList(1)
		l.append(&testNode{value: 2})
		checkList(t, l, 1, 2)
	})

	t.Run("append to non-empty list", func(t *testing.T) {
		l := initList(1, 2, 3)
		l.append(&testNode{value: 4})
		checkList(t, l, 1, 2, 3, 4)
	})
}

func TestListInsert(t *testing.T) {
	t.Run("insert into empty list", func(t *testing.T) {
		l := initList()
		l.insert(&testNode{value: 1}, nil)
		checkList(t, l, 1)
	})

	t.Run("insert into list with one item, first", func(t *testing.T) {
		l := initList(1)
		l.insert(&testNode{value: 2}, l.first)
		checkList(t, l, 2, 1)
	})

	t.Run("insert into list with one item, last", func(t *testing.T) {
		l := initList(1)
		l.insert(&testNode{value: 2}, nil)
		checkList(t, l, 1, 2)
	})

	t.Run("insert into non-empty list, first", func(t *testing.T) {
		l := initList(1, 2, 3)
		l.insert(&testNode{value: 4}, l.first)
		checkList(t, l, 4, 1, 2, 3)
	})

	t.Run("insert into non-empty list, between", func(t *testing.T) {
		l := initList(1, 2, 3)
		n := l.first.hook.next.hook.next
		l.insert(&testNode{value: 4}, n)
		checkList(t, l, 1, 2, 4, 3)
	})

	t.Run("insert into non-empty list, last", func(t *testing.T) {
		l := initList(1, 2, 3)
		l.insert(&testNode{value: 4}, nil)
		checkList(t, l, 1, 2, 3, 4)
	})
}

func TestListRemove(t *testing.T) {
	t.Run("remove from a list with a single item", func(t *testing.T) {
		l := initList(1)
		l.remove(l.first)
		checkList(t, l)
	})

	t.Run("remove first item from a list with two items", func(t *testing.T) {
		l := initList(1, 2)
		l.remove(l.first)
		checkList(t, l, 2)
	})

	t.Run("remove last item from a list with two items", func(t *testing.T) {
		l := initList(1, 2)
		l.remove(l.last)
		checkList(t, l, 1)
	})

	t.Run("remove first item from a list", func(t *testing.T) {
		l := initList(1, 2, 3, 4)
		l.remove(l.first)
		checkList(t, l, 2, 3, 4)
	})

	t.Run("remove last item from a list", func(t *testing.T) {
		l := initList(1, 2, 3, 4)
		l.remove(l.last)
		checkList(t, l, 1, 2, 3)
	})

	t.Run("remove item from a list", func(t *testing.T) {
		l := initList(1, 2, 3, 4)
		l.remove(l.first.hook.next)
		checkList(t, l, 1, 3, 4)
	})
}

func TestListMoveToBack(t *testing.T) {
	t.Run("move the front node to the back", func(t *testing.T) {
		l := initList(1, 2, 3)
		l.moveToBack(l.first)
		checkList(t, l, 2, 3, 1)
	})

	t.Run("move the back node to the back is a no-op", func(t *testing.T) {
		l := initList(1, 2, 3)
		l.moveToBack(l.last)
		checkList(t, l, 1, 2, 3)
	})

	t.Run("move a middle node to the back", func(t *testing.T) {
		l := initList(1, 2, 3)
		l.moveToBack(l.first.hook.next)
		checkList(t, l, 1, 3, 2)
	})
}

func TestListAppendRange(t *testing.T) {
	t.Run("single item to an empty list", func(t *testing.T) {
		l := initList()
		add := initList(1)
		l.appendRange(add.first, add.last)
		checkList(t, l, 1)
	})

	t.Run("multiple items to an empty list", func(t *testing.T) {
		l := initList()
		add := initList(1, 2, 3)
		l.appendRange(add.first, add.last)
		checkList(t, l, 1, 2, 3)
	})

	t.Run("single item to a list with a single item", func(t *testing.T) {
		l := initList(1)
		add := initList(2)
		l.appendRange(add.first, add.last)
		checkList(t, l, 1, 2)
	})

	t.Run("multiple items to a list with a single item", func(t *testing.T) {
		l := initList(1)
		add := initList(2, 3, 4)
		l.appendRange(add.first, add.last)
		checkList(t, l, 1, 2, 3, 4)
	})

	t.Run("single item to a list with multiple items", func(t *testing.T) {
		l := initList(1, 2, 3)
		add := initList(4)
		l.appendRange(add.first, add.last)
		checkList(t, l, 1, 2, 3, 4)
	})

	t.Run("multiple items to a list with multiple items", func(t *testing.T) {
		l := initList(1, 2, 3)
		add := initList(4, 5, 6)
		l.appendRange(add.first, add.last)
		checkList(t, l, 1, 2, 3, 4, 5, 6)
	})
}

func TestListInsertRange(t *testing.T) {
	t.Run("single item into an empty list", func(t *testing.T) {
		l := initList()
		ins := initList(1)
		l.insertRange(ins.first, ins.last, nil)
		checkList(t, l, 1)
	})

	t.Run("multiple items into an empty list", func(t *testing.T) {
		l := initList()
		ins := initList(1, 2, 3)
		l.insertRange(ins.first, ins.last, nil)
		checkList(t, l, 1, 2, 3)
	})

	t.Run("single item into a list with a single item, before", func(t *testing.T) {
		l := initList(1)
		ins := initList(2)
		l.insertRange(ins.first, ins.last, l.first)
		checkList(t, l, 2, 1)
	})

	t.Run("single item into a list with a single item, after", func(t *testing.T) {
		l := initList(1)
		ins := initList(2)
		l.insertRange(ins.first, ins.last, nil)
		checkList(t, l, 1, 2)
	})

	t.Run("multiple items into a list with a single item, before", func(t *testing.T) {
		l := initList(1)
		ins := initList(2, 3, 4)
		l.insertRange(ins.first, ins.last, l.first)
		checkList(t, l, 2, 3, 4, 1)
	})

	t.Run("multiple items into a list with a single item, after", func(t *testing.T) {
		l := initList(1)
		ins := initList(2, 3, 4)
		l.insertRange(ins.first, ins.last, nil)
		checkList(t, l, 1, 2, 3, 4)
	})

	t.Run("single item into a list with multiple items, before", func(t *testing.T) {
		l := initList(1, 2, 3)
		ins := initList(4)
		l.insertRange(ins.first, ins.last, l.first)
		checkList(t, l, 4, 1, 2, 3)
	})

	t.Run("single item into a list with multiple items, between", func(t *testing.T) {
		l := initList(1, 2, 3)
		ins := initList(4)
		l.insertRange(ins.first, ins.last, l.first.hook.next.hook.next)
		checkList(t, l, 1, 2, 4, 3)
	})

	t.Run("multiple items into a list with multiple items, between", func(t *testing.T) {
		l := initList(1, 2, 3)
		ins := initList(4, 5, 6)
		l.insertRange(ins.first, ins.last, l.first.hook.next.hook.next)
		checkList(t, l, 1, 2, 4, 5, 6, 3)
	})
}

func TestListRemoveRange(t *testing.T) {
	t.Run("single item from a list with a single item", func(t *testing.T) {
		l := initList(1)
		l.removeRange(l.first, l.first)
		checkList(t, l)
	})

	t.Run("both items from a list with two items", func(t *testing.T) {
		l := initList(1, 2)
		l.removeRange(l.first, l.last)
		checkList(t, l)
	})

	t.Run("multiple items from a list, head", func(t *testing.T) {
		l := initList(1, 2, 3, 4)
		l.removeRange(l.first, l.first.hook.next)
		checkList(t, l, 3, 4)
	})

	t.Run("multiple items from a list, tail", func(t *testing.T) {
		l := initList(1, 2, 3, 4)
		l.removeRange(l.last.hook.prev, l.last)
		checkList(t, l, 1, 2)
	})

	t.Run("multiple items from a list, from between", func(t *testing.T) {
		l := initList(1, 2, 3, 4)
		l.removeRange(l.first.hook.next, l.last.hook.prev)
		checkList(t, l, 1, 4)
	})

	t.Run("all items from a list", func(t *testing.T) {
		l := initList(1, 2, 3, 4)
		l.removeRange(l.first, l.last)
		checkList(t, l)
	})
}
