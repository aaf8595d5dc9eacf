package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueueSortOrdersNoteOffBeforeNoteOn(t *testing.T) {
	var q Queue
	q.Enqueue(1000, NoteOn(0, 60, 100))
	q.Enqueue(1000, NoteOff(0, 60))
	q.Sort()

	events := q.Dequeue(1000)
	assert.Equal(t, []Event{NoteOff(0, 60), NoteOn(0, 60, 100)}, events)
}

func TestQueueSortIsStableForMutuallyEqualEvents(t *testing.T) {
	t.Run("insertion order a,b", func(t *testing.T) {
		var q Queue
		a := NoteOn(0, 60, 100)
		b := NoteOn(1, 61, 90)
		q.Enqueue(500, a)
		q.Enqueue(500, b)
		q.Sort()
		assert.Equal(t, []Event{a, b}, q.Dequeue(500))
	})

	t.Run("insertion order b,a", func(t *testing.T) {
		var q Queue
		a := NoteOn(0, 60, 100)
		b := NoteOn(1, 61, 90)
		q.Enqueue(500, b)
		q.Enqueue(500, a)
		q.Sort()
		assert.Equal(t, []Event{b, a}, q.Dequeue(500))
	})
}

func TestQueueDequeueOnlyExaminesHead(t *testing.T) {
	var q Queue
	q.Enqueue(0, AllSoundOff(0))
	q.Enqueue(100, NoteOn(0, 60, 100))
	q.Enqueue(200, NoteOff(0, 60))
	q.Sort()

	assert.Equal(t, []Event{AllSoundOff(0)}, q.Dequeue(0))
	// Nothing left at time 0.
	assert.Empty(t, q.Dequeue(0))
	assert.Equal(t, []Event{NoteOn(0, 60, 100)}, q.Dequeue(100))
	assert.Equal(t, []Event{NoteOff(0, 60)}, q.Dequeue(200))
	assert.True(t, q.IsEmpty())
}

func TestQueuePeekTimeOnEmptyQueue(t *testing.T) {
	var q Queue
	_, ok := q.PeekTime()
	assert.False(t, ok)
}

func TestQueuePeekTimeReturnsHeadTime(t *testing.T) {
	var q Queue
	q.Enqueue(50, NoteOn(0, 1, 1))
	q.Enqueue(10, NoteOn(0, 2, 1))
	q.Sort()
	tm, ok := q.PeekTime()
	assert.True(t, ok)
	assert.Equal(t, uint64(10), tm)
}

func TestQueueAdjacentOrderAfterSort(t *testing.T) {
	var q Queue
	q.Enqueue(10, NoteOn(0, 1, 1))
	q.Enqueue(5, NoteOff(0, 2))
	q.Enqueue(5, NoteOn(0, 3, 1))
	q.Enqueue(5, ControlChangeEvent(0, 7, 100))
	q.Sort()

	var times []uint64
	var kinds []Kind
	for !q.IsEmpty() {
		tm, _ := q.PeekTime()
		for _, e := range q.Dequeue(tm) {
			times = append(times, tm)
			kinds = append(kinds, e.Kind)
		}
	}
	assert.Equal(t, []uint64{5, 5, 5, 10}, times)
	assert.Equal(t, []Kind{KindNoteOff, KindNoteOn, KindControlChange, KindNoteOn}, kinds)
}
