package flappy

// maxPipes is the most pipes that can be on screen at once: the one being
// approached and the one spawned when it crosses the midpoint.
const maxPipes = 2

// Pipe is a vertical obstacle pair sharing one column.
// The upper half occupies rows [0, GapTop) and the lower half
// occupies rows [GapTop+GapHeight, screenHeight).
type Pipe struct {
	X         int // Column of the pipe
	GapTop    int // First open row
	GapHeight int // Number of open rows
}

// PipeHalf is one half of a pipe: its column and its boundary row.
// For the upper half Y is the first row below it, for the lower half
// Y is its first occupied row.
type PipeHalf struct {
	X int
	Y int
}

// Upper returns the upper half of the pipe.
func (p Pipe) Upper() PipeHalf {
	return PipeHalf{X: p.X, Y: p.GapTop}
}

// Lower returns the lower half of the pipe.
func (p Pipe) Lower() PipeHalf {
	return PipeHalf{X: p.X, Y: p.GapTop + p.GapHeight}
}

// InGap reports whether row y is open in this pipe.
func (p Pipe) InGap(y int) bool {
	return y >= p.GapTop && y < p.GapTop+p.GapHeight
}

// pipeQueue is a fixed-capacity ring deque ordered by spawn time,
// which is also ascending X.
type pipeQueue struct {
	items [maxPipes]Pipe
	head  int
	n     int
}

// Len returns the number of queued pipes.
func (q *pipeQueue) Len() int {
	return q.n
}

// PushBack appends a freshly spawned pipe.
// Overflowing the queue means the spawn schedule is broken, so it panics.
func (q *pipeQueue) PushBack(p Pipe) {
	if q.n == maxPipes {
		panic("flappy: pipe queue overflow")
	}
	q.items[(q.head+q.n)%maxPipes] = p
	q.n++
}

// PopFront removes the oldest pipe.
func (q *pipeQueue) PopFront() Pipe {
	if q.n == 0 {
		panic("flappy: pop from empty pipe queue")
	}
	p := q.items[q.head]
	q.items[q.head] = Pipe{}
	q.head = (q.head + 1) % maxPipes
	q.n--
	return p
}

// Front returns a pointer to the oldest pipe. The queue must not be empty.
func (q *pipeQueue) Front() *Pipe {
	return &q.items[q.head]
}

// ShiftLeft scrolls every pipe one column to the left.
func (q *pipeQueue) ShiftLeft() {
	for i := 0; i < q.n; i++ {
		q.items[(q.head+i)%maxPipes].X--
	}
}

// Slice copies the queue into a new slice, oldest first.
func (q *pipeQueue) Slice() []Pipe {
	out := make([]Pipe, q.n)
	for i := 0; i < q.n; i++ {
		out[i] = q.items[(q.head+i)%maxPipes]
	}
	return out
}
