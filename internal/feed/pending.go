package feed

type OpState int

const (
	OpPending OpState = iota
	OpConfirmed
	OpRolledBack
	OpAbandoned
)

func (state OpState) String() string {
	switch state {
	case OpPending:
		return "pending"
	case OpConfirmed:
		return "confirmed"
	case OpRolledBack:
		return "rolled_back"
	case OpAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Pending is one in-flight request. A response is applied only while the
// request is still Pending and the post epoch it started in is unchanged.
type Pending struct {
	RequestId uint64
	PostId    string
	Key       string
	State     OpState
	epoch     uint64
}

// tracker is not safe for concurrent use; owners guard it with their own mutex.
type tracker struct {
	nextId  uint64
	epochs  map[string]uint64
	pending map[uint64]*Pending
}

func newTracker() *tracker {
	return &tracker{
		epochs:  make(map[string]uint64),
		pending: make(map[uint64]*Pending),
	}
}

func (t *tracker) begin(postId string, key string) *Pending {
	t.nextId++
	op := &Pending{
		RequestId: t.nextId,
		PostId:    postId,
		Key:       key,
		State:     OpPending,
		epoch:     t.epochs[postId],
	}
	t.pending[op.RequestId] = op

	return op
}

func (t *tracker) current(op *Pending) bool {
	return op.State == OpPending && t.epochs[op.PostId] == op.epoch
}

func (t *tracker) finish(op *Pending, state OpState) {
	op.State = state
	delete(t.pending, op.RequestId)
}

// invalidate moves the post to a new epoch and abandons every request issued before it.
func (t *tracker) invalidate(postId string) {
	t.epochs[postId]++

	for id, op := range t.pending {
		if op.PostId == postId {
			op.State = OpAbandoned
			delete(t.pending, id)
		}
	}
}

func (t *tracker) inFlight(postId string) int {
	count := 0
	for _, op := range t.pending {
		if op.PostId == postId {
			count++
		}
	}
	return count
}
