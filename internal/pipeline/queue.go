package pipeline

import (
	"sync"

	"github.com/wikimedia/cloud-toolforge-jobs-framework-emailer/internal/mailer"
)

// Queue is the outbound FIFO of composed emails, shared by the compose and
// dispatch stages. Safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	emails []mailer.Email
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends an email to the back of the queue.
func (q *Queue) Push(email mailer.Email) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.emails = append(q.emails, email)
	queueDepth.Set(float64(len(q.emails)))
}

// Pop removes and returns the oldest email. The second return is false
// when the queue is empty.
func (q *Queue) Pop() (mailer.Email, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.emails) == 0 {
		return mailer.Email{}, false
	}
	email := q.emails[0]
	q.emails = q.emails[1:]
	queueDepth.Set(float64(len(q.emails)))
	return email, true
}

// Len returns the number of queued emails.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.emails)
}
