package db

import (
	"database/sql"
	"time"
)

type Task struct {
	Exec func(*sql.DB) (interface{}, error)
	Resp chan Result
}

type Result struct {
	Data interface{}
	Err  error
}

// Queue serializes all database work through a single worker so sqlite
// never sees concurrent writers. Failed tasks are retried with backoff.
type Queue struct {
	tasks      chan Task
	db         *sql.DB
	maxRetry   int
	retryDelay time.Duration
	linearWait bool
}

func NewQueue(db *sql.DB) *Queue {
	q := &Queue{
		tasks:      make(chan Task, 100),
		db:         db,
		maxRetry:   3,
		retryDelay: 100 * time.Millisecond,
	}
	go q.worker()
	return q
}

func NewQueueForTest(db *sql.DB) *Queue {
	q := &Queue{
		tasks:      make(chan Task, 100),
		db:         db,
		maxRetry:   3,
		retryDelay: 1 * time.Millisecond,
		linearWait: true,
	}
	go q.worker()
	return q
}

func (q *Queue) Execute(task func(*sql.DB) (interface{}, error)) (interface{}, error) {
	resp := make(chan Result, 1)
	q.tasks <- Task{Exec: task, Resp: resp}
	result := <-resp
	return result.Data, result.Err
}

func (q *Queue) worker() {
	for task := range q.tasks {
		task.Resp <- q.executeWithRetry(task)
	}
}

func (q *Queue) executeWithRetry(task Task) Result {
	var lastErr error
	for attempt := 0; attempt < q.maxRetry; attempt++ {
		data, err := task.Exec(q.db)
		if err == nil {
			return Result{Data: data}
		}
		lastErr = err
		if attempt < q.maxRetry-1 {
			if q.linearWait {
				time.Sleep(q.retryDelay)
			} else {
				time.Sleep(time.Duration(attempt+1) * q.retryDelay)
			}
		}
	}
	return Result{Err: lastErr}
}

func (q *Queue) Close() {
	close(q.tasks)
}

func (q *Queue) DB() *sql.DB {
	return q.db
}
