package model

// Task is a single to-do item. Every task has exactly one owner; the owner is
// never serialized because a client only ever sees its own tasks.
type Task struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Completed  bool   `json:"completed"`
	OwnerEmail string `json:"-"`
}
