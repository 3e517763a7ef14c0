package models

// JobInvocation is a single request to start a Glue job run
type JobInvocation struct {
	JobName   string            `json:"job_name"`
	Arguments map[string]string `json:"arguments"` // Unprefixed argument names
}

// Event is the payload accepted by the glue-trigger lambda
type Event struct {
	JobArgs map[string]any `json:"job_args"`
}
