// Package task manages background job queuing, processing, and lifecycle.
// It runs long operations such as AI content-generation jobs outside the
// HTTP request that started them, persists their status and result, and
// recovers unfinished jobs after a restart.
package task
