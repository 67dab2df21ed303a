package errors

import "fmt"

var (
	ErrMessageNotFound  = fmt.Errorf("message not found")
	ErrJobsiteNotFound  = fmt.Errorf("jobsite not found")
	ErrCommandNotFound  = fmt.Errorf("command not found")
	ErrRequestTimeout   = fmt.Errorf("request timed out")
	ErrConnectionClosed = fmt.Errorf("connection closed")
	ErrWorkerPanic      = fmt.Errorf("worker panic")
)
