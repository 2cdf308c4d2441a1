// Package errors provides structured error types for better observability
// and programmatic error handling across the application.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeExecutionFailed,
//	    "failed to collect network details",
//	    runErr,
//	    map[string]interface{}{
//	        "command": "openstack network show",
//	        "id": networkID,
//	    },
//	)
package errors
