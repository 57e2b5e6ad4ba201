// Package errors provides structured error types for better observability
// and programmatic error handling across the operator.
//
// Two codes matter to the unit's lifecycle: ErrCodeUnsupportedHost is
// returned before any host mutation when the OS is not covered by the vendor
// procedure, and ErrCodeInstallationFailure wraps failed package manager,
// download and subprocess steps. Both end up as a blocked unit status.
//
// Example usage:
//
//	err := errors.WrapWithContext(
//	    errors.ErrCodeInstallationFailure,
//	    "failed to install driver package",
//	    cause,
//	    map[string]any{
//	        "package": "cuda-drivers",
//	        "distro":  "ubuntu2204",
//	    },
//	)
//
//	if errors.IsCode(err, errors.ErrCodeUnsupportedHost) {
//	    // do not defer, re-running cannot succeed
//	}
package errors
