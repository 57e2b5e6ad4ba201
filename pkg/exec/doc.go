// Package exec runs host commands for the operator.
//
// HostRunner is built on k8s.io/utils/exec so the executor can be swapped
// for k8s.io/utils/exec/testing fakes. Packages that only need to issue
// commands depend on the narrow Runner interface; FakeRunner records calls
// for their tests.
//
//	r := exec.NewHostRunner(exec.WithEnv("DEBIAN_FRONTEND=noninteractive"))
//	out, err := r.Run(ctx, "dpkg-query", "-W", "-f=${Status}", "cuda-keyring")
//	if exec.ExitCodeOf(err) == 1 {
//	    // not installed
//	}
package exec
